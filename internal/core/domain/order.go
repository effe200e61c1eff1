package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusDraft          OrderStatus = "DRAFT"
	OrderStatusUserModified   OrderStatus = "USER_MODIFIED"
	OrderStatusSubmitted      OrderStatus = "SUBMITTED"
	OrderStatusConfirmed      OrderStatus = "CONFIRMED"
	OrderStatusInProgress     OrderStatus = "IN_PROGRESS"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
	OrderStatusFailed         OrderStatus = "FAILED"
)

// IsModifiable reports whether the user can still edit items.
func (s OrderStatus) IsModifiable() bool {
	return s == OrderStatusDraft || s == OrderStatusUserModified
}

// IsFinal reports whether no further transition is possible.
func (s OrderStatus) IsFinal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled || s == OrderStatusFailed
}

// fulfillmentRank orders the post-submission pipeline; a store may skip
// stages but never move backwards.
var fulfillmentRank = map[OrderStatus]int{
	OrderStatusSubmitted:      1,
	OrderStatusConfirmed:      2,
	OrderStatusInProgress:     3,
	OrderStatusOutForDelivery: 4,
	OrderStatusDelivered:      5,
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsFinal() {
		return false
	}
	if next == OrderStatusCancelled || next == OrderStatusFailed {
		return true
	}
	switch s {
	case OrderStatusDraft:
		return next == OrderStatusUserModified || next == OrderStatusSubmitted
	case OrderStatusUserModified:
		return next == OrderStatusSubmitted
	}
	from, ok := fulfillmentRank[s]
	to, ok2 := fulfillmentRank[next]
	return ok && ok2 && to > from
}

// StatusFromExternal maps a store API status string onto the local enum.
// Unknown values are rejected rather than adopted.
func StatusFromExternal(raw string) (OrderStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "CONFIRMED":
		return OrderStatusConfirmed, nil
	case "IN_PROGRESS":
		return OrderStatusInProgress, nil
	case "OUT_FOR_DELIVERY":
		return OrderStatusOutForDelivery, nil
	case "DELIVERED":
		return OrderStatusDelivered, nil
	case "CANCELLED":
		return OrderStatusCancelled, nil
	case "FAILED":
		return OrderStatusFailed, nil
	default:
		return "", fmt.Errorf("%w: unknown external status %q", ErrInvalidArgument, raw)
	}
}

// OrderItem is one line of an order. PriceAtCreation is the snapshot taken
// when the draft was built and is never overwritten; CurrentPrice tracks the
// latest quote from the store.
type OrderItem struct {
	ID               string
	SKU              string
	Name             string
	Unit             string
	Quantity         float64
	Price            decimal.Decimal
	Subtotal         decimal.Decimal
	PriceAtCreation  decimal.Decimal
	CurrentPrice     decimal.Decimal
	PriceChanged     bool
	OriginalQuantity float64
	QuantityModified bool
	UserRemoved      bool
	SystemRemoved    bool
	Notes            string
}

// Excluded reports whether the line is left out of totals.
func (it OrderItem) Excluded() bool {
	return it.UserRemoved || it.SystemRemoved
}

func (it *OrderItem) recalcSubtotal() {
	it.Subtotal = it.Price.Mul(decimal.NewFromFloat(it.Quantity)).Round(2)
}

var taxRate = decimal.NewFromFloat(0.08)

// Order is the aggregate root over its items. Subtotal, Tax and TotalAmount
// are always recomputed from the current items; EstimatedTotal and FinalTotal
// are point-in-time snapshots.
type Order struct {
	ID              string
	Number          string
	UserID          string
	StoreID         string
	Items           []OrderItem
	Status          OrderStatus
	Subtotal        decimal.Decimal
	DeliveryFee     decimal.Decimal
	Tax             decimal.Decimal
	TotalAmount     decimal.Decimal
	EstimatedTotal  decimal.NullDecimal
	FinalTotal      decimal.NullDecimal
	ExternalOrderID string
	CancelReason    string
	DraftCreatedAt  time.Time
	SubmittedAt     time.Time
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RecalculateTotals derives subtotal, tax and total from the non-excluded
// items. Snapshot fields are left alone.
func (o *Order) RecalculateTotals() {
	sub := decimal.Zero
	for i := range o.Items {
		if o.Items[i].Excluded() {
			continue
		}
		o.Items[i].recalcSubtotal()
		sub = sub.Add(o.Items[i].Subtotal)
	}
	o.Subtotal = sub
	o.Tax = sub.Mul(taxRate).Round(2)
	o.TotalAmount = sub.Add(o.DeliveryFee).Add(o.Tax)
}

func (o *Order) markUserModified() {
	if o.Status == OrderStatusDraft {
		o.Status = OrderStatusUserModified
	}
}

func (o *Order) requireModifiable() error {
	if !o.Status.IsModifiable() {
		return fmt.Errorf("%w: order %s is %s and cannot be modified", ErrConflict, o.ID, o.Status)
	}
	return nil
}

func (o *Order) itemIndex(itemID string) int {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// AddItem appends a line, or restores/bumps an existing line with the same
// SKU. The given price seeds all three price fields.
func (o *Order) AddItem(item OrderItem) error {
	if err := o.requireModifiable(); err != nil {
		return err
	}
	if item.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}

	for i := range o.Items {
		if o.Items[i].SKU != item.SKU {
			continue
		}
		existing := &o.Items[i]
		if existing.UserRemoved {
			existing.UserRemoved = false
			existing.Quantity = item.Quantity
		} else {
			existing.Quantity += item.Quantity
		}
		existing.QuantityModified = existing.Quantity != existing.OriginalQuantity
		existing.recalcSubtotal()
		o.markUserModified()
		o.RecalculateTotals()
		return nil
	}

	item.OriginalQuantity = item.Quantity
	item.PriceAtCreation = item.Price
	item.CurrentPrice = item.Price
	item.recalcSubtotal()
	o.Items = append(o.Items, item)
	o.markUserModified()
	o.RecalculateTotals()
	return nil
}

// RemoveItems flags the given lines as removed by the user. All ids must
// exist or nothing changes.
func (o *Order) RemoveItems(itemIDs []string) error {
	if err := o.requireModifiable(); err != nil {
		return err
	}
	idxs := make([]int, 0, len(itemIDs))
	for _, id := range itemIDs {
		idx := o.itemIndex(id)
		if idx < 0 {
			return fmt.Errorf("%w: order item %s", ErrNotFound, id)
		}
		idxs = append(idxs, idx)
	}
	for _, idx := range idxs {
		o.Items[idx].UserRemoved = true
	}
	o.markUserModified()
	o.RecalculateTotals()
	return nil
}

// SetItemQuantity changes one line's quantity and records whether it now
// differs from the system's original suggestion.
func (o *Order) SetItemQuantity(itemID string, quantity float64) error {
	if err := o.requireModifiable(); err != nil {
		return err
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}
	idx := o.itemIndex(itemID)
	if idx < 0 {
		return fmt.Errorf("%w: order item %s", ErrNotFound, itemID)
	}
	it := &o.Items[idx]
	it.Quantity = quantity
	it.QuantityModified = quantity != it.OriginalQuantity
	it.recalcSubtotal()
	o.markUserModified()
	o.RecalculateTotals()
	return nil
}

// ActiveSKUs lists the SKUs still included in the order.
func (o *Order) ActiveSKUs() []string {
	skus := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		if !it.Excluded() {
			skus = append(skus, it.SKU)
		}
	}
	return skus
}

// ApplyPrices reconciles fetched quotes against the draft. For each included
// line: CurrentPrice follows the quote, PriceChanged compares against the
// creation snapshot, and the charging price moves to the quote so totals
// reflect what the store charges now. Lines whose SKU is missing from the
// quote or out of stock are marked SystemRemoved but stay visible. Returns
// the SKUs whose price changed in this pass.
func (o *Order) ApplyPrices(prices map[string]ProductPrice) []string {
	var changed []string
	for i := range o.Items {
		it := &o.Items[i]
		if it.UserRemoved {
			continue
		}
		quote, ok := prices[it.SKU]
		if !ok || !quote.InStock {
			it.SystemRemoved = true
			continue
		}
		it.SystemRemoved = false
		eff := quote.EffectivePrice()
		if !eff.Equal(it.CurrentPrice) {
			changed = append(changed, it.SKU)
		}
		it.CurrentPrice = eff
		it.PriceChanged = !it.CurrentPrice.Equal(it.PriceAtCreation)
		it.Price = it.CurrentPrice
	}
	o.RecalculateTotals()
	return changed
}

// MarkSubmitted snapshots the final total and advances to SUBMITTED.
func (o *Order) MarkSubmitted(externalOrderID string, at time.Time) error {
	if err := o.requireModifiable(); err != nil {
		return err
	}
	o.FinalTotal = decimal.NewNullDecimal(o.TotalAmount)
	o.ExternalOrderID = externalOrderID
	o.SubmittedAt = at
	o.Status = OrderStatusSubmitted
	return nil
}

// Cancel moves the order to CANCELLED with a reason. Cancellation is a
// status, not a deletion.
func (o *Order) Cancel(reason string) error {
	if o.Status.IsFinal() {
		return fmt.Errorf("%w: order %s is already %s", ErrConflict, o.ID, o.Status)
	}
	o.Status = OrderStatusCancelled
	o.CancelReason = reason
	return nil
}

// AdoptExternalStatus applies a store-reported status, failing closed on
// unknown values and on transitions the state machine forbids. Reporting the
// current status again is a no-op.
func (o *Order) AdoptExternalStatus(raw string) (bool, error) {
	next, err := StatusFromExternal(raw)
	if err != nil {
		return false, err
	}
	if next == o.Status {
		return false, nil
	}
	if !o.Status.CanTransitionTo(next) {
		return false, fmt.Errorf("%w: illegal transition %s -> %s", ErrConflict, o.Status, next)
	}
	o.Status = next
	return true, nil
}
