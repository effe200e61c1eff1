package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fridgeflow/grocery/internal/core/domain"
	"github.com/fridgeflow/grocery/internal/port"
)

// OrderService drives the order lifecycle from low-inventory trigger to
// delivery. All mutations are load-modify-save against a versioned order row,
// so concurrent edits surface as domain.ErrConflict instead of racing the
// state machine.
type OrderService struct {
	orders    port.OrderRepository
	selection SelectionStrategy
	estimator QuantityEstimator
	refresher *PriceRefresher
	gateway   port.StoreGateway
	cache     port.CacheRepository
	timeout   time.Duration
	events    chan domain.Event
}

func NewOrderService(
	orders port.OrderRepository,
	selection SelectionStrategy,
	estimator QuantityEstimator,
	refresher *PriceRefresher,
	gateway port.StoreGateway,
	cache port.CacheRepository,
	timeout time.Duration,
	queueSize int,
) *OrderService {
	return &OrderService{
		orders:    orders,
		selection: selection,
		estimator: estimator,
		refresher: refresher,
		gateway:   gateway,
		cache:     cache,
		timeout:   timeout,
		events:    make(chan domain.Event, queueSize),
	}
}

// Events exposes the outbound notification queue for the worker pool.
func (s *OrderService) Events() <-chan domain.Event {
	return s.events
}

func (s *OrderService) Close() {
	close(s.events)
}

// emit is fire-and-forget: a full queue drops the event rather than blocking
// an order operation.
func (s *OrderService) emit(event domain.Event) {
	select {
	case s.events <- event:
	default:
		log.Printf("event queue full, dropped %s for order %s", event.Type, event.OrderID)
	}
}

// CreateDraft turns a user's low-inventory items into a draft order against
// their primary store, with suggested quantities and snapshot prices.
func (s *OrderService) CreateDraft(ctx context.Context, userID string, lowItems []domain.InventoryItem) (*domain.Order, error) {
	needed := make([]domain.InventoryItem, 0, len(lowItems))
	for _, item := range lowItems {
		if item.Status.NeedsReorder() {
			needed = append(needed, item)
		}
	}
	if len(needed) == 0 {
		return nil, fmt.Errorf("%w: no items need reordering", domain.ErrInvalidArgument)
	}

	store, err := s.selection.SelectStore(ctx, userID, needed)
	if err != nil {
		return nil, fmt.Errorf("select store: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: no store configured for user %s", domain.ErrNotFound, userID)
	}

	skus := make([]string, 0, len(needed))
	for _, item := range needed {
		skus = append(skus, item.SKU)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	prices, err := s.gateway.FetchPrices(fetchCtx, store.ID, skus)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch prices from store %s: %v", domain.ErrUpstreamUnavailable, store.ID, err)
	}

	now := time.Now()
	items := make([]domain.OrderItem, 0, len(needed))
	for _, inv := range needed {
		quote, ok := prices[inv.SKU]
		if !ok || !quote.InStock {
			log.Printf("sku %s unavailable at store %s, left out of draft", inv.SKU, store.ID)
			continue
		}
		qty := s.estimator.Suggest(inv)
		price := quote.EffectivePrice()
		items = append(items, domain.OrderItem{
			ID:               uuid.NewString(),
			SKU:              inv.SKU,
			Name:             inv.Name,
			Unit:             inv.Unit,
			Quantity:         qty,
			Price:            price,
			PriceAtCreation:  price,
			CurrentPrice:     price,
			OriginalQuantity: qty,
		})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: store %s carries none of the needed items", domain.ErrNotFound, store.ID)
	}

	order := domain.Order{
		ID:             uuid.NewString(),
		Number:         "ORD-" + strings.ToUpper(uuid.NewString()[:8]),
		UserID:         userID,
		StoreID:        store.ID,
		Items:          items,
		Status:         domain.OrderStatusDraft,
		DeliveryFee:    store.DeliveryFee,
		DraftCreatedAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	order.RecalculateTotals()
	order.EstimatedTotal = decimal.NewNullDecimal(order.TotalAmount)

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}
	if err := s.cache.CachePrices(ctx, store.ID, prices); err != nil {
		log.Printf("failed to cache draft prices for store %s: %v", store.ID, err)
	}

	s.emit(domain.Event{
		Type:    domain.EventDraftCreated,
		UserID:  userID,
		OrderID: order.ID,
		Detail:  fmt.Sprintf("%d items, estimated total %s", len(items), order.TotalAmount),
		At:      now,
	})
	log.Printf("created draft order %s with %d items for user %s", order.Number, len(items), userID)
	return &order, nil
}

// AddItem puts one more SKU on a modifiable order at the store's current
// price.
func (s *OrderService) AddItem(ctx context.Context, orderID, sku, name, unit string, quantity float64) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.IsModifiable() {
		return nil, fmt.Errorf("%w: order %s is %s and cannot be modified", domain.ErrConflict, orderID, order.Status)
	}

	quote, err := s.quoteFor(ctx, order.StoreID, sku)
	if err != nil {
		return nil, err
	}

	item := domain.OrderItem{
		ID:       uuid.NewString(),
		SKU:      sku,
		Name:     name,
		Unit:     unit,
		Quantity: quantity,
		Price:    quote.EffectivePrice(),
	}
	if err := order.AddItem(item); err != nil {
		return nil, err
	}
	if err := s.orders.UpdateOrder(ctx, *order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	return order, nil
}

// quoteFor resolves a single SKU's price, preferring the cache over a
// gateway round trip.
func (s *OrderService) quoteFor(ctx context.Context, storeID, sku string) (domain.ProductPrice, error) {
	if cached, err := s.cache.CachedPrices(ctx, storeID, []string{sku}); err == nil {
		if quote, ok := cached[sku]; ok && quote.InStock {
			return quote, nil
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	prices, err := s.gateway.FetchPrices(fetchCtx, storeID, []string{sku})
	if err != nil {
		return domain.ProductPrice{}, fmt.Errorf("%w: fetch price for %s: %v", domain.ErrUpstreamUnavailable, sku, err)
	}
	quote, ok := prices[sku]
	if !ok || !quote.InStock {
		return domain.ProductPrice{}, fmt.Errorf("%w: sku %s is not available at store %s", domain.ErrNotFound, sku, storeID)
	}
	return quote, nil
}

// RemoveItems flags order lines as removed by the user.
func (s *OrderService) RemoveItems(ctx context.Context, orderID string, itemIDs []string) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.RemoveItems(itemIDs); err != nil {
		return nil, err
	}
	if err := s.orders.UpdateOrder(ctx, *order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	return order, nil
}

// UpdateItemQuantity changes one line's quantity.
func (s *OrderService) UpdateItemQuantity(ctx context.Context, orderID, itemID string, quantity float64) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.SetItemQuantity(itemID, quantity); err != nil {
		return nil, err
	}
	if err := s.orders.UpdateOrder(ctx, *order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	return order, nil
}

// RefreshPrices re-quotes every included line and flags drift against the
// draft-time snapshot. An unreachable store leaves the order untouched.
func (s *OrderService) RefreshPrices(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	changed, err := s.refresher.Refresh(ctx, order)
	if err != nil {
		return nil, err
	}
	if err := s.orders.UpdateOrder(ctx, *order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	if len(changed) > 0 {
		s.emit(domain.Event{
			Type:    domain.EventPriceChanged,
			UserID:  order.UserID,
			OrderID: order.ID,
			Detail:  strings.Join(changed, ","),
			At:      time.Now(),
		})
	}
	return order, nil
}

// Submit sends a reviewed draft to the store. A per-order lock makes retries
// fail with ErrConflict instead of placing a second external order; a failed
// gateway call releases the lock and leaves the draft as it was.
func (s *OrderService) Submit(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.IsModifiable() {
		return nil, fmt.Errorf("%w: order %s is %s and cannot be submitted", domain.ErrConflict, orderID, order.Status)
	}

	ok, err := s.cache.AcquireSubmitLock(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("acquire submit lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: order %s is already being submitted", domain.ErrConflict, orderID)
	}

	submitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	externalID, err := s.gateway.SubmitOrder(submitCtx, *order)
	if err != nil {
		if releaseErr := s.cache.ReleaseSubmitLock(ctx, orderID); releaseErr != nil {
			log.Printf("failed to release submit lock for order %s: %v", orderID, releaseErr)
		}
		return nil, fmt.Errorf("%w: submit order %s: %v", domain.ErrUpstreamUnavailable, orderID, err)
	}

	now := time.Now()
	if err := order.MarkSubmitted(externalID, now); err != nil {
		return nil, err
	}
	if err := s.orders.UpdateOrder(ctx, *order); err != nil {
		// The store already accepted the order; keep the lock so a retry
		// cannot place a duplicate, and surface the failure.
		log.Printf("CRITICAL: order %s submitted externally as %s but local save failed: %v", orderID, externalID, err)
		return nil, fmt.Errorf("save submitted order: %w", err)
	}

	s.emit(domain.Event{
		Type:    domain.EventOrderSubmitted,
		UserID:  order.UserID,
		OrderID: order.ID,
		Detail:  externalID,
		At:      now,
	})
	log.Printf("submitted order %s to store %s as %s", order.Number, order.StoreID, externalID)
	return order, nil
}

// Cancel moves a non-terminal order to CANCELLED. If the store already has
// the order, it is told first; an unreachable store aborts the cancellation
// with no local change.
func (s *OrderService) Cancel(ctx context.Context, orderID, reason string) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.IsFinal() {
		return nil, fmt.Errorf("%w: order %s is already %s", domain.ErrConflict, orderID, order.Status)
	}

	if order.ExternalOrderID != "" {
		cancelCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		if err := s.gateway.CancelOrder(cancelCtx, order.StoreID, order.ExternalOrderID, reason); err != nil {
			return nil, fmt.Errorf("%w: cancel order %s at store: %v", domain.ErrUpstreamUnavailable, orderID, err)
		}
	}

	if err := order.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.orders.UpdateOrder(ctx, *order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}

	s.emit(domain.Event{
		Type:    domain.EventOrderCancelled,
		UserID:  order.UserID,
		OrderID: order.ID,
		Detail:  reason,
		At:      time.Now(),
	})
	log.Printf("cancelled order %s: %s", order.Number, reason)
	return order, nil
}

// SyncStatus polls the store for a submitted order's status and adopts it if
// the transition is legal. Unknown or backward statuses are rejected.
func (s *OrderService) SyncStatus(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.IsModifiable() {
		return nil, fmt.Errorf("%w: order %s has not been submitted", domain.ErrConflict, orderID)
	}
	if order.Status.IsFinal() {
		return order, nil
	}

	checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	raw, err := s.gateway.CheckOrderStatus(checkCtx, order.StoreID, order.ExternalOrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: check status of order %s: %v", domain.ErrUpstreamUnavailable, orderID, err)
	}

	changed, err := order.AdoptExternalStatus(raw)
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, nil
	}
	if err := s.orders.UpdateOrder(ctx, *order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}

	s.emit(domain.Event{
		Type:    domain.EventOrderStatusChanged,
		UserID:  order.UserID,
		OrderID: order.ID,
		Detail:  string(order.Status),
		At:      time.Now(),
	})
	return order, nil
}

// GetOrder returns one order with its items.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.GetOrder(ctx, orderID)
}

// ListDrafts returns the user's orders still awaiting review.
func (s *OrderService) ListDrafts(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.orders.ListOrders(ctx, userID, []domain.OrderStatus{
		domain.OrderStatusDraft,
		domain.OrderStatusUserModified,
	})
}

// ListHistory returns the user's orders, optionally filtered by status.
func (s *OrderService) ListHistory(ctx context.Context, userID string, statuses ...domain.OrderStatus) ([]domain.Order, error) {
	return s.orders.ListOrders(ctx, userID, statuses)
}
