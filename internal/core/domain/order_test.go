package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftOrder() Order {
	order := Order{
		ID:          "order-1",
		UserID:      "user-1",
		StoreID:     "store-1",
		Status:      OrderStatusDraft,
		DeliveryFee: decimal.NewFromFloat(5.99),
		Items: []OrderItem{
			{
				ID: "item-milk", SKU: "MILK", Quantity: 2,
				Price:            decimal.NewFromFloat(4.99),
				PriceAtCreation:  decimal.NewFromFloat(4.99),
				CurrentPrice:     decimal.NewFromFloat(4.99),
				OriginalQuantity: 2,
			},
			{
				ID: "item-eggs", SKU: "EGGS", Quantity: 1,
				Price:            decimal.NewFromFloat(3.50),
				PriceAtCreation:  decimal.NewFromFloat(3.50),
				CurrentPrice:     decimal.NewFromFloat(3.50),
				OriginalQuantity: 1,
			},
		},
	}
	order.RecalculateTotals()
	order.EstimatedTotal = decimal.NewNullDecimal(order.TotalAmount)
	return order
}

func TestOrderStatus_Predicates(t *testing.T) {
	assert.True(t, OrderStatusDraft.IsModifiable())
	assert.True(t, OrderStatusUserModified.IsModifiable())
	for _, s := range []OrderStatus{OrderStatusSubmitted, OrderStatusConfirmed, OrderStatusInProgress,
		OrderStatusOutForDelivery, OrderStatusDelivered, OrderStatusCancelled, OrderStatusFailed} {
		assert.False(t, s.IsModifiable(), "%s should not be modifiable", s)
	}

	for _, s := range []OrderStatus{OrderStatusDelivered, OrderStatusCancelled, OrderStatusFailed} {
		assert.True(t, s.IsFinal(), "%s should be final", s)
	}
	assert.False(t, OrderStatusOutForDelivery.IsFinal())
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, OrderStatusDraft.CanTransitionTo(OrderStatusUserModified))
	assert.True(t, OrderStatusDraft.CanTransitionTo(OrderStatusSubmitted))
	assert.True(t, OrderStatusSubmitted.CanTransitionTo(OrderStatusConfirmed))
	// A store may skip stages forward.
	assert.True(t, OrderStatusSubmitted.CanTransitionTo(OrderStatusOutForDelivery))
	assert.True(t, OrderStatusInProgress.CanTransitionTo(OrderStatusDelivered))

	// Never backwards.
	assert.False(t, OrderStatusConfirmed.CanTransitionTo(OrderStatusSubmitted))
	assert.False(t, OrderStatusOutForDelivery.CanTransitionTo(OrderStatusInProgress))
	assert.False(t, OrderStatusSubmitted.CanTransitionTo(OrderStatusDraft))

	// Cancellation and failure are reachable from any non-terminal state.
	assert.True(t, OrderStatusDraft.CanTransitionTo(OrderStatusCancelled))
	assert.True(t, OrderStatusOutForDelivery.CanTransitionTo(OrderStatusFailed))

	// Nothing leaves a terminal state.
	assert.False(t, OrderStatusDelivered.CanTransitionTo(OrderStatusCancelled))
	assert.False(t, OrderStatusCancelled.CanTransitionTo(OrderStatusSubmitted))
}

func TestOrder_RecalculateTotals(t *testing.T) {
	order := draftOrder()

	// 2*4.99 + 1*3.50 = 13.48; tax = 1.08; total = 13.48 + 5.99 + 1.08
	assert.True(t, order.Subtotal.Equal(decimal.NewFromFloat(13.48)), "subtotal %s", order.Subtotal)
	assert.True(t, order.Tax.Equal(decimal.NewFromFloat(1.08)), "tax %s", order.Tax)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromFloat(20.55)), "total %s", order.TotalAmount)
}

func TestOrder_SetItemQuantity(t *testing.T) {
	order := draftOrder()

	require.NoError(t, order.SetItemQuantity("item-milk", 3))
	assert.Equal(t, OrderStatusUserModified, order.Status)

	milk := order.Items[0]
	assert.True(t, milk.QuantityModified)
	assert.Equal(t, float64(2), milk.OriginalQuantity)
	assert.True(t, milk.Subtotal.Equal(decimal.NewFromFloat(14.97)))

	// Setting it back to the suggestion clears the flag.
	require.NoError(t, order.SetItemQuantity("item-milk", 2))
	assert.False(t, order.Items[0].QuantityModified)

	require.ErrorIs(t, order.SetItemQuantity("item-milk", 0), ErrInvalidArgument)
	require.ErrorIs(t, order.SetItemQuantity("nope", 1), ErrNotFound)
}

func TestOrder_RemoveItems(t *testing.T) {
	order := draftOrder()

	require.NoError(t, order.RemoveItems([]string{"item-eggs"}))
	assert.True(t, order.Items[1].UserRemoved)
	assert.True(t, order.Subtotal.Equal(decimal.NewFromFloat(9.98)))

	// All-or-nothing: one unknown id leaves everything untouched.
	err := order.RemoveItems([]string{"item-milk", "nope"})
	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, order.Items[0].UserRemoved)
}

func TestOrder_AddItem(t *testing.T) {
	order := draftOrder()

	err := order.AddItem(OrderItem{ID: "item-bread", SKU: "BREAD", Quantity: 1, Price: decimal.NewFromFloat(2.49)})
	require.NoError(t, err)
	assert.Equal(t, OrderStatusUserModified, order.Status)

	bread := order.Items[2]
	assert.True(t, bread.PriceAtCreation.Equal(decimal.NewFromFloat(2.49)))
	assert.True(t, bread.CurrentPrice.Equal(decimal.NewFromFloat(2.49)))
	assert.Equal(t, float64(1), bread.OriginalQuantity)

	// Same SKU again bumps the quantity instead of duplicating the line.
	require.NoError(t, order.AddItem(OrderItem{ID: "x", SKU: "BREAD", Quantity: 2, Price: decimal.NewFromFloat(2.49)}))
	assert.Len(t, order.Items, 3)
	assert.Equal(t, float64(3), order.Items[2].Quantity)
	assert.True(t, order.Items[2].QuantityModified)

	// Adding a user-removed SKU restores the line.
	require.NoError(t, order.RemoveItems([]string{"item-eggs"}))
	require.NoError(t, order.AddItem(OrderItem{ID: "y", SKU: "EGGS", Quantity: 2, Price: decimal.NewFromFloat(3.50)}))
	assert.False(t, order.Items[1].UserRemoved)
	assert.Equal(t, float64(2), order.Items[1].Quantity)
}

func TestOrder_MutationsRejectedWhenNotModifiable(t *testing.T) {
	order := draftOrder()
	order.Status = OrderStatusSubmitted

	require.ErrorIs(t, order.AddItem(OrderItem{SKU: "X", Quantity: 1}), ErrConflict)
	require.ErrorIs(t, order.RemoveItems([]string{"item-milk"}), ErrConflict)
	require.ErrorIs(t, order.SetItemQuantity("item-milk", 5), ErrConflict)
	require.ErrorIs(t, order.MarkSubmitted("EXT-1", time.Now()), ErrConflict)
}

func TestOrder_ApplyPrices(t *testing.T) {
	order := draftOrder()

	changed := order.ApplyPrices(map[string]ProductPrice{
		"MILK": {SKU: "MILK", RegularPrice: decimal.NewFromFloat(5.29), InStock: true},
		"EGGS": {SKU: "EGGS", RegularPrice: decimal.NewFromFloat(3.50), InStock: true},
	})

	assert.Equal(t, []string{"MILK"}, changed)

	milk := order.Items[0]
	assert.True(t, milk.CurrentPrice.Equal(decimal.NewFromFloat(5.29)))
	assert.True(t, milk.PriceChanged)
	// The creation snapshot is the anchor and never moves.
	assert.True(t, milk.PriceAtCreation.Equal(decimal.NewFromFloat(4.99)))
	// Totals now charge the refreshed price.
	assert.True(t, milk.Subtotal.Equal(decimal.NewFromFloat(10.58)))

	eggs := order.Items[1]
	assert.False(t, eggs.PriceChanged)
}

func TestOrder_ApplyPrices_UsesSalePrice(t *testing.T) {
	order := draftOrder()

	order.ApplyPrices(map[string]ProductPrice{
		"MILK": {SKU: "MILK", RegularPrice: decimal.NewFromFloat(4.99), SalePrice: decimal.NewFromFloat(3.99), OnSale: true, InStock: true},
		"EGGS": {SKU: "EGGS", RegularPrice: decimal.NewFromFloat(3.50), InStock: true},
	})

	assert.True(t, order.Items[0].CurrentPrice.Equal(decimal.NewFromFloat(3.99)))
	assert.True(t, order.Items[0].PriceChanged)
}

func TestOrder_ApplyPrices_DelistedItemKeptButExcluded(t *testing.T) {
	order := draftOrder()

	order.ApplyPrices(map[string]ProductPrice{
		"MILK": {SKU: "MILK", RegularPrice: decimal.NewFromFloat(4.99), InStock: true},
		// EGGS no longer returned by the store.
	})

	eggs := order.Items[1]
	assert.True(t, eggs.SystemRemoved)
	assert.Len(t, order.Items, 2, "delisted item stays visible")
	assert.True(t, order.Subtotal.Equal(decimal.NewFromFloat(9.98)), "delisted item excluded from totals")
}

func TestOrder_MarkSubmitted(t *testing.T) {
	order := draftOrder()
	now := time.Now()

	require.NoError(t, order.MarkSubmitted("EXT-42", now))
	assert.Equal(t, OrderStatusSubmitted, order.Status)
	assert.Equal(t, "EXT-42", order.ExternalOrderID)
	assert.Equal(t, now, order.SubmittedAt)
	require.True(t, order.FinalTotal.Valid)
	assert.True(t, order.FinalTotal.Decimal.Equal(order.TotalAmount))
}

func TestOrder_Cancel(t *testing.T) {
	order := draftOrder()
	require.NoError(t, order.Cancel("changed my mind"))
	assert.Equal(t, OrderStatusCancelled, order.Status)
	assert.Equal(t, "changed my mind", order.CancelReason)

	require.ErrorIs(t, order.Cancel("again"), ErrConflict)
}

func TestOrder_AdoptExternalStatus(t *testing.T) {
	order := draftOrder()
	order.Status = OrderStatusSubmitted

	changed, err := order.AdoptExternalStatus("CONFIRMED")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, OrderStatusConfirmed, order.Status)

	// Same status again is a quiet no-op.
	changed, err = order.AdoptExternalStatus("confirmed")
	require.NoError(t, err)
	assert.False(t, changed)

	// Unknown statuses fail closed.
	_, err = order.AdoptExternalStatus("TELEPORTED")
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, OrderStatusConfirmed, order.Status)

	// Backward transitions are rejected.
	order.Status = OrderStatusOutForDelivery
	_, err = order.AdoptExternalStatus("IN_PROGRESS")
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, OrderStatusOutForDelivery, order.Status)
}

func TestOrder_SnapshotsSurviveRecalculation(t *testing.T) {
	order := draftOrder()
	estimated := order.EstimatedTotal.Decimal

	require.NoError(t, order.SetItemQuantity("item-milk", 10))
	assert.True(t, order.EstimatedTotal.Decimal.Equal(estimated),
		"estimated total is a creation-time snapshot")
	assert.False(t, order.TotalAmount.Equal(estimated))
}
