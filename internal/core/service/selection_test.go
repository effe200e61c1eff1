package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fridgeflow/grocery/internal/core/domain"
)

func TestPriorityStrategy_SelectStore(t *testing.T) {
	ledgers := newMockLedgerRepo()
	ledgers.ledgers["user-1"] = domain.Ledger{
		{UserID: "user-1", StoreID: "store-a", Priority: 1, Active: true},
		{UserID: "user-1", StoreID: "store-b", Priority: 2, Active: true},
	}
	stores := newMockStoreRepo(
		domain.Store{ID: "store-a", Name: "FreshMart", Active: true},
		domain.Store{ID: "store-b", Name: "GreenGrocer", Active: true},
	)
	strategy := NewPriorityStrategy(ledgers, stores)

	store, err := strategy.SelectStore(context.Background(), "user-1", nil)
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, "store-a", store.ID)

	// A paused primary falls back to the next active rank.
	ledgers.ledgers["user-1"][0].Active = false
	store, err = strategy.SelectStore(context.Background(), "user-1", nil)
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, "store-b", store.ID)
}

func TestPriorityStrategy_SelectStore_NoStoresConfigured(t *testing.T) {
	strategy := NewPriorityStrategy(newMockLedgerRepo(), newMockStoreRepo())

	store, err := strategy.SelectStore(context.Background(), "user-1", nil)
	require.NoError(t, err)
	assert.Nil(t, store)
}

func TestPriorityStrategy_SelectStoresForItems(t *testing.T) {
	ledgers := newMockLedgerRepo()
	ledgers.ledgers["user-1"] = domain.Ledger{
		{UserID: "user-1", StoreID: "store-a", Priority: 1, Active: true},
	}
	stores := newMockStoreRepo(domain.Store{ID: "store-a", Name: "FreshMart", Active: true})
	strategy := NewPriorityStrategy(ledgers, stores)

	items := []domain.InventoryItem{{SKU: "MILK"}, {SKU: "EGGS"}}
	assignments, err := strategy.SelectStoresForItems(context.Background(), "user-1", items)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "store-a", assignments[0].Store.ID)
	assert.Len(t, assignments[0].Items, 2)

	assignments, err = strategy.SelectStoresForItems(context.Background(), "user-2", items)
	require.NoError(t, err)
	assert.Empty(t, assignments)
}

func TestRestockToThreshold_Suggest(t *testing.T) {
	est := RestockToThreshold{MinOrderUnit: 1}

	// Empty shelf with threshold 3 needs 3.
	assert.Equal(t, float64(3), est.Suggest(domain.InventoryItem{Quantity: 0, Threshold: 3}))
	// Half a unit short still buys a whole order unit.
	assert.Equal(t, float64(1), est.Suggest(domain.InventoryItem{Quantity: 1.5, Threshold: 2}))
	// A zero min falls back to one unit.
	assert.Equal(t, float64(1), RestockToThreshold{}.Suggest(domain.InventoryItem{Quantity: 2, Threshold: 2}))
}

func TestPriceRefresher_Refresh(t *testing.T) {
	gateway := newMockGateway(map[string]domain.ProductPrice{
		"MILK": {SKU: "MILK", RegularPrice: decimal.NewFromFloat(5.29), InStock: true},
	})
	refresher := NewPriceRefresher(gateway, newMockCache(), time.Second)

	order := domain.Order{
		ID:     "order-1",
		Status: domain.OrderStatusDraft,
		Items: []domain.OrderItem{{
			ID: "item-1", SKU: "MILK", Quantity: 1,
			Price:           decimal.NewFromFloat(4.99),
			PriceAtCreation: decimal.NewFromFloat(4.99),
			CurrentPrice:    decimal.NewFromFloat(4.99),
		}},
	}
	order.RecalculateTotals()

	changed, err := refresher.Refresh(context.Background(), &order)
	require.NoError(t, err)
	assert.Equal(t, []string{"MILK"}, changed)
	assert.True(t, order.Items[0].CurrentPrice.Equal(decimal.NewFromFloat(5.29)))
}

func TestPriceRefresher_Refresh_FinalOrder(t *testing.T) {
	refresher := NewPriceRefresher(newMockGateway(nil), newMockCache(), time.Second)

	order := domain.Order{ID: "order-1", Status: domain.OrderStatusDelivered}
	_, err := refresher.Refresh(context.Background(), &order)
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestPriceRefresher_Refresh_NoIncludedItems(t *testing.T) {
	gateway := newMockGateway(nil)
	gateway.fetchErr = errors.New("should not be called")
	refresher := NewPriceRefresher(gateway, newMockCache(), time.Second)

	order := domain.Order{
		ID:     "order-1",
		Status: domain.OrderStatusDraft,
		Items:  []domain.OrderItem{{ID: "item-1", SKU: "MILK", Quantity: 1, UserRemoved: true}},
	}

	changed, err := refresher.Refresh(context.Background(), &order)
	require.NoError(t, err)
	assert.Empty(t, changed)
}
