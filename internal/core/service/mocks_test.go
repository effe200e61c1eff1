package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/fridgeflow/grocery/internal/core/domain"
)

// Hand-rolled port doubles shared by the service tests.

type mockLedgerRepo struct {
	mu         sync.Mutex
	ledgers    map[string]domain.Ledger
	replaceErr error
}

func newMockLedgerRepo() *mockLedgerRepo {
	return &mockLedgerRepo{ledgers: make(map[string]domain.Ledger)}
}

func (m *mockLedgerRepo) ListByUser(ctx context.Context, userID string) (domain.Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ledger := make(domain.Ledger, len(m.ledgers[userID]))
	copy(ledger, m.ledgers[userID])
	return ledger, nil
}

func (m *mockLedgerRepo) ReplaceForUser(ctx context.Context, userID string, entries domain.Ledger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	stored := make(domain.Ledger, len(entries))
	copy(stored, entries)
	m.ledgers[userID] = stored
	return nil
}

type mockStoreRepo struct {
	stores map[string]domain.Store
}

func newMockStoreRepo(stores ...domain.Store) *mockStoreRepo {
	m := &mockStoreRepo{stores: make(map[string]domain.Store)}
	for _, s := range stores {
		m.stores[s.ID] = s
	}
	return m
}

func (m *mockStoreRepo) GetStore(ctx context.Context, storeID string) (*domain.Store, error) {
	store, ok := m.stores[storeID]
	if !ok {
		return nil, fmt.Errorf("%w: store %s", domain.ErrNotFound, storeID)
	}
	return &store, nil
}

type mockOrderRepo struct {
	mu        sync.Mutex
	orders    map[string]domain.Order
	updateErr error
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]domain.Order)}
}

func (m *mockOrderRepo) CreateOrder(ctx context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepo) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return &order, nil
}

func (m *mockOrderRepo) UpdateOrder(ctx context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	stored, ok := m.orders[order.ID]
	if !ok {
		return fmt.Errorf("%w: order %s", domain.ErrNotFound, order.ID)
	}
	if stored.Version != order.Version {
		return fmt.Errorf("%w: order %s was modified concurrently", domain.ErrConflict, order.ID)
	}
	order.Version++
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepo) ListOrders(ctx context.Context, userID string, statuses []domain.OrderStatus) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, order := range m.orders {
		if order.UserID != userID {
			continue
		}
		if len(statuses) > 0 {
			match := false
			for _, s := range statuses {
				if order.Status == s {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, order)
	}
	return out, nil
}

type mockInventoryRepo struct {
	mu    sync.Mutex
	items map[string]domain.InventoryItem
}

func newMockInventoryRepo(items ...domain.InventoryItem) *mockInventoryRepo {
	m := &mockInventoryRepo{items: make(map[string]domain.InventoryItem)}
	for _, item := range items {
		m.items[item.ID] = item
	}
	return m
}

func (m *mockInventoryRepo) ListByDevice(ctx context.Context, deviceID string) ([]domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.InventoryItem
	for _, item := range m.items {
		if item.DeviceID == deviceID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockInventoryRepo) ListAlertsByUser(ctx context.Context, userID string) ([]domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.InventoryItem
	for _, item := range m.items {
		if item.Status.NeedsReorder() {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockInventoryRepo) GetItem(ctx context.Context, itemID string) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: inventory item %s", domain.ErrNotFound, itemID)
	}
	return &item, nil
}

func (m *mockInventoryRepo) SaveItem(ctx context.Context, item domain.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
	return nil
}

type mockGateway struct {
	mu          sync.Mutex
	prices      map[string]domain.ProductPrice
	fetchErr    error
	submitErr   error
	cancelErr   error
	statusValue string
	statusErr   error
	submitCalls int
	cancelCalls int
	nextExtID   string
}

func newMockGateway(prices map[string]domain.ProductPrice) *mockGateway {
	return &mockGateway{prices: prices, nextExtID: "EXT-1", statusValue: "CONFIRMED"}
}

func (m *mockGateway) FetchPrices(ctx context.Context, storeID string, skus []string) (map[string]domain.ProductPrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	out := make(map[string]domain.ProductPrice)
	for _, sku := range skus {
		if quote, ok := m.prices[sku]; ok {
			out[sku] = quote
		}
	}
	return out, nil
}

func (m *mockGateway) IsAvailable(ctx context.Context, storeID string) bool {
	return m.fetchErr == nil
}

func (m *mockGateway) SubmitOrder(ctx context.Context, order domain.Order) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitErr != nil {
		return "", m.submitErr
	}
	m.submitCalls++
	return m.nextExtID, nil
}

func (m *mockGateway) CheckOrderStatus(ctx context.Context, storeID, externalOrderID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statusErr != nil {
		return "", m.statusErr
	}
	return m.statusValue, nil
}

func (m *mockGateway) CancelOrder(ctx context.Context, storeID, externalOrderID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancelErr != nil {
		return m.cancelErr
	}
	m.cancelCalls++
	return nil
}

type mockCache struct {
	mu     sync.Mutex
	locks  map[string]bool
	prices map[string]domain.ProductPrice
}

func newMockCache() *mockCache {
	return &mockCache{locks: make(map[string]bool), prices: make(map[string]domain.ProductPrice)}
}

func (m *mockCache) AcquireSubmitLock(ctx context.Context, orderID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[orderID] {
		return false, nil
	}
	m.locks[orderID] = true
	return true, nil
}

func (m *mockCache) ReleaseSubmitLock(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, orderID)
	return nil
}

func (m *mockCache) CachePrices(ctx context.Context, storeID string, prices map[string]domain.ProductPrice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sku, quote := range prices {
		m.prices[storeID+":"+sku] = quote
	}
	return nil
}

func (m *mockCache) CachedPrices(ctx context.Context, storeID string, skus []string) (map[string]domain.ProductPrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]domain.ProductPrice)
	for _, sku := range skus {
		if quote, ok := m.prices[storeID+":"+sku]; ok {
			out[sku] = quote
		}
	}
	return out, nil
}
