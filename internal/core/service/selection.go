package service

import (
	"context"
	"fmt"
	"log"

	"github.com/fridgeflow/grocery/internal/core/domain"
	"github.com/fridgeflow/grocery/internal/port"
)

// StoreAssignment pairs a store with the items it should fulfill.
type StoreAssignment struct {
	Store domain.Store
	Items []domain.InventoryItem
}

// SelectionStrategy decides which store(s) fulfill a reorder. A nil store /
// empty assignment list means the user has no store configured, which is a
// normal outcome callers must handle.
type SelectionStrategy interface {
	SelectStore(ctx context.Context, userID string, items []domain.InventoryItem) (*domain.Store, error)
	SelectStoresForItems(ctx context.Context, userID string, items []domain.InventoryItem) ([]StoreAssignment, error)
}

// PriorityStrategy picks the user's best-ranked active store for everything.
// Splitting items across stores by availability fits the same contract and
// can replace this without touching callers.
type PriorityStrategy struct {
	ledgers port.LedgerRepository
	stores  port.StoreRepository
}

func NewPriorityStrategy(ledgers port.LedgerRepository, stores port.StoreRepository) *PriorityStrategy {
	return &PriorityStrategy{ledgers: ledgers, stores: stores}
}

func (p *PriorityStrategy) SelectStore(ctx context.Context, userID string, items []domain.InventoryItem) (*domain.Store, error) {
	ledger, err := p.ledgers.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	primary, ok := ledger.Primary()
	if !ok {
		log.Printf("no active stores configured for user %s", userID)
		return nil, nil
	}
	store, err := p.stores.GetStore(ctx, primary.StoreID)
	if err != nil {
		return nil, fmt.Errorf("load store %s: %w", primary.StoreID, err)
	}
	return store, nil
}

func (p *PriorityStrategy) SelectStoresForItems(ctx context.Context, userID string, items []domain.InventoryItem) ([]StoreAssignment, error) {
	store, err := p.SelectStore(ctx, userID, items)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, nil
	}
	assigned := make([]domain.InventoryItem, len(items))
	copy(assigned, items)
	return []StoreAssignment{{Store: *store, Items: assigned}}, nil
}
