package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fridgeflow/grocery/internal/core/domain"
	"github.com/fridgeflow/grocery/internal/port"
)

// StorePreferences are the per-store settings a user can tune without
// touching rankings.
type StorePreferences struct {
	MaxDeliveryFee   decimal.NullDecimal
	MaxDistanceMiles float64
	Notes            string
	Active           bool
}

// LedgerService coordinates a user's ranked store list. Every mutation loads
// the ledger, applies the change in memory, and replaces the whole ledger in
// one transaction, so the dense-priority invariant is never observable as
// violated.
type LedgerService struct {
	ledgers port.LedgerRepository
	stores  port.StoreRepository
}

func NewLedgerService(ledgers port.LedgerRepository, stores port.StoreRepository) *LedgerService {
	return &LedgerService{ledgers: ledgers, stores: stores}
}

// AddStore links a store to the user. requestedPriority 0 appends at the end
// of the ranking; an explicit priority shifts lower-ranked stores down.
func (s *LedgerService) AddStore(ctx context.Context, userID, storeID string, requestedPriority int, prefs StorePreferences) (domain.UserStore, error) {
	store, err := s.stores.GetStore(ctx, storeID)
	if err != nil {
		return domain.UserStore{}, fmt.Errorf("add store: %w", err)
	}
	if !store.Active {
		return domain.UserStore{}, fmt.Errorf("%w: store %s is not active", domain.ErrConflict, storeID)
	}

	ledger, err := s.ledgers.ListByUser(ctx, userID)
	if err != nil {
		return domain.UserStore{}, fmt.Errorf("load ledger: %w", err)
	}

	entry := domain.UserStore{
		UserID:           userID,
		StoreID:          storeID,
		Active:           prefs.Active,
		MaxDeliveryFee:   prefs.MaxDeliveryFee,
		MaxDistanceMiles: prefs.MaxDistanceMiles,
		Notes:            prefs.Notes,
		AddedAt:          time.Now(),
	}
	if err := ledger.Insert(entry, requestedPriority); err != nil {
		return domain.UserStore{}, err
	}
	if err := s.ledgers.ReplaceForUser(ctx, userID, ledger); err != nil {
		return domain.UserStore{}, fmt.Errorf("save ledger: %w", err)
	}

	saved, _ := ledger.Entry(storeID)
	log.Printf("added store %s at priority %d for user %s", storeID, saved.Priority, userID)
	return *saved, nil
}

// RemoveStore unlinks a store and compacts the remaining priorities.
func (s *LedgerService) RemoveStore(ctx context.Context, userID, storeID string) error {
	ledger, err := s.ledgers.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	if err := ledger.Remove(storeID); err != nil {
		return err
	}
	if err := s.ledgers.ReplaceForUser(ctx, userID, ledger); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	log.Printf("removed store %s for user %s", storeID, userID)
	return nil
}

// SetPrimary swaps the store's rank with the current primary.
func (s *LedgerService) SetPrimary(ctx context.Context, userID, storeID string) (domain.UserStore, error) {
	ledger, err := s.ledgers.ListByUser(ctx, userID)
	if err != nil {
		return domain.UserStore{}, fmt.Errorf("load ledger: %w", err)
	}
	if err := ledger.PromoteToPrimary(storeID); err != nil {
		return domain.UserStore{}, err
	}
	if err := s.ledgers.ReplaceForUser(ctx, userID, ledger); err != nil {
		return domain.UserStore{}, fmt.Errorf("save ledger: %w", err)
	}
	entry, _ := ledger.Entry(storeID)
	log.Printf("set store %s as primary for user %s", storeID, userID)
	return *entry, nil
}

// Reorder reassigns priorities from the order of storeIDs, which must be an
// exact permutation of the user's current stores.
func (s *LedgerService) Reorder(ctx context.Context, userID string, storeIDs []string) (domain.Ledger, error) {
	ledger, err := s.ledgers.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if err := ledger.Reorder(storeIDs); err != nil {
		return nil, err
	}
	if err := s.ledgers.ReplaceForUser(ctx, userID, ledger); err != nil {
		return nil, fmt.Errorf("save ledger: %w", err)
	}
	log.Printf("reordered %d stores for user %s", len(storeIDs), userID)
	return ledger, nil
}

// UpdatePreferences changes the per-store settings without touching the
// ranking.
func (s *LedgerService) UpdatePreferences(ctx context.Context, userID, storeID string, prefs StorePreferences) (domain.UserStore, error) {
	ledger, err := s.ledgers.ListByUser(ctx, userID)
	if err != nil {
		return domain.UserStore{}, fmt.Errorf("load ledger: %w", err)
	}
	entry, ok := ledger.Entry(storeID)
	if !ok {
		return domain.UserStore{}, fmt.Errorf("%w: user has no store %s", domain.ErrNotFound, storeID)
	}
	entry.MaxDeliveryFee = prefs.MaxDeliveryFee
	entry.MaxDistanceMiles = prefs.MaxDistanceMiles
	entry.Notes = prefs.Notes
	entry.Active = prefs.Active
	if err := s.ledgers.ReplaceForUser(ctx, userID, ledger); err != nil {
		return domain.UserStore{}, fmt.Errorf("save ledger: %w", err)
	}
	return *entry, nil
}

// ListStores returns the user's ledger in priority order.
func (s *LedgerService) ListStores(ctx context.Context, userID string) (domain.Ledger, error) {
	return s.ledgers.ListByUser(ctx, userID)
}
