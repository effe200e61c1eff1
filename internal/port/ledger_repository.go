package port

import (
	"context"

	"github.com/fridgeflow/grocery/internal/core/domain"
)

type LedgerRepository interface {
	// ListByUser returns the user's ledger in priority order.
	ListByUser(ctx context.Context, userID string) (domain.Ledger, error)

	// ReplaceForUser atomically swaps the user's ledger for the given
	// entries. Implementations must serialize concurrent replacements for
	// the same user.
	ReplaceForUser(ctx context.Context, userID string, entries domain.Ledger) error
}

type StoreRepository interface {
	// GetStore retrieves a store by ID, or domain.ErrNotFound.
	GetStore(ctx context.Context, storeID string) (*domain.Store, error)
}
