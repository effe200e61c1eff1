package port

import (
	"context"

	"github.com/fridgeflow/grocery/internal/core/domain"
)

type CacheRepository interface {
	// AcquireSubmitLock takes the per-order submission lock, returning
	// false if another submit holds it.
	AcquireSubmitLock(ctx context.Context, orderID string) (bool, error)

	// ReleaseSubmitLock frees the lock after a failed submit so the caller
	// can retry.
	ReleaseSubmitLock(ctx context.Context, orderID string) error

	// CachePrices stores fetched quotes for a store with a TTL.
	CachePrices(ctx context.Context, storeID string, prices map[string]domain.ProductPrice) error

	// CachedPrices returns whichever of the requested quotes are still cached.
	CachedPrices(ctx context.Context, storeID string, skus []string) (map[string]domain.ProductPrice, error)
}

// EventPublisher delivers outbound events to the notification pipeline.
// Delivery is fire-and-forget; failures are logged by callers, not retried.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
