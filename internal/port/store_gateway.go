package port

import (
	"context"

	"github.com/fridgeflow/grocery/internal/core/domain"
)

// StoreGateway is the external store's pricing and ordering API.
type StoreGateway interface {
	// FetchPrices bulk-fetches current quotes for the given SKUs. SKUs the
	// store no longer carries are absent from the result.
	FetchPrices(ctx context.Context, storeID string, skus []string) (map[string]domain.ProductPrice, error)

	// IsAvailable reports whether the store's API is reachable.
	IsAvailable(ctx context.Context, storeID string) bool

	// SubmitOrder places the order and returns the store's order ID.
	SubmitOrder(ctx context.Context, order domain.Order) (string, error)

	// CheckOrderStatus returns the store's status string for a submitted order.
	CheckOrderStatus(ctx context.Context, storeID, externalOrderID string) (string, error)

	// CancelOrder tells the store to cancel an already-submitted order.
	CancelOrder(ctx context.Context, storeID, externalOrderID, reason string) error
}
