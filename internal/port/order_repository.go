package port

import (
	"context"

	"github.com/fridgeflow/grocery/internal/core/domain"
)

type OrderRepository interface {
	// CreateOrder persists a new order with its items.
	CreateOrder(ctx context.Context, order domain.Order) error

	// GetOrder retrieves an order with its items, or domain.ErrNotFound.
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)

	// UpdateOrder persists the order with a version check; a stale version
	// fails with domain.ErrConflict and writes nothing.
	UpdateOrder(ctx context.Context, order domain.Order) error

	// ListOrders returns the user's orders filtered by status; an empty
	// filter returns everything, newest first.
	ListOrders(ctx context.Context, userID string, statuses []domain.OrderStatus) ([]domain.Order, error)
}
