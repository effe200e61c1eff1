package port

import (
	"context"

	"github.com/fridgeflow/grocery/internal/core/domain"
)

type InventoryRepository interface {
	// ListByDevice returns all inventory items tracked by a device.
	ListByDevice(ctx context.Context, deviceID string) ([]domain.InventoryItem, error)

	// ListAlertsByUser returns the user's items whose status needs a
	// reorder (LOW, CRITICAL or OUT_OF_STOCK).
	ListAlertsByUser(ctx context.Context, userID string) ([]domain.InventoryItem, error)

	// GetItem retrieves one inventory item, or domain.ErrNotFound.
	GetItem(ctx context.Context, itemID string) (*domain.InventoryItem, error)

	// SaveItem persists quantity, threshold and the derived status.
	SaveItem(ctx context.Context, item domain.InventoryItem) error
}
