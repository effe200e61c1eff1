package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fridgeflow/grocery/internal/core/domain"
	"github.com/fridgeflow/grocery/internal/port"
)

// InventorySnapshot is a device's current stock picture.
type InventorySnapshot struct {
	DeviceID    string
	Items       []domain.InventoryItem
	TotalItems  int
	LowStock    int
	OutOfStock  int
	GeneratedAt time.Time
}

// InventoryService tracks device-reported stock levels and surfaces the
// items that should trigger a reorder.
type InventoryService struct {
	inventory port.InventoryRepository
}

func NewInventoryService(inventory port.InventoryRepository) *InventoryService {
	return &InventoryService{inventory: inventory}
}

// Snapshot summarizes a device's inventory with alert counts.
func (s *InventoryService) Snapshot(ctx context.Context, deviceID string) (InventorySnapshot, error) {
	items, err := s.inventory.ListByDevice(ctx, deviceID)
	if err != nil {
		return InventorySnapshot{}, fmt.Errorf("list inventory: %w", err)
	}

	snap := InventorySnapshot{
		DeviceID:    deviceID,
		Items:       items,
		TotalItems:  len(items),
		GeneratedAt: time.Now(),
	}
	for _, item := range items {
		switch item.Status {
		case domain.StockLow, domain.StockCritical:
			snap.LowStock++
		case domain.StockOut:
			snap.OutOfStock++
		}
	}
	return snap, nil
}

// Alerts returns the user's items whose status calls for a reorder. The
// result feeds OrderService.CreateDraft.
func (s *InventoryService) Alerts(ctx context.Context, userID string) ([]domain.InventoryItem, error) {
	return s.inventory.ListAlertsByUser(ctx, userID)
}

// UpdateThreshold changes an item's reorder threshold and reclassifies it in
// the same save.
func (s *InventoryService) UpdateThreshold(ctx context.Context, itemID string, threshold float64) (*domain.InventoryItem, error) {
	item, err := s.inventory.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := item.SetThreshold(threshold); err != nil {
		return nil, err
	}
	if err := s.inventory.SaveItem(ctx, *item); err != nil {
		return nil, fmt.Errorf("save item: %w", err)
	}
	log.Printf("updated threshold for item %s to %v", itemID, threshold)
	return item, nil
}

// SyncReadings applies a batch of sensor-reported quantities keyed by SKU.
// Unknown SKUs are skipped; each applied reading recomputes the item status.
func (s *InventoryService) SyncReadings(ctx context.Context, deviceID string, readings map[string]float64) error {
	items, err := s.inventory.ListByDevice(ctx, deviceID)
	if err != nil {
		return fmt.Errorf("list inventory: %w", err)
	}

	now := time.Now()
	for i := range items {
		quantity, ok := readings[items[i].SKU]
		if !ok {
			continue
		}
		if err := items[i].ApplyReading(quantity, now); err != nil {
			return err
		}
		if err := s.inventory.SaveItem(ctx, items[i]); err != nil {
			return fmt.Errorf("save item %s: %w", items[i].ID, err)
		}
	}
	return nil
}
