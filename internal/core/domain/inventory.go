package domain

import (
	"fmt"
	"time"
)

type StockStatus string

const (
	StockSufficient StockStatus = "SUFFICIENT"
	StockLow        StockStatus = "LOW"
	StockCritical   StockStatus = "CRITICAL"
	StockOut        StockStatus = "OUT_OF_STOCK"
)

// ClassifyStock maps a quantity against its reorder threshold. The rules are
// checked in order: empty beats critical beats low.
func ClassifyStock(quantity, threshold float64) StockStatus {
	switch {
	case quantity == 0:
		return StockOut
	case quantity <= threshold*0.5:
		return StockCritical
	case quantity <= threshold:
		return StockLow
	default:
		return StockSufficient
	}
}

// NeedsReorder reports whether the status should trigger a draft order.
func (s StockStatus) NeedsReorder() bool {
	return s == StockLow || s == StockCritical || s == StockOut
}

// InventoryItem is one tracked product on a fridge device. Status is derived
// from Quantity and Threshold and recomputed on every mutation, never set
// directly.
type InventoryItem struct {
	ID        string
	DeviceID  string
	SKU       string
	Name      string
	Unit      string
	Quantity  float64
	Threshold float64
	Status    StockStatus
	UpdatedAt time.Time
}

func (i *InventoryItem) Recalculate() {
	i.Status = ClassifyStock(i.Quantity, i.Threshold)
}

// ApplyReading records a sensor-reported quantity.
func (i *InventoryItem) ApplyReading(quantity float64, at time.Time) error {
	if quantity < 0 {
		return fmt.Errorf("%w: quantity %v is negative", ErrInvalidArgument, quantity)
	}
	i.Quantity = quantity
	i.UpdatedAt = at
	i.Recalculate()
	return nil
}

// SetThreshold changes the reorder threshold and reclassifies the item.
func (i *InventoryItem) SetThreshold(threshold float64) error {
	if threshold < 0 {
		return fmt.Errorf("%w: threshold %v is negative", ErrInvalidArgument, threshold)
	}
	i.Threshold = threshold
	i.Recalculate()
	return nil
}
