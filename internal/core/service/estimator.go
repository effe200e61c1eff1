package service

import "github.com/fridgeflow/grocery/internal/core/domain"

// QuantityEstimator suggests how much of a low item to reorder. The single
// item in, single quantity out shape is kept so a consumption-history policy
// can slot in later.
type QuantityEstimator interface {
	Suggest(item domain.InventoryItem) float64
}

// RestockToThreshold orders just enough to get back to the threshold, never
// less than one order unit.
type RestockToThreshold struct {
	MinOrderUnit float64
}

func (r RestockToThreshold) Suggest(item domain.InventoryItem) float64 {
	min := r.MinOrderUnit
	if min <= 0 {
		min = 1
	}
	need := item.Threshold - item.Quantity
	if need < min {
		return min
	}
	return need
}
