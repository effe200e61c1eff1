// Package storeapi provides the store-side collaborators. The only concrete
// implementation today is a simulator; a real store integration implements
// the same port.
package storeapi

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fridgeflow/grocery/internal/core/domain"
)

const (
	priceVariance      = 0.15 // ±15% drift between fetches
	saleProbability    = 0.30
	delistProbability  = 0.05
	noStockProbability = 0.05
)

var fulfillmentStages = []string{"CONFIRMED", "IN_PROGRESS", "OUT_FOR_DELIVERY", "DELIVERED"}

type externalOrder struct {
	storeID   string
	stage     int
	cancelled bool
}

// MockGateway simulates a store's pricing and ordering API. All randomness
// comes from the injected seed, so tests replay identical sequences. Each
// status poll advances a submitted order one fulfillment stage.
type MockGateway struct {
	mu          sync.Mutex
	rng         *rand.Rand
	failureRate float64
	basePrices  map[string]decimal.Decimal
	orders      map[string]*externalOrder
	seq         int
}

func NewMockGateway(seed int64) *MockGateway {
	return &MockGateway{
		rng:        rand.New(rand.NewSource(seed)),
		basePrices: make(map[string]decimal.Decimal),
		orders:     make(map[string]*externalOrder),
	}
}

// SetFailureRate makes the given fraction of calls fail, for exercising
// upstream-unavailable paths.
func (g *MockGateway) SetFailureRate(rate float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failureRate = rate
}

func (g *MockGateway) injectFailure() bool {
	return g.failureRate > 0 && g.rng.Float64() < g.failureRate
}

// basePriceFor derives a stable catalog price from the SKU itself, so the
// same SKU always drifts around the same anchor.
func (g *MockGateway) basePriceFor(sku string) decimal.Decimal {
	if price, ok := g.basePrices[sku]; ok {
		return price
	}
	h := fnv.New32a()
	h.Write([]byte(sku))
	base := 0.99 + 19.0*(float64(h.Sum32()%1000)/1000.0)
	price := decimal.NewFromFloat(math.Round(base*100) / 100)
	g.basePrices[sku] = price
	return price
}

func (g *MockGateway) FetchPrices(ctx context.Context, storeID string, skus []string) (map[string]domain.ProductPrice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.injectFailure() {
		return nil, fmt.Errorf("store %s pricing api unavailable", storeID)
	}

	prices := make(map[string]domain.ProductPrice, len(skus))
	for _, sku := range skus {
		if g.rng.Float64() < delistProbability {
			continue // store no longer carries it
		}
		base := g.basePriceFor(sku)
		drift := 1 + (g.rng.Float64()-0.5)*priceVariance
		regular := base.Mul(decimal.NewFromFloat(drift)).Round(2)

		quote := domain.ProductPrice{
			SKU:          sku,
			ProductName:  "Product " + sku,
			RegularPrice: regular,
			InStock:      g.rng.Float64() > noStockProbability,
		}
		if g.rng.Float64() < saleProbability {
			discount := 0.1 + 0.3*g.rng.Float64()
			quote.SalePrice = regular.Mul(decimal.NewFromFloat(1 - discount)).Round(2)
			quote.OnSale = true
		}
		prices[sku] = quote
	}
	return prices, nil
}

func (g *MockGateway) IsAvailable(ctx context.Context, storeID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.injectFailure()
}

func (g *MockGateway) SubmitOrder(ctx context.Context, order domain.Order) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.injectFailure() {
		return "", fmt.Errorf("store %s ordering api unavailable", order.StoreID)
	}

	g.seq++
	externalID := fmt.Sprintf("EXT-%s-%06d", order.StoreID, g.seq)
	g.orders[externalID] = &externalOrder{storeID: order.StoreID}
	return externalID, nil
}

func (g *MockGateway) CheckOrderStatus(ctx context.Context, storeID, externalOrderID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	order, ok := g.orders[externalOrderID]
	if !ok {
		return "", fmt.Errorf("unknown external order %s", externalOrderID)
	}
	if order.cancelled {
		return "CANCELLED", nil
	}

	status := fulfillmentStages[order.stage]
	if order.stage < len(fulfillmentStages)-1 {
		order.stage++
	}
	return status, nil
}

func (g *MockGateway) CancelOrder(ctx context.Context, storeID, externalOrderID, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	order, ok := g.orders[externalOrderID]
	if !ok {
		return fmt.Errorf("unknown external order %s", externalOrderID)
	}
	if order.stage >= len(fulfillmentStages)-1 {
		return fmt.Errorf("order %s is already out for delivery", externalOrderID)
	}
	order.cancelled = true
	return nil
}
