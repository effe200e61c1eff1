package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fridgeflow/grocery/internal/core/domain"
	"github.com/fridgeflow/grocery/internal/port"
)

// PriceRefresher reconciles an order's line prices against the store's
// current catalog. A failed fetch leaves the order untouched.
type PriceRefresher struct {
	gateway port.StoreGateway
	cache   port.CacheRepository
	timeout time.Duration
}

func NewPriceRefresher(gateway port.StoreGateway, cache port.CacheRepository, timeout time.Duration) *PriceRefresher {
	return &PriceRefresher{gateway: gateway, cache: cache, timeout: timeout}
}

// Refresh fetches current quotes for the order's included SKUs and applies
// them. Returns the SKUs whose price moved in this pass.
func (p *PriceRefresher) Refresh(ctx context.Context, order *domain.Order) ([]string, error) {
	if order.Status.IsFinal() {
		return nil, fmt.Errorf("%w: order %s is %s", domain.ErrConflict, order.ID, order.Status)
	}
	skus := order.ActiveSKUs()
	if len(skus) == 0 {
		return nil, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	prices, err := p.gateway.FetchPrices(fetchCtx, order.StoreID, skus)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch prices from store %s: %v", domain.ErrUpstreamUnavailable, order.StoreID, err)
	}

	changed := order.ApplyPrices(prices)

	if p.cache != nil {
		if err := p.cache.CachePrices(ctx, order.StoreID, prices); err != nil {
			log.Printf("failed to cache prices for store %s: %v", order.StoreID, err)
		}
	}
	return changed, nil
}
