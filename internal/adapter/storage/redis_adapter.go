package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fridgeflow/grocery/internal/core/domain"
)

const (
	submitLockPrefix = "submitlock:"
	priceKeyPrefix   = "price:"
	eventChannel     = "grocery:events"

	submitLockTTL = 10 * time.Minute
	priceTTL      = 1 * time.Hour
)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) AcquireSubmitLock(ctx context.Context, orderID string) (bool, error) {
	return r.client.SetNX(ctx, submitLockPrefix+orderID, 1, submitLockTTL).Result()
}

func (r *RedisAdapter) ReleaseSubmitLock(ctx context.Context, orderID string) error {
	return r.client.Del(ctx, submitLockPrefix+orderID).Err()
}

func priceKey(storeID, sku string) string {
	return priceKeyPrefix + storeID + ":" + sku
}

func (r *RedisAdapter) CachePrices(ctx context.Context, storeID string, prices map[string]domain.ProductPrice) error {
	pipe := r.client.Pipeline()
	for sku, quote := range prices {
		payload, err := json.Marshal(quote)
		if err != nil {
			return fmt.Errorf("marshal price %s: %w", sku, err)
		}
		pipe.Set(ctx, priceKey(storeID, sku), payload, priceTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisAdapter) CachedPrices(ctx context.Context, storeID string, skus []string) (map[string]domain.ProductPrice, error) {
	if len(skus) == 0 {
		return map[string]domain.ProductPrice{}, nil
	}

	keys := make([]string, len(skus))
	for i, sku := range skus {
		keys[i] = priceKey(storeID, sku)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget prices: %w", err)
	}

	prices := make(map[string]domain.ProductPrice, len(skus))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		var quote domain.ProductPrice
		if err := json.Unmarshal([]byte(raw), &quote); err != nil {
			return nil, fmt.Errorf("unmarshal price %s: %w", skus[i], err)
		}
		prices[skus[i]] = quote
	}
	return prices, nil
}

// Publish pushes the event onto the notification channel. Delivery is
// fire-and-forget; there may be zero subscribers.
func (r *RedisAdapter) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return r.client.Publish(ctx, eventChannel, payload).Err()
}
