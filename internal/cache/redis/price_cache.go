package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/antigravity/cryptohunter/internal/domain"
)

// priceTTL bounds staleness of cached prices. A price older than this is as
// good as missing for the synthetic-fallback path.
const priceTTL = 30 * time.Minute

// fearGreedTTL matches the index's upstream refresh cadence.
const fearGreedTTL = time.Hour

// PriceCache implements domain.PriceCache using Redis hashes. Each coin's
// price lives in a hash at "price:{coin}" with fields "price" and "ts"
// (Unix nanosecond timestamp).
type PriceCache struct {
	rdb *redis.Client
}

// NewPriceCache creates a PriceCache backed by the given Client.
func NewPriceCache(c *Client) *PriceCache {
	return &PriceCache{rdb: c.Underlying()}
}

func priceKey(coin string) string {
	return "price:" + coin
}

// SetPrice stores the latest global price and timestamp for a coin.
func (pc *PriceCache) SetPrice(ctx context.Context, coin string, price float64, ts time.Time) error {
	key := priceKey(coin)
	fields := map[string]interface{}{
		"price": strconv.FormatFloat(price, 'f', -1, 64),
		"ts":    strconv.FormatInt(ts.UnixNano(), 10),
	}
	pipe := pc.rdb.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, priceTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set price %s: %w", coin, err)
	}
	return nil
}

// GetPrice retrieves the latest price and timestamp for a coin. It returns
// domain.ErrNotFound when the key does not exist or has expired.
func (pc *PriceCache) GetPrice(ctx context.Context, coin string) (float64, time.Time, error) {
	vals, err := pc.rdb.HGetAll(ctx, priceKey(coin)).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: get price %s: %w", coin, err)
	}
	if len(vals) == 0 {
		return 0, time.Time{}, domain.ErrNotFound
	}

	priceStr, ok := vals["price"]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse price %s: %w", coin, err)
	}

	tsStr, ok := vals["ts"]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	tsNano, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse ts %s: %w", coin, err)
	}

	return price, time.Unix(0, tsNano), nil
}

// SetFearGreed stores the current fear & greed index as JSON.
func (pc *PriceCache) SetFearGreed(ctx context.Context, fg domain.FearGreed) error {
	data, err := json.Marshal(fg)
	if err != nil {
		return fmt.Errorf("redis: marshal fear greed: %w", err)
	}
	if err := pc.rdb.Set(ctx, "sentiment:fear_greed", data, fearGreedTTL).Err(); err != nil {
		return fmt.Errorf("redis: set fear greed: %w", err)
	}
	return nil
}

// GetFearGreed retrieves the cached fear & greed index, or domain.ErrNotFound
// when absent.
func (pc *PriceCache) GetFearGreed(ctx context.Context) (domain.FearGreed, error) {
	data, err := pc.rdb.Get(ctx, "sentiment:fear_greed").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.FearGreed{}, domain.ErrNotFound
		}
		return domain.FearGreed{}, fmt.Errorf("redis: get fear greed: %w", err)
	}

	var fg domain.FearGreed
	if err := json.Unmarshal(data, &fg); err != nil {
		return domain.FearGreed{}, fmt.Errorf("redis: unmarshal fear greed: %w", err)
	}
	return fg, nil
}

// Compile-time interface check.
var _ domain.PriceCache = (*PriceCache)(nil)
