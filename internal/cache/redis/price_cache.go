package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/tradeassist/internal/domain"
)

// PriceCache implements domain.PriceCache with one string key per symbol at
// "{prefix}price:{symbol}" that expires after the TTL given to SetPrice.
type PriceCache struct {
	c *Client
}

// NewPriceCache creates a PriceCache backed by the given Client.
func NewPriceCache(c *Client) *PriceCache {
	return &PriceCache{c: c}
}

func (pc *PriceCache) priceKey(symbol string) string {
	return pc.c.key("price", symbol)
}

// SetPrice stores price for symbol until ttl elapses.
func (pc *PriceCache) SetPrice(ctx context.Context, symbol string, price float64, ttl time.Duration) error {
	v := strconv.FormatFloat(price, 'f', -1, 64)
	if err := pc.c.rdb.Set(ctx, pc.priceKey(symbol), v, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set price %s: %w", symbol, err)
	}
	return nil
}

// GetPrice returns the cached price for symbol, or domain.ErrNotFound when
// absent or expired.
func (pc *PriceCache) GetPrice(ctx context.Context, symbol string) (float64, error) {
	v, err := pc.c.rdb.Get(ctx, pc.priceKey(symbol)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("redis: get price %s: %w", symbol, err)
	}

	price, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("redis: parse price %s: %w", symbol, err)
	}
	return price, nil
}

// Compile-time interface check.
var _ domain.PriceCache = (*PriceCache)(nil)
