// Package memory is an in-process price cache for single-instance
// deployments that run without Redis.
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/alanyoungcy/tradeassist/internal/domain"
)

// PriceCache implements domain.PriceCache on a ristretto cache. Every entry
// has cost 1, so maxEntries bounds the number of symbols held.
type PriceCache struct {
	c *ristretto.Cache
}

// NewPriceCache creates a PriceCache holding up to maxEntries symbols.
func NewPriceCache(maxEntries int64) (*PriceCache, error) {
	if maxEntries <= 0 {
		maxEntries = 10_000
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("memory: new cache: %w", err)
	}
	return &PriceCache{c: c}, nil
}

// GetPrice returns domain.ErrNotFound on a miss or an expired entry.
func (pc *PriceCache) GetPrice(_ context.Context, symbol string) (float64, error) {
	v, ok := pc.c.Get(symbol)
	if !ok {
		return 0, domain.ErrNotFound
	}
	price, ok := v.(float64)
	if !ok {
		return 0, domain.ErrNotFound
	}
	return price, nil
}

// SetPrice stores price until ttl elapses. Writes are buffered and become
// visible shortly after the call returns.
func (pc *PriceCache) SetPrice(_ context.Context, symbol string, price float64, ttl time.Duration) error {
	pc.c.SetWithTTL(symbol, price, 1, ttl)
	return nil
}

// Wait blocks until buffered writes are applied.
func (pc *PriceCache) Wait() { pc.c.Wait() }

// Close stops the cache's background goroutines.
func (pc *PriceCache) Close() { pc.c.Close() }

var _ domain.PriceCache = (*PriceCache)(nil)
