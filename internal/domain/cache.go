package domain

import (
	"context"
	"time"
)

// PriceSource is one strategy in the current-price fallback chain.
type PriceSource interface {
	Name() string
	Price(ctx context.Context, symbol string) (float64, error)
}

// PriceCache holds recently resolved prices.
type PriceCache interface {
	// GetPrice returns ErrNotFound on a miss.
	GetPrice(ctx context.Context, key string) (float64, error)
	SetPrice(ctx context.Context, key string, price float64, ttl time.Duration) error
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
