package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alanyoungcy/tradeassist/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

type fakeSource struct {
	name   string
	prices map[string]float64
	err    error
	calls  atomic.Int32
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Price(_ context.Context, symbol string) (float64, error) {
	f.calls.Add(1)
	if f.err != nil {
		return 0, f.err
	}
	p, ok := f.prices[strings.ToUpper(symbol)]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return p, nil
}

type fakeCache struct {
	mu     sync.Mutex
	prices map[string]float64
	ttls   map[string]time.Duration
	getErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{prices: map[string]float64{}, ttls: map[string]time.Duration{}}
}

func (c *fakeCache) GetPrice(_ context.Context, key string) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return 0, c.getErr
	}
	p, ok := c.prices[key]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return p, nil
}

func (c *fakeCache) SetPrice(_ context.Context, key string, price float64, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[key] = price
	c.ttls[key] = ttl
	return nil
}

type fakeStore struct {
	open    []domain.PositionRow
	closed  []domain.PositionRow
	rows    []map[string]any
	err     error
	queries atomic.Int32

	gotLimit int
	gotArgs  []any
}

var errOutage = errors.New("connection refused")

func (s *fakeStore) ListOpen(context.Context, string) ([]domain.PositionRow, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.open, nil
}

func (s *fakeStore) ListClosed(_ context.Context, _ string, limit int) ([]domain.PositionRow, error) {
	s.gotLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.closed, nil
}

func (s *fakeStore) Query(_ context.Context, _ string, _ string, args ...any) ([]map[string]any, error) {
	s.queries.Add(1)
	s.gotArgs = args
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

// delayedPrices resolves symbols from a map after a per-symbol delay.
type delayedPrices struct {
	prices map[string]float64
	delay  map[string]time.Duration
}

func (d delayedPrices) Resolve(ctx context.Context, symbol string) (domain.Quote, bool) {
	if wait, ok := d.delay[symbol]; ok {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return domain.Quote{}, false
		}
	}
	p, ok := d.prices[symbol]
	if !ok {
		return domain.Quote{}, false
	}
	return domain.Quote{Symbol: symbol, Price: p, Source: "fake"}, true
}

type fakeSpot struct {
	price    float64
	priceErr error
	ticker   domain.Ticker24h
	tickErr  error

	mu      sync.Mutex
	gotPair string
}

func (f *fakeSpot) TickerPrice(_ context.Context, pair string) (float64, error) {
	f.mu.Lock()
	f.gotPair = pair
	f.mu.Unlock()
	return f.price, f.priceErr
}

func (f *fakeSpot) Ticker24h(context.Context, string) (domain.Ticker24h, error) {
	return f.ticker, f.tickErr
}

type fakeDex struct {
	pair domain.DexPair
	err  error
	gotQ string
}

func (f *fakeDex) FirstPair(_ context.Context, q string) (domain.DexPair, error) {
	f.gotQ = q
	return f.pair, f.err
}
