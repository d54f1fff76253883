package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/alanyoungcy/tradeassist/internal/domain"
)

// PriceResolver resolves a symbol's current price by trying an ordered list
// of sources and keeping the first usable answer. Source failures never
// escape Resolve; they are logged and the next source is tried.
type PriceResolver struct {
	sources []domain.PriceSource
	cache   domain.PriceCache
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewPriceResolver creates a PriceResolver. cache may be nil, in which case
// every call goes to the sources.
func NewPriceResolver(
	sources []domain.PriceSource,
	cache domain.PriceCache,
	ttl time.Duration,
	logger *slog.Logger,
) *PriceResolver {
	return &PriceResolver{
		sources: sources,
		cache:   cache,
		ttl:     ttl,
		logger:  logger.With(slog.String("component", "price_resolver")),
		now:     time.Now,
	}
}

// Resolve returns the current price for symbol and false when no source
// produced one. Sources receive the symbol with its case preserved; the
// cache and the returned quote use the upper-case form.
func (r *PriceResolver) Resolve(ctx context.Context, symbol string) (domain.Quote, bool) {
	sym, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return domain.Quote{}, false
	}

	key := strings.ToUpper(sym)

	if q, ok := r.cached(ctx, key); ok {
		return q, true
	}

	for _, src := range r.sources {
		if ctx.Err() != nil {
			return domain.Quote{}, false
		}

		price, err := src.Price(ctx, sym)
		if err != nil {
			r.logger.WarnContext(ctx, "price_resolver: source failed",
				slog.String("symbol", key),
				slog.String("source", src.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		if !usablePrice(price) {
			r.logger.WarnContext(ctx, "price_resolver: source returned unusable price",
				slog.String("symbol", key),
				slog.String("source", src.Name()),
				slog.Float64("price", price),
			)
			continue
		}

		r.store(ctx, key, price)
		return domain.Quote{Symbol: key, Price: price, Source: src.Name(), At: r.now().UTC()}, true
	}

	r.logger.DebugContext(ctx, "price_resolver: unresolved", slog.String("symbol", key))
	return domain.Quote{}, false
}

// Price is Resolve reduced to a nullable price.
func (r *PriceResolver) Price(ctx context.Context, symbol string) *float64 {
	q, ok := r.Resolve(ctx, symbol)
	if !ok {
		return nil
	}
	return &q.Price
}

func (r *PriceResolver) cached(ctx context.Context, sym string) (domain.Quote, bool) {
	if r.cache == nil {
		return domain.Quote{}, false
	}
	price, err := r.cache.GetPrice(ctx, sym)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.WarnContext(ctx, "price_resolver: cache read failed",
				slog.String("symbol", sym),
				slog.String("error", err.Error()),
			)
		}
		return domain.Quote{}, false
	}
	if !usablePrice(price) {
		return domain.Quote{}, false
	}
	return domain.Quote{Symbol: sym, Price: price, Source: "cache", At: r.now().UTC()}, true
}

func (r *PriceResolver) store(ctx context.Context, sym string, price float64) {
	if r.cache == nil || r.ttl <= 0 {
		return
	}
	if err := r.cache.SetPrice(ctx, sym, price, r.ttl); err != nil {
		r.logger.WarnContext(ctx, "price_resolver: cache write failed",
			slog.String("symbol", sym),
			slog.String("error", err.Error()),
		)
	}
}

// usablePrice rejects zero, negative and non-finite prices.
func usablePrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}
