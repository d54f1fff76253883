package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/tradeassist/internal/cache/memory"
	"github.com/alanyoungcy/tradeassist/internal/cache/redis"
	"github.com/alanyoungcy/tradeassist/internal/config"
	"github.com/alanyoungcy/tradeassist/internal/domain"
	"github.com/alanyoungcy/tradeassist/internal/platform/binance"
	"github.com/alanyoungcy/tradeassist/internal/platform/dexscreener"
	"github.com/alanyoungcy/tradeassist/internal/service"
	"github.com/alanyoungcy/tradeassist/internal/store/postgres"
)

// Dependencies bundles everything the commands and the HTTP server need. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Target is the default database connection string.
	Target string

	Pools         *postgres.Registry
	PositionStore domain.PositionStore

	Redis       *redis.Client // nil unless redis.enabled
	PriceCache  domain.PriceCache
	RateLimiter domain.RateLimiter

	Spot *binance.Client
	Dex  *dexscreener.Client

	Prices  *service.PriceResolver
	Market  *service.MarketData
	Trading *service.TradingData
}

// Wire constructs all concrete implementations from the given configuration
// and returns them together with a cleanup function that releases them in
// reverse order. Database pools are opened lazily on first use.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{Target: cfg.Database.ConnString()}

	// --- PostgreSQL ---
	deps.Pools = postgres.NewRegistry(postgres.PoolOptions{
		MaxConns: cfg.Database.PoolMaxConns,
		MinConns: cfg.Database.PoolMinConns,
	})
	closers = append(closers, deps.Pools.Close)
	deps.PositionStore = postgres.NewPositionStore(deps.Pools, postgres.StoreConfig{
		Table:            cfg.Database.Table,
		QueryTimeout:     cfg.Database.QueryTimeout.Duration,
		StatementTimeout: cfg.Database.StatementTimeout.Duration,
		Logger:           logger,
	})

	// --- Redis (optional) ---
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		c, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			KeyPrefix:  cfg.Redis.KeyPrefix,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = c.Close() })
		redisClient = c
		deps.Redis = c
		deps.RateLimiter = redis.NewRateLimiter(c)
	}

	// --- Price cache ---
	switch strings.ToLower(cfg.Pricing.Cache) {
	case "memory":
		mc, err := memory.NewPriceCache(cfg.Pricing.CacheMaxEntries)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: memory cache: %w", err)
		}
		closers = append(closers, mc.Close)
		deps.PriceCache = mc
	case "redis":
		if redisClient == nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis price cache requires redis.enabled")
		}
		deps.PriceCache = redis.NewPriceCache(redisClient)
	}

	// --- Market data clients ---
	deps.Spot = binance.NewClient(cfg.Binance.BaseURL, cfg.Binance.Timeout.Duration)
	deps.Dex = dexscreener.NewClient(cfg.DexScreener.BaseURL, cfg.DexScreener.Timeout.Duration)

	// --- Services ---
	sources := []domain.PriceSource{
		binance.NewSpotSource(deps.Spot, cfg.Binance.QuoteAsset),
		dexscreener.NewPairSource(deps.Dex),
	}
	ttl := cfg.Pricing.CacheTTL.Duration
	if deps.PriceCache == nil {
		ttl = 0
	}
	deps.Prices = service.NewPriceResolver(sources, deps.PriceCache, ttl, logger)
	deps.Market = service.NewMarketData(deps.Spot, deps.Dex, cfg.Binance.QuoteAsset, logger)
	deps.Trading = service.NewTradingData(deps.PositionStore, deps.Prices, cfg.Pricing.EnrichConcurrency, logger)

	logger.InfoContext(ctx, "wire: dependencies ready",
		slog.String("price_cache", strings.ToLower(cfg.Pricing.Cache)),
		slog.Bool("redis", redisClient != nil),
		slog.String("table", cfg.Database.Table),
	)

	return deps, cleanup, nil
}
