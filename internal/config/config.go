// Package config defines the configuration for the trading-data service and
// provides validation helpers.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by TRADEASSIST_* environment variables.
type Config struct {
	Database    DatabaseConfig    `toml:"database"`
	Binance     BinanceConfig     `toml:"binance"`
	DexScreener DexScreenerConfig `toml:"dexscreener"`
	Pricing     PricingConfig     `toml:"pricing"`
	Redis       RedisConfig       `toml:"redis"`
	Server      ServerConfig      `toml:"server"`
	Analysis    AnalysisConfig    `toml:"analysis"`
	LogLevel    string            `toml:"log_level"`
}

// DatabaseConfig locates the positions database. DSN wins over the
// individual fields when set.
type DatabaseConfig struct {
	DSN          string `toml:"dsn"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Database     string `toml:"database"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	SSLMode      string `toml:"ssl_mode"`
	PoolMaxConns int    `toml:"pool_max_conns"`
	PoolMinConns int    `toml:"pool_min_conns"`

	// Table holds the position rows; it may be schema-qualified.
	Table string `toml:"table"`
	// QueryTimeout bounds the open-position and trade-history queries.
	QueryTimeout duration `toml:"query_timeout"`
	// StatementTimeout is set on every analytical query's transaction.
	StatementTimeout duration `toml:"statement_timeout"`
}

// ConnString returns DSN, or a postgres:// URL built from the individual
// fields when DSN is empty.
func (d DatabaseConfig) ConnString() string {
	if strings.TrimSpace(d.DSN) != "" {
		return d.DSN
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	port := d.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(port)),
		Path:     "/" + d.Database,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else if d.User != "" {
		u.User = url.User(d.User)
	}
	return u.String()
}

// BinanceConfig configures the centralized-exchange price source.
type BinanceConfig struct {
	BaseURL    string   `toml:"base_url"`
	QuoteAsset string   `toml:"quote_asset"`
	Timeout    duration `toml:"timeout"`
}

// DexScreenerConfig configures the DEX aggregator price source.
type DexScreenerConfig struct {
	BaseURL string   `toml:"base_url"`
	Timeout duration `toml:"timeout"`
}

// PricingConfig tunes current-price resolution.
type PricingConfig struct {
	// Cache is "none", "memory" or "redis".
	Cache           string   `toml:"cache"`
	CacheTTL        duration `toml:"cache_ttl"`
	CacheMaxEntries int64    `toml:"cache_max_entries"`
	// EnrichConcurrency bounds concurrent price lookups per position list.
	EnrichConcurrency int `toml:"enrich_concurrency"`
}

// RedisConfig holds Redis connection parameters. Redis is optional; when
// disabled the API runs without rate limiting and the price cache cannot use
// the redis backend.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	KeyPrefix  string `toml:"key_prefix"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	APIKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
	// RateLimit is the number of requests a client may make per RateWindow.
	// Zero disables rate limiting.
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// AnalysisConfig bounds the size of analytical query results handed back to
// a language model.
type AnalysisConfig struct {
	TokenLimit    int `toml:"token_limit"`
	CharsPerToken int `toml:"chars_per_token"`
}

// Defaults returns a Config populated with reasonable default values.
// Secrets (passwords, API keys, DSN) are intentionally left empty.
func Defaults() Config {
	return Config{
		Database: DatabaseConfig{
			Host:             "localhost",
			Port:             5432,
			Database:         "postgres",
			User:             "postgres",
			SSLMode:          "disable",
			PoolMaxConns:     10,
			PoolMinConns:     0,
			Table:            "positions_1d",
			QueryTimeout:     duration{10 * time.Second},
			StatementTimeout: duration{15 * time.Second},
		},
		Binance: BinanceConfig{
			BaseURL:    "https://data-api.binance.vision/api/v3",
			QuoteAsset: "USDT",
			Timeout:    duration{10 * time.Second},
		},
		DexScreener: DexScreenerConfig{
			BaseURL: "https://api.dexscreener.com/latest",
			Timeout: duration{10 * time.Second},
		},
		Pricing: PricingConfig{
			Cache:             "none",
			CacheTTL:          duration{30 * time.Second},
			CacheMaxEntries:   10_000,
			EnrichConcurrency: 8,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			KeyPrefix:  "tradeassist:",
		},
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   60,
			RateWindow:  duration{time.Minute},
		},
		Analysis: AnalysisConfig{
			TokenLimit:    30_000,
			CharsPerToken: 4,
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validCaches enumerates the accepted values for PricingConfig.Cache.
var validCaches = map[string]bool{
	"none":   true,
	"memory": true,
	"redis":  true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Database
	if strings.TrimSpace(c.Database.DSN) == "" {
		if c.Database.Host == "" {
			errs = append(errs, "database: host must not be empty (or set database.dsn)")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.Database == "" {
			errs = append(errs, "database: database must not be empty")
		}
	}
	if c.Database.PoolMaxConns < 1 {
		errs = append(errs, "database: pool_max_conns must be >= 1")
	}
	if c.Database.PoolMinConns < 0 {
		errs = append(errs, "database: pool_min_conns must be >= 0")
	}
	if c.Database.PoolMinConns > c.Database.PoolMaxConns {
		errs = append(errs, "database: pool_min_conns must not exceed pool_max_conns")
	}
	if strings.TrimSpace(c.Database.Table) == "" {
		errs = append(errs, "database: table must not be empty")
	}
	if c.Database.QueryTimeout.Duration < 0 || c.Database.StatementTimeout.Duration < 0 {
		errs = append(errs, "database: timeouts must not be negative")
	}

	// Price sources
	if c.Binance.BaseURL == "" {
		errs = append(errs, "binance: base_url must not be empty")
	}
	if c.Binance.QuoteAsset == "" {
		errs = append(errs, "binance: quote_asset must not be empty")
	}
	if c.DexScreener.BaseURL == "" {
		errs = append(errs, "dexscreener: base_url must not be empty")
	}

	// Pricing
	cache := strings.ToLower(c.Pricing.Cache)
	if !validCaches[cache] {
		errs = append(errs, fmt.Sprintf("pricing: unknown cache %q (valid: none, memory, redis)", c.Pricing.Cache))
	}
	if cache == "redis" && !c.Redis.Enabled {
		errs = append(errs, "pricing: cache \"redis\" requires redis.enabled")
	}
	if cache != "none" && c.Pricing.CacheTTL.Duration <= 0 {
		errs = append(errs, "pricing: cache_ttl must be > 0 when a cache is enabled")
	}
	if c.Pricing.EnrichConcurrency < 0 {
		errs = append(errs, "pricing: enrich_concurrency must be >= 0")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server: rate_limit must be >= 0")
	}
	if c.Server.RateLimit > 0 && c.Server.RateWindow.Duration <= 0 {
		errs = append(errs, "server: rate_window must be > 0 when rate_limit is set")
	}

	// Analysis
	if c.Analysis.TokenLimit < 0 {
		errs = append(errs, "analysis: token_limit must be >= 0")
	}
	if c.Analysis.CharsPerToken < 1 {
		errs = append(errs, "analysis: chars_per_token must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
