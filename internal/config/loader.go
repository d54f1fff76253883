package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies TRADEASSIST_* environment variable overrides,
// and returns the final Config. A missing file is not an error, so a
// deployment may configure itself from the environment alone. The returned
// Config has NOT been validated; the caller should invoke Config.Validate()
// after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known TRADEASSIST_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty).
func applyEnvOverrides(cfg *Config) {
	// ── Database ──
	setStr(&cfg.Database.DSN, "TRADING_DB_URL") // name used by the agent plugin
	setStr(&cfg.Database.DSN, "TRADEASSIST_DATABASE_DSN")
	setStr(&cfg.Database.Host, "TRADEASSIST_DATABASE_HOST")
	setInt(&cfg.Database.Port, "TRADEASSIST_DATABASE_PORT")
	setStr(&cfg.Database.Database, "TRADEASSIST_DATABASE_DATABASE")
	setStr(&cfg.Database.User, "TRADEASSIST_DATABASE_USER")
	setStr(&cfg.Database.Password, "TRADEASSIST_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "TRADEASSIST_DATABASE_SSL_MODE")
	setInt(&cfg.Database.PoolMaxConns, "TRADEASSIST_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "TRADEASSIST_DATABASE_POOL_MIN_CONNS")
	setStr(&cfg.Database.Table, "TRADEASSIST_DATABASE_TABLE")
	setDuration(&cfg.Database.QueryTimeout, "TRADEASSIST_DATABASE_QUERY_TIMEOUT")
	setDuration(&cfg.Database.StatementTimeout, "TRADEASSIST_DATABASE_STATEMENT_TIMEOUT")

	// ── Price sources ──
	setStr(&cfg.Binance.BaseURL, "TRADEASSIST_BINANCE_BASE_URL")
	setStr(&cfg.Binance.QuoteAsset, "TRADEASSIST_BINANCE_QUOTE_ASSET")
	setDuration(&cfg.Binance.Timeout, "TRADEASSIST_BINANCE_TIMEOUT")
	setStr(&cfg.DexScreener.BaseURL, "TRADEASSIST_DEXSCREENER_BASE_URL")
	setDuration(&cfg.DexScreener.Timeout, "TRADEASSIST_DEXSCREENER_TIMEOUT")

	// ── Pricing ──
	setStr(&cfg.Pricing.Cache, "TRADEASSIST_PRICING_CACHE")
	setDuration(&cfg.Pricing.CacheTTL, "TRADEASSIST_PRICING_CACHE_TTL")
	setInt64(&cfg.Pricing.CacheMaxEntries, "TRADEASSIST_PRICING_CACHE_MAX_ENTRIES")
	setInt(&cfg.Pricing.EnrichConcurrency, "TRADEASSIST_PRICING_ENRICH_CONCURRENCY")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "TRADEASSIST_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "TRADEASSIST_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "TRADEASSIST_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "TRADEASSIST_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "TRADEASSIST_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "TRADEASSIST_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "TRADEASSIST_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.KeyPrefix, "TRADEASSIST_REDIS_KEY_PREFIX")

	// ── Server ──
	setInt(&cfg.Server.Port, "TRADEASSIST_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "TRADEASSIST_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "TRADEASSIST_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "TRADEASSIST_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "TRADEASSIST_SERVER_RATE_WINDOW")

	// ── Analysis ──
	setInt(&cfg.Analysis.TokenLimit, "TRADEASSIST_ANALYSIS_TOKEN_LIMIT")
	setInt(&cfg.Analysis.CharsPerToken, "TRADEASSIST_ANALYSIS_CHARS_PER_TOKEN")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "TRADEASSIST_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
