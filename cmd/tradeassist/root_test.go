package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/tradeassist/internal/domain"
	"github.com/alanyoungcy/tradeassist/internal/sqlguard"
	"github.com/alanyoungcy/tradeassist/internal/store/postgres"
)

func writeConfig(t *testing.T, binanceURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `log_level = "error"

[database]
dsn = "postgres://reader@127.0.0.1:1/trading?sslmode=disable"

[binance]
base_url = "` + binanceURL + `"

[pricing]
cache = "none"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeWithOptions(t, args...)
	return out, err
}

func executeWithOptions(t *testing.T, args ...string) (string, *rootOptions, error) {
	t.Helper()
	cmd, opts := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	opts.close()
	return out.String(), opts, err
}

func spotServer(t *testing.T, price string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"symbol":"`+r.URL.Query().Get("symbol")+`","price":"`+price+`"}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewLoggerLevels(t *testing.T) {
	ctx := context.Background()

	assert.True(t, newLogger(io.Discard, "debug").Enabled(ctx, slog.LevelDebug))
	assert.False(t, newLogger(io.Discard, "info").Enabled(ctx, slog.LevelDebug))
	assert.False(t, newLogger(io.Discard, "WARN").Enabled(ctx, slog.LevelInfo))
	assert.True(t, newLogger(io.Discard, "bogus").Enabled(ctx, slog.LevelInfo))
}

func TestQueryCommandRejectsWrites(t *testing.T) {
	cfg := writeConfig(t, "http://127.0.0.1:1")

	_, err := execute(t, "--config", cfg, "query", "DELETE FROM positions_1d")
	require.Error(t, err)
	assert.True(t, sqlguard.IsRejection(err))
}

func TestPriceCommand(t *testing.T) {
	spot := spotServer(t, "2450.1")
	cfg := writeConfig(t, spot.URL)

	out, err := execute(t, "--config", cfg, "price", "$eth")
	require.NoError(t, err)

	var q domain.Quote
	require.NoError(t, json.Unmarshal([]byte(out), &q))
	assert.Equal(t, "ETH", q.Symbol)
	assert.Equal(t, 2450.1, q.Price)
	assert.Equal(t, "binance", q.Source)
}

func TestPriceCommandDigest(t *testing.T) {
	spot := spotServer(t, "1.5")
	cfg := writeConfig(t, spot.URL)

	out, err := execute(t, "--config", cfg, "--digest", "price", "arb")
	require.NoError(t, err)
	assert.Equal(t, "ARB: 1.5 (binance)\n", out)
}

func TestFailedCommandStillClosesApp(t *testing.T) {
	cfg := writeConfig(t, "http://127.0.0.1:1")

	_, opts, err := executeWithOptions(t, "--config", cfg, "positions")
	require.Error(t, err, "nothing listens on the configured database port")
	require.NotNil(t, opts.app)

	deps, err := opts.app.Dependencies(context.Background())
	require.NoError(t, err)
	_, err = deps.Pools.Pool(context.Background(), deps.Target)
	assert.ErrorIs(t, err, postgres.ErrClosed)
}

func TestCloseBeforeSetup(t *testing.T) {
	_, opts := newRootCmd()
	assert.NotPanics(t, opts.close)
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("log_level = \"loud\"\n"), 0o600))

	_, err := execute(t, "--config", path, "price", "eth")
	assert.ErrorContains(t, err, "log_level")
}
