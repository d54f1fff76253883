package postgres

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/tradeassist/internal/domain"
)

func TestQuoteTable(t *testing.T) {
	assert.Equal(t, `"positions_1d"`, quoteTable("positions_1d"))
	assert.Equal(t, `"trading"."positions_1d"`, quoteTable("trading.positions_1d"))
	assert.Equal(t, `"x""; DROP TABLE y; --"`, quoteTable(`x"; DROP TABLE y; --`))
}

func TestStatementTimeoutSQL(t *testing.T) {
	assert.Equal(t, "", statementTimeoutSQL(0))
	assert.Equal(t, "", statementTimeoutSQL(500*time.Microsecond))
	assert.Equal(t, "SET LOCAL statement_timeout = 15000", statementTimeoutSQL(15*time.Second))
}

func TestQueriesAreParameterized(t *testing.T) {
	s := NewPositionStore(nil, StoreConfig{})
	assert.Contains(t, s.openQuery(), `FROM "positions_1d"`)
	assert.Contains(t, s.openQuery(), "WHERE status = $1")
	assert.Contains(t, s.openQuery(), "ORDER BY timestampin DESC")
	assert.Contains(t, s.closedQuery(), "WHERE status <> $1")
	assert.Contains(t, s.closedQuery(), "ORDER BY timestampout DESC")
	assert.Contains(t, s.closedQuery(), "LIMIT $2")
}

func TestParseNullableTime(t *testing.T) {
	got, err := parseNullableTime(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	blank := " "
	got, err = parseNullableTime(&blank)
	require.NoError(t, err)
	assert.Nil(t, got)

	ts := "2024-03-01 10:00:00+00"
	got, err = parseNullableTime(&ts)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), *got)

	bad := "yesterday"
	_, err = parseNullableTime(&bad)
	assert.Error(t, err)
}

// fakeRows serves fixed rows to scanPositionRows. Each value must have the
// exact type its Scan destination points to, or be nil.
type fakeRows struct {
	rows [][]any
	pos  int
}

func (f *fakeRows) Close() {}
func (f *fakeRows) Err() error { return nil }
func (f *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (f *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (f *fakeRows) RawValues() [][]byte { return nil }
func (f *fakeRows) Conn() *pgx.Conn { return nil }

func (f *fakeRows) Next() bool {
	f.pos++
	return f.pos <= len(f.rows)
}

func (f *fakeRows) Values() ([]any, error) { return f.rows[f.pos-1], nil }

func (f *fakeRows) Scan(dest ...any) error {
	row := f.rows[f.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(row))
	}
	for i, d := range dest {
		elem := reflect.ValueOf(d).Elem()
		if row[i] == nil {
			elem.Set(reflect.Zero(elem.Type()))
			continue
		}
		elem.Set(reflect.ValueOf(row[i]))
	}
	return nil
}

func positionValues(id int64, symbol string, entryTS *string, entryPrice *float64) []any {
	return []any{
		id, domain.StatusOpen, symbol, domain.DirectionLong, "trend",
		entryTS, entryPrice,
		(*string)(nil), (*float64)(nil),
		(*string)(nil), (*float64)(nil),
	}
}

func TestScanPositionRowsKeepsRowsWithBadTimestamps(t *testing.T) {
	good := "2024-03-09 14:05:00+00"
	bad := "09/03/2024 14:05"
	price := 3000.0

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	rows, err := scanPositionRows(&fakeRows{rows: [][]any{
		positionValues(1, "ETH", &good, &price),
		positionValues(2, "SOL", &bad, &price),
	}}, logger)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NotNil(t, rows[0].EntryTime)
	assert.Equal(t, time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC), *rows[0].EntryTime)

	assert.Equal(t, int64(2), rows[1].ID)
	assert.Equal(t, "SOL", rows[1].Symbol)
	assert.Nil(t, rows[1].EntryTime)
	require.NotNil(t, rows[1].EntryPrice)
	assert.Equal(t, 3000.0, *rows[1].EntryPrice)

	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "id=2")
	assert.Contains(t, logs.String(), "column=timestampin")
}

// newIntegrationStore creates a scratch positions table on the database named
// by TRADEASSIST_TEST_DSN and skips the test when it is unset.
func newIntegrationStore(t *testing.T) (*PositionStore, string) {
	t.Helper()
	dsn := os.Getenv("TRADEASSIST_TEST_DSN")
	if dsn == "" {
		t.Skip("TRADEASSIST_TEST_DSN not set")
	}

	ctx := context.Background()
	registry := NewRegistry(PoolOptions{MaxConns: 4})
	t.Cleanup(registry.Close)

	pool, err := registry.Pool(ctx, dsn)
	require.NoError(t, err)

	table := fmt.Sprintf("positions_test_%d", time.Now().UnixNano())
	_, err = pool.Exec(ctx, `CREATE TABLE `+quoteTable(table)+` (
		id serial PRIMARY KEY,
		status int NOT NULL,
		symbol text NOT NULL,
		direction text NOT NULL,
		strategy text,
		timestampin timestamptz,
		pricein numeric,
		timestampfill timestamptz,
		pricefill double precision,
		timestampout timestamptz,
		priceout double precision
	)`)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DROP TABLE IF EXISTS `+quoteTable(table))
	})

	_, err = pool.Exec(ctx, `INSERT INTO `+quoteTable(table)+`
		(status, symbol, direction, strategy, timestampin, pricein, timestampfill, pricefill, timestampout, priceout) VALUES
		(2, 'ETH', 'longonly', 'trend', '2024-03-02T00:00:00Z', 3000, '2024-03-02T00:05:00Z', 3010, NULL, NULL),
		(2, 'SOL', 'short', 'mean', '2024-03-03T00:00:00Z', 120, NULL, NULL, NULL, NULL),
		(1, 'BTC', 'longonly', 'trend', '2024-02-01T00:00:00Z', 40000, NULL, NULL, '2024-02-10T00:00:00Z', 44000),
		(0, 'DOGE', 'short', 'mean', '2024-02-05T00:00:00Z', 0.1, NULL, NULL, '2024-02-12T00:00:00Z', 0.09)`)
	require.NoError(t, err)

	return NewPositionStore(registry, StoreConfig{
		Table:            table,
		QueryTimeout:     5 * time.Second,
		StatementTimeout: 5 * time.Second,
	}), dsn
}

func TestPositionStoreIntegration(t *testing.T) {
	store, dsn := newIntegrationStore(t)
	ctx := context.Background()

	open, err := store.ListOpen(ctx, dsn)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "SOL", open[0].Symbol)
	assert.Equal(t, "ETH", open[1].Symbol)
	require.NotNil(t, open[1].FillPrice)
	assert.Equal(t, 3010.0, *open[1].FillPrice)
	assert.Equal(t, 3010.0, *open[1].EffectiveEntryPrice())
	assert.Nil(t, open[1].ExitTime)

	closed, err := store.ListClosed(ctx, dsn, 10)
	require.NoError(t, err)
	require.Len(t, closed, 2)
	assert.Equal(t, "DOGE", closed[0].Symbol)
	assert.Equal(t, "BTC", closed[1].Symbol)
	assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), *closed[1].ExitTime)

	limited, err := store.ListClosed(ctx, dsn, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	rows, err := store.Query(ctx, dsn,
		`SELECT symbol, count(*) AS n FROM `+quoteTable(store.cfg.Table)+` WHERE direction = $1 GROUP BY symbol ORDER BY symbol`,
		domain.DirectionLong)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "BTC", rows[0]["symbol"])
	assert.EqualValues(t, 1, rows[0]["n"])
}

func TestPositionStoreQueryIsReadOnly(t *testing.T) {
	store, dsn := newIntegrationStore(t)

	_, err := store.Query(context.Background(), dsn,
		`SELECT * FROM (SELECT 1) x; DELETE FROM `+quoteTable(store.cfg.Table))
	require.Error(t, err)

	_, err = store.Query(context.Background(), dsn, `SELECT nope FROM `+quoteTable(store.cfg.Table))
	require.Error(t, err)
}
