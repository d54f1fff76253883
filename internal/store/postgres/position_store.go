package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/tradeassist/internal/domain"
)

// DefaultTable is the table holding recorded positions.
const DefaultTable = "positions_1d"

// PoolSource hands out the pool for a connection string.
type PoolSource interface {
	Pool(ctx context.Context, dsn string) (*pgxpool.Pool, error)
}

// StoreConfig tunes a PositionStore.
type StoreConfig struct {
	// Table may be schema-qualified, e.g. "trading.positions_1d".
	Table string
	// QueryTimeout bounds the position list queries. Zero means no bound.
	QueryTimeout time.Duration
	// StatementTimeout is applied to analytical queries with SET LOCAL.
	// Zero leaves the server default.
	StatementTimeout time.Duration
	// Logger receives warnings about unreadable rows. Nil means slog.Default.
	Logger *slog.Logger
}

// PositionStore implements domain.PositionStore using PostgreSQL.
type PositionStore struct {
	pools  PoolSource
	cfg    StoreConfig
	table  string
	logger *slog.Logger
}

// NewPositionStore creates a PositionStore reading from cfg.Table.
func NewPositionStore(pools PoolSource, cfg StoreConfig) *PositionStore {
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PositionStore{
		pools:  pools,
		cfg:    cfg,
		table:  quoteTable(cfg.Table),
		logger: logger.With(slog.String("component", "position_store")),
	}
}

// quoteTable quotes each dot-separated part of a table name.
func quoteTable(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

// Timestamps are read as text because deployments store them both as
// timestamptz and as strings; prices are read as float8 for the same reason.
const positionSelectCols = `id::bigint, status::int, COALESCE(symbol::text, ''),
	COALESCE(direction::text, ''), COALESCE(strategy::text, ''),
	timestampin::text, pricein::float8,
	timestampfill::text, pricefill::float8,
	timestampout::text, priceout::float8`

func (s *PositionStore) openQuery() string {
	return `SELECT ` + positionSelectCols + ` FROM ` + s.table + `
		WHERE status = $1
		ORDER BY timestampin DESC NULLS LAST`
}

func (s *PositionStore) closedQuery() string {
	return `SELECT ` + positionSelectCols + ` FROM ` + s.table + `
		WHERE status <> $1
		ORDER BY timestampout DESC NULLS LAST
		LIMIT $2`
}

// scanPositionRows reads position rows. A timestamp that cannot be parsed is
// logged and left nil so one bad row does not hide the rest.
func scanPositionRows(rows pgx.Rows, logger *slog.Logger) ([]domain.PositionRow, error) {
	positions := []domain.PositionRow{}
	for rows.Next() {
		var (
			r                       domain.PositionRow
			entryTS, fillTS, exitTS *string
		)
		if err := rows.Scan(
			&r.ID, &r.Status, &r.Symbol,
			&r.Direction, &r.Strategy,
			&entryTS, &r.EntryPrice,
			&fillTS, &r.FillPrice,
			&exitTS, &r.ExitPrice,
		); err != nil {
			return nil, err
		}

		r.EntryTime = lenientTime(logger, r.ID, "timestampin", entryTS)
		r.FillTime = lenientTime(logger, r.ID, "timestampfill", fillTS)
		r.ExitTime = lenientTime(logger, r.ID, "timestampout", exitTS)
		positions = append(positions, r)
	}
	return positions, rows.Err()
}

func lenientTime(logger *slog.Logger, id int64, column string, s *string) *time.Time {
	t, err := parseNullableTime(s)
	if err != nil {
		logger.Warn("position_store: unparseable timestamp",
			slog.Int64("id", id),
			slog.String("column", column),
			slog.String("value", *s),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return t
}

func parseNullableTime(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := domain.ParseTimestamp(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListOpen returns every open row, newest entry first.
func (s *PositionStore) ListOpen(ctx context.Context, target string) ([]domain.PositionRow, error) {
	return s.list(ctx, target, "list open positions", s.openQuery(), domain.StatusOpen)
}

// ListClosed returns at most limit closed rows, most recent exit first.
func (s *PositionStore) ListClosed(ctx context.Context, target string, limit int) ([]domain.PositionRow, error) {
	if limit <= 0 {
		return []domain.PositionRow{}, nil
	}
	return s.list(ctx, target, "list closed positions", s.closedQuery(), domain.StatusOpen, limit)
}

func (s *PositionStore) list(ctx context.Context, target, op, query string, args ...any) ([]domain.PositionRow, error) {
	pool, err := s.pools.Pool(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", op, err)
	}

	if s.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.QueryTimeout)
		defer cancel()
	}

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", op, err)
	}
	defer rows.Close()

	positions, err := scanPositionRows(rows, s.logger)
	if err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", op, err)
	}
	return positions, nil
}

// Query runs query inside a read-only transaction and returns each row as a
// map keyed by column name. The transaction is always rolled back.
func (s *PositionStore) Query(ctx context.Context, target, query string, args ...any) ([]map[string]any, error) {
	pool, err := s.pools.Pool(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("postgres: analytical query: %w", err)
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("postgres: begin read-only tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if stmt := statementTimeoutSQL(s.cfg.StatementTimeout); stmt != "" {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("postgres: set statement timeout: %w", err)
		}
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: analytical query: %w", err)
	}

	result, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("postgres: analytical query: %w", err)
	}
	if result == nil {
		result = []map[string]any{}
	}
	return result, nil
}

// statementTimeoutSQL renders the SET LOCAL for d in whole milliseconds, or
// "" when d is not positive.
func statementTimeoutSQL(d time.Duration) string {
	ms := d.Milliseconds()
	if ms <= 0 {
		return ""
	}
	return fmt.Sprintf("SET LOCAL statement_timeout = %d", ms)
}

var _ domain.PositionStore = (*PositionStore)(nil)
