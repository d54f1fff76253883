package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/tradeassist/internal/domain"
	"github.com/alanyoungcy/tradeassist/internal/sqlguard"
)

// DefaultHistoryLimit is the trade-history page size used when the caller
// asks for a non-positive limit.
const DefaultHistoryLimit = 10

// PriceLookup resolves a live price for a symbol.
type PriceLookup interface {
	Resolve(ctx context.Context, symbol string) (domain.Quote, bool)
}

// TradingData reads recorded positions and trades and derives their PnL.
//
// Read policy: OpenPositions and TradeHistory return database errors.
// ListOpenPositions and ListTradeHistory log those errors and return an
// empty slice, so callers of the List methods cannot tell "no rows" from
// "database unavailable". RunAnalyticalQuery always returns errors.
type TradingData struct {
	store       domain.PositionStore
	prices      PriceLookup
	concurrency int
	logger      *slog.Logger
}

// NewTradingData creates a TradingData. concurrency bounds the number of
// price lookups in flight while enriching open positions; values below 1
// mean one lookup per row with no bound.
func NewTradingData(store domain.PositionStore, prices PriceLookup, concurrency int, logger *slog.Logger) *TradingData {
	return &TradingData{
		store:       store,
		prices:      prices,
		concurrency: concurrency,
		logger:      logger.With(slog.String("component", "trading_data")),
	}
}

// OpenPositions returns every open position, newest entry first, each
// enriched with a live price and unrealized PnL. A price that cannot be
// resolved leaves CurrentPrice nil and the PnL unavailable for that row only.
func (s *TradingData) OpenPositions(ctx context.Context, target string) ([]domain.OpenPosition, error) {
	rows, err := s.store.ListOpen(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("trading_data: open positions: %w", err)
	}

	out := make([]domain.OpenPosition, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for i, row := range rows {
		g.Go(func() error {
			out[i] = s.enrich(gctx, row)
			return nil
		})
	}
	_ = g.Wait()

	return out, nil
}

// ListOpenPositions is OpenPositions with database errors logged and
// collapsed into an empty result.
func (s *TradingData) ListOpenPositions(ctx context.Context, target string) []domain.OpenPosition {
	positions, err := s.OpenPositions(ctx, target)
	if err != nil {
		s.logger.ErrorContext(ctx, "trading_data: list open positions failed",
			slog.String("error", err.Error()),
		)
		return []domain.OpenPosition{}
	}
	return positions
}

// TradeHistory returns at most limit closed trades, most recent exit first.
func (s *TradingData) TradeHistory(ctx context.Context, target string, limit int) ([]domain.HistoricalTrade, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := s.store.ListClosed(ctx, target, limit)
	if err != nil {
		return nil, fmt.Errorf("trading_data: trade history: %w", err)
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}

	out := make([]domain.HistoricalTrade, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.NewHistoricalTrade(row))
	}
	return out, nil
}

// ListTradeHistory is TradeHistory with database errors logged and collapsed
// into an empty result.
func (s *TradingData) ListTradeHistory(ctx context.Context, target string, limit int) []domain.HistoricalTrade {
	trades, err := s.TradeHistory(ctx, target, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "trading_data: list trade history failed",
			slog.Int("limit", limit),
			slog.String("error", err.Error()),
		)
		return []domain.HistoricalTrade{}
	}
	return trades
}

// RunAnalyticalQuery checks query against the read-only policy and runs it
// with params bound positionally. A rejected query never reaches the
// database. Database errors are returned unchanged in the chain so callers
// can show the reason and retry with a corrected query.
func (s *TradingData) RunAnalyticalQuery(ctx context.Context, target, query string, params ...any) ([]map[string]any, error) {
	if v := sqlguard.Check(query); !v.OK() {
		s.logger.WarnContext(ctx, "trading_data: analytical query rejected",
			slog.String("verdict", v.Kind.String()),
			slog.String("keyword", v.Keyword),
		)
		return nil, v.Err()
	}

	rows, err := s.store.Query(ctx, target, query, params...)
	if err != nil {
		return nil, fmt.Errorf("trading_data: analytical query: %w", err)
	}
	return rows, nil
}

func (s *TradingData) enrich(ctx context.Context, row domain.PositionRow) domain.OpenPosition {
	pos := domain.OpenPosition{
		Symbol:     row.Symbol,
		Direction:  row.Direction,
		EntryPrice: row.EffectiveEntryPrice(),
		EntryTime:  row.EffectiveEntryTime(),
		Strategy:   row.Strategy,
	}

	q, ok := s.prices.Resolve(ctx, row.Symbol)
	if !ok {
		return pos
	}
	price := q.Price
	pos.CurrentPrice = &price
	if pos.EntryPrice != nil {
		pos.UnrealizedPnL = domain.ComputePnL(row.Direction, *pos.EntryPrice, price)
	}
	return pos
}
