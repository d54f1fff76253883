package handler

import (
	"context"

	"github.com/alanyoungcy/tradeassist/internal/domain"
)

// TradingService is the position and trade reader behind the API.
type TradingService interface {
	ListOpenPositions(ctx context.Context, target string) []domain.OpenPosition
	ListTradeHistory(ctx context.Context, target string, limit int) []domain.HistoricalTrade
	RunAnalyticalQuery(ctx context.Context, target, query string, params ...any) ([]map[string]any, error)
}

// PriceService resolves live prices.
type PriceService interface {
	Resolve(ctx context.Context, symbol string) (domain.Quote, bool)
}

// MarketService gathers market snapshots.
type MarketService interface {
	Snapshot(ctx context.Context, symbol string) (domain.TokenSnapshot, error)
}
