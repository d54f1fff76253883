package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/tradeassist/internal/digest"
	"github.com/alanyoungcy/tradeassist/internal/domain"
)

// TradeHandler serves trade-history endpoints.
type TradeHandler struct {
	trading TradingService
	target  string
	logger  *slog.Logger
}

// NewTradeHandler creates a TradeHandler reading from the database at target.
func NewTradeHandler(trading TradingService, target string, logger *slog.Logger) *TradeHandler {
	return &TradeHandler{
		trading: trading,
		target:  target,
		logger:  logger,
	}
}

type listTradesResponse struct {
	Trades []domain.HistoricalTrade `json:"trades"`
	Limit  int                      `json:"limit"`
	Digest string                   `json:"digest"`
}

// ListTrades returns the most recent closed trades.
// GET /api/trades?limit=10
func (h *TradeHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r)
	trades := h.trading.ListTradeHistory(r.Context(), h.target, limit)
	writeJSON(w, http.StatusOK, listTradesResponse{
		Trades: trades,
		Limit:  limit,
		Digest: digest.Trades(trades),
	})
}
