package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/tradeassist/internal/domain"
)

// PriceHandler serves live prices and market snapshots.
type PriceHandler struct {
	prices PriceService
	market MarketService
	logger *slog.Logger
}

// NewPriceHandler creates a PriceHandler.
func NewPriceHandler(prices PriceService, market MarketService, logger *slog.Logger) *PriceHandler {
	return &PriceHandler{
		prices: prices,
		market: market,
		logger: logger,
	}
}

// GetPrice returns the current price of a symbol.
// GET /api/price/{symbol}
func (h *PriceHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	symbol := pathParam(r, "symbol")
	q, ok := h.prices.Resolve(r.Context(), symbol)
	if !ok {
		writeError(w, http.StatusNotFound, "no price found for "+symbol)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// GetSnapshot returns the spot price, 24h statistics and top DEX pair of a
// symbol. It answers 404 when neither a spot price nor a DEX pair was found.
// GET /api/market/{symbol}
func (h *PriceHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	symbol := pathParam(r, "symbol")
	snap, err := h.market.Snapshot(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, domain.ErrEmptySymbol) {
			writeError(w, http.StatusBadRequest, "symbol is required")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: market snapshot failed",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load market data")
		return
	}
	if !snap.HasData() {
		writeError(w, http.StatusNotFound, "no market data found for "+symbol)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
