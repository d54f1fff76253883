package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/tradeassist/internal/digest"
	"github.com/alanyoungcy/tradeassist/internal/domain"
)

// PositionHandler serves open-position endpoints.
type PositionHandler struct {
	trading TradingService
	target  string
	logger  *slog.Logger
}

// NewPositionHandler creates a PositionHandler reading from the database at
// target.
func NewPositionHandler(trading TradingService, target string, logger *slog.Logger) *PositionHandler {
	return &PositionHandler{
		trading: trading,
		target:  target,
		logger:  logger,
	}
}

// listPositionsResponse wraps the list positions response.
type listPositionsResponse struct {
	Positions []domain.OpenPosition `json:"positions"`
	Digest    string                `json:"digest"`
}

// ListPositions returns every open position with live PnL.
// GET /api/positions
func (h *PositionHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	positions := h.trading.ListOpenPositions(r.Context(), h.target)
	writeJSON(w, http.StatusOK, listPositionsResponse{
		Positions: positions,
		Digest:    digest.Positions(positions),
	})
}

// ListProfitable returns the open positions currently in profit.
// GET /api/positions/profitable
func (h *PositionHandler) ListProfitable(w http.ResponseWriter, r *http.Request) {
	all := h.trading.ListOpenPositions(r.Context(), h.target)

	profitable := make([]domain.OpenPosition, 0, len(all))
	for _, p := range all {
		if p.UnrealizedPnL.Positive() {
			profitable = append(profitable, p)
		}
	}

	writeJSON(w, http.StatusOK, listPositionsResponse{
		Positions: profitable,
		Digest:    digest.Profitable(profitable),
	})
}
