package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alanyoungcy/tradeassist/internal/digest"
	"github.com/alanyoungcy/tradeassist/internal/sqlguard"
)

const maxQueryBody = 1 << 20

// QueryHandler runs analytical queries.
type QueryHandler struct {
	trading TradingService
	target  string
	budget  digest.Budget
	logger  *slog.Logger
}

// NewQueryHandler creates a QueryHandler. Results whose estimated token count
// exceeds budget are refused.
func NewQueryHandler(trading TradingService, target string, budget digest.Budget, logger *slog.Logger) *QueryHandler {
	return &QueryHandler{
		trading: trading,
		target:  target,
		budget:  budget,
		logger:  logger,
	}
}

type queryRequest struct {
	Query  string `json:"query"`
	Params []any  `json:"params"`
}

type queryResponse struct {
	Rows            []map[string]any `json:"rows"`
	RowCount        int              `json:"row_count"`
	EstimatedTokens int              `json:"estimated_tokens"`
}

// RunQuery executes a read-only SELECT.
// POST /api/query {"query": "SELECT ...", "params": [...]}
//
// 400: malformed body or rejected by the query policy.
// 413: result too large for the token budget.
// 502: the database reported an error; the message is passed through.
func (h *QueryHandler) RunQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBody))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	rows, err := h.trading.RunAnalyticalQuery(r.Context(), h.target, req.Query, normalizeParams(req.Params)...)
	if err != nil {
		if sqlguard.IsRejection(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.WarnContext(r.Context(), "handler: analytical query failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	tokens, fits, err := h.budget.Fits(rows)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode result")
		return
	}
	if !fits {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{
			"error": fmt.Sprintf("result is estimated at %d tokens, above the limit of %d; narrow the time range or select fewer columns",
				tokens, h.budget.Limit),
			"estimated_tokens": tokens,
			"token_limit":      h.budget.Limit,
		})
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Rows:            rows,
		RowCount:        len(rows),
		EstimatedTokens: tokens,
	})
}

// normalizeParams turns JSON numbers into int64 when integral and float64
// otherwise, so the driver can encode them.
func normalizeParams(params []any) []any {
	out := make([]any, len(params))
	for i, p := range params {
		n, ok := p.(json.Number)
		if !ok {
			out[i] = p
			continue
		}
		if v, err := n.Int64(); err == nil {
			out[i] = v
		} else if f, err := n.Float64(); err == nil {
			out[i] = f
		} else {
			out[i] = n.String()
		}
	}
	return out
}
