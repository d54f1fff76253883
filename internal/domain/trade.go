package domain

import "time"

// HistoricalTrade is a closed row with its realized PnL.
type HistoricalTrade struct {
	Symbol        string     `json:"symbol"`
	Side          string     `json:"side"`
	EntryPrice    *float64   `json:"entry_price"`
	ExitPrice     *float64   `json:"exit_price"`
	Strategy      string     `json:"strategy"`
	ExecutionDate *time.Time `json:"execution_date"`
	RealizedPnL   PnL        `json:"realized_pnl"`
}

// NewHistoricalTrade derives the display record for a closed row.
func NewHistoricalTrade(r PositionRow) HistoricalTrade {
	entry := r.EffectiveEntryPrice()

	var pnl PnL
	if entry != nil && r.ExitPrice != nil {
		pnl = ComputePnL(r.Direction, *entry, *r.ExitPrice)
	}

	return HistoricalTrade{
		Symbol:        r.Symbol,
		Side:          r.Direction,
		EntryPrice:    entry,
		ExitPrice:     r.ExitPrice,
		Strategy:      r.Strategy,
		ExecutionDate: r.ExitTime,
		RealizedPnL:   pnl,
	}
}
