package domain

import "time"

// StatusOpen is the status flag carried by rows that have been entered but
// not yet exited. Any other status is a closed position.
const StatusOpen = 2

// DirectionLong is the only direction treated as long. Every other value is
// treated as short.
const DirectionLong = "longonly"

// PositionRow is a raw row of the positions table. Prices and timestamps are
// nullable in storage and stay nil when absent.
type PositionRow struct {
	ID        int64
	Status    int
	Symbol    string
	Direction string
	Strategy  string

	EntryTime  *time.Time // intent timestamp (timestampin)
	EntryPrice *float64   // intent price (pricein)
	FillTime   *time.Time
	FillPrice  *float64
	ExitTime   *time.Time
	ExitPrice  *float64
}

// EffectiveEntryPrice returns the fill price when one was recorded, else the
// intent price. A zero fill price counts as not recorded.
func (r PositionRow) EffectiveEntryPrice() *float64 {
	if r.FillPrice != nil && *r.FillPrice != 0 {
		return r.FillPrice
	}
	return r.EntryPrice
}

// EffectiveEntryTime returns the fill timestamp when present, else the intent
// timestamp.
func (r PositionRow) EffectiveEntryTime() *time.Time {
	if r.FillTime != nil {
		return r.FillTime
	}
	return r.EntryTime
}

// IsLong reports whether direction is the long direction.
func IsLong(direction string) bool { return direction == DirectionLong }

// OpenPosition is an open row enriched with a live price and unrealized PnL.
type OpenPosition struct {
	Symbol        string     `json:"symbol"`
	Direction     string     `json:"direction"`
	EntryPrice    *float64   `json:"entry_price"`
	CurrentPrice  *float64   `json:"current_price"`
	EntryTime     *time.Time `json:"entry_time"`
	Strategy      string     `json:"strategy"`
	UnrealizedPnL PnL        `json:"unrealized_pnl"`
}
