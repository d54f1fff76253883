package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// NotAvailable is the rendering of a PnL that could not be computed.
const NotAvailable = "N/A"

var hundred = decimal.NewFromInt(100)

// PnL is a signed percentage profit or loss. The zero value is unavailable
// and renders as "N/A".
type PnL struct {
	pct   decimal.Decimal
	valid bool
}

// ComputePnL returns sign * (mark - entry) / entry * 100 where sign is +1 for
// the long direction and -1 otherwise. A zero or non-finite entry or mark
// yields an unavailable PnL.
func ComputePnL(direction string, entry, mark float64) PnL {
	if !usable(entry) || !usable(mark) {
		return PnL{}
	}

	e := decimal.NewFromFloat(entry)
	pct := decimal.NewFromFloat(mark).Sub(e).Div(e).Mul(hundred)
	if !IsLong(direction) {
		pct = pct.Neg()
	}
	return PnL{pct: pct, valid: true}
}

func usable(v float64) bool {
	return v != 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Valid reports whether the PnL was computed.
func (p PnL) Valid() bool { return p.valid }

// Decimal returns the percentage value. It is zero when the PnL is unavailable.
func (p PnL) Decimal() decimal.Decimal { return p.pct }

// Positive reports whether the PnL is available and strictly above zero at
// display precision.
func (p PnL) Positive() bool {
	return p.valid && p.pct.Round(2).IsPositive()
}

// String renders the percentage with two decimals and a trailing "%", or
// "N/A" when unavailable.
func (p PnL) String() string {
	if !p.valid {
		return NotAvailable
	}
	return p.pct.StringFixed(2) + "%"
}

// MarshalJSON encodes the PnL as its display string.
func (p PnL) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}
