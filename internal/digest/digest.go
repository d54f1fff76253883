// Package digest renders positions, trades and query results as compact text
// for a language-model prompt, and estimates how many tokens a payload costs.
package digest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/alanyoungcy/tradeassist/internal/domain"
)

const (
	NoPositions = "No open positions found."
	NoTrades    = "No trading history found."
)

// Positions renders one "SYMBOL: Entry at P, Current PnL: X" line per
// position.
func Positions(positions []domain.OpenPosition) string {
	if len(positions) == 0 {
		return NoPositions
	}
	lines := make([]string, 0, len(positions))
	for _, p := range positions {
		lines = append(lines, fmt.Sprintf("%s: Entry at %s, Current PnL: %s",
			p.Symbol, formatPrice(p.EntryPrice), p.UnrealizedPnL))
	}
	return strings.Join(lines, "\n")
}

// Trades renders one "YYYY-MM-DD: side SYMBOL @ P | PnL: X" line per trade.
func Trades(trades []domain.HistoricalTrade) string {
	if len(trades) == 0 {
		return NoTrades
	}
	lines := make([]string, 0, len(trades))
	for _, t := range trades {
		date := "unknown date"
		if t.ExecutionDate != nil {
			date = t.ExecutionDate.UTC().Format("2006-01-02")
		}
		lines = append(lines, fmt.Sprintf("%s: %s %s @ %s | PnL: %s",
			date, t.Side, t.Symbol, formatPrice(t.EntryPrice), t.RealizedPnL))
	}
	return strings.Join(lines, "\n")
}

// Profitable renders "SYMBOL: +X%" for each position whose unrealized PnL is
// above zero, or "" when none is.
func Profitable(positions []domain.OpenPosition) string {
	var lines []string
	for _, p := range positions {
		if !p.UnrealizedPnL.Positive() {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: +%s", p.Symbol, p.UnrealizedPnL))
	}
	return strings.Join(lines, "\n")
}

func formatPrice(p *float64) string {
	if p == nil {
		return domain.NotAvailable
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

// Budget is a rough prompt-size guard measured in estimated tokens.
type Budget struct {
	Limit         int
	CharsPerToken int
}

// DefaultBudget matches a 30k-token request ceiling at four characters per
// token.
var DefaultBudget = Budget{Limit: 30_000, CharsPerToken: 4}

// EstimateTokens returns ceil(len(json(v)) / CharsPerToken).
func (b Budget) EstimateTokens(v any) (int, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("digest: estimate tokens: %w", err)
	}
	per := b.CharsPerToken
	if per <= 0 {
		per = DefaultBudget.CharsPerToken
	}
	return (len(data) + per - 1) / per, nil
}

// Fits reports whether v's estimate is within the limit, along with the
// estimate. A non-positive limit disables the check.
func (b Budget) Fits(v any) (int, bool, error) {
	n, err := b.EstimateTokens(v)
	if err != nil {
		return 0, false, err
	}
	return n, b.Limit <= 0 || n <= b.Limit, nil
}
