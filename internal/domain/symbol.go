package domain

import (
	"fmt"
	"strings"
)

// NormalizeSymbol trims whitespace and a leading "$" from a user-supplied
// ticker. The case is preserved; exchange-specific sources apply their own.
func NormalizeSymbol(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimPrefix(s, "$"))
	if s == "" {
		return "", fmt.Errorf("%w: %q", ErrEmptySymbol, raw)
	}
	return s, nil
}

// PairSymbol joins a base symbol and a quote asset the way centralized
// exchanges name spot pairs, e.g. ("eth", "USDT") -> "ETHUSDT".
func PairSymbol(base, quote string) string {
	return strings.ToUpper(base) + strings.ToUpper(quote)
}
