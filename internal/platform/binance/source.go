package binance

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/tradeassist/internal/domain"
)

// DefaultQuoteAsset is appended to base symbols to form spot pairs.
const DefaultQuoteAsset = "USDT"

// SpotSource resolves a base symbol's price from its spot pair against a
// fixed quote asset.
type SpotSource struct {
	client *Client
	quote  string
}

// NewSpotSource creates a SpotSource. An empty quote uses DefaultQuoteAsset.
func NewSpotSource(client *Client, quote string) *SpotSource {
	if quote == "" {
		quote = DefaultQuoteAsset
	}
	return &SpotSource{client: client, quote: quote}
}

// Name implements domain.PriceSource.
func (s *SpotSource) Name() string { return "binance" }

// Pair returns the spot pair traded for symbol.
func (s *SpotSource) Pair(symbol string) string {
	return domain.PairSymbol(symbol, s.quote)
}

// Price implements domain.PriceSource. A non-positive price is unusable.
func (s *SpotSource) Price(ctx context.Context, symbol string) (float64, error) {
	price, err := s.client.TickerPrice(ctx, s.Pair(symbol))
	if err != nil {
		return 0, err
	}
	if price <= 0 {
		return 0, fmt.Errorf("binance: price %s is %v: %w", s.Pair(symbol), price, domain.ErrBadPayload)
	}
	return price, nil
}

var _ domain.PriceSource = (*SpotSource)(nil)
