package dexscreener

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alanyoungcy/tradeassist/internal/domain"
)

// PairSource prices a symbol from the USD price of its top search match.
type PairSource struct {
	client *Client
}

func NewPairSource(client *Client) *PairSource {
	return &PairSource{client: client}
}

// Name implements domain.PriceSource.
func (s *PairSource) Name() string { return "dexscreener" }

// Price implements domain.PriceSource. The symbol is searched as given,
// without a quote asset.
func (s *PairSource) Price(ctx context.Context, symbol string) (float64, error) {
	pair, err := s.client.FirstPair(ctx, symbol)
	if err != nil {
		return 0, err
	}
	price, err := strconv.ParseFloat(pair.PriceUSD, 64)
	if err != nil || price <= 0 {
		return 0, fmt.Errorf("dexscreener: price %s %q: %w", symbol, pair.PriceUSD, domain.ErrBadPayload)
	}
	return price, nil
}

var _ domain.PriceSource = (*PairSource)(nil)
