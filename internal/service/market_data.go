package service

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/tradeassist/internal/domain"
)

// SpotClient is the centralized-exchange market data used by MarketData.
type SpotClient interface {
	TickerPrice(ctx context.Context, pair string) (float64, error)
	Ticker24h(ctx context.Context, pair string) (domain.Ticker24h, error)
}

// DexClient is the decentralized-exchange search used by MarketData.
type DexClient interface {
	FirstPair(ctx context.Context, q string) (domain.DexPair, error)
}

// MarketData gathers a composite snapshot of a symbol from the spot ticker,
// the 24h statistics and the top DEX pair. The three fetches run
// concurrently and each one that fails leaves its part of the snapshot nil.
type MarketData struct {
	spot   SpotClient
	dex    DexClient
	quote  string
	logger *slog.Logger
}

// NewMarketData creates a MarketData. quote is the asset spot pairs are
// formed against, e.g. "USDT".
func NewMarketData(spot SpotClient, dex DexClient, quote string, logger *slog.Logger) *MarketData {
	return &MarketData{
		spot:   spot,
		dex:    dex,
		quote:  quote,
		logger: logger.With(slog.String("component", "market_data")),
	}
}

// Snapshot fetches everything known about symbol. The only error is
// domain.ErrEmptySymbol; source failures produce a partial snapshot.
func (m *MarketData) Snapshot(ctx context.Context, symbol string) (domain.TokenSnapshot, error) {
	sym, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return domain.TokenSnapshot{}, err
	}
	pair := domain.PairSymbol(sym, m.quote)

	var (
		spot   *float64
		ticker *domain.Ticker24h
		dex    *domain.DexPair
	)

	// Each goroutine owns one result variable and always returns nil so a
	// failure cannot cancel its siblings.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		price, err := m.spot.TickerPrice(gctx, pair)
		if err != nil {
			m.warn(gctx, "spot price", sym, err)
			return nil
		}
		if usablePrice(price) {
			spot = &price
		}
		return nil
	})
	g.Go(func() error {
		t, err := m.spot.Ticker24h(gctx, pair)
		if err != nil {
			m.warn(gctx, "24h ticker", sym, err)
			return nil
		}
		ticker = &t
		return nil
	})
	g.Go(func() error {
		p, err := m.dex.FirstPair(gctx, sym)
		if err != nil {
			m.warn(gctx, "dex pair", sym, err)
			return nil
		}
		dex = &p
		return nil
	})
	_ = g.Wait()

	return domain.TokenSnapshot{
		Symbol:    strings.ToUpper(sym),
		SpotPrice: spot,
		Ticker24h: ticker,
		DexPair:   dex,
	}, nil
}

func (m *MarketData) warn(ctx context.Context, part, sym string, err error) {
	m.logger.WarnContext(ctx, "market_data: fetch failed",
		slog.String("part", part),
		slog.String("symbol", sym),
		slog.String("error", err.Error()),
	)
}
