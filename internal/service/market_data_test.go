package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/tradeassist/internal/domain"
)

func TestSnapshotAllSources(t *testing.T) {
	spot := &fakeSpot{price: 3120.5, ticker: domain.Ticker24h{Symbol: "ETHUSDT", Volume: "1000"}}
	dex := &fakeDex{pair: domain.DexPair{PairAddress: "0xabc", PriceUSD: "3119.9"}}
	m := NewMarketData(spot, dex, "USDT", discardLogger())

	snap, err := m.Snapshot(context.Background(), "$eth")
	require.NoError(t, err)

	assert.Equal(t, "ETH", snap.Symbol)
	assert.Equal(t, "ETHUSDT", spot.gotPair)
	assert.Equal(t, "eth", dex.gotQ)
	require.NotNil(t, snap.SpotPrice)
	assert.Equal(t, 3120.5, *snap.SpotPrice)
	require.NotNil(t, snap.Ticker24h)
	assert.Equal(t, "1000", snap.Ticker24h.Volume)
	require.NotNil(t, snap.DexPair)
	assert.Equal(t, "0xabc", snap.DexPair.PairAddress)
	assert.True(t, snap.HasData())
}

func TestSnapshotPartial(t *testing.T) {
	spot := &fakeSpot{priceErr: domain.ErrNotFound, tickErr: domain.ErrNotFound}
	dex := &fakeDex{pair: domain.DexPair{PairAddress: "pump", PriceUSD: "0.0012"}}
	m := NewMarketData(spot, dex, "USDT", discardLogger())

	snap, err := m.Snapshot(context.Background(), "PEPE2")
	require.NoError(t, err)
	assert.Nil(t, snap.SpotPrice)
	assert.Nil(t, snap.Ticker24h)
	require.NotNil(t, snap.DexPair)
	assert.True(t, snap.HasData())
}

func TestSnapshotNothingResolved(t *testing.T) {
	spot := &fakeSpot{priceErr: errors.New("timeout"), ticker: domain.Ticker24h{Symbol: "XUSDT"}}
	dex := &fakeDex{err: domain.ErrNotFound}
	m := NewMarketData(spot, dex, "USDT", discardLogger())

	snap, err := m.Snapshot(context.Background(), "X")
	require.NoError(t, err)
	assert.Nil(t, snap.SpotPrice)
	assert.NotNil(t, snap.Ticker24h)
	assert.Nil(t, snap.DexPair)
	assert.False(t, snap.HasData())
}

func TestSnapshotZeroSpotPrice(t *testing.T) {
	m := NewMarketData(&fakeSpot{price: 0}, &fakeDex{err: domain.ErrNotFound}, "USDT", discardLogger())

	snap, err := m.Snapshot(context.Background(), "ETH")
	require.NoError(t, err)
	assert.Nil(t, snap.SpotPrice)
}

func TestSnapshotEmptySymbol(t *testing.T) {
	m := NewMarketData(&fakeSpot{}, &fakeDex{}, "USDT", discardLogger())

	_, err := m.Snapshot(context.Background(), " ")
	assert.ErrorIs(t, err, domain.ErrEmptySymbol)
}
