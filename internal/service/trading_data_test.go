package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/tradeassist/internal/domain"
	"github.com/alanyoungcy/tradeassist/internal/sqlguard"
)

const target = "postgres://reader@localhost/trading"

func openRow(symbol, direction string, entry float64, at time.Time) domain.PositionRow {
	return domain.PositionRow{
		Status:     domain.StatusOpen,
		Symbol:     symbol,
		Direction:  direction,
		Strategy:   "momentum",
		EntryTime:  ptr(at),
		EntryPrice: ptr(entry),
	}
}

func TestOpenPositionsEnrichment(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	filled := openRow("SOL", "short", 150, now.Add(-time.Hour))
	filled.FillPrice = ptr(160.0)
	filled.FillTime = ptr(now.Add(-30 * time.Minute))

	store := &fakeStore{open: []domain.PositionRow{
		openRow("ETH", domain.DirectionLong, 100, now),
		filled,
		openRow("GHOST", domain.DirectionLong, 1, now.Add(-2*time.Hour)),
	}}
	prices := delayedPrices{prices: map[string]float64{"ETH": 110, "SOL": 144}}
	svc := NewTradingData(store, prices, 4, discardLogger())

	got, err := svc.OpenPositions(context.Background(), target)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "ETH", got[0].Symbol)
	assert.Equal(t, "10.00%", got[0].UnrealizedPnL.String())
	require.NotNil(t, got[0].CurrentPrice)
	assert.Equal(t, 110.0, *got[0].CurrentPrice)

	assert.Equal(t, "SOL", got[1].Symbol)
	assert.Equal(t, 160.0, *got[1].EntryPrice)
	assert.Equal(t, now.Add(-30*time.Minute), *got[1].EntryTime)
	assert.Equal(t, "10.00%", got[1].UnrealizedPnL.String())

	assert.Equal(t, "GHOST", got[2].Symbol)
	assert.Nil(t, got[2].CurrentPrice)
	assert.Equal(t, domain.NotAvailable, got[2].UnrealizedPnL.String())
}

func TestOpenPositionsKeepsQueryOrder(t *testing.T) {
	now := time.Now().UTC()
	store := &fakeStore{open: []domain.PositionRow{
		openRow("A", domain.DirectionLong, 1, now),
		openRow("B", domain.DirectionLong, 1, now.Add(-time.Minute)),
		openRow("C", domain.DirectionLong, 1, now.Add(-2*time.Minute)),
	}}
	prices := delayedPrices{
		prices: map[string]float64{"A": 2, "B": 2, "C": 2},
		delay:  map[string]time.Duration{"A": 30 * time.Millisecond, "B": 15 * time.Millisecond},
	}
	svc := NewTradingData(store, prices, 0, discardLogger())

	got := svc.ListOpenPositions(context.Background(), target)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{got[0].Symbol, got[1].Symbol, got[2].Symbol})
}

func TestListOpenPositionsOutage(t *testing.T) {
	svc := NewTradingData(&fakeStore{err: errOutage}, delayedPrices{}, 4, discardLogger())

	got := svc.ListOpenPositions(context.Background(), target)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, err := svc.OpenPositions(context.Background(), target)
	assert.ErrorIs(t, err, errOutage)
}

func TestTradeHistory(t *testing.T) {
	exit := time.Date(2024, 4, 30, 9, 15, 0, 0, time.UTC)
	store := &fakeStore{closed: []domain.PositionRow{
		{Symbol: "ETH", Direction: domain.DirectionLong, EntryPrice: ptr(100.0), ExitPrice: ptr(110.0), ExitTime: ptr(exit)},
		{Symbol: "BTC", Direction: "short", EntryPrice: ptr(100.0), ExitPrice: ptr(110.0), ExitTime: ptr(exit.Add(-time.Hour))},
		{Symbol: "DOGE", Direction: domain.DirectionLong, EntryPrice: ptr(0.1)},
	}}
	svc := NewTradingData(store, delayedPrices{}, 4, discardLogger())

	got, err := svc.TradeHistory(context.Background(), target, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 10, store.gotLimit)

	assert.Equal(t, "10.00%", got[0].RealizedPnL.String())
	assert.Equal(t, exit, *got[0].ExecutionDate)
	assert.Equal(t, "-10.00%", got[1].RealizedPnL.String())
	assert.Equal(t, "short", got[1].Side)
	assert.Equal(t, domain.NotAvailable, got[2].RealizedPnL.String())
}

func TestTradeHistoryLimit(t *testing.T) {
	var rows []domain.PositionRow
	for range 15 {
		rows = append(rows, domain.PositionRow{Symbol: "ETH"})
	}
	store := &fakeStore{closed: rows}
	svc := NewTradingData(store, delayedPrices{}, 4, discardLogger())

	got := svc.ListTradeHistory(context.Background(), target, 10)
	assert.Len(t, got, 10)

	svc.ListTradeHistory(context.Background(), target, 0)
	assert.Equal(t, DefaultHistoryLimit, store.gotLimit)
}

func TestListTradeHistoryOutage(t *testing.T) {
	svc := NewTradingData(&fakeStore{err: errOutage}, delayedPrices{}, 4, discardLogger())

	got := svc.ListTradeHistory(context.Background(), target, 5)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRunAnalyticalQueryRejects(t *testing.T) {
	store := &fakeStore{}
	svc := NewTradingData(store, delayedPrices{}, 4, discardLogger())

	_, err := svc.RunAnalyticalQuery(context.Background(), target, "DELETE FROM positions_1d")
	assert.ErrorIs(t, err, sqlguard.ErrForbiddenKeyword)

	_, err = svc.RunAnalyticalQuery(context.Background(), target, "WITH x AS (SELECT 1) SELECT * FROM x")
	assert.ErrorIs(t, err, sqlguard.ErrNotSelect)

	_, err = svc.RunAnalyticalQuery(context.Background(), target, "SELECT 1; SELECT 2")
	assert.ErrorIs(t, err, sqlguard.ErrMultipleStatements)

	assert.EqualValues(t, 0, store.queries.Load())
}

func TestRunAnalyticalQueryAccepts(t *testing.T) {
	store := &fakeStore{rows: []map[string]any{{"close": 3100.5}}}
	svc := NewTradingData(store, delayedPrices{}, 4, discardLogger())

	rows, err := svc.RunAnalyticalQuery(context.Background(), target,
		"SELECT close FROM full_1h_history_perp WHERE symbol=$1", "ETH")
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"close": 3100.5}}, rows)
	assert.Equal(t, []any{"ETH"}, store.gotArgs)

	_, err = svc.RunAnalyticalQuery(context.Background(), target,
		"SELECT close FROM full_1h_history_perp WHERE symbol='ETH'")
	require.NoError(t, err)
}

func TestRunAnalyticalQueryPropagatesDatabaseErrors(t *testing.T) {
	svc := NewTradingData(&fakeStore{err: errOutage}, delayedPrices{}, 4, discardLogger())

	_, err := svc.RunAnalyticalQuery(context.Background(), target, "SELECT nope FROM positions_1d")
	assert.ErrorIs(t, err, errOutage)
}
