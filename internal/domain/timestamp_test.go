package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)

	tests := []struct {
		in   string
		want time.Time
	}{
		{in: "2024-03-09T14:05:06Z", want: want},
		{in: "2024-03-09T16:05:06+02:00", want: want},
		{in: "2024-03-09 14:05:06+00", want: want},
		{in: "2024-03-09 14:05:06.25+00", want: want.Add(250 * time.Millisecond)},
		{in: "2024-03-09 14:05:06", want: want},
		{in: "2024-03-09", want: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)},
		{in: "1710000000", want: time.Unix(1710000000, 0).UTC()},
		{in: "1710000000123", want: time.UnixMilli(1710000000123).UTC()},
		{in: "  2024-03-09T14:05:06Z ", want: want},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestParseTimestampRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "yesterday", "2024/03/09"} {
		_, err := ParseTimestamp(in)
		assert.Error(t, err, in)
	}
}

func TestNormalizeSymbol(t *testing.T) {
	got, err := NormalizeSymbol(" $eth ")
	require.NoError(t, err)
	assert.Equal(t, "eth", got)

	_, err = NormalizeSymbol("$ ")
	assert.ErrorIs(t, err, ErrEmptySymbol)

	assert.Equal(t, "ETHUSDT", PairSymbol("eth", "usdt"))
}
