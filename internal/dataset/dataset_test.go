package dataset

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticCandles builds a smooth oscillating price series.
func syntheticCandles(n int) []Candle {
	candles := make([]Candle, n)
	for i := 0; i < n; i++ {
		price := 100 + 10*math.Sin(float64(i)/8)
		candles[i] = Candle{
			Time:   int64(1600000000 + i*300),
			Open:   price,
			High:   price * 1.01,
			Low:    price * 0.99,
			Close:  price,
			Volume: 1000,
		}
	}
	return candles
}

func TestHistoryDB_RoundTrip(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, InitSchema(db))

	h := NewHistoryDB(db, zerolog.Nop())
	written := syntheticCandles(10)
	require.NoError(t, h.InsertCandles("BTC/USDT", written))

	loaded, err := h.Candles("BTC/USDT", 0, 0)
	require.NoError(t, err)
	require.Len(t, loaded, 10)
	assert.Equal(t, written[0].Time, loaded[0].Time)
	assert.Equal(t, written[9].Close, loaded[9].Close)

	// Other pairs stay isolated
	other, err := h.Candles("ETH/USDT", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestHistoryDB_TimeRange(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, InitSchema(db))

	h := NewHistoryDB(db, zerolog.Nop())
	require.NoError(t, h.InsertCandles("BTC/USDT", syntheticCandles(10)))

	from := int64(1600000000 + 2*300)
	to := int64(1600000000 + 5*300)
	loaded, err := h.Candles("BTC/USDT", from, to)
	require.NoError(t, err)
	assert.Len(t, loaded, 4)
	assert.Equal(t, from, loaded[0].Time)
}

func TestPreprocess(t *testing.T) {
	frame, err := Preprocess("BTC/USDT", 5, syntheticCandles(120))
	require.NoError(t, err)

	assert.Equal(t, 120, frame.Len())
	assert.Len(t, frame.RSI, 120)
	assert.Len(t, frame.EMAFast, 120)
	assert.Len(t, frame.BBUpper, 120)
	assert.Len(t, frame.MACDSignal, 120)

	// Indicator values past warmup are populated
	i := frame.Warmup()
	assert.NotZero(t, frame.SMA[i])
	assert.Greater(t, frame.RSI[i], 0.0)
	assert.Less(t, frame.RSI[i], 100.0)
	assert.Greater(t, frame.BBUpper[i], frame.BBLower[i])
}

func TestPreprocess_Errors(t *testing.T) {
	tests := []struct {
		name      string
		candles   []Candle
		timeframe int
	}{
		{"too few candles", syntheticCandles(MinCandles - 1), 5},
		{"invalid timeframe", syntheticCandles(120), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Preprocess("BTC/USDT", tt.timeframe, tt.candles)
			assert.Error(t, err)
		})
	}
}
