package dataset

import (
	"fmt"

	"github.com/markcheno/go-talib"
)

// Indicator periods used by the precomputed frame.
const (
	rsiPeriod     = 14
	emaFastPeriod = 12
	emaSlowPeriod = 26
	smaPeriod     = 40
	bbandsPeriod  = 20
	macdSignal    = 9
)

// MinCandles is the minimum history length required so that every
// indicator has warmed up past its longest lookback.
const MinCandles = 60

// Frame is the processed dataset for a run: raw OHLCV series plus the
// indicator columns every rule reads. It is computed once and shared
// read-only across all workers.
type Frame struct {
	Pair             string
	TimeframeMinutes int

	Time  []int64
	Open  []float64
	High  []float64
	Low   []float64
	Close []float64

	RSI        []float64
	EMAFast    []float64
	EMASlow    []float64
	SMA        []float64
	BBUpper    []float64
	BBLower    []float64
	MACD       []float64
	MACDSignal []float64
}

// Len returns the number of candles in the frame.
func (f *Frame) Len() int {
	return len(f.Close)
}

// Warmup returns the first index at which all indicator columns are valid.
func (f *Frame) Warmup() int {
	return smaPeriod
}

// Preprocess computes the indicator frame from raw candles.
func Preprocess(pair string, timeframeMinutes int, candles []Candle) (*Frame, error) {
	if len(candles) < MinCandles {
		return nil, fmt.Errorf("not enough history for %s: have %d candles, need at least %d",
			pair, len(candles), MinCandles)
	}
	if timeframeMinutes <= 0 {
		return nil, fmt.Errorf("invalid timeframe: %d minutes", timeframeMinutes)
	}

	n := len(candles)
	f := &Frame{
		Pair:             pair,
		TimeframeMinutes: timeframeMinutes,
		Time:             make([]int64, n),
		Open:             make([]float64, n),
		High:             make([]float64, n),
		Low:              make([]float64, n),
		Close:            make([]float64, n),
	}
	for i, c := range candles {
		f.Time[i] = c.Time
		f.Open[i] = c.Open
		f.High[i] = c.High
		f.Low[i] = c.Low
		f.Close[i] = c.Close
	}

	f.RSI = talib.Rsi(f.Close, rsiPeriod)
	f.EMAFast = talib.Ema(f.Close, emaFastPeriod)
	f.EMASlow = talib.Ema(f.Close, emaSlowPeriod)
	f.SMA = talib.Sma(f.Close, smaPeriod)
	// MAType 0 = SMA
	f.BBUpper, _, f.BBLower = talib.BBands(f.Close, bbandsPeriod, 2.0, 2.0, 0)
	f.MACD, f.MACDSignal, _ = talib.Macd(f.Close, emaFastPeriod, emaSlowPeriod, macdSignal)

	return f, nil
}
