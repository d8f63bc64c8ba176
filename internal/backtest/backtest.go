// Package backtest simulates a strategy configuration against a
// processed candle frame and summarizes the resulting trades.
package backtest

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/quantflow/hypertune/internal/dataset"
	"github.com/quantflow/hypertune/internal/strategy"
)

// EvalConfig is the immutable per-trial evaluation configuration:
// everything one candidate needs to be simulated. It is constructed
// fresh from named parameters for every trial and never shared.
type EvalConfig struct {
	BuyRule       strategy.Rule
	SellRule      strategy.Rule
	RoiTable      map[int]float64 // trade age minutes -> exit profit ratio
	Stoploss      float64         // negative ratio, e.g. -0.10
	UseSellSignal bool
	Fee           float64 // per-side fee ratio
	StakeAmount   float64
}

// Trade is one closed simulated trade.
type Trade struct {
	OpenTime        int64
	CloseTime       int64
	OpenRate        float64
	CloseRate       float64
	ProfitPercent   float64 // net profit ratio after fees
	ProfitAbs       float64
	DurationMinutes float64
	ExitReason      string
}

// Exit reasons recorded on trades.
const (
	ExitRoi        = "roi"
	ExitStoploss   = "stoploss"
	ExitSellSignal = "sell_signal"
	ExitForce      = "force_exit"
)

// Backtester runs one evaluation configuration against a frame.
type Backtester interface {
	Run(cfg EvalConfig, f *dataset.Frame) []Trade
}

// Engine is the bundled long-only candle-walking simulator.
type Engine struct {
	log zerolog.Logger
}

// NewEngine creates a backtest engine.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("component", "backtest").Logger()}
}

// Run walks the frame candle by candle. A position opens when the buy
// rule fires and closes on the first of: stop-loss breach, ROI table
// threshold reached, or sell signal (when enabled). A position still
// open at the end of the frame is force-closed on the last candle.
func (e *Engine) Run(cfg EvalConfig, f *dataset.Frame) []Trade {
	var trades []Trade
	roiKeys := sortedRoiKeys(cfg.RoiTable)

	openIdx := -1
	var openRate float64

	for i := f.Warmup() + 1; i < f.Len(); i++ {
		if openIdx < 0 {
			if cfg.BuyRule != nil && cfg.BuyRule(f, i) {
				openIdx = i
				openRate = f.Close[i]
			}
			continue
		}

		// Stop-loss checks the candle low so intrabar breaches count.
		stopRate := openRate * (1 + cfg.Stoploss)
		if f.Low[i] <= stopRate {
			trades = append(trades, e.closeTrade(cfg, f, openIdx, i, openRate, stopRate, ExitStoploss))
			openIdx = -1
			continue
		}

		age := (i - openIdx) * f.TimeframeMinutes
		profit := f.Close[i]/openRate - 1
		if threshold, ok := roiThreshold(cfg.RoiTable, roiKeys, age); ok && profit >= threshold {
			trades = append(trades, e.closeTrade(cfg, f, openIdx, i, openRate, f.Close[i], ExitRoi))
			openIdx = -1
			continue
		}

		if cfg.UseSellSignal && cfg.SellRule != nil && cfg.SellRule(f, i) {
			trades = append(trades, e.closeTrade(cfg, f, openIdx, i, openRate, f.Close[i], ExitSellSignal))
			openIdx = -1
		}
	}

	if openIdx >= 0 {
		last := f.Len() - 1
		trades = append(trades, e.closeTrade(cfg, f, openIdx, last, openRate, f.Close[last], ExitForce))
	}

	return trades
}

func (e *Engine) closeTrade(cfg EvalConfig, f *dataset.Frame, openIdx, closeIdx int, openRate, closeRate float64, reason string) Trade {
	profit := closeRate*(1-cfg.Fee)/(openRate*(1+cfg.Fee)) - 1
	return Trade{
		OpenTime:        f.Time[openIdx],
		CloseTime:       f.Time[closeIdx],
		OpenRate:        openRate,
		CloseRate:       closeRate,
		ProfitPercent:   profit,
		ProfitAbs:       cfg.StakeAmount * profit,
		DurationMinutes: float64((closeIdx - openIdx) * f.TimeframeMinutes),
		ExitReason:      reason,
	}
}

func sortedRoiKeys(table map[int]float64) []int {
	keys := make([]int, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// roiThreshold returns the ROI exit threshold applicable at the given
// trade age: the table entry with the largest key not exceeding age.
func roiThreshold(table map[int]float64, sortedKeys []int, age int) (float64, bool) {
	threshold := 0.0
	found := false
	for _, k := range sortedKeys {
		if k > age {
			break
		}
		threshold = table[k]
		found = true
	}
	return threshold, found
}
