package strategy

import (
	"github.com/quantflow/hypertune/internal/dataset"
	"github.com/quantflow/hypertune/internal/space"
)

// DefaultStrategy is the bundled tunable strategy. Its rules read the
// indicator columns precomputed by the dataset package.
type DefaultStrategy struct{}

// NewDefaultStrategy creates the bundled strategy.
func NewDefaultStrategy() *DefaultStrategy {
	return &DefaultStrategy{}
}

func (s *DefaultStrategy) Name() string {
	return "default"
}

// IndicatorSpace returns the searchable buy-side dimensions.
func (s *DefaultStrategy) IndicatorSpace() []space.Dimension {
	return []space.Dimension{
		space.Integer("rsi-value", 20, 45),
		space.Categorical("rsi-enabled", "true", "false"),
		space.Categorical("trigger", "bb_lower", "ema_cross", "sma_cross"),
	}
}

// SellIndicatorSpace returns the searchable sell-side dimensions.
func (s *DefaultStrategy) SellIndicatorSpace() []space.Dimension {
	return []space.Dimension{
		space.Integer("sell-rsi-value", 55, 90),
		space.Categorical("sell-rsi-enabled", "true", "false"),
		space.Categorical("sell-trigger", "sell-bb_upper", "sell-ema_cross", "sell-sma_cross"),
	}
}

// RoiSpace returns the rate-of-return table dimensions.
func (s *DefaultStrategy) RoiSpace() []space.Dimension {
	return []space.Dimension{
		space.Integer("roi_t1", 10, 120),
		space.Integer("roi_t2", 10, 60),
		space.Integer("roi_t3", 10, 40),
		space.Real("roi_p1", 0.01, 0.04),
		space.Real("roi_p2", 0.01, 0.07),
		space.Real("roi_p3", 0.01, 0.20),
	}
}

// StoplossSpace returns the stop-loss dimension.
func (s *DefaultStrategy) StoplossSpace() []space.Dimension {
	return []space.Dimension{
		space.Real("stoploss", -0.5, -0.02),
	}
}

// BuyRule builds the entry rule from named parameters.
func (s *DefaultStrategy) BuyRule(params space.Params) Rule {
	rsiEnabled := params.Bool("rsi-enabled")
	rsiValue := float64(params.Int("rsi-value"))
	trigger := params.String("trigger")

	return func(f *dataset.Frame, i int) bool {
		if i <= f.Warmup() {
			return false
		}
		if rsiEnabled && !(f.RSI[i] < rsiValue) {
			return false
		}
		switch trigger {
		case "bb_lower":
			return f.Close[i] < f.BBLower[i]
		case "ema_cross":
			return f.EMAFast[i] > f.EMASlow[i] && f.EMAFast[i-1] <= f.EMASlow[i-1]
		case "sma_cross":
			return f.Close[i] > f.SMA[i] && f.Close[i-1] <= f.SMA[i-1]
		default:
			return false
		}
	}
}

// SellRule builds the exit-signal rule from named parameters.
func (s *DefaultStrategy) SellRule(params space.Params) Rule {
	rsiEnabled := params.Bool("sell-rsi-enabled")
	rsiValue := float64(params.Int("sell-rsi-value"))
	trigger := params.String("sell-trigger")

	return func(f *dataset.Frame, i int) bool {
		if i <= f.Warmup() {
			return false
		}
		if rsiEnabled && !(f.RSI[i] > rsiValue) {
			return false
		}
		switch trigger {
		case "sell-bb_upper":
			return f.Close[i] > f.BBUpper[i]
		case "sell-ema_cross":
			return f.EMAFast[i] < f.EMASlow[i] && f.EMAFast[i-1] >= f.EMASlow[i-1]
		case "sell-sma_cross":
			return f.Close[i] < f.SMA[i] && f.Close[i-1] >= f.SMA[i-1]
		default:
			return false
		}
	}
}

// RoiTable derives the staircase rate-of-return table. The table maps
// trade age thresholds (minutes) to the profit ratio that triggers an
// exit at that age.
func (s *DefaultStrategy) RoiTable(params space.Params) map[int]float64 {
	t1 := params.Int("roi_t1")
	t2 := params.Int("roi_t2")
	t3 := params.Int("roi_t3")
	p1 := params.Float("roi_p1")
	p2 := params.Float("roi_p2")
	p3 := params.Float("roi_p3")

	return map[int]float64{
		0:            p1 + p2 + p3,
		t3:           p1 + p2,
		t3 + t2:      p1,
		t3 + t2 + t1: 0,
	}
}

// PopulateBuyRule is the fixed entry rule used when the buy space is
// not being searched.
func (s *DefaultStrategy) PopulateBuyRule() Rule {
	return func(f *dataset.Frame, i int) bool {
		if i <= f.Warmup() {
			return false
		}
		return f.RSI[i] < 30 && f.Close[i] < f.BBLower[i]
	}
}

// PopulateSellRule is the fixed exit-signal rule used when the sell
// space is not being searched.
func (s *DefaultStrategy) PopulateSellRule() Rule {
	return func(f *dataset.Frame, i int) bool {
		if i <= f.Warmup() {
			return false
		}
		return f.RSI[i] > 70
	}
}
