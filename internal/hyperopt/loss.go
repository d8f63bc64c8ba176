package hyperopt

import "math"

// MaxLoss is the sentinel loss for degenerate evaluations (no trades).
// Just a big enough number to rank as a bad result.
const MaxLoss = 100000

// Loss function reference constants.
const (
	targetTrades             = 600   // trade count the gaussian bump rewards
	expectedMaxProfit        = 3.0   // expected avg profit * expected trade count, as Σ of ratios
	maxAcceptedTradeDuration = 300.0 // minutes; above this an eval is considered failed
)

// CalculateLoss is the minimization objective: smaller is better.
// It combines a gaussian trade-count bump, a linear profit deficit and
// a capped duration penalty. Zero trades short-circuit to MaxLoss so
// the optimizer still receives a valid (maximally bad) signal.
func CalculateLoss(totalProfit float64, tradeCount int, tradeDuration float64) float64 {
	if tradeCount == 0 {
		return MaxLoss
	}

	diff := float64(tradeCount - targetTrades)
	tradeLoss := 1 - 0.25*math.Exp(-(diff*diff)/math.Pow(10, 5.8))
	profitLoss := math.Max(0, 1-totalProfit/expectedMaxProfit)
	durationLoss := 0.4 * math.Min(tradeDuration/maxAcceptedTradeDuration, 1)

	return tradeLoss + profitLoss + durationLoss
}
