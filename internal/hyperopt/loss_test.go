package hyperopt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateLoss_NoTradesSentinel(t *testing.T) {
	assert.EqualValues(t, MaxLoss, CalculateLoss(0, 0, 0))
	assert.EqualValues(t, MaxLoss, CalculateLoss(5.0, 0, 0))
}

func TestCalculateLoss_ReferencePoints(t *testing.T) {
	tests := []struct {
		name     string
		profit   float64
		trades   int
		duration float64
		want     float64
	}{
		{
			// trade bump at its peak, profit target met, max duration penalty
			name:     "at target trades and expected profit",
			profit:   3.0,
			trades:   600,
			duration: 300,
			want:     0.75 + 0 + 0.4,
		},
		{
			name:     "zero duration has no duration penalty",
			profit:   3.0,
			trades:   600,
			duration: 0,
			want:     0.75,
		},
		{
			name:     "duration penalty capped above the maximum",
			profit:   3.0,
			trades:   600,
			duration: 900,
			want:     0.75 + 0.4,
		},
		{
			name:     "profit above target clamps profit loss at zero",
			profit:   10.0,
			trades:   600,
			duration: 0,
			want:     0.75,
		},
		{
			name:     "half the expected profit",
			profit:   1.5,
			trades:   600,
			duration: 0,
			want:     0.75 + 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateLoss(tt.profit, tt.trades, tt.duration)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCalculateLoss_Monotonicity(t *testing.T) {
	// More profit, same everything else, never hurts.
	assert.Less(t,
		CalculateLoss(2.0, 100, 120),
		CalculateLoss(1.0, 100, 120))

	// Shorter trades, same everything else, never hurt.
	assert.Less(t,
		CalculateLoss(1.0, 100, 60),
		CalculateLoss(1.0, 100, 120))

	// Trade counts closer to the target score better.
	assert.Less(t,
		CalculateLoss(1.0, 500, 120),
		CalculateLoss(1.0, 50, 120))
	assert.Less(t,
		CalculateLoss(1.0, 700, 120),
		CalculateLoss(1.0, 2000, 120))
}

func TestCalculateLoss_SingleTradeNotSentinel(t *testing.T) {
	got := CalculateLoss(0.01, 1, 30)
	assert.Less(t, got, float64(MaxLoss))
	assert.Greater(t, got, 0.0)
}
