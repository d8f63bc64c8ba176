package backtest

import "fmt"

// Summary holds the aggregate statistics of one backtest run that the
// loss function and result reporting consume.
type Summary struct {
	TradeCount         int
	TotalProfit        float64 // sum of per-trade profit ratios
	TotalProfitAbs     float64
	AvgProfitPercent   float64 // mean per-trade profit, in percent
	AvgDurationMinutes float64
}

// Summarize aggregates a trade list.
func Summarize(trades []Trade) Summary {
	s := Summary{TradeCount: len(trades)}
	if len(trades) == 0 {
		return s
	}

	for _, t := range trades {
		s.TotalProfit += t.ProfitPercent
		s.TotalProfitAbs += t.ProfitAbs
		s.AvgDurationMinutes += t.DurationMinutes
	}
	s.AvgProfitPercent = s.TotalProfit / float64(len(trades)) * 100.0
	s.AvgDurationMinutes /= float64(len(trades))
	return s
}

// Format renders the one-line human-readable result summary.
func (s Summary) Format(stakeCurrency string) string {
	return fmt.Sprintf("%6d trades. Avg profit % 5.2f%%. Total profit % 11.8f %s (%.4fΣ%%). Avg duration %5.1f mins.",
		s.TradeCount, s.AvgProfitPercent, s.TotalProfitAbs, stakeCurrency,
		s.TotalProfit, s.AvgDurationMinutes)
}
