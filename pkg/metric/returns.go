package metric

import (
	"github.com/raykavin/pricechart/pkg/core"
)

// Returns computes the day-over-day relative change of the series price.
// Pairs whose previous price is zero are skipped.
func Returns(series core.Series) []float64 {
	if series.Length() < 2 {
		return nil
	}

	prices := series.Prices()
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, prices[i]/prices[i-1]-1)
	}
	return returns
}

// Change is the relative move from the first to the last price
func Change(series core.Series) (float64, bool) {
	first, ok := series.Last(series.Length() - 1)
	if !ok {
		return 0, false
	}
	last, _ := series.Last(0)
	if first.Price() == 0 {
		return 0, false
	}
	return last.Price()/first.Price() - 1, true
}
