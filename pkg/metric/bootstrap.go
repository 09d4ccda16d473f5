package metric

import (
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// Interval is a bootstrap confidence interval of a measure
type Interval struct {
	Lower  float64
	Upper  float64
	StdDev float64
	Mean   float64
}

// Bootstrap resamples values with replacement rounds times, applies measure to
// every resample and returns the central confidence interval of the results
// (0.95 keeps the 2.5%..97.5% quantiles).
func Bootstrap(values []float64, measure func([]float64) float64, rounds int, confidence float64) Interval {
	if len(values) == 0 || rounds <= 0 {
		return Interval{}
	}

	data := lo.Times(rounds, func(int) float64 {
		return measure(lo.Times(len(values), func(int) float64 {
			return lo.Sample(values)
		}))
	})
	sort.Float64s(data)

	tail := 1 - confidence
	mean, stdDev := stat.MeanStdDev(data, nil)

	return Interval{
		Lower:  stat.Quantile(tail/2, stat.LinInterp, data, nil),
		Upper:  stat.Quantile(1-tail/2, stat.LinInterp, data, nil),
		StdDev: stdDev,
		Mean:   mean,
	}
}

// Mean is the arithmetic mean, usable as a Bootstrap measure
func Mean(values []float64) float64 {
	return stat.Mean(values, nil)
}
