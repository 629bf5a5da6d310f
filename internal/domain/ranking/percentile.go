// Package ranking places a rider's usage within a population of submitted
// summaries and turns the result into a tier and a comparison message.
package ranking

import (
	"math"
	"sort"
)

// PercentileOfValue returns the rank of x among values, 0 to 100, using
// linear interpolation between sorted neighbours. It is the inverse of
// Quantile: Quantile(values, PercentileOfValue(values, x)) == x for x
// within the range of values. Equal values resolve to the highest rank.
func PercentileOfValue(values []float64, x float64) float64 {
	n := len(values)
	if n == 0 {
		return DefaultPercentile
	}
	a := sorted(values)
	if x < a[0] {
		return 0
	}
	if x >= a[n-1] {
		return 100
	}

	// a[i] <= x < a[i+1]
	i := sort.Search(n, func(k int) bool { return a[k] > x }) - 1
	pos := float64(i)
	if a[i] < x {
		pos += (x - a[i]) / (a[i+1] - a[i])
	}
	return pos / float64(n-1) * 100
}

// Quantile returns the value at percentile p (0 to 100) of values using
// linear interpolation.
func Quantile(values []float64, p float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	a := sorted(values)
	p = math.Max(0, math.Min(100, p))
	h := float64(n-1) * p / 100
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	return a[lo] + (h-float64(lo))*(a[hi]-a[lo])
}

// Mean returns the arithmetic mean, or 0 for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func sorted(values []float64) []float64 {
	a := append([]float64(nil), values...)
	sort.Float64s(a)
	return a
}
