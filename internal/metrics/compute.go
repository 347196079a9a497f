// Package metrics provides the descriptive statistics shared by the feature
// derivers and the backtest evaluator.
package metrics

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// Mean calculates the arithmetic mean. ok is false for an empty slice.
func Mean(values []float64) (mean float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

// SampleStddev calculates sample standard deviation (n-1 denominator).
// ok is false with fewer than 2 samples, where the estimator is undefined.
func SampleStddev(values []float64, mean float64) (stddev float64, ok bool) {
	n := len(values)
	if n < 2 {
		return 0, false
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1)), true
}

// CoefficientOfVariation returns sample stddev / mean.
// Returns nil when the stddev is undefined or the mean is zero.
func CoefficientOfVariation(values []float64) *float64 {
	mean, ok := Mean(values)
	if !ok || mean == 0 {
		return nil
	}
	stddev, ok := SampleStddev(values, mean)
	if !ok {
		return nil
	}
	cov := stddev / mean
	return &cov
}

// MeanOfPresent averages the non-nil values. Returns nil if all are nil.
func MeanOfPresent(values ...*float64) *float64 {
	var present []float64
	for _, v := range values {
		if v != nil {
			present = append(present, *v)
		}
	}
	mean, ok := Mean(present)
	if !ok {
		return nil
	}
	return &mean
}

// Percentile uses linear interpolation.
// p is percentile (0.10 = 10th percentile). Input need not be sorted.
func Percentile(values []float64, p float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// Round rounds v to the given number of decimal places, half away from zero.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// RoundPtr rounds a nullable value. NaN and infinities become nil.
func RoundPtr(v *float64, places int32) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	r := Round(*v, places)
	return &r
}
