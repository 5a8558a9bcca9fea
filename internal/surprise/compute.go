package surprise

import (
	"math"
	"sort"

	"fx-calendar-lab/internal/domain"
)

// computeGroupStat summarizes one surprise series.
// Values are sorted before summing so the result does not depend on corpus order.
func computeGroupStat(values []float64, minSamples int) domain.GroupStat {
	n := len(values)
	stat := domain.GroupStat{Count: n}
	if n == 0 {
		return stat
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mu := computeMean(sorted)
	stat.Mu = &mu
	if n < 2 {
		return stat
	}

	sigma := computeStddev(sorted, mu)
	// Identical values must give an exact zero, not rounding noise.
	if sorted[0] == sorted[n-1] {
		sigma = 0
	}
	stat.Sigma = &sigma
	stat.OK = n >= minSamples && sigma > 0
	return stat
}

// computeMean calculates arithmetic mean of values.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// zScore returns (v - mu) / sigma when the group passed its gate.
func zScore(v *float64, stat domain.GroupStat) *float64 {
	if v == nil || !stat.OK || stat.Mu == nil || stat.Sigma == nil || *stat.Sigma <= 0 {
		return nil
	}
	z := (*v - *stat.Mu) / *stat.Sigma
	return &z
}

// Percentile uses linear interpolation over a copy of values.
// p is a fraction (0.90 = 90th percentile). Returns 0 for an empty input.
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

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
