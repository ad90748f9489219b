package service

import "math"

// Percentile computes the p-th percentile of an ascending-sorted sequence
// using linear interpolation between order statistics. An empty sequence
// yields 0 by convention; callers that need to distinguish real zeros must
// guard on length themselves.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}

	index := p / 100 * float64(n-1)
	lo := int(math.Floor(index))
	hi := int(math.Ceil(index))
	if lo == hi {
		return sorted[lo]
	}
	frac := index - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
