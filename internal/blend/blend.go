// Package blend combines observed evidence with the forecast baseline,
// weighted by completeness.
package blend

import "math"

// EvidenceStats derives mean and stdev from raw (n, k) counts.
//
// mean = k/n; stdev is the binomial standard error sqrt(p(1-p)/n). When the
// raw data carries k > n the mean is reported as observed, but p is clamped
// into [0,1] for the stdev so the square root stays defined.
func EvidenceStats(n, k float64) (mean, stdev float64, ok bool) {
	if n <= 0 {
		return 0, 0, false
	}
	mean = k / n
	p := mean
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	stdev = math.Sqrt(p * (1 - p) / n)
	return mean, stdev, true
}

// Mean returns the completeness-weighted combination of evidence and forecast.
//
// The weight is the completeness itself: a fully mature scope trusts its
// evidence outright, an entirely immature one falls back to the baseline.
// The result is clamped into [min, max] of the two inputs - blending must
// interpolate, never extrapolate past either, even under floating-point noise.
func Mean(evidenceMean, forecastMean, completeness float64) float64 {
	w := completeness
	if w < 0 {
		w = 0
	}
	if w > 1 {
		w = 1
	}
	blended := w*evidenceMean + (1-w)*forecastMean

	lo, hi := evidenceMean, forecastMean
	if lo > hi {
		lo, hi = hi, lo
	}
	if blended < lo {
		return lo
	}
	if blended > hi {
		return hi
	}
	return blended
}
