// Package latency fits conversion-lag distributions from summary statistics
// and evaluates cohort completeness against them.
package latency

import (
	"math"

	"github.com/funnelgraph/lag/internal/model"
)

// z95 is the one-sided 95th percentile of the standard normal.
const z95 = 1.6448536269514722

// Distribution is a fitted conversion-lag distribution.
//
// The lag is modeled log-normal: skewed, non-negative, fully determined by the
// median and mean summaries the slice store carries. Sigma zero degenerates to
// a step at the median, which is what a mean at or below the median implies.
type Distribution struct {
	Mu    float64 // ln(median)
	Sigma float64
}

// Fit fits shape parameters from median/mean lag summaries.
//
// For a log-normal, median = exp(mu) and mean = exp(mu + sigma^2/2), so
// mu = ln(median) and sigma = sqrt(2 ln(mean/median)). A mean at or below the
// median has no log-normal solution; the fit degenerates to a step at the
// median. A non-positive median falls back to the mean, and with neither
// summary positive the distribution is zero-lag (everything converts same-day).
func Fit(medianDays, meanDays float64) Distribution {
	if medianDays <= 0 {
		medianDays = meanDays
	}
	if medianDays <= 0 {
		return Distribution{Mu: math.Inf(-1), Sigma: 0}
	}

	mu := math.Log(medianDays)
	if meanDays <= medianDays {
		return Distribution{Mu: mu, Sigma: 0}
	}
	sigma := math.Sqrt(2 * math.Log(meanDays/medianDays))
	return Distribution{Mu: mu, Sigma: sigma}
}

// CDF returns the fraction of eventual conversions observed by ageDays.
func (d Distribution) CDF(ageDays float64) float64 {
	if math.IsInf(d.Mu, -1) {
		// Zero-lag distribution: complete at any non-negative age.
		if ageDays >= 0 {
			return 1
		}
		return 0
	}
	if ageDays <= 0 {
		return 0
	}
	if d.Sigma == 0 {
		if math.Log(ageDays) >= d.Mu {
			return 1
		}
		return 0
	}
	z := (math.Log(ageDays) - d.Mu) / d.Sigma
	return 0.5 * math.Erfc(-z/math.Sqrt2)
}

// T95 returns the implied maturity horizon: the age by which 95% of eventual
// conversions have occurred.
func (d Distribution) T95() float64 {
	if math.IsInf(d.Mu, -1) {
		return 0
	}
	return math.Exp(d.Mu + z95*d.Sigma)
}

// CapToHorizon bounds the distribution so its implied t95 never exceeds the
// given horizon. The fit comes from lag summaries alone; the horizon carries
// the topology's knowledge (path t95), so when the two disagree the horizon
// wins. Capping rescales sigma to place the 95th percentile at the horizon;
// when even the median exceeds the horizon the distribution collapses to a
// step there.
func (d Distribution) CapToHorizon(horizonDays float64) Distribution {
	if horizonDays <= 0 || d.T95() <= horizonDays {
		return d
	}
	logH := math.Log(horizonDays)
	if logH <= d.Mu {
		return Distribution{Mu: logH, Sigma: 0}
	}
	return Distribution{Mu: d.Mu, Sigma: (logH - d.Mu) / z95}
}

// EffectiveHorizon resolves the maturity horizon fallback chain:
// path t95, then the edge's own t95, then the legacy maturity_days, then the
// default. Values at or below zero are treated as absent.
func EffectiveHorizon(pathT95 float64, lat *model.Latency) float64 {
	if pathT95 > 0 {
		return pathT95
	}
	if lat != nil {
		if lat.T95 != nil && *lat.T95 > 0 {
			return *lat.T95
		}
		if lat.MaturityDays != nil && *lat.MaturityDays > 0 {
			return *lat.MaturityDays
		}
	}
	return model.DefaultT95Days
}
