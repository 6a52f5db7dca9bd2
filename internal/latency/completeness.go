package latency

import (
	"github.com/funnelgraph/lag/internal/model"
)

// EdgeCompleteness is the outcome of evaluating one edge's cohorts.
type EdgeCompleteness struct {
	// Samples are the per-cohort observations with ages and completeness
	// filled in, for diagnostics.
	Samples []model.CohortSample

	// Completeness is the volume-weighted average of per-cohort CDF values,
	// clamped to [0,1]. Valid only when Defined is true.
	Completeness float64

	// Defined is false when no cohorts were in scope: completeness is then
	// undefined and the edge must be reported evidence-only, no blend.
	Defined bool
}

// Evaluate computes per-cohort and edge-level completeness.
//
// For each cohort: rawAge = queryDate - cohortDate, adjustedAge subtracts the
// upstream anchor path's typical propagation delay plus any onset delta,
// floored at zero, and completeness is the fitted CDF at the adjusted age.
// The edge-level figure weights cohorts by volume (n), so a large young cohort
// drags completeness down more than a small one.
//
// The input samples are not mutated; the returned samples are copies.
func Evaluate(dist Distribution, samples []model.CohortSample, queryDay model.Day, anchorMedianLag, onsetDeltaDays float64) EdgeCompleteness {
	if len(samples) == 0 {
		return EdgeCompleteness{}
	}

	out := EdgeCompleteness{Samples: make([]model.CohortSample, len(samples))}
	var weighted, volume float64

	for i, s := range samples {
		s.RawAge = model.DaysBetween(s.Date, queryDay)
		adjusted := s.RawAge - anchorMedianLag - onsetDeltaDays
		if adjusted < 0 {
			adjusted = 0
		}
		s.AdjustedAge = adjusted
		s.Completeness = clamp01(dist.CDF(adjusted))

		weighted += s.N * s.Completeness
		volume += s.N
		out.Samples[i] = s
	}

	if volume <= 0 {
		// Cohorts present but empty: no volume to weight by, completeness is
		// undefined just as with no cohorts at all.
		return EdgeCompleteness{Samples: out.Samples}
	}

	out.Completeness = clamp01(weighted / volume)
	out.Defined = true
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
