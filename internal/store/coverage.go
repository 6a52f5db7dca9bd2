package store

import (
	"time"

	"github.com/funnelgraph/lag/internal/cohort"
	"github.com/funnelgraph/lag/internal/model"
	"github.com/funnelgraph/lag/internal/query"
)

// Coverage gating happens upstream of the pipeline: a simpler procedure
// decides per parameter whether a fetch is needed at all, and what cohort
// window to retrieve. The pipeline itself never fetches.

// DefaultMaxStaleness is how old a retrieval may be before a refetch is due.
const DefaultMaxStaleness = 24 * time.Hour

// NeedsFetch reports whether the stored values cover the constraint freshly
// enough to skip retrieval.
//
// A fetch is needed when no admissible slice exists for the constraint's
// signature and mode, or when the newest admissible retrieval is older than
// maxStaleness (zero means DefaultMaxStaleness).
func NeedsFetch(values []model.ParameterValue, c *query.Constraint, now time.Time, maxStaleness time.Duration) bool {
	if maxStaleness <= 0 {
		maxStaleness = DefaultMaxStaleness
	}

	var newest time.Time
	found := false
	for i := range values {
		v := &values[i]
		if !cohort.Admissible(v, c) {
			continue
		}
		if c.Mode == query.ModeCohort && v.Scope.Mode != model.ScopeCohort {
			// A cohort query needs cohort-shaped data; a window slice alone
			// (forecast baseline) does not cover it.
			continue
		}
		found = true
		if v.RetrievedAt.After(newest) {
			newest = v.RetrievedAt
		}
	}
	if !found {
		return true
	}
	return now.Sub(newest) > maxStaleness
}

// BoundCohortWindow widens a cohort constraint's retrieval window so every
// cohort still maturing under the given horizon is included: the start is
// pulled back to horizon days before now when the requested start is later,
// and an open end closes at now. The returned constraint is a copy; the
// input is not mutated.
func BoundCohortWindow(c *query.Constraint, horizonDays float64, now model.Day) *query.Constraint {
	out := c.StripConditions()
	out.Visited = append([]string(nil), c.Visited...)

	if horizonDays > 0 {
		horizonStart := model.DayOf(now.Time().AddDate(0, 0, -int(horizonDays)))
		if out.Start.IsZero() || horizonStart.Before(out.Start) {
			out.Start = horizonStart
		}
	}
	if out.End.IsZero() || now.Before(out.End) {
		out.End = now
	}
	return out
}
