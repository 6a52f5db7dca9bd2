// Package cohort selects the parameter slices matching a query's temporal and
// dimensional scope and aggregates them into per-cohort samples plus evidence
// totals.
package cohort

import (
	"log/slog"
	"sort"
	"time"

	"github.com/funnelgraph/lag/internal/model"
	"github.com/funnelgraph/lag/internal/query"
)

// Aggregation is the evidence a query scope yields for one parameter.
type Aggregation struct {
	// Samples are per-cohort (date, n, k) observations inside the LAG window,
	// merged by date, sorted ascending. Ages and completeness are filled in
	// later by the completeness evaluator.
	Samples []model.CohortSample

	// N and K are the evidence totals over the selected scope.
	N float64
	K float64

	// Forecast is the p-infinity baseline from the admissible window slice
	// with the most recent retrieval. Nil when no window slice carries one.
	Forecast *float64

	// MedianLag and MeanLag are volume-weighted lag summaries over the
	// selected days, feeding the distribution fit and the batch update's
	// proposed lag fields. Nil when the slices carry no lag arrays.
	MedianLag *float64
	MeanLag   *float64

	// QualityWarnings counts cohort days observed with k > n. The raw values
	// are used regardless; the count surfaces in diagnostics.
	QualityWarnings int
}

// HasCohorts reports whether any cohort day was admitted.
func (a *Aggregation) HasCohorts() bool { return len(a.Samples) > 0 }

// ResolveWindow resolves the LAG window for a constraint: the explicit cohort
// range when the query is cohort-scoped, else the window range. Window-mode
// completeness therefore reflects only cohorts dated inside that window, not
// all history.
func ResolveWindow(c *query.Constraint) (start, end model.Day) {
	return c.Start, c.End
}

// Admissible reports whether a slice can serve the given constraint.
//
// The dimension signature must match exactly. Window slices are always
// admissible (they are the forecast baseline source); cohort slices are
// admissible only when at least one per-day date falls inside the LAG window.
func Admissible(v *model.ParameterValue, c *query.Constraint) bool {
	if v.Scope.Signature != c.Signature() {
		return false
	}
	if v.Scope.Mode == model.ScopeWindow {
		return true
	}
	start, end := ResolveWindow(c)
	for _, d := range v.Dates {
		if inWindow(d, start, end) {
			return true
		}
	}
	return false
}

// Aggregate selects admissible slices and computes the aggregation for a
// constraint.
//
// Evidence comes from the mode-matching slices: cohort slices under a cohort
// query, window slices under a window query. Daily arrays are summed over
// exactly the overlapping days - a wider requested window must not invent
// data for days absent from storage, a narrower one excludes days outside it.
// Header totals are used only when the slice carries no daily arrays and its
// own range lies entirely inside the LAG window; a header total covering days
// outside the window cannot be restricted and is skipped.
//
// The forecast baseline always comes from window slices, regardless of query
// mode (dual-slice retrieval: forecast scalars are stored only there).
func Aggregate(values []model.ParameterValue, c *query.Constraint) *Aggregation {
	agg := &Aggregation{}
	start, end := ResolveWindow(c)

	byDate := make(map[model.Day]*model.CohortSample)
	var medianWeighted, meanWeighted, medianVolume, meanVolume float64
	var forecastAt time.Time

	for i := range values {
		v := &values[i]
		if !Admissible(v, c) {
			continue
		}

		// Forecast baseline from window slices; latest retrieval wins.
		if v.Scope.Mode == model.ScopeWindow && v.Forecast != nil {
			if agg.Forecast == nil || v.RetrievedAt.After(forecastAt) {
				f := *v.Forecast
				agg.Forecast = &f
				forecastAt = v.RetrievedAt
			}
		}

		if !evidenceMode(v.Scope.Mode, c.Mode) {
			continue
		}

		if v.HasDaily() {
			for j, d := range v.Dates {
				if !inWindow(d, start, end) {
					continue
				}
				n, k := v.NDaily[j], v.KDaily[j]
				if k > n {
					slog.Warn("cohort day observed with k > n, using raw values",
						"date", d, "n", n, "k", k)
					agg.QualityWarnings++
				}
				agg.N += n
				agg.K += k

				s, ok := byDate[d]
				if !ok {
					s = &model.CohortSample{Date: d}
					byDate[d] = s
				}
				s.N += n
				s.K += k

				if j < len(v.MedianLagDaily) && v.MedianLagDaily[j] > 0 {
					medianWeighted += n * v.MedianLagDaily[j]
					medianVolume += n
				}
				if j < len(v.MeanLagDaily) && v.MeanLagDaily[j] > 0 {
					meanWeighted += n * v.MeanLagDaily[j]
					meanVolume += n
				}
			}
			continue
		}

		if v.N == nil || v.K == nil {
			continue
		}
		if !scopeInside(v.Scope, start, end) {
			slog.Debug("skipping header-only slice outside LAG window",
				"slice_start", v.Scope.Start, "slice_end", v.Scope.End,
				"window_start", start, "window_end", end)
			continue
		}
		if *v.K > *v.N {
			slog.Warn("header totals observed with k > n, using raw values",
				"n", *v.N, "k", *v.K)
			agg.QualityWarnings++
		}
		agg.N += *v.N
		agg.K += *v.K
	}

	if medianVolume > 0 {
		m := medianWeighted / medianVolume
		agg.MedianLag = &m
	}
	if meanVolume > 0 {
		m := meanWeighted / meanVolume
		agg.MeanLag = &m
	}

	agg.Samples = make([]model.CohortSample, 0, len(byDate))
	for _, s := range byDate {
		agg.Samples = append(agg.Samples, *s)
	}
	sort.Slice(agg.Samples, func(i, j int) bool {
		return agg.Samples[i].Date.Before(agg.Samples[j].Date)
	})

	return agg
}

// evidenceMode reports whether a slice of the given mode supplies evidence
// counts under the given query mode.
func evidenceMode(sliceMode model.ScopeMode, queryMode query.Mode) bool {
	switch queryMode {
	case query.ModeCohort:
		return sliceMode == model.ScopeCohort
	default:
		return sliceMode == model.ScopeWindow
	}
}

func inWindow(d, start, end model.Day) bool {
	if !start.IsZero() && d.Before(start) {
		return false
	}
	if !end.IsZero() && d.After(end) {
		return false
	}
	return true
}

func scopeInside(scope model.SliceScope, start, end model.Day) bool {
	if !start.IsZero() && (scope.Start.IsZero() || scope.Start.Before(start)) {
		return false
	}
	if !end.IsZero() && (scope.End.IsZero() || scope.End.After(end)) {
		return false
	}
	return true
}
