// Package apply merges a batch of computed edge results into a new graph
// snapshot, honoring per-field override flags.
package apply

import (
	"fmt"

	"github.com/funnelgraph/lag/internal/model"
)

// PrimaryParam addresses an edge's primary probability parameter in an
// EdgeUpdate; conditional entries are addressed by their index.
const PrimaryParam = -1

// EdgeUpdate is the computed result for one edge parameter. Nil pointer
// fields carry no proposal and leave the existing value untouched; the
// exceptions are Completeness and N, which are transient derived fields and
// are always written, nil included.
type EdgeUpdate struct {
	EdgeID    string
	CondIndex int // PrimaryParam or conditional entry index

	Mean  *float64
	Stdev *float64

	Evidence *model.Evidence
	Forecast *model.Forecast

	T95            *float64
	MedianLagDays  *float64
	MeanLagDays    *float64
	OnsetDeltaDays *float64
	AnchorNodeID   *string

	// PathT95 and Completeness are pure functions of topology and the current
	// clock; they bypass override handling entirely.
	PathT95      *float64
	Completeness *float64

	// N is the transient inbound forecast population.
	N *float64

	// ForecastK is the expected converter count (N x blended mean), written
	// onto the forecast without replacing its baseline.
	ForecastK *float64
}

// BatchApplyError reports a structural failure during merge. The batch is
// atomic: on this error none of its updates took effect and the prior graph
// is still current.
type BatchApplyError struct {
	EdgeID    string
	CondIndex int
	Message   string
}

func (e *BatchApplyError) Error() string {
	if e.CondIndex != PrimaryParam {
		return fmt.Sprintf("batch apply failed at edge %s conditional %d: %s", e.EdgeID, e.CondIndex, e.Message)
	}
	return fmt.Sprintf("batch apply failed at edge %s: %s", e.EdgeID, e.Message)
}

// Batch applies all updates to a clone of the graph and returns the new
// snapshot. Either every update lands or, on a structural error, the prior
// graph is returned unchanged alongside a BatchApplyError.
//
// For every field with a paired override flag: a true flag on the existing
// state means the computed value is discarded and both value and flag stay
// untouched. Completeness is the sole exception - always replaced, because it
// is a pure function of the current clock and must never go sticky.
func Batch(g *model.Graph, updates []EdgeUpdate) (*model.Graph, error) {
	next := g.Clone()

	for i := range updates {
		u := &updates[i]
		edge := next.Edge(u.EdgeID)
		if edge == nil {
			return g, &BatchApplyError{EdgeID: u.EdgeID, CondIndex: u.CondIndex, Message: "edge not found"}
		}

		var param *model.ProbabilityParam
		switch {
		case u.CondIndex == PrimaryParam:
			param = &edge.Param
		case u.CondIndex >= 0 && u.CondIndex < len(edge.Conditionals):
			param = &edge.Conditionals[u.CondIndex]
		default:
			return g, &BatchApplyError{EdgeID: u.EdgeID, CondIndex: u.CondIndex, Message: "conditional index out of range"}
		}

		mergeParam(param, u)
	}

	return next, nil
}

func mergeParam(p *model.ProbabilityParam, u *EdgeUpdate) {
	if u.Mean != nil && !p.MeanOverridden {
		p.Mean = *u.Mean
	}

	switch {
	case p.StdevOverridden:
		// keep user value
	case u.Stdev != nil:
		v := *u.Stdev
		p.Stdev = &v
	case p.Stdev == nil && u.Evidence != nil && u.Evidence.N > 0:
		// Back-fill from computed evidence so consumers never observe an
		// undefined stdev once evidence exists.
		v := u.Evidence.Stdev
		p.Stdev = &v
	}

	// Evidence and forecast are raw computation output, not user-editable.
	if u.Evidence != nil {
		ev := *u.Evidence
		p.Evidence = &ev
	}
	if u.Forecast != nil {
		fc := *u.Forecast
		fc.Stdev = copyFloat(u.Forecast.Stdev)
		fc.K = copyFloat(u.Forecast.K)
		p.Forecast = &fc
	}

	if u.N != nil {
		p.N = *u.N
	}

	if u.ForecastK != nil {
		if p.Forecast == nil {
			mean := p.Mean
			if u.Mean != nil {
				mean = *u.Mean
			}
			p.Forecast = &model.Forecast{Mean: mean}
		}
		p.Forecast.K = copyFloat(u.ForecastK)
	}

	mergeLatency(p, u)
}

func mergeLatency(p *model.ProbabilityParam, u *EdgeUpdate) {
	proposesLatency := u.T95 != nil || u.MedianLagDays != nil || u.MeanLagDays != nil ||
		u.OnsetDeltaDays != nil || u.AnchorNodeID != nil || u.PathT95 != nil || u.Completeness != nil
	if !proposesLatency {
		return
	}
	if p.Latency == nil {
		p.Latency = &model.Latency{}
	}
	lat := p.Latency

	if u.T95 != nil && !lat.T95Overridden {
		lat.T95 = copyFloat(u.T95)
	}
	if u.MedianLagDays != nil && !lat.MedianLagDaysOverridden {
		lat.MedianLagDays = copyFloat(u.MedianLagDays)
	}
	if u.MeanLagDays != nil && !lat.MeanLagDaysOverridden {
		lat.MeanLagDays = copyFloat(u.MeanLagDays)
	}
	if u.OnsetDeltaDays != nil && !lat.OnsetDeltaDaysOverridden {
		lat.OnsetDeltaDays = copyFloat(u.OnsetDeltaDays)
	}
	if u.AnchorNodeID != nil && !lat.AnchorNodeIDOverridden {
		lat.AnchorNodeID = *u.AnchorNodeID
	}

	if u.PathT95 != nil {
		lat.PathT95 = *u.PathT95
	}
	// Always replaced, override flags notwithstanding: a nil proposal clears
	// a stale value rather than letting it survive the run.
	lat.Completeness = copyFloat(u.Completeness)
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
