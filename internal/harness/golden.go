package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/funnelgraph/lag/internal/engine"
	"github.com/funnelgraph/lag/internal/model"
)

// RunSnapshot is the canonical serialization of one scenario run: the outcome
// counters plus the stable per-edge state of the resulting graph.
type RunSnapshot struct {
	Scenario string `json:"scenario"`
	RunID    string `json:"run_id"`

	NothingToDo bool   `json:"nothing_to_do,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Cyclic      bool   `json:"cyclic,omitempty"`

	Updated int `json:"updated"`
	Skipped int `json:"skipped,omitempty"`
	Failed  int `json:"failed,omitempty"`

	Edges []EdgeSnapshot `json:"edges"`
}

// EdgeSnapshot is one edge's primary parameter after the run. Only stable
// derived fields appear; the fitted t95 is excluded because exp/log rounding
// is platform-tied while everything here must compare byte-for-byte.
type EdgeSnapshot struct {
	EdgeID  string `json:"edge_id"`
	ParamID string `json:"param_id,omitempty"`

	Mean  float64  `json:"mean"`
	Stdev *float64 `json:"stdev,omitempty"`
	N     float64  `json:"n,omitempty"`

	Evidence *model.Evidence `json:"evidence,omitempty"`
	Forecast *model.Forecast `json:"forecast,omitempty"`

	PathT95       float64  `json:"path_t95,omitempty"`
	MedianLagDays *float64 `json:"median_lag_days,omitempty"`
	MeanLagDays   *float64 `json:"mean_lag_days,omitempty"`
	Completeness  *float64 `json:"completeness,omitempty"`
	AnchorNodeID  string   `json:"anchor_node_id,omitempty"`
}

// Snapshot derives the canonical run snapshot from a scenario result.
func Snapshot(s *Scenario, r *Result) RunSnapshot {
	out := r.Outcome
	snap := RunSnapshot{
		Scenario:    s.Name,
		RunID:       out.RunID,
		NothingToDo: out.NothingToDo,
		Reason:      out.Reason,
		Cyclic:      out.Cyclic,
		Updated:     out.Updated,
		Skipped:     out.Skipped,
		Failed:      out.Failed,
	}

	snap.Edges = make([]EdgeSnapshot, 0, len(out.Graph.Edges))
	for i := range out.Graph.Edges {
		edge := &out.Graph.Edges[i]
		es := EdgeSnapshot{
			EdgeID:   edge.ID,
			ParamID:  edge.Param.ParamID,
			Mean:     edge.Param.Mean,
			Stdev:    edge.Param.Stdev,
			N:        edge.Param.N,
			Evidence: edge.Param.Evidence,
			Forecast: edge.Param.Forecast,
		}
		if lat := edge.Param.Latency; lat != nil {
			es.PathT95 = lat.PathT95
			es.MedianLagDays = lat.MedianLagDays
			es.MeanLagDays = lat.MeanLagDays
			es.Completeness = lat.Completeness
			es.AnchorNodeID = lat.AnchorNodeID
		}
		snap.Edges = append(snap.Edges, es)
	}
	return snap
}

// RunWithGolden executes a scenario and compares its snapshot against the
// golden file testdata/golden/{name}.golden.
//
// Regenerate goldens with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, s *Scenario) error {
	t.Helper()

	result, err := Run(context.Background(), s)
	if err != nil {
		return err
	}

	data, err := model.MarshalCanonical(Snapshot(s, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, data)
	return nil
}

// RecordedSkips summarizes skip reasons for assertions on a result.
func RecordedSkips(r *Result) map[engine.ComputeErrorCode]int {
	return r.Outcome.SkipReasons
}
