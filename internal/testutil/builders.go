// Package testutil provides deterministic fixtures for engine tests: graph
// builders, slice builders and an in-memory slice source.
package testutil

import (
	"context"

	"github.com/funnelgraph/lag/internal/model"
)

// Float returns a pointer to v, for optional-field literals.
func Float(v float64) *float64 { return &v }

// ChainGraph builds a linear funnel A -> B -> C -> ... with one edge per hop.
// Edge ids are "from-to", every edge carries the given mean and, when t95 > 0,
// an enabled latency config with that t95.
func ChainGraph(mean, t95 float64, nodeIDs ...string) *model.Graph {
	g := &model.Graph{}
	for i, id := range nodeIDs {
		kind := model.NodeStep
		if i == 0 {
			kind = model.NodeStart
		}
		g.Nodes = append(g.Nodes, model.Node{ID: id, Kind: kind})
	}
	for i := 0; i+1 < len(nodeIDs); i++ {
		g.Edges = append(g.Edges, builderEdge(nodeIDs[i], nodeIDs[i+1], mean, t95))
	}
	return g
}

// DiamondGraph builds A -> B -> D and A -> C -> D with per-edge t95 values.
// Edge order is AB, AC, BD, CD.
func DiamondGraph(mean float64, t95AB, t95AC, t95BD, t95CD float64) *model.Graph {
	g := &model.Graph{
		Nodes: []model.Node{
			{ID: "A", Kind: model.NodeStart},
			{ID: "B", Kind: model.NodeStep},
			{ID: "C", Kind: model.NodeStep},
			{ID: "D", Kind: model.NodeStep},
		},
	}
	g.Edges = append(g.Edges,
		builderEdge("A", "B", mean, t95AB),
		builderEdge("A", "C", mean, t95AC),
		builderEdge("B", "D", mean, t95BD),
		builderEdge("C", "D", mean, t95CD),
	)
	return g
}

func builderEdge(from, to string, mean, t95 float64) model.Edge {
	e := model.Edge{
		ID:   from + "-" + to,
		From: from,
		To:   to,
		Param: model.ProbabilityParam{
			ParamID: "p_" + from + "_" + to,
			Mean:    mean,
		},
	}
	if t95 > 0 {
		e.Param.Latency = &model.Latency{Enabled: true, T95: Float(t95)}
	}
	return e
}

// WindowValue builds a window slice with header totals and a forecast scalar.
func WindowValue(start, end model.Day, n, k float64, forecast *float64) model.ParameterValue {
	nv, kv := n, k
	return model.ParameterValue{
		Scope:    model.SliceScope{Mode: model.ScopeWindow, Start: start, End: end},
		N:        &nv,
		K:        &kv,
		Forecast: forecast,
	}
}

// CohortValue builds a cohort slice with per-day arrays.
func CohortValue(anchor string, dates []model.Day, n, k []float64) model.ParameterValue {
	start, end := model.Day(""), model.Day("")
	if len(dates) > 0 {
		start, end = dates[0], dates[len(dates)-1]
	}
	return model.ParameterValue{
		Scope:  model.SliceScope{Mode: model.ScopeCohort, Anchor: anchor, Start: start, End: end},
		Dates:  dates,
		NDaily: n,
		KDaily: k,
	}
}

// MemorySource is an in-memory SliceSource keyed by parameter id.
type MemorySource struct {
	ByParam map[string][]model.ParameterValue
	Err     error // returned for every lookup when set
}

// Values returns the stored slice values for a parameter.
func (m *MemorySource) Values(_ context.Context, paramID string) ([]model.ParameterValue, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.ByParam[paramID], nil
}
