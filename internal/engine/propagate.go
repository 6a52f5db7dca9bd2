package engine

import (
	"github.com/funnelgraph/lag/internal/apply"
	"github.com/funnelgraph/lag/internal/model"
)

// propagate runs the forward convolution over topological order: the forecast
// population reaching each edge is the sum over active incoming edges of
// inbound-n times effective probability, with start nodes seeding their entry
// weight (default 1).
//
// It writes only the transient n and the derived forecast.k onto the batch
// updates; evidence counts are raw query results and are never touched here.
// Under cycle-degraded order an unresolved predecessor contributes zero, so
// the pass always terminates.
func (e *Engine) propagate(
	g *model.Graph,
	order []string,
	active map[string]bool,
	ec *ExecContext,
	updates []apply.EdgeUpdate,
	byEdge map[string][]int,
) {
	starts := make(map[string]bool)
	nodeN := make(map[string]float64, len(g.Nodes))
	for _, id := range g.StartNodes() {
		starts[id] = true
		weight := 1.0
		if n := g.Node(id); n != nil && n.EntryWeight > 0 {
			weight = n.EntryWeight
		}
		nodeN[id] = weight
	}

	for _, edgeID := range order {
		edge := g.Edge(edgeID)
		if edge == nil || !active[edgeID] {
			continue
		}

		inbound := nodeN[edge.From]
		nodeN[edge.To] += inbound * e.effectiveProbability(g, edge, ec, updates, byEdge)

		for _, idx := range byEdge[edgeID] {
			upd := &updates[idx]
			n := inbound
			upd.N = &n
			if upd.Mean != nil {
				fk := inbound * *upd.Mean
				upd.ForecastK = &fk
			}
		}
	}
}

// effectiveProbability mirrors topo.EffectiveProbability but prefers the
// freshly blended mean over the stale graph mean when one was computed this
// run, so downstream populations see this run's estimates.
func (e *Engine) effectiveProbability(
	g *model.Graph,
	edge *model.Edge,
	ec *ExecContext,
	updates []apply.EdgeUpdate,
	byEdge map[string][]int,
) float64 {
	p := edge.Param.Mean
	for _, idx := range byEdge[edge.ID] {
		upd := &updates[idx]
		if upd.CondIndex == apply.PrimaryParam && upd.Mean != nil && !edge.Param.MeanOverridden {
			p = *upd.Mean
		}
	}
	if edge.CaseWeight != nil {
		if from := g.Node(edge.From); from != nil && from.Kind == model.NodeCase {
			p *= *edge.CaseWeight
		}
	}
	if ec.Overrides != nil {
		if mult, ok := ec.Overrides[edge.ID]; ok {
			p *= mult
		}
	}
	return p
}
