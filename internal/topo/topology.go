// Package topo builds the lightweight DAG view the pipeline runs over: the
// active-edge set, a deterministic topological order, and the cumulative
// maturity horizon (path t95) per edge.
package topo

import (
	"log/slog"

	"github.com/funnelgraph/lag/internal/model"
)

// ActiveEpsilon is the effective-probability floor below which an edge is
// structurally dead and excluded from every downstream computation.
const ActiveEpsilon = 1e-6

// Overrides maps edge ids to what-if probability multipliers.
//
// Overrides scale the base probability rather than replacing it, so a 0
// override kills an edge and a 1 override is a no-op regardless of the
// underlying mean.
type Overrides map[string]float64

// EffectiveProbability returns base mean x case-variant weight x what-if
// override for an edge.
func EffectiveProbability(g *model.Graph, e *model.Edge, ov Overrides) float64 {
	p := e.Param.Mean
	if e.CaseWeight != nil {
		if from := g.Node(e.From); from != nil && from.Kind == model.NodeCase {
			p *= *e.CaseWeight
		}
	}
	if ov != nil {
		if mult, ok := ov[e.ID]; ok {
			p *= mult
		}
	}
	return p
}

// ActiveEdges returns the ids of edges whose effective probability exceeds
// ActiveEpsilon, in declaration order.
func ActiveEdges(g *model.Graph, ov Overrides) []string {
	var active []string
	for i := range g.Edges {
		e := &g.Edges[i]
		if EffectiveProbability(g, e, ov) > ActiveEpsilon {
			active = append(active, e.ID)
		}
	}
	return active
}

// ActiveSet converts an active-edge list to a membership set.
func ActiveSet(active []string) map[string]bool {
	set := make(map[string]bool, len(active))
	for _, id := range active {
		set[id] = true
	}
	return set
}

// TopologicalOrder returns the active edge ids in dependency order.
//
// Kahn-style sort rooted at start nodes (explicit start flags, or in-degree
// zero when the graph carries none), with in-degree-zero nodes of other
// components seeded alongside so disconnected components are processed
// independently. Ties break by declaration order for determinism.
//
// On a true cycle the sort cannot complete; rather than failing, the order
// degrades to declaration order of the active edges and cyclic is true.
// Funnels are acyclic by domain convention, so this is a warning path, not
// an error path.
func TopologicalOrder(g *model.Graph, active map[string]bool) (order []string, cyclic bool) {
	if len(active) == 0 {
		return nil, false
	}

	inDegree := make(map[string]int, len(g.Nodes))
	for i := range g.Edges {
		e := &g.Edges[i]
		if active[e.ID] {
			inDegree[e.To]++
		}
	}

	// Seed with start nodes plus in-degree-zero nodes, deduplicated, in node
	// declaration order.
	seeded := make(map[string]bool, len(g.Nodes))
	var ready []string
	for _, id := range g.StartNodes() {
		if !seeded[id] {
			seeded[id] = true
			ready = append(ready, id)
		}
	}
	for _, n := range g.Nodes {
		if inDegree[n.ID] == 0 && !seeded[n.ID] {
			seeded[n.ID] = true
			ready = append(ready, n.ID)
		}
	}

	visited := make(map[string]bool, len(g.Nodes))
	order = make([]string, 0, len(active))

	for len(ready) > 0 {
		node := ready[0]
		ready = ready[1:]
		if visited[node] {
			continue
		}
		visited[node] = true

		for _, e := range g.Outgoing(node) {
			if !active[e.ID] {
				continue
			}
			order = append(order, e.ID)
			inDegree[e.To]--
			if inDegree[e.To] <= 0 && !visited[e.To] {
				ready = append(ready, e.To)
			}
		}
	}

	if len(order) == len(active) {
		return order, false
	}

	// Cycle: fall back to declaration order, non-fatal.
	slog.Warn("topological sort incomplete, degrading to declaration order",
		"sorted", len(order),
		"active", len(active),
	)
	order = order[:0]
	for i := range g.Edges {
		if active[g.Edges[i].ID] {
			order = append(order, g.Edges[i].ID)
		}
	}
	return order, true
}
