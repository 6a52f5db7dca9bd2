package topo

import "github.com/funnelgraph/lag/internal/model"

// OwnT95 is the edge's local maturity horizon contribution:
// the configured t95 when latency is enabled and set, the default when
// enabled but unset, zero when latency is disabled or absent.
func OwnT95(e *model.Edge) float64 {
	if !e.Param.LatencyEnabled() {
		return 0
	}
	lat := e.Param.Latency
	if lat.T95 != nil && *lat.T95 > 0 {
		return *lat.T95
	}
	return model.DefaultT95Days
}

// PathT95 computes the cumulative maturity horizon per edge.
//
// Dynamic program over topological order: an edge's base is zero when its
// from-node is a start, otherwise the maximum path t95 across active incoming
// edges at the from-node. Converging paths take the max, never the sum - the
// horizon is governed by the slowest path, not their combination.
//
// Computed once per run; callers must not mutate the result incrementally.
// Under cycle-degraded order an incoming edge may not be computed yet; its
// contribution reads as zero, which keeps the pass total and non-fatal.
func PathT95(g *model.Graph, order []string, active map[string]bool) map[string]float64 {
	starts := make(map[string]bool)
	for _, id := range g.StartNodes() {
		starts[id] = true
	}

	result := make(map[string]float64, len(order))
	for _, edgeID := range order {
		e := g.Edge(edgeID)
		if e == nil {
			continue
		}

		base := 0.0
		if !starts[e.From] {
			for _, in := range g.Incoming(e.From) {
				if !active[in.ID] {
					continue
				}
				if upstream, ok := result[in.ID]; ok && upstream > base {
					base = upstream
				}
			}
		}
		result[edgeID] = base + OwnT95(e)
	}
	return result
}

// AnchorMedianLag computes, per edge, the typical propagation delay
// contributed by the upstream anchor path: the cumulative median lag from the
// start anchor to the edge's from-node, via the slowest path. This is the
// delay subtracted from a cohort's raw age before evaluating completeness -
// a cohort dated at the anchor has not been waiting at this edge the whole
// time, it first had to propagate down.
//
// Same max-rule DP as PathT95, over median lags instead of horizons. Edges
// without a configured median lag contribute zero.
func AnchorMedianLag(g *model.Graph, order []string, active map[string]bool) map[string]float64 {
	starts := make(map[string]bool)
	for _, id := range g.StartNodes() {
		starts[id] = true
	}

	// cumulative[edge] = lag up to and including the edge itself
	cumulative := make(map[string]float64, len(order))
	result := make(map[string]float64, len(order))

	for _, edgeID := range order {
		e := g.Edge(edgeID)
		if e == nil {
			continue
		}

		base := 0.0
		if !starts[e.From] {
			for _, in := range g.Incoming(e.From) {
				if !active[in.ID] {
					continue
				}
				if upstream, ok := cumulative[in.ID]; ok && upstream > base {
					base = upstream
				}
			}
		}
		result[edgeID] = base
		cumulative[edgeID] = base + ownMedianLag(e)
	}
	return result
}

func ownMedianLag(e *model.Edge) float64 {
	if !e.Param.LatencyEnabled() {
		return 0
	}
	if lat := e.Param.Latency; lat.MedianLagDays != nil && *lat.MedianLagDays > 0 {
		return *lat.MedianLagDays
	}
	return 0
}
