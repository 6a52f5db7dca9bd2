package model

// NodeKind classifies a funnel node.
type NodeKind string

const (
	// NodeStart marks a funnel entry point. Start nodes seed the inbound
	// population with their entry weight.
	NodeStart NodeKind = "start"

	// NodeStep is an ordinary event node.
	NodeStep NodeKind = "step"

	// NodeCase is a branching node whose outgoing edges carry variant weights.
	NodeCase NodeKind = "case"
)

// Node is a funnel event node.
type Node struct {
	ID   string   `json:"id" yaml:"id"`
	Kind NodeKind `json:"kind" yaml:"kind"`

	// EntryWeight is the relative population entering at this node.
	// Only meaningful for start nodes; zero means the default of 1.
	EntryWeight float64 `json:"entry_weight,omitempty" yaml:"entry_weight,omitempty"`
}

// Edge is a directed conversion edge between two nodes.
//
// The primary probability parameter describes the base conversion. Conditional
// entries mirror the primary parameter's shape and are addressed by index; the
// engine processes them identically.
type Edge struct {
	ID   string `json:"id" yaml:"id"`
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`

	Param        ProbabilityParam   `json:"param" yaml:"param"`
	Conditionals []ProbabilityParam `json:"conditionals,omitempty" yaml:"conditionals,omitempty"`

	// CaseWeight scales the effective probability when From is a case node.
	// Nil means weight 1.
	CaseWeight *float64 `json:"case_weight,omitempty" yaml:"case_weight,omitempty"`
}

// Graph is an id-based funnel graph.
//
// Nodes and edges reference each other by string id, never by pointer. Slice
// order is the declaration order and is load-bearing: topological tie-breaking
// and cycle degradation both fall back to it.
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// Edge returns the edge with the given id, or nil.
func (g *Graph) Edge(id string) *Edge {
	for i := range g.Edges {
		if g.Edges[i].ID == id {
			return &g.Edges[i]
		}
	}
	return nil
}

// StartNodes returns the ids of nodes flagged as start. If no node carries the
// flag, nodes with no incoming edges are treated as starts.
func (g *Graph) StartNodes() []string {
	var starts []string
	for _, n := range g.Nodes {
		if n.Kind == NodeStart {
			starts = append(starts, n.ID)
		}
	}
	if len(starts) > 0 {
		return starts
	}

	hasIncoming := make(map[string]bool, len(g.Nodes))
	for _, e := range g.Edges {
		hasIncoming[e.To] = true
	}
	for _, n := range g.Nodes {
		if !hasIncoming[n.ID] {
			starts = append(starts, n.ID)
		}
	}
	return starts
}

// Incoming returns the edges whose To is the given node, in declaration order.
func (g *Graph) Incoming(nodeID string) []*Edge {
	var in []*Edge
	for i := range g.Edges {
		if g.Edges[i].To == nodeID {
			in = append(in, &g.Edges[i])
		}
	}
	return in
}

// Outgoing returns the edges whose From is the given node, in declaration order.
func (g *Graph) Outgoing(nodeID string) []*Edge {
	var out []*Edge
	for i := range g.Edges {
		if g.Edges[i].From == nodeID {
			out = append(out, &g.Edges[i])
		}
	}
	return out
}

// Clone returns a deep copy of the graph.
//
// The engine never mutates a graph in place: every batch apply produces a new
// snapshot from a clone, so callers holding the prior graph observe no change.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	copy(out.Nodes, g.Nodes)
	for i, e := range g.Edges {
		ne := e
		ne.Param = e.Param.Clone()
		ne.CaseWeight = cloneFloat(e.CaseWeight)
		if e.Conditionals != nil {
			ne.Conditionals = make([]ProbabilityParam, len(e.Conditionals))
			for j, c := range e.Conditionals {
				ne.Conditionals[j] = c.Clone()
			}
		}
		out.Edges[i] = ne
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
