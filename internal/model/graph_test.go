package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartNodesExplicit(t *testing.T) {
	g := &Graph{
		Nodes: []Node{
			{ID: "a", Kind: NodeStart},
			{ID: "b", Kind: NodeStep},
			{ID: "c", Kind: NodeStart},
		},
	}
	assert.Equal(t, []string{"a", "c"}, g.StartNodes())
}

func TestStartNodesFallbackToZeroInDegree(t *testing.T) {
	g := &Graph{
		Nodes: []Node{
			{ID: "a", Kind: NodeStep},
			{ID: "b", Kind: NodeStep},
			{ID: "c", Kind: NodeStep},
		},
		Edges: []Edge{
			{ID: "a-b", From: "a", To: "b"},
			{ID: "b-c", From: "b", To: "c"},
		},
	}
	assert.Equal(t, []string{"a"}, g.StartNodes())
}

func TestIncomingOutgoingDeclarationOrder(t *testing.T) {
	g := &Graph{
		Nodes: []Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Edges: []Edge{
			{ID: "a-c", From: "a", To: "c"},
			{ID: "b-c", From: "b", To: "c"},
			{ID: "a-b", From: "a", To: "b"},
		},
	}

	in := g.Incoming("c")
	require.Len(t, in, 2)
	assert.Equal(t, "a-c", in[0].ID)
	assert.Equal(t, "b-c", in[1].ID)

	out := g.Outgoing("a")
	require.Len(t, out, 2)
	assert.Equal(t, "a-c", out[0].ID)
	assert.Equal(t, "a-b", out[1].ID)
}

func TestCloneIsDeep(t *testing.T) {
	g := testGraph(0.5)
	g.Edges[0].Param.Stdev = float64p(0.1)
	g.Edges[0].Param.Latency = &Latency{Enabled: true, MedianLagDays: float64p(4)}
	g.Edges[0].Conditionals = []ProbabilityParam{{ParamID: "cond", Mean: 0.2}}

	c := g.Clone()
	require.NotSame(t, g, c)

	// Mutating the clone must not leak into the original.
	c.Edges[0].Param.Mean = 0.9
	*c.Edges[0].Param.Stdev = 0.7
	*c.Edges[0].Param.Latency.MedianLagDays = 99
	c.Edges[0].Conditionals[0].Mean = 0.8
	c.Nodes[0].ID = "mutated"

	assert.Equal(t, 0.5, g.Edges[0].Param.Mean)
	assert.Equal(t, 0.1, *g.Edges[0].Param.Stdev)
	assert.Equal(t, 4.0, *g.Edges[0].Param.Latency.MedianLagDays)
	assert.Equal(t, 0.2, g.Edges[0].Conditionals[0].Mean)
	assert.Equal(t, "a", g.Nodes[0].ID)
}

func TestLatencyEnabled(t *testing.T) {
	var p ProbabilityParam
	assert.False(t, p.LatencyEnabled())

	p.Latency = &Latency{}
	assert.False(t, p.LatencyEnabled())

	p.Latency.Enabled = true
	assert.True(t, p.LatencyEnabled())
}
