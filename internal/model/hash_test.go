package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGraph(mean float64) *Graph {
	return &Graph{
		Nodes: []Node{
			{ID: "a", Kind: NodeStart},
			{ID: "b", Kind: NodeStep},
		},
		Edges: []Edge{
			{ID: "a-b", From: "a", To: "b", Param: ProbabilityParam{ParamID: "p", Mean: mean}},
		},
	}
}

func TestSnapshotIDDeterministic(t *testing.T) {
	id1, err := SnapshotID(testGraph(0.5))
	require.NoError(t, err)
	id2, err := SnapshotID(testGraph(0.5))
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 64) // hex sha256
}

func TestSnapshotIDChangesWithContent(t *testing.T) {
	id1 := MustSnapshotID(testGraph(0.5))
	id2 := MustSnapshotID(testGraph(0.6))
	assert.NotEqual(t, id1, id2)
}

func TestSnapshotIDSurvivesClone(t *testing.T) {
	g := testGraph(0.5)
	g.Edges[0].Param.Latency = &Latency{Enabled: true, T95: float64p(10)}

	assert.Equal(t, MustSnapshotID(g), MustSnapshotID(g.Clone()))
}

func float64p(v float64) *float64 { return &v }
