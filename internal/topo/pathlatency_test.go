package topo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funnelgraph/lag/internal/model"
	"github.com/funnelgraph/lag/internal/testutil"
)

func orderOf(t *testing.T, g *model.Graph) ([]string, map[string]bool) {
	t.Helper()
	active := ActiveSet(ActiveEdges(g, nil))
	order, cyclic := TopologicalOrder(g, active)
	require.False(t, cyclic)
	return order, active
}

func TestOwnT95(t *testing.T) {
	edge := func(lat *model.Latency) *model.Edge {
		return &model.Edge{Param: model.ProbabilityParam{Latency: lat}}
	}

	assert.Equal(t, 0.0, OwnT95(edge(nil)))
	assert.Equal(t, 0.0, OwnT95(edge(&model.Latency{})))
	assert.Equal(t, 12.0, OwnT95(edge(&model.Latency{Enabled: true, T95: testutil.Float(12)})))

	// Enabled but unset falls back to the default horizon.
	assert.Equal(t, model.DefaultT95Days, OwnT95(edge(&model.Latency{Enabled: true})))
}

func TestPathT95Chain(t *testing.T) {
	g := testutil.ChainGraph(0.5, 10, "A", "B", "C", "D")
	order, active := orderOf(t, g)

	path := PathT95(g, order, active)
	assert.Equal(t, 10.0, path["A-B"])
	assert.Equal(t, 20.0, path["B-C"])
	assert.Equal(t, 30.0, path["C-D"])
}

func TestPathT95ConvergenceTakesMax(t *testing.T) {
	g := testutil.DiamondGraph(0.5, 10, 15, 5, 5)
	order, active := orderOf(t, g)

	path := PathT95(g, order, active)
	assert.Equal(t, 10.0, path["A-B"])
	assert.Equal(t, 15.0, path["A-C"])
	assert.Equal(t, 15.0, path["B-D"])

	// The slower branch governs: max(10,15)+5, never the sum.
	assert.Equal(t, 20.0, path["C-D"])
}

func TestPathT95IgnoresInactiveIncoming(t *testing.T) {
	g := testutil.DiamondGraph(0.5, 10, 15, 5, 5)
	g.Edge("A-C").Param.Mean = 0 // slow branch dead

	order, active := orderOf(t, g)
	path := PathT95(g, order, active)

	assert.Equal(t, 15.0, path["B-D"])
	_, ok := path["A-C"]
	assert.False(t, ok)

	// C has no active incoming left, so C-D starts from zero.
	assert.Equal(t, 5.0, path["C-D"])
}

func TestPathT95Monotone(t *testing.T) {
	g := testutil.ChainGraph(0.5, 7, "A", "B", "C", "D", "E")
	order, active := orderOf(t, g)
	path := PathT95(g, order, active)

	prev := 0.0
	for _, id := range order {
		assert.GreaterOrEqual(t, path[id], prev, "path t95 must not shrink along %s", id)
		prev = path[id]
	}
}

func TestAnchorMedianLagExcludesOwnEdge(t *testing.T) {
	g := testutil.ChainGraph(0.5, 10, "A", "B", "C", "D")
	for _, id := range []string{"A-B", "B-C", "C-D"} {
		g.Edge(id).Param.Latency.MedianLagDays = testutil.Float(4)
	}
	order, active := orderOf(t, g)

	lag := AnchorMedianLag(g, order, active)

	// The first hop has no upstream propagation delay at all.
	assert.Equal(t, 0.0, lag["A-B"])
	assert.Equal(t, 4.0, lag["B-C"])
	assert.Equal(t, 8.0, lag["C-D"])
}

func TestAnchorMedianLagConvergenceTakesMax(t *testing.T) {
	g := testutil.DiamondGraph(0.5, 10, 15, 5, 5)
	g.Edge("A-B").Param.Latency.MedianLagDays = testutil.Float(3)
	g.Edge("A-C").Param.Latency.MedianLagDays = testutil.Float(8)
	order, active := orderOf(t, g)

	lag := AnchorMedianLag(g, order, active)
	assert.Equal(t, 3.0, lag["B-D"])
	assert.Equal(t, 8.0, lag["C-D"])
}

func TestAnchorMedianLagDisabledLatencyContributesZero(t *testing.T) {
	g := testutil.ChainGraph(0.5, 0, "A", "B", "C")
	order, active := orderOf(t, g)

	lag := AnchorMedianLag(g, order, active)
	assert.Equal(t, 0.0, lag["A-B"])
	assert.Equal(t, 0.0, lag["B-C"])
}
