package latency

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funnelgraph/lag/internal/model"
	"github.com/funnelgraph/lag/internal/testutil"
)

func TestFitLogNormal(t *testing.T) {
	d := Fit(4, 8)

	assert.InDelta(t, math.Log(4), d.Mu, 1e-12)
	assert.InDelta(t, math.Sqrt(2*math.Log(2)), d.Sigma, 1e-12)

	// Half the mass sits at the median by construction.
	assert.InDelta(t, 0.5, d.CDF(4), 1e-9)
}

func TestFitDegeneratesToStep(t *testing.T) {
	// Mean at or below the median has no log-normal solution.
	d := Fit(4, 4)
	assert.Zero(t, d.Sigma)
	assert.Equal(t, 0.0, d.CDF(3.999))
	assert.Equal(t, 1.0, d.CDF(4))
	assert.Equal(t, 1.0, d.CDF(100))

	d = Fit(4, 2)
	assert.Zero(t, d.Sigma)
}

func TestFitFallbacks(t *testing.T) {
	// No median: the mean stands in.
	d := Fit(0, 6)
	assert.InDelta(t, math.Log(6), d.Mu, 1e-12)
	assert.Zero(t, d.Sigma)

	// Neither summary: zero-lag, complete at any non-negative age.
	d = Fit(0, 0)
	assert.True(t, math.IsInf(d.Mu, -1))
	assert.Equal(t, 1.0, d.CDF(0))
	assert.Equal(t, 0.0, d.CDF(-1))
	assert.Zero(t, d.T95())
}

func TestCDFMonotoneAndBounded(t *testing.T) {
	d := Fit(4, 8)

	prev := 0.0
	for age := 0.0; age <= 60; age += 0.5 {
		c := d.CDF(age)
		assert.GreaterOrEqual(t, c, prev, "CDF must be monotone at age %v", age)
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 1.0)
		prev = c
	}
	assert.Equal(t, 0.0, d.CDF(0))
}

func TestT95MatchesCDF(t *testing.T) {
	d := Fit(4, 8)
	t95 := d.T95()

	require.Greater(t, t95, 4.0)
	assert.InDelta(t, 0.95, d.CDF(t95), 1e-9)
}

func TestCapToHorizon(t *testing.T) {
	d := Fit(4, 12)
	require.Greater(t, d.T95(), 10.0)

	capped := d.CapToHorizon(10)
	assert.InDelta(t, 10.0, capped.T95(), 1e-9)
	assert.Equal(t, d.Mu, capped.Mu)
	assert.Less(t, capped.Sigma, d.Sigma)

	// Already inside the horizon: untouched.
	assert.Equal(t, d, d.CapToHorizon(100))
	assert.Equal(t, d, d.CapToHorizon(0))

	// Horizon below the median collapses to a step there.
	collapsed := d.CapToHorizon(2)
	assert.Zero(t, collapsed.Sigma)
	assert.InDelta(t, math.Log(2), collapsed.Mu, 1e-12)
}

func TestEffectiveHorizon(t *testing.T) {
	lat := &model.Latency{T95: testutil.Float(12), MaturityDays: testutil.Float(45)}

	// Path t95 wins when present.
	assert.Equal(t, 20.0, EffectiveHorizon(20, lat))

	// Then the edge's own t95, then the legacy maturity days.
	assert.Equal(t, 12.0, EffectiveHorizon(0, lat))
	lat.T95 = nil
	assert.Equal(t, 45.0, EffectiveHorizon(0, lat))

	// Nothing configured: the default.
	assert.Equal(t, model.DefaultT95Days, EffectiveHorizon(0, &model.Latency{}))
	assert.Equal(t, model.DefaultT95Days, EffectiveHorizon(0, nil))
	assert.Equal(t, model.DefaultT95Days, EffectiveHorizon(-1, &model.Latency{T95: testutil.Float(-3)}))
}
