package latency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funnelgraph/lag/internal/model"
)

func TestEvaluateVolumeWeighting(t *testing.T) {
	// Step distribution at 4 days: cohorts older than 4 are complete, younger
	// ones are not.
	dist := Fit(4, 4)
	samples := []model.CohortSample{
		{Date: "2026-01-10", N: 100, K: 40},
		{Date: "2026-01-28", N: 100, K: 0},
	}

	ec := Evaluate(dist, samples, "2026-01-30", 0, 0)
	require.True(t, ec.Defined)
	assert.InDelta(t, 0.5, ec.Completeness, 1e-12)

	require.Len(t, ec.Samples, 2)
	assert.Equal(t, 20.0, ec.Samples[0].RawAge)
	assert.Equal(t, 1.0, ec.Samples[0].Completeness)
	assert.Equal(t, 2.0, ec.Samples[1].RawAge)
	assert.Equal(t, 0.0, ec.Samples[1].Completeness)

	// A bigger young cohort drags the figure down harder.
	samples[1].N = 300
	ec = Evaluate(dist, samples, "2026-01-30", 0, 0)
	assert.InDelta(t, 0.25, ec.Completeness, 1e-12)
}

func TestEvaluateAdjustsForAnchorLagAndOnset(t *testing.T) {
	dist := Fit(4, 4)
	samples := []model.CohortSample{{Date: "2026-01-20", N: 100}}

	// Raw age 10; upstream propagation 4 plus onset 2 leaves 4 days waiting,
	// exactly at the step.
	ec := Evaluate(dist, samples, "2026-01-30", 4, 2)
	require.True(t, ec.Defined)
	assert.Equal(t, 10.0, ec.Samples[0].RawAge)
	assert.Equal(t, 4.0, ec.Samples[0].AdjustedAge)
	assert.Equal(t, 1.0, ec.Completeness)

	// One more day of onset pushes the cohort under the step.
	ec = Evaluate(dist, samples, "2026-01-30", 4, 3)
	assert.Equal(t, 0.0, ec.Completeness)
}

func TestEvaluateAdjustedAgeFloorsAtZero(t *testing.T) {
	dist := Fit(4, 8)
	samples := []model.CohortSample{{Date: "2026-01-29", N: 10}}

	ec := Evaluate(dist, samples, "2026-01-30", 30, 0)
	require.True(t, ec.Defined)
	assert.Equal(t, 0.0, ec.Samples[0].AdjustedAge)
	assert.Equal(t, 0.0, ec.Completeness)
}

func TestEvaluateBounds(t *testing.T) {
	dist := Fit(4, 8)
	samples := []model.CohortSample{
		{Date: "2025-06-01", N: 50},
		{Date: "2026-01-25", N: 50},
		{Date: "2026-01-29", N: 50},
	}

	ec := Evaluate(dist, samples, "2026-01-30", 1.5, 0.5)
	require.True(t, ec.Defined)
	assert.GreaterOrEqual(t, ec.Completeness, 0.0)
	assert.LessOrEqual(t, ec.Completeness, 1.0)
	for _, s := range ec.Samples {
		assert.GreaterOrEqual(t, s.Completeness, 0.0)
		assert.LessOrEqual(t, s.Completeness, 1.0)
	}
}

func TestEvaluateUndefinedCases(t *testing.T) {
	dist := Fit(4, 8)

	// No cohorts at all.
	ec := Evaluate(dist, nil, "2026-01-30", 0, 0)
	assert.False(t, ec.Defined)

	// Cohorts present but without volume.
	ec = Evaluate(dist, []model.CohortSample{{Date: "2026-01-10"}}, "2026-01-30", 0, 0)
	assert.False(t, ec.Defined)
	assert.Len(t, ec.Samples, 1)
}

func TestEvaluateDoesNotMutateInput(t *testing.T) {
	dist := Fit(4, 4)
	samples := []model.CohortSample{{Date: "2026-01-10", N: 100}}

	_ = Evaluate(dist, samples, "2026-01-30", 0, 0)
	assert.Zero(t, samples[0].RawAge)
	assert.Zero(t, samples[0].Completeness)
}
