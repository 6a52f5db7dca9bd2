package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funnelgraph/lag/internal/engine"
)

func TestScenarioGoldens(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios, "no scenario files found")

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			require.NoError(t, RunWithGolden(t, s))
		})
	}
}

func TestRunRecordsDiagnostics(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/cohort-latency.yaml")
	require.NoError(t, err)

	r, err := Run(context.Background(), s)
	require.NoError(t, err)

	require.Len(t, r.Diagnostics, 2)
	first := r.Diagnostics[0]
	assert.Equal(t, "run-cohort-latency", first.RunID)
	assert.Equal(t, "signup-activated", first.EdgeID)
	require.NotNil(t, first.Completeness)
	assert.InDelta(t, 0.5, *first.Completeness, 1e-12)
	require.NotNil(t, first.BlendedMean)
	assert.InDelta(t, 0.4, *first.BlendedMean, 1e-12)
	assert.Len(t, first.Samples, 2)
}

func TestRunCountsSkipsUnderOverride(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/override-diamond.yaml")
	require.NoError(t, err)

	r, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, 0, r.Outcome.Updated)
	assert.Equal(t, 3, r.Outcome.Skipped)
	assert.Equal(t, 3, RecordedSkips(r)[engine.ErrCodeNoCohortsInScope])
}

func TestLoadScenarioRejectsMissingName(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/does-not-exist.yaml")
	require.Error(t, err)
}

func TestRunRejectsInvalidDate(t *testing.T) {
	s := &Scenario{Name: "bad-date", Now: "not-a-date"}
	_, err := Run(context.Background(), s)
	require.Error(t, err)
}

func TestRunRejectsInvalidQuery(t *testing.T) {
	s := &Scenario{Name: "bad-query", Now: "2026-01-01", Query: "bogus(query"}
	_, err := Run(context.Background(), s)
	require.Error(t, err)
}
