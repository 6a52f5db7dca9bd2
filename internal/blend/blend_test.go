package blend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvidenceStats(t *testing.T) {
	mean, stdev, ok := EvidenceStats(200, 90)
	require.True(t, ok)
	assert.Equal(t, 0.45, mean)
	assert.InDelta(t, math.Sqrt(0.45*0.55/200), stdev, 1e-15)
}

func TestEvidenceStatsNoPopulation(t *testing.T) {
	_, _, ok := EvidenceStats(0, 5)
	assert.False(t, ok)
	_, _, ok = EvidenceStats(-10, 5)
	assert.False(t, ok)
}

func TestEvidenceStatsClampsStdevInput(t *testing.T) {
	// k > n yields a mean above 1; the mean is reported raw but the stdev's p
	// is clamped so the square root stays defined.
	mean, stdev, ok := EvidenceStats(10, 15)
	require.True(t, ok)
	assert.Equal(t, 1.5, mean)
	assert.Equal(t, 0.0, stdev)
	assert.False(t, math.IsNaN(stdev))
}

func TestMeanInterpolates(t *testing.T) {
	tests := []struct {
		name         string
		ev, fc, comp float64
		want         float64
	}{
		{"fully mature trusts evidence", 0.2, 0.6, 1, 0.2},
		{"fully immature trusts forecast", 0.2, 0.6, 0, 0.6},
		{"halfway", 0.2, 0.6, 0.5, 0.4},
		{"weight clamped above", 0.2, 0.6, 1.7, 0.2},
		{"weight clamped below", 0.2, 0.6, -0.3, 0.6},
		{"evidence above forecast", 0.8, 0.2, 0.25, 0.35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Mean(tt.ev, tt.fc, tt.comp), 1e-12)
		})
	}
}

func TestMeanNeverExtrapolates(t *testing.T) {
	for comp := 0.0; comp <= 1.0; comp += 0.01 {
		b := Mean(0.3, 0.7, comp)
		assert.GreaterOrEqual(t, b, 0.3)
		assert.LessOrEqual(t, b, 0.7)

		b = Mean(0.7, 0.3, comp)
		assert.GreaterOrEqual(t, b, 0.3)
		assert.LessOrEqual(t, b, 0.7)
	}
}

func TestMeanEqualInputs(t *testing.T) {
	assert.Equal(t, 0.5, Mean(0.5, 0.5, 0.37))
}
