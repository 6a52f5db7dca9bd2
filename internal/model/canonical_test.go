package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalSortsKeys(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{
		"zebra": 1,
		"alpha": 2,
		"mid":   map[string]any{"b": 1, "a": 2},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"mid":{"a":2,"b":1},"zebra":1}`, string(out))
}

func TestMarshalCanonicalFloats(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"integral float", map[string]any{"v": 3.0}, `{"v":3}`},
		{"fraction", map[string]any{"v": 0.5}, `{"v":0.5}`},
		{"shortest round trip", map[string]any{"v": 0.1 + 0.2}, `{"v":0.30000000000000004}`},
		{"negative", map[string]any{"v": -2.25}, `{"v":-2.25}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
		})
	}
}

func TestMarshalCanonicalNormalizesNFC(t *testing.T) {
	// e + combining acute accent normalizes to the precomposed form.
	decomposed := "é"
	out, err := MarshalCanonical(map[string]any{"v": decomposed})
	require.NoError(t, err)
	assert.Equal(t, `{"v":"é"}`, string(out))
}

func TestMarshalCanonicalNoHTMLEscaping(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{"v": "a<b>&c"})
	require.NoError(t, err)
	assert.Equal(t, `{"v":"a<b>&c"}`, string(out))
}

func TestMarshalCanonicalForbidsNull(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"v": nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "null")
}

func TestMarshalCanonicalStructTagsApply(t *testing.T) {
	g := &Graph{
		Nodes: []Node{{ID: "a", Kind: NodeStart}},
		Edges: []Edge{{ID: "e", From: "a", To: "a", Param: ProbabilityParam{Mean: 0.5}}},
	}
	out, err := MarshalCanonical(g)
	require.NoError(t, err)

	// Optional fields omit rather than serialize as null.
	assert.NotContains(t, string(out), "null")
	assert.Contains(t, string(out), `"mean":0.5`)
	assert.NotContains(t, string(out), "entry_weight")
}
