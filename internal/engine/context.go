package engine

import (
	"github.com/google/uuid"

	"github.com/funnelgraph/lag/internal/model"
	"github.com/funnelgraph/lag/internal/query"
	"github.com/funnelgraph/lag/internal/topo"
)

// RunTokenGenerator generates unique run tokens for diagnostics correlation.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type RunTokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-ordered UUIDv7 run tokens.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns a fixed token; tests use it for stable output.
type FixedGenerator struct {
	Token string
}

// Generate returns the fixed token.
func (g FixedGenerator) Generate() string { return g.Token }

// ExecContext carries the per-run execution state through the pipeline.
//
// It is an explicit value threaded through every call, not module state: the
// batch flag in particular exists so callers that already show their own
// progress UI can suppress per-edge notifications, and a global would leak
// one caller's choice into another's run.
type ExecContext struct {
	// RunID correlates diagnostics across a single pipeline run.
	RunID string

	// Now is the query date. Completeness is a pure function of it: the same
	// graph under the same Now must reproduce identical output.
	Now model.Day

	// Constraint is the active query. Nil means an unbounded window query.
	Constraint *query.Constraint

	// Overrides are what-if probability multipliers by edge id.
	Overrides topo.Overrides

	// Batch suppresses per-edge progress notification to the sink.
	Batch bool

	// Sink receives per-edge diagnostics. Nil means discard.
	Sink Sink
}

// sink returns the configured sink or the discard default.
func (ec *ExecContext) sink() Sink {
	if ec.Sink == nil {
		return NopSink{}
	}
	return ec.Sink
}

// constraint returns the configured constraint or the unbounded window default.
func (ec *ExecContext) constraint() *query.Constraint {
	if ec.Constraint == nil {
		return &query.Constraint{Mode: query.ModeWindow}
	}
	return ec.Constraint
}
