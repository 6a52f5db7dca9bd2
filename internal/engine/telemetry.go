package engine

import (
	"log/slog"

	"github.com/funnelgraph/lag/internal/model"
)

// EdgeDiagnostics is the per-edge telemetry record emitted after an edge's
// statistics are computed. Advisory only: no engine behavior depends on the
// sink being present or succeeding.
type EdgeDiagnostics struct {
	RunID     string  `json:"run_id"`
	EdgeID    string  `json:"edge_id"`
	ParamID   string  `json:"param_id,omitempty"`
	CondIndex int     `json:"cond_index"`
	PathT95   float64 `json:"path_t95"`

	DistMu    float64 `json:"dist_mu,omitempty"`
	DistSigma float64 `json:"dist_sigma,omitempty"`

	Completeness *float64 `json:"completeness,omitempty"`

	EvidenceN    float64  `json:"evidence_n"`
	EvidenceK    float64  `json:"evidence_k"`
	ForecastMean *float64 `json:"forecast_mean,omitempty"`
	BlendedMean  *float64 `json:"blended_mean,omitempty"`

	Samples []model.CohortSample `json:"samples,omitempty"`

	QualityWarnings int    `json:"quality_warnings,omitempty"`
	SkipReason      string `json:"skip_reason,omitempty"`
}

// Sink receives per-edge diagnostics.
type Sink interface {
	EdgeComputed(d EdgeDiagnostics)
}

// NopSink discards diagnostics.
type NopSink struct{}

// EdgeComputed discards the record.
func (NopSink) EdgeComputed(EdgeDiagnostics) {}

// SlogSink logs diagnostics as structured debug records.
type SlogSink struct{}

// EdgeComputed logs the record.
func (SlogSink) EdgeComputed(d EdgeDiagnostics) {
	attrs := []any{
		"run_id", d.RunID,
		"edge_id", d.EdgeID,
		"cond_index", d.CondIndex,
		"path_t95", d.PathT95,
		"evidence_n", d.EvidenceN,
		"evidence_k", d.EvidenceK,
		"cohorts", len(d.Samples),
	}
	if d.Completeness != nil {
		attrs = append(attrs, "completeness", *d.Completeness)
	}
	if d.BlendedMean != nil {
		attrs = append(attrs, "blended_mean", *d.BlendedMean)
	}
	if d.SkipReason != "" {
		attrs = append(attrs, "skip_reason", d.SkipReason)
	}
	slog.Debug("edge computed", attrs...)
}

// RecordingSink captures diagnostics in order; tests use it.
type RecordingSink struct {
	Records []EdgeDiagnostics
}

// EdgeComputed appends the record.
func (s *RecordingSink) EdgeComputed(d EdgeDiagnostics) {
	s.Records = append(s.Records, d)
}
