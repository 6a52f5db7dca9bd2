package model

// ProbabilityParam is a conversion probability parameter on an edge.
//
// The sub-objects (Evidence, Forecast, Latency) are independently optional:
// a nil pointer means the source data never populated them. Modeling each as
// an explicit pointer keeps the override-aware merge exhaustive - there is no
// "empty but present" ambiguity.
type ProbabilityParam struct {
	// ParamID keys the parameter's slice values in the slice store.
	ParamID string `json:"param_id,omitempty" yaml:"param_id,omitempty"`

	Mean           float64  `json:"mean" yaml:"mean"`
	MeanOverridden bool     `json:"mean_overridden,omitempty" yaml:"mean_overridden,omitempty"`
	Stdev          *float64 `json:"stdev,omitempty" yaml:"stdev,omitempty"`
	StdevOverridden bool    `json:"stdev_overridden,omitempty" yaml:"stdev_overridden,omitempty"`

	Evidence *Evidence `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	Forecast *Forecast `json:"forecast,omitempty" yaml:"forecast,omitempty"`
	Latency  *Latency  `json:"latency,omitempty" yaml:"latency,omitempty"`

	// Query is the parameter's query constraint expression, if any.
	Query string `json:"query,omitempty" yaml:"query,omitempty"`

	// NQuery, when set, names the explicit base query whose completion count
	// supplies the denominator for upstream-conditioned edges.
	NQuery string `json:"n_query,omitempty" yaml:"n_query,omitempty"`

	// N is the transient inbound forecast population reaching this edge.
	// Recomputed every run by the propagation pass; never persisted.
	N float64 `json:"n,omitempty" yaml:"n,omitempty"`
}

// Evidence holds raw observed counts and their derived statistics for the
// current query scope.
type Evidence struct {
	Mean  float64 `json:"mean" yaml:"mean"`
	Stdev float64 `json:"stdev" yaml:"stdev"`
	N     float64 `json:"n" yaml:"n"`
	K     float64 `json:"k" yaml:"k"`
}

// Forecast holds the p-infinity baseline drawn from mature cohorts.
type Forecast struct {
	Mean  float64  `json:"mean" yaml:"mean"`
	Stdev *float64 `json:"stdev,omitempty" yaml:"stdev,omitempty"`

	// K is the expected converter count (inbound n x blended mean), emitted so
	// single-edge recomputations can reconstruct n without a full propagation.
	K *float64 `json:"k,omitempty" yaml:"k,omitempty"`
}

// Latency is the per-edge conversion lag configuration and its derived state.
//
// Fields with a paired Overridden flag are user-editable: once the flag is
// true the engine must never clear it or overwrite the value. Completeness and
// PathT95 are derived every run from the current clock and topology; they are
// never sticky.
type Latency struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	T95           *float64 `json:"t95,omitempty" yaml:"t95,omitempty"`
	T95Overridden bool     `json:"t95_overridden,omitempty" yaml:"t95_overridden,omitempty"`

	// PathT95 is the cumulative maturity horizon from the start anchor via the
	// slowest upstream path. Derived, transient.
	PathT95 float64 `json:"path_t95,omitempty" yaml:"path_t95,omitempty"`

	MedianLagDays           *float64 `json:"median_lag_days,omitempty" yaml:"median_lag_days,omitempty"`
	MedianLagDaysOverridden bool     `json:"median_lag_days_overridden,omitempty" yaml:"median_lag_days_overridden,omitempty"`

	MeanLagDays           *float64 `json:"mean_lag_days,omitempty" yaml:"mean_lag_days,omitempty"`
	MeanLagDaysOverridden bool     `json:"mean_lag_days_overridden,omitempty" yaml:"mean_lag_days_overridden,omitempty"`

	// Completeness is the fraction of eventual conversions already observed.
	// Derived, transient, recomputed every run; never subject to override.
	Completeness *float64 `json:"completeness,omitempty" yaml:"completeness,omitempty"`

	OnsetDeltaDays           *float64 `json:"onset_delta_days,omitempty" yaml:"onset_delta_days,omitempty"`
	OnsetDeltaDaysOverridden bool     `json:"onset_delta_days_overridden,omitempty" yaml:"onset_delta_days_overridden,omitempty"`

	AnchorNodeID           string `json:"anchor_node_id,omitempty" yaml:"anchor_node_id,omitempty"`
	AnchorNodeIDOverridden bool   `json:"anchor_node_id_overridden,omitempty" yaml:"anchor_node_id_overridden,omitempty"`

	// MaturityDays is a coarse legacy horizon, consulted only by the fallback
	// chain when neither path_t95 nor t95 is available.
	MaturityDays *float64 `json:"maturity_days,omitempty" yaml:"maturity_days,omitempty"`
}

// Clone returns a deep copy of the parameter.
func (p ProbabilityParam) Clone() ProbabilityParam {
	out := p
	out.Stdev = cloneFloat(p.Stdev)
	if p.Evidence != nil {
		ev := *p.Evidence
		out.Evidence = &ev
	}
	if p.Forecast != nil {
		fc := *p.Forecast
		fc.Stdev = cloneFloat(p.Forecast.Stdev)
		fc.K = cloneFloat(p.Forecast.K)
		out.Forecast = &fc
	}
	if p.Latency != nil {
		lat := p.Latency.Clone()
		out.Latency = &lat
	}
	return out
}

// Clone returns a deep copy of the latency config.
func (l Latency) Clone() Latency {
	out := l
	out.T95 = cloneFloat(l.T95)
	out.MedianLagDays = cloneFloat(l.MedianLagDays)
	out.MeanLagDays = cloneFloat(l.MeanLagDays)
	out.Completeness = cloneFloat(l.Completeness)
	out.OnsetDeltaDays = cloneFloat(l.OnsetDeltaDays)
	out.MaturityDays = cloneFloat(l.MaturityDays)
	return out
}

// LatencyEnabled reports whether the parameter has an enabled latency config.
func (p *ProbabilityParam) LatencyEnabled() bool {
	return p.Latency != nil && p.Latency.Enabled
}
