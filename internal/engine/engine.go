// Package engine runs the latency-adjusted graph pipeline: topology, path
// horizons, cohort aggregation, distribution fitting, completeness, blending,
// inbound population propagation and the final batch merge.
package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/funnelgraph/lag/internal/apply"
	"github.com/funnelgraph/lag/internal/blend"
	"github.com/funnelgraph/lag/internal/cohort"
	"github.com/funnelgraph/lag/internal/latency"
	"github.com/funnelgraph/lag/internal/model"
	"github.com/funnelgraph/lag/internal/query"
	"github.com/funnelgraph/lag/internal/topo"
)

// SliceSource supplies parameter slice values. The engine only ever reads:
// slice values are append-only source data owned by the external file store.
type SliceSource interface {
	Values(ctx context.Context, paramID string) ([]model.ParameterValue, error)
}

// Engine computes per-edge latency-adjusted statistics over a funnel graph.
//
// Execution is single-threaded and cooperative: the statistical passes are
// synchronous CPU work, edges are processed strictly sequentially in
// topological order, and every step reads the latest snapshot and produces a
// new one before the next begins. No locking, no shared mutable state.
type Engine struct {
	slices SliceSource
	tokens RunTokenGenerator
}

// Option configures an Engine.
type Option func(*Engine)

// WithTokenGenerator overrides the run token generator (for testing).
func WithTokenGenerator(g RunTokenGenerator) Option {
	return func(e *Engine) {
		e.tokens = g
	}
}

// New creates an Engine over the given slice source.
func New(slices SliceSource, opts ...Option) *Engine {
	e := &Engine{
		slices: slices,
		tokens: UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Outcome is the result of one pipeline run.
//
// NothingToDo distinguishes an early, non-failing return (no topology, no
// active edges) from an actual failure: the caller gets structured counts and
// a reason sufficient to render a message, and Graph is the input unchanged.
type Outcome struct {
	Graph *model.Graph
	RunID string

	NothingToDo bool
	Reason      string

	// Cyclic is true when the topological sort degraded to declaration order.
	Cyclic bool

	Updated int
	Skipped int
	Failed  int

	SkipReasons map[ComputeErrorCode]int
}

// Run executes the full pipeline against a graph snapshot and returns the new
// snapshot inside the Outcome.
//
// The input graph is never mutated. Per-edge failures are recovered locally
// and counted; the propagation and merge passes run over whatever succeeded.
// Only a batch apply failure surfaces as an error, and then the outcome
// carries the prior graph untouched.
func (e *Engine) Run(ctx context.Context, g *model.Graph, ec ExecContext) (*Outcome, error) {
	if ec.RunID == "" {
		ec.RunID = e.tokens.Generate()
	}
	out := &Outcome{
		Graph:       g,
		RunID:       ec.RunID,
		SkipReasons: make(map[ComputeErrorCode]int),
	}

	if g == nil || len(g.Edges) == 0 || len(g.Nodes) == 0 {
		out.NothingToDo = true
		out.Reason = "no topology"
		slog.Info("nothing to do", "run_id", ec.RunID, "reason", out.Reason)
		return out, nil
	}

	// Edges with dangling endpoints cannot participate in topology; they are
	// excluded up front rather than degrading the whole sort.
	active := map[string]bool{}
	for _, id := range topo.ActiveEdges(g, ec.Overrides) {
		edge := g.Edge(id)
		if g.Node(edge.From) == nil || g.Node(edge.To) == nil {
			slog.Warn("edge missing topology, excluded from run",
				"run_id", ec.RunID, "edge_id", id, "from", edge.From, "to", edge.To)
			out.SkipReasons[ErrCodeMissingTopology]++
			out.Skipped++
			continue
		}
		active[id] = true
	}
	if len(active) == 0 {
		out.NothingToDo = true
		out.Reason = "no active edges"
		slog.Info("nothing to do", "run_id", ec.RunID, "reason", out.Reason)
		return out, nil
	}

	order, cyclic := topo.TopologicalOrder(g, active)
	out.Cyclic = cyclic

	pathT95 := topo.PathT95(g, order, active)
	anchorLag := topo.AnchorMedianLag(g, order, active)

	slog.Debug("topology resolved",
		"run_id", ec.RunID,
		"active_edges", len(order),
		"cyclic", cyclic,
	)

	// Per-edge statistics, strictly sequential in topological order.
	var updates []apply.EdgeUpdate
	byEdge := make(map[string][]int, len(order))

	for _, edgeID := range order {
		edge := g.Edge(edgeID)

		params := make([]*model.ProbabilityParam, 0, 1+len(edge.Conditionals))
		params = append(params, &edge.Param)
		for i := range edge.Conditionals {
			params = append(params, &edge.Conditionals[i])
		}

		for pi, param := range params {
			condIndex := apply.PrimaryParam
			if pi > 0 {
				condIndex = pi - 1
			}

			upd, skip, err := e.computeParam(ctx, g, edge, param, condIndex, pathT95[edgeID], anchorLag[edgeID], &ec)
			if err != nil {
				code := ErrCodeSliceSource
				var ce *ComputeError
				if errors.As(err, &ce) {
					code = ce.Code
				}
				slog.Error("edge computation failed, continuing batch",
					"run_id", ec.RunID, "edge_id", edgeID, "cond_index", condIndex, "error", err)
				out.SkipReasons[code]++
				out.Failed++
			} else if skip != "" {
				out.SkipReasons[skip]++
				out.Skipped++
			} else {
				out.Updated++
			}
			if upd != nil {
				byEdge[edgeID] = append(byEdge[edgeID], len(updates))
				updates = append(updates, *upd)
			}
		}
	}

	// Inbound population over whatever succeeded.
	e.propagate(g, order, active, &ec, updates, byEdge)

	applied, err := apply.Batch(g, updates)
	if err != nil {
		slog.Error("batch apply failed, prior graph preserved", "run_id", ec.RunID, "error", err)
		out.SkipReasons[ErrCodeBatchApplyFailed]++
		return out, NewBatchApplyError(err)
	}
	out.Graph = applied

	slog.Info("pipeline run complete",
		"run_id", ec.RunID,
		"updated", out.Updated,
		"skipped", out.Skipped,
		"failed", out.Failed,
		"cyclic", out.Cyclic,
	)
	return out, nil
}

// computeParam computes one parameter's statistics.
//
// Returns the batch update (possibly partial - path t95 alone when no data is
// retrievable), a non-fatal skip reason, or an error. Errors never abort the
// run; the caller counts them and moves on.
func (e *Engine) computeParam(
	ctx context.Context,
	g *model.Graph,
	edge *model.Edge,
	param *model.ProbabilityParam,
	condIndex int,
	pathT95 float64,
	anchorLag float64,
	ec *ExecContext,
) (*apply.EdgeUpdate, ComputeErrorCode, error) {
	upd := &apply.EdgeUpdate{EdgeID: edge.ID, CondIndex: condIndex}

	latencyOn := param.LatencyEnabled()
	if param.Latency != nil || pathT95 > 0 {
		pt := pathT95
		upd.PathT95 = &pt
	}

	diag := EdgeDiagnostics{
		RunID:     ec.RunID,
		EdgeID:    edge.ID,
		ParamID:   param.ParamID,
		CondIndex: condIndex,
		PathT95:   pathT95,
	}

	c := ec.constraint()
	if param.Query != "" {
		parsed, err := query.Parse(param.Query)
		if err != nil {
			return upd, "", &ComputeError{
				Code:    ErrCodeSliceSource,
				Message: "invalid parameter query",
				EdgeID:  edge.ID,
				ParamID: param.ParamID,
				Err:     err,
			}
		}
		c = parsed
	}

	// Simple edges have no latency to wait out: in cohort-mode queries they
	// are evaluated against the equivalent window slice instead of
	// cohort-shaped retrieval.
	simple := !latencyOn && pathT95 == 0
	if simple && c.Mode == query.ModeCohort {
		wc := c.StripConditions()
		wc.Visited = append([]string(nil), c.Visited...)
		wc.Mode = query.ModeWindow
		wc.Anchor = ""
		c = wc
	}

	if param.ParamID == "" {
		diag.SkipReason = "no parameter id"
		ec.sink().EdgeComputed(diag)
		if latencyOn {
			return upd, ErrCodeNoCohortsInScope, nil
		}
		return upd, ErrCodeMissingLatencyConfig, nil
	}

	values, err := e.slices.Values(ctx, param.ParamID)
	if err != nil {
		return upd, "", &ComputeError{
			Code:    ErrCodeSliceSource,
			Message: "slice retrieval failed",
			EdgeID:  edge.ID,
			ParamID: param.ParamID,
			Err:     err,
		}
	}

	agg := cohort.Aggregate(values, c)
	diag.QualityWarnings = agg.QualityWarnings
	if agg.QualityWarnings > 0 {
		slog.Warn("cohort data quality issues, computing on raw values",
			"run_id", ec.RunID,
			"edge_id", edge.ID,
			"param_id", param.ParamID,
			"code", string(ErrCodeDataQuality),
			"count", agg.QualityWarnings,
		)
	}

	// Dual-query n/k separation for upstream-conditioned edges.
	n, k := agg.N, agg.K
	switch {
	case param.NQuery != "":
		baseC, err := query.Parse(param.NQuery)
		if err != nil {
			return upd, "", &ComputeError{
				Code:    ErrCodeSliceSource,
				Message: "invalid n_query",
				EdgeID:  edge.ID,
				ParamID: param.ParamID,
				Err:     err,
			}
		}
		baseAgg := cohort.Aggregate(values, baseC)
		n, k = cohort.DualCounts(baseAgg, agg, true)
	case c.HasConditions():
		baseAgg := cohort.Aggregate(values, c.StripConditions())
		n, k = cohort.DualCounts(baseAgg, agg, false)
	}

	evMean, evStdev, hasEvidence := blend.EvidenceStats(n, k)
	if hasEvidence {
		upd.Evidence = &model.Evidence{Mean: evMean, Stdev: evStdev, N: n, K: k}
		diag.EvidenceN, diag.EvidenceK = n, k
	}

	var fcMean *float64
	if agg.Forecast != nil {
		f := *agg.Forecast
		fcMean = &f
		upd.Forecast = &model.Forecast{Mean: f}
		diag.ForecastMean = &f
	}

	if c.Mode == query.ModeCohort && c.Anchor != "" {
		anchor := c.Anchor
		upd.AnchorNodeID = &anchor
	}

	if !latencyOn {
		// No latency to discount: the evidence mean (or, failing that, the
		// baseline) is the estimate.
		switch {
		case hasEvidence:
			upd.Mean = &evMean
		case fcMean != nil:
			upd.Mean = fcMean
		}
		diag.BlendedMean = upd.Mean
		ec.sink().EdgeComputed(diag)
		return upd, "", nil
	}

	lat := param.Latency
	if agg.MedianLag != nil {
		upd.MedianLagDays = agg.MedianLag
	}
	if agg.MeanLag != nil {
		upd.MeanLagDays = agg.MeanLag
	}

	if !agg.HasCohorts() {
		// Completeness undefined: report evidence alone, no blend.
		if hasEvidence {
			upd.Mean = &evMean
		}
		diag.BlendedMean = upd.Mean
		diag.SkipReason = "no cohorts in scope"
		ec.sink().EdgeComputed(diag)
		return upd, ErrCodeNoCohortsInScope, nil
	}

	// One fit per edge per run, from the aggregated lag summaries, falling
	// back to the configured ones.
	medianLag := coalesce(agg.MedianLag, lat.MedianLagDays)
	meanLag := coalesce(agg.MeanLag, lat.MeanLagDays)
	dist := latency.Fit(medianLag, meanLag)
	dist = dist.CapToHorizon(latency.EffectiveHorizon(pathT95, lat))
	diag.DistMu, diag.DistSigma = dist.Mu, dist.Sigma

	if t95 := dist.T95(); t95 > 0 {
		upd.T95 = &t95
	}

	onset := 0.0
	if lat.OnsetDeltaDays != nil {
		onset = *lat.OnsetDeltaDays
	}
	comp := latency.Evaluate(dist, agg.Samples, ec.Now, anchorLag, onset)
	diag.Samples = comp.Samples

	if !comp.Defined {
		if hasEvidence {
			upd.Mean = &evMean
		}
		diag.BlendedMean = upd.Mean
		diag.SkipReason = "no cohort volume"
		ec.sink().EdgeComputed(diag)
		return upd, ErrCodeNoCohortsInScope, nil
	}

	completeness := comp.Completeness
	upd.Completeness = &completeness
	diag.Completeness = &completeness

	switch {
	case hasEvidence && fcMean != nil:
		blended := blend.Mean(evMean, *fcMean, completeness)
		upd.Mean = &blended
	case hasEvidence:
		upd.Mean = &evMean
	case fcMean != nil:
		upd.Mean = fcMean
	}
	diag.BlendedMean = upd.Mean

	if !ec.Batch {
		slog.Info("edge statistics computed",
			"run_id", ec.RunID,
			"edge_id", edge.ID,
			"completeness", completeness,
			"evidence_n", n,
			"evidence_k", k,
		)
	}
	ec.sink().EdgeComputed(diag)
	return upd, "", nil
}

func coalesce(vals ...*float64) float64 {
	for _, v := range vals {
		if v != nil && *v > 0 {
			return *v
		}
	}
	return 0
}
