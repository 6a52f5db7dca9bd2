// Package harness runs declarative pipeline scenarios: a YAML file names a
// graph, its slice fixtures and a query, and the harness executes a full
// engine run and exposes the resulting snapshot for golden comparison.
package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/funnelgraph/lag/internal/engine"
	"github.com/funnelgraph/lag/internal/model"
	"github.com/funnelgraph/lag/internal/query"
	"github.com/funnelgraph/lag/internal/testutil"
)

// Scenario defines one pipeline scenario.
//
// Everything that feeds a run is fixed in the file: the graph, the slice
// fixtures, the query date. The run token defaults to "run-{name}" so the
// same scenario always produces byte-identical output.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Graph is the funnel snapshot the run starts from.
	Graph model.Graph `yaml:"graph"`

	// Slices holds the parameter slice fixtures, keyed by parameter id.
	Slices map[string][]model.ParameterValue `yaml:"slices,omitempty"`

	// Query is the scope constraint, in query grammar form. Empty means an
	// unbounded window query.
	Query string `yaml:"query,omitempty"`

	// Now is the query date (YYYY-MM-DD). Completeness is a function of it.
	Now string `yaml:"now"`

	// Overrides are what-if probability multipliers by edge id.
	Overrides map[string]float64 `yaml:"overrides,omitempty"`

	// RunID is an optional fixed run token. Defaults to "run-{name}".
	RunID string `yaml:"run_id,omitempty"`
}

// Result is the outcome of executing a scenario.
type Result struct {
	Outcome     *engine.Outcome
	Diagnostics []engine.EdgeDiagnostics
}

// LoadScenario reads one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("scenario %s has no name", path)
	}
	return &s, nil
}

// LoadScenarios reads every *.yaml scenario in a directory, sorted by
// filename so test ordering is stable.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// Run executes a scenario's pipeline run.
func Run(ctx context.Context, s *Scenario) (*Result, error) {
	runID := s.RunID
	if runID == "" {
		runID = "run-" + s.Name
	}

	now, err := model.ParseDay(s.Now)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	var c *query.Constraint
	if s.Query != "" {
		c, err = query.Parse(s.Query)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
	}

	sink := &engine.RecordingSink{}
	eng := engine.New(
		&testutil.MemorySource{ByParam: s.Slices},
		engine.WithTokenGenerator(engine.FixedGenerator{Token: runID}),
	)

	out, err := eng.Run(ctx, &s.Graph, engine.ExecContext{
		Now:        now,
		Constraint: c,
		Overrides:  s.Overrides,
		Batch:      true,
		Sink:       sink,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	return &Result{Outcome: out, Diagnostics: sink.Records}, nil
}
