// Package compiler turns CUE funnel definitions into graph model values.
//
// A funnel definition is a CUE file with a top-level funnel struct:
//
//	funnel: {
//		nodes: [{id: "signup", kind: "start"}, ...]
//		edges: [{id: "signup-activate", from: "signup", to: "activate",
//			param: {mean: 0.4, latency: {enabled: true, t95: 14}}}, ...]
//	}
package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/funnelgraph/lag/internal/model"
)

// CompileError represents a compilation failure with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// CompileFunnel parses a CUE value into a Graph.
// Uses the CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the file root; the funnel struct is looked up from
// it. Validation runs after decoding; the first structural error aborts.
func CompileFunnel(v cue.Value) (*model.Graph, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	funnel := v.LookupPath(cue.ParsePath("funnel"))
	if !funnel.Exists() {
		return nil, &CompileError{Field: "funnel", Message: "funnel struct is required", Pos: v.Pos()}
	}

	nodesVal := funnel.LookupPath(cue.ParsePath("nodes"))
	if !nodesVal.Exists() {
		return nil, &CompileError{Field: "funnel.nodes", Message: "nodes list is required", Pos: funnel.Pos()}
	}
	edgesVal := funnel.LookupPath(cue.ParsePath("edges"))
	if !edgesVal.Exists() {
		return nil, &CompileError{Field: "funnel.edges", Message: "edges list is required", Pos: funnel.Pos()}
	}

	g := &model.Graph{}
	if err := nodesVal.Decode(&g.Nodes); err != nil {
		return nil, &CompileError{Field: "funnel.nodes", Message: err.Error(), Pos: nodesVal.Pos()}
	}
	if err := edgesVal.Decode(&g.Edges); err != nil {
		return nil, &CompileError{Field: "funnel.edges", Message: err.Error(), Pos: edgesVal.Pos()}
	}

	if errs := Validate(g); len(errs) > 0 {
		return nil, &errs[0]
	}
	return g, nil
}

// formatCUEError converts a CUE error into a positioned CompileError.
func formatCUEError(err error) error {
	cueErrs := cueerrors.Errors(err)
	if len(cueErrs) == 0 {
		return err
	}
	first := cueErrs[0]
	return &CompileError{
		Message: first.Error(),
		Pos:     first.Position(),
	}
}
