package compiler

import (
	"fmt"

	"github.com/funnelgraph/lag/internal/model"
)

// ValidationError is a structural problem in a funnel definition.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a decoded graph for structural consistency. All problems
// are collected, not just the first.
func Validate(g *model.Graph) []ValidationError {
	var errs []ValidationError

	nodeIDs := make(map[string]bool, len(g.Nodes))
	for i, n := range g.Nodes {
		field := fmt.Sprintf("funnel.nodes[%d]", i)
		if n.ID == "" {
			errs = append(errs, ValidationError{Field: field, Message: "node id is required"})
			continue
		}
		if nodeIDs[n.ID] {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("duplicate node id %q", n.ID)})
		}
		nodeIDs[n.ID] = true

		switch n.Kind {
		case model.NodeStart, model.NodeStep, model.NodeCase:
		case "":
			errs = append(errs, ValidationError{Field: field, Message: "node kind is required (start, step or case)"})
		default:
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("unknown node kind %q", n.Kind)})
		}
		if n.EntryWeight < 0 {
			errs = append(errs, ValidationError{Field: field, Message: "entry weight must be non-negative"})
		}
	}

	edgeIDs := make(map[string]bool, len(g.Edges))
	for i := range g.Edges {
		e := &g.Edges[i]
		field := fmt.Sprintf("funnel.edges[%d]", i)
		if e.ID == "" {
			errs = append(errs, ValidationError{Field: field, Message: "edge id is required"})
			continue
		}
		if edgeIDs[e.ID] {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("duplicate edge id %q", e.ID)})
		}
		edgeIDs[e.ID] = true

		if !nodeIDs[e.From] {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("unknown from node %q", e.From)})
		}
		if !nodeIDs[e.To] {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("unknown to node %q", e.To)})
		}
		if e.From != "" && e.From == e.To {
			errs = append(errs, ValidationError{Field: field, Message: "self-loop edges are not allowed"})
		}

		errs = append(errs, validateParam(field+".param", &e.Param, nodeIDs)...)
		for j := range e.Conditionals {
			errs = append(errs, validateParam(fmt.Sprintf("%s.conditionals[%d]", field, j), &e.Conditionals[j], nodeIDs)...)
		}

		if e.CaseWeight != nil && (*e.CaseWeight < 0 || *e.CaseWeight > 1) {
			errs = append(errs, ValidationError{Field: field, Message: "case weight must be within [0,1]"})
		}
	}

	if len(g.Nodes) > 0 && len(g.StartNodes()) == 0 {
		errs = append(errs, ValidationError{Field: "funnel", Message: "no start node and no node with zero in-degree"})
	}

	return errs
}

func validateParam(field string, p *model.ProbabilityParam, nodeIDs map[string]bool) []ValidationError {
	var errs []ValidationError
	if p.Mean < 0 || p.Mean > 1 {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("mean %v must be within [0,1]", p.Mean)})
	}
	if lat := p.Latency; lat != nil {
		if lat.T95 != nil && *lat.T95 < 0 {
			errs = append(errs, ValidationError{Field: field, Message: "latency t95 must be non-negative"})
		}
		if lat.AnchorNodeID != "" && !nodeIDs[lat.AnchorNodeID] {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("unknown anchor node %q", lat.AnchorNodeID)})
		}
	}
	if ev := p.Evidence; ev != nil && ev.K > ev.N {
		// Accepted downstream with a data-quality warning, but a definition
		// file claiming k > n is authoring error.
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("evidence k %v exceeds n %v", ev.K, ev.N)})
	}
	return errs
}
