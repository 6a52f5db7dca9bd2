// Package query parses query constraint expressions into structured temporal
// bounds and a canonical dimension signature.
//
// Grammar:
//
//	window(START:END)
//	cohort(ANCHOR,START:END)
//
// optionally followed by narrowing modifiers, in any order, repeatable:
//
//	.context(key:value)
//	.case(id:variant)
//	.visited(nodeId)
//
// Dates are ISO (YYYY-MM-DD). Only the temporal bounds and the dimension
// signature are consumed by the engine; everything else about query execution
// belongs to the retrieval layer.
package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/funnelgraph/lag/internal/model"
)

// Mode is the temporal scope mode of a constraint.
type Mode string

const (
	// ModeWindow scopes by observation window.
	ModeWindow Mode = "window"

	// ModeCohort scopes by cohort entry date at an anchor node.
	ModeCohort Mode = "cohort"
)

// Constraint is a parsed query constraint.
type Constraint struct {
	Mode   Mode
	Anchor string // cohort mode only
	Start  model.Day
	End    model.Day

	Context map[string]string // key -> value
	Cases   map[string]string // case id -> variant
	Visited []string          // upstream node conditions, in declaration order
}

// ParseError reports where parsing failed.
type ParseError struct {
	Input   string
	Offset  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse constraint %q at offset %d: %s", e.Input, e.Offset, e.Message)
}

// Parse parses a constraint expression.
func Parse(input string) (*Constraint, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, &ParseError{Input: input, Offset: 0, Message: "empty expression"}
	}

	head, rest, err := splitCall(input, s, 0)
	if err != nil {
		return nil, err
	}

	c := &Constraint{
		Context: make(map[string]string),
		Cases:   make(map[string]string),
	}

	switch head.name {
	case "window":
		c.Mode = ModeWindow
		c.Start, c.End, err = parseRange(input, head)
		if err != nil {
			return nil, err
		}

	case "cohort":
		c.Mode = ModeCohort
		comma := strings.IndexByte(head.arg, ',')
		if comma < 0 {
			return nil, &ParseError{Input: input, Offset: head.argOffset, Message: "cohort requires anchor and range: cohort(anchor,start:end)"}
		}
		c.Anchor = strings.TrimSpace(head.arg[:comma])
		if c.Anchor == "" {
			return nil, &ParseError{Input: input, Offset: head.argOffset, Message: "empty cohort anchor"}
		}
		rangeCall := call{name: head.name, arg: head.arg[comma+1:], argOffset: head.argOffset + comma + 1}
		c.Start, c.End, err = parseRange(input, rangeCall)
		if err != nil {
			return nil, err
		}

	default:
		return nil, &ParseError{Input: input, Offset: head.nameOffset, Message: fmt.Sprintf("unknown scope %q (want window or cohort)", head.name)}
	}

	// Narrowing modifiers
	for rest != "" {
		if rest[0] != '.' {
			return nil, &ParseError{Input: input, Offset: len(input) - len(rest), Message: "expected '.' before modifier"}
		}
		var mod call
		mod, rest, err = splitCall(input, rest[1:], len(input)-len(rest)+1)
		if err != nil {
			return nil, err
		}

		switch mod.name {
		case "context":
			key, val, err := splitPair(input, mod)
			if err != nil {
				return nil, err
			}
			c.Context[key] = val

		case "case":
			id, variant, err := splitPair(input, mod)
			if err != nil {
				return nil, err
			}
			c.Cases[id] = variant

		case "visited":
			node := strings.TrimSpace(mod.arg)
			if node == "" {
				return nil, &ParseError{Input: input, Offset: mod.argOffset, Message: "empty visited node"}
			}
			c.Visited = append(c.Visited, node)

		default:
			return nil, &ParseError{Input: input, Offset: mod.nameOffset, Message: fmt.Sprintf("unknown modifier %q (want context, case or visited)", mod.name)}
		}
	}

	return c, nil
}

// Signature returns the canonical dimension signature: the sorted set of
// narrowing dimensions, temporal bounds excluded. Two constraints with the
// same signature select the same parameter slices.
func (c *Constraint) Signature() string {
	var parts []string
	for k, v := range c.Context {
		parts = append(parts, "context:"+k+"="+v)
	}
	for id, variant := range c.Cases {
		parts = append(parts, "case:"+id+"="+variant)
	}
	for _, n := range c.Visited {
		parts = append(parts, "visited:"+n)
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// StripConditions returns a copy with upstream-event conditions removed.
// Used for the dual-query denominator: the base query must count all arrivals
// at the edge's from-node, not just those that passed the condition.
func (c *Constraint) StripConditions() *Constraint {
	out := &Constraint{
		Mode:    c.Mode,
		Anchor:  c.Anchor,
		Start:   c.Start,
		End:     c.End,
		Context: make(map[string]string, len(c.Context)),
		Cases:   make(map[string]string, len(c.Cases)),
	}
	for k, v := range c.Context {
		out.Context[k] = v
	}
	for k, v := range c.Cases {
		out.Cases[k] = v
	}
	return out
}

// HasConditions reports whether the constraint conditions on upstream events.
func (c *Constraint) HasConditions() bool {
	return len(c.Visited) > 0
}

// call is one name(arg) unit of the expression.
type call struct {
	name       string
	arg        string
	nameOffset int
	argOffset  int
}

// splitCall consumes name(arg) from the front of s and returns the remainder.
// base is the offset of s within the original input, for error positions.
func splitCall(input, s string, base int) (call, string, error) {
	open := strings.IndexByte(s, '(')
	if open <= 0 {
		return call{}, "", &ParseError{Input: input, Offset: base, Message: "expected name(...)"}
	}
	name := strings.TrimSpace(s[:open])

	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return call{
					name:       name,
					arg:        s[open+1 : i],
					nameOffset: base,
					argOffset:  base + open + 1,
				}, s[i+1:], nil
			}
		}
	}
	return call{}, "", &ParseError{Input: input, Offset: base + open, Message: "unbalanced parentheses"}
}

// parseRange parses "start:end" where either side may be empty (open-ended).
func parseRange(input string, cl call) (model.Day, model.Day, error) {
	colon := strings.IndexByte(cl.arg, ':')
	if colon < 0 {
		return "", "", &ParseError{Input: input, Offset: cl.argOffset, Message: "expected start:end range"}
	}
	var start, end model.Day
	var err error
	if s := strings.TrimSpace(cl.arg[:colon]); s != "" {
		if start, err = model.ParseDay(s); err != nil {
			return "", "", &ParseError{Input: input, Offset: cl.argOffset, Message: err.Error()}
		}
	}
	if s := strings.TrimSpace(cl.arg[colon+1:]); s != "" {
		if end, err = model.ParseDay(s); err != nil {
			return "", "", &ParseError{Input: input, Offset: cl.argOffset + colon + 1, Message: err.Error()}
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return "", "", &ParseError{Input: input, Offset: cl.argOffset, Message: fmt.Sprintf("range end %s before start %s", end, start)}
	}
	return start, end, nil
}

// splitPair parses "key:value" out of a modifier argument.
func splitPair(input string, cl call) (string, string, error) {
	colon := strings.IndexByte(cl.arg, ':')
	if colon < 0 {
		return "", "", &ParseError{Input: input, Offset: cl.argOffset, Message: fmt.Sprintf("%s requires key:value", cl.name)}
	}
	key := strings.TrimSpace(cl.arg[:colon])
	val := strings.TrimSpace(cl.arg[colon+1:])
	if key == "" || val == "" {
		return "", "", &ParseError{Input: input, Offset: cl.argOffset, Message: fmt.Sprintf("%s requires non-empty key and value", cl.name)}
	}
	return key, val, nil
}
