// Package query applies jq expressions to tool output, letting callers pull
// a few fields out of a large RPC or Indexer result instead of receiving the
// whole payload.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
)

// DefaultMaxResults bounds the value list when the caller does not.
const DefaultMaxResults = 1000

// Engine executes jq expressions against decoded JSON values.
type Engine struct{}

// NewEngine creates a new query engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Result holds the values an expression produced plus any per-value
// evaluation errors.
type Result struct {
	Values []any    `json:"values"`
	Errors []string `json:"errors,omitempty"`
	Count  int      `json:"count"`
}

// Extract runs the expression against v, which must be a decoded JSON value
// (maps, slices, strings, float64 numbers). Typed values are normalized
// through JSON first. nil outputs are skipped; evaluation errors are
// collected per value rather than aborting the run.
func (e *Engine) Extract(v any, expression string, maxResults int) (*Result, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("compiling jq expression: %w", err)
	}

	input, err := normalize(v)
	if err != nil {
		return nil, err
	}

	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	res := &Result{Values: []any{}, Errors: []string{}}
	iter := code.Run(input)
	for {
		out, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := out.(error); isErr {
			res.Errors = append(res.Errors, decorate(err))
			continue
		}
		if out == nil {
			continue
		}
		res.Values = append(res.Values, out)
		if len(res.Values) >= maxResults {
			break
		}
	}
	res.Count = len(res.Values)
	return res, nil
}

// ValidateExpression checks an expression without executing it.
func (e *Engine) ValidateExpression(expression string) error {
	query, err := gojq.Parse(expression)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return fmt.Errorf("invalid jq expression at position %d: %w", parseErr.Offset, err)
		}
		return fmt.Errorf("invalid jq expression: %w", err)
	}
	if _, err := gojq.Compile(query); err != nil {
		return fmt.Errorf("compiling jq expression: %w", err)
	}
	return nil
}

// normalize round-trips typed values through JSON so gojq sees only the
// types it understands. Already-decoded values pass through untouched.
func normalize(v any) (any, error) {
	switch v.(type) {
	case nil, bool, string, float64, map[string]any, []any:
		return v, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalizing query input: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("normalizing query input: %w", err)
	}
	return out, nil
}

// decorate adds a usage hint to common jq runtime errors. gojq returns these
// as plain errors, so the matching is on message text; the result is display
// only, never control flow.
func decorate(err error) string {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		if haltErr.Value() == nil {
			return "query halted"
		}
		return fmt.Sprintf("query halted with: %v", haltErr.Value())
	}

	msg := err.Error()
	var hint string
	switch {
	case strings.Contains(msg, "cannot iterate over: null"):
		hint = " (the path may not exist in this result)"
	case strings.Contains(msg, "cannot index") && strings.Contains(msg, "with"):
		hint = " (field not found or wrong type)"
	case strings.Contains(msg, "object") && strings.Contains(msg, "cannot be iterated"):
		hint = " (expected array but got object, try removing '[]')"
	case strings.Contains(msg, "array") && strings.Contains(msg, "cannot be indexed"):
		hint = " (expected object but got array, try adding '[]')"
	}
	return msg + hint
}
