// Package query provides JQ-based querying over decoded resource timings.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
)

// Engine executes JQ queries against JSON-shaped values.
type Engine struct{}

// NewEngine creates a new query engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Input is one labeled value a query runs against, for example the timings
// recorded for one URL.
type Input struct {
	Label string
	Value any
}

// QueryResult contains the results of a JQ query.
type QueryResult struct {
	Values         []any          `json:"values"`                    // Extracted values
	Errors         []string       `json:"errors,omitempty"`          // Per-input errors (e.g., type mismatch)
	RawCount       int            `json:"raw_count"`                 // Count before deduplication
	Truncated      bool           `json:"truncated,omitempty"`       // maxResults was reached
	MatchedIndices []int          `json:"matched_indices,omitempty"` // Indices of inputs that produced values
	LabelCounts    map[string]int `json:"label_counts,omitempty"`    // Value count per label
}

// ToValue converts a Go value into the generic JSON shape gojq operates on.
func ToValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding query input: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding query input: %w", err)
	}
	return out, nil
}

func compile(expression string) (*gojq.Code, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("invalid jq expression at position %d: %w", parseErr.Offset, err)
		}
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}
	return code, nil
}

// Query executes a JQ expression against a single value. The value must
// already be JSON-shaped; see ToValue.
func (e *Engine) Query(input any, expression string, deduplicate bool, maxResults int) (*QueryResult, error) {
	return e.QueryInputs([]Input{{Label: "input", Value: input}}, expression, deduplicate, maxResults)
}

// QueryInputs executes a JQ expression against every input in order and
// combines the results, optionally deduplicating across all inputs.
// Labels identify each input in error messages.
func (e *Engine) QueryInputs(inputs []Input, expression string, deduplicate bool, maxResults int) (*QueryResult, error) {
	code, err := compile(expression)
	if err != nil {
		return nil, err
	}

	result := &QueryResult{
		Values:      make([]any, 0),
		Errors:      make([]string, 0),
		LabelCounts: make(map[string]int),
	}

	seen := make(map[string]bool)
	seenErrors := make(map[string]bool)

	for i, in := range inputs {
		if result.Truncated {
			break
		}

		label := in.Label
		if label == "" {
			label = fmt.Sprintf("input[%d]", i)
		}

		matched := false
		iter := code.Run(in.Value)
		for {
			v, ok := iter.Next()
			if !ok {
				break
			}

			if err, isErr := v.(error); isErr {
				errMsg := formatJQError(label, err)
				if !seenErrors[errMsg] {
					result.Errors = append(result.Errors, errMsg)
					seenErrors[errMsg] = true
				}
				continue
			}

			if v == nil {
				continue
			}

			if maxResults > 0 && len(result.Values) >= maxResults {
				result.Truncated = true
				break
			}

			result.RawCount++
			result.LabelCounts[label]++
			matched = true

			if deduplicate {
				key := valueKey(v)
				if seen[key] {
					continue
				}
				seen[key] = true
			}

			result.Values = append(result.Values, v)
		}

		if matched {
			result.MatchedIndices = append(result.MatchedIndices, i)
		}
	}

	return result, nil
}

// formatJQError prefixes a runtime error with its input label. gojq runtime
// errors are untyped, so hints are picked by message.
func formatJQError(label string, err error) string {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		if haltErr.Value() == nil {
			return fmt.Sprintf("%s: query halted", label)
		}
		return fmt.Sprintf("%s: query halted with: %v", label, haltErr.Value())
	}

	msg := err.Error()
	for _, h := range jqHints {
		if h.match(msg) {
			return fmt.Sprintf("%s: %s (%s)", label, msg, h.hint)
		}
	}
	return fmt.Sprintf("%s: %s", label, msg)
}

var jqHints = []struct {
	match func(string) bool
	hint  string
}{
	{
		match: func(m string) bool { return strings.Contains(m, "cannot iterate over: null") },
		hint:  "absent timing fields are omitted; guard with // empty",
	},
	{
		match: func(m string) bool { return strings.Contains(m, "object") && strings.Contains(m, "cannot be iterated") },
		hint:  "the trie and decoded targets are objects; use to_entries or .[]",
	},
	{
		match: func(m string) bool { return strings.Contains(m, "array") && strings.Contains(m, "cannot be indexed") },
		hint:  "the resources target is an array; start with .[]",
	},
	{
		match: func(m string) bool { return strings.Contains(m, "cannot index") },
		hint:  "field not found or wrong type",
	},
}

// valueKey identifies a value for deduplication. Strings and numbers share
// no keys with their JSON encodings of other types.
func valueKey(v any) string {
	if s, ok := v.(string); ok {
		return "s:" + s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("?:%v", v)
	}
	return "j:" + string(b)
}

// ValidateExpression checks if a JQ expression is valid without executing it.
func (e *Engine) ValidateExpression(expression string) error {
	_, err := compile(expression)
	return err
}
