package tools

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/restiming-mcp/internal/cache"
	"github.com/usestring/restiming-mcp/internal/query"
	"github.com/usestring/restiming-mcp/pkg/restiming"
)

// Query targets.
const (
	TargetResources = "resources"
	TargetTrie      = "trie"
	TargetDecoded   = "decoded"
	TargetSnapshot  = "snapshot"
)

// maxQuerySnapshots bounds how many snapshots one query may span.
const maxQuerySnapshots = 20

// QueryInput is the input for restiming_query.
type QueryInput struct {
	SnapshotIDs []string `json:"snapshot_ids,omitempty" jsonschema:"Snapshots to query (default: most recently loaded)"`
	Expression  string   `json:"expression" jsonschema:"required,JQ expression, e.g. '.[] | select(.initiator_type == \"script\") | .url'"`
	Target      string   `json:"target,omitempty" jsonschema:"What to query: resources (re-based entry list), trie (compressed trie), decoded (URL to decoded timings), snapshot (raw document). Default: resources"`
	Deduplicate bool     `json:"deduplicate,omitempty" jsonschema:"Remove duplicate values (default: false)"`
	MaxResults  int      `json:"max_results,omitempty" jsonschema:"Max values to return (default: 50)"`
}

// QueryOutput is the output for restiming_query.
type QueryOutput struct {
	Values      []any          `json:"values,omitzero"`
	Errors      []string       `json:"errors,omitzero"`
	RawCount    int            `json:"raw_count"`
	Truncated   bool           `json:"truncated,omitempty"`
	LabelCounts map[string]int `json:"label_counts,omitempty"`
	Hint        string         `json:"hint,omitempty"`
}

// ToolQuery runs a JQ expression over one or more snapshots.
func ToolQuery(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryInput) (*sdkmcp.CallToolResult, QueryOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryInput) (*sdkmcp.CallToolResult, QueryOutput, error) {
		if input.Expression == "" {
			return nil, QueryOutput{}, ErrInvalidInput("expression is required")
		}
		if err := d.Query.ValidateExpression(input.Expression); err != nil {
			return nil, QueryOutput{}, ErrInvalidInput(err.Error())
		}

		target := input.Target
		if target == "" {
			target = TargetResources
		}
		switch target {
		case TargetResources, TargetTrie, TargetDecoded, TargetSnapshot:
		default:
			return nil, QueryOutput{}, ErrInvalidInput("target must be 'resources', 'trie', 'decoded', or 'snapshot'")
		}

		ids := input.SnapshotIDs
		if len(ids) == 0 {
			ids = []string{""}
		}
		if len(ids) > maxQuerySnapshots {
			return nil, QueryOutput{}, ErrInvalidInput(fmt.Sprintf("at most %d snapshots per query", maxQuerySnapshots))
		}

		inputs := make([]query.Input, 0, len(ids))
		for _, id := range ids {
			snap, err := d.Snapshot(ctx, id)
			if err != nil {
				return nil, QueryOutput{}, err
			}
			value, err := d.queryValue(snap, target)
			if err != nil {
				return nil, QueryOutput{}, err
			}
			inputs = append(inputs, query.Input{Label: snap.ID, Value: value})
		}

		maxResults := clampLimit(input.MaxResults, d.Config.DefaultQueryLimit, d.Config.MaxQueryResults)
		result, err := d.Query.QueryInputs(inputs, input.Expression, input.Deduplicate, maxResults)
		if err != nil {
			return nil, QueryOutput{}, ErrInvalidInput(err.Error())
		}

		output := QueryOutput{
			Values:      result.Values,
			Errors:      result.Errors,
			RawCount:    result.RawCount,
			Truncated:   result.Truncated,
			LabelCounts: result.LabelCounts,
		}
		if len(output.Values) == 0 && len(output.Errors) == 0 {
			output.Hint = queryHint(target)
		}
		if output.Truncated {
			output.Hint = fmt.Sprintf("results truncated at %d; raise max_results or narrow the expression", maxResults)
		}

		return nil, output, nil
	}
}

// queryValue builds the JSON value a query target exposes for a snapshot.
func (d *Deps) queryValue(snap *cache.Snapshot, target string) (any, error) {
	switch target {
	case TargetSnapshot:
		var v any
		if err := json.Unmarshal(snap.Raw, &v); err != nil {
			return nil, fmt.Errorf("decoding snapshot %s: %w", snap.ID, err)
		}
		return v, nil
	}

	eng, err := d.Engine(snap, nil)
	if err != nil {
		return nil, err
	}
	entries := eng.FilteredResourceTiming(0, 0, nil)

	switch target {
	case TargetTrie:
		return query.ToValue(eng.CompressedResourceTiming(0, 0))

	case TargetDecoded:
		rules, err := d.BreakRules()
		if err != nil {
			return nil, err
		}
		expanded := restiming.Expand(restiming.Compress(entries, rules, d.Config.URLLimit))
		decoded := make(map[string][]restiming.Timing, len(expanded))
		for url, payload := range expanded {
			timings, err := restiming.DecodeTimings(payload)
			if err != nil {
				return nil, fmt.Errorf("decoding timings for %s: %w", url, err)
			}
			decoded[url] = timings
		}
		return query.ToValue(decoded)

	default:
		resources := make([]ResourceTiming, len(entries))
		for i, e := range entries {
			resources[i] = ToResourceTiming(e)
		}
		return query.ToValue(resources)
	}
}

func queryHint(target string) string {
	switch target {
	case TargetResources:
		return "no values; the input is an array of resources with url, initiator_type, start_time, fetch_start, response_end and other snake_case fields"
	case TargetTrie:
		return "no values; the trie is a nested object keyed by URL prefixes with \"|\" holding a node's own value"
	case TargetDecoded:
		return "no values; the input is an object mapping each URL to a list of decoded timings"
	default:
		return "no values; the input is the raw snapshot with url, navigationStart, resources and frames"
	}
}
