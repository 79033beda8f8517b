package tools

import (
	"context"
	"math"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/restiming-mcp/pkg/perf"
	"github.com/usestring/restiming-mcp/pkg/restiming"
)

// UnionDurationInput is the input for restiming_union_duration.
type UnionDurationInput struct {
	SnapshotID     string   `json:"snapshot_id,omitempty" jsonschema:"Snapshot ID (default: most recently loaded)"`
	From           float64  `json:"from,omitempty" jsonschema:"Only entries starting at or after this Unix ms time"`
	To             float64  `json:"to,omitempty" jsonschema:"Only entries starting at or before this Unix ms time"`
	InitiatorTypes []string `json:"initiator_types,omitempty" jsonschema:"Only these initiator types (e.g. script, img, css)"`
}

// UnionDurationOutput is the output for restiming_union_duration.
type UnionDurationOutput struct {
	SnapshotID      string             `json:"snapshot_id"`
	Entries         int                `json:"entries"`
	UnionMs         float64            `json:"union_ms"`
	SumMs           float64            `json:"sum_ms"`
	ByInitiatorType map[string]float64 `json:"by_initiator_type,omitempty"`
}

// FindResourceInput is the input for restiming_find_resource.
type FindResourceInput struct {
	SnapshotID string `json:"snapshot_id,omitempty" jsonschema:"Snapshot ID (default: most recently loaded)"`
	URL        string `json:"url" jsonschema:"required,Exact resource URL, a pattern where * matches any run of characters, or 'slowest'"`
}

// FindResourceOutput is the output for restiming_find_resource.
type FindResourceOutput struct {
	SnapshotID string          `json:"snapshot_id"`
	Found      bool            `json:"found"`
	Resource   *ResourceTiming `json:"resource,omitempty"`
}

// ToolUnionDuration computes the time a snapshot spent fetching, counting
// overlapping fetches once.
func ToolUnionDuration(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input UnionDurationInput) (*sdkmcp.CallToolResult, UnionDurationOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input UnionDurationInput) (*sdkmcp.CallToolResult, UnionDurationOutput, error) {
		snap, err := d.Snapshot(ctx, input.SnapshotID)
		if err != nil {
			return nil, UnionDurationOutput{}, err
		}
		eng, err := d.Engine(snap, nil)
		if err != nil {
			return nil, UnionDurationOutput{}, err
		}

		entries := eng.FilteredResourceTiming(input.From, input.To, input.InitiatorTypes)

		output := UnionDurationOutput{
			SnapshotID: snap.ID,
			Entries:    len(entries),
			UnionMs:    round1(eng.UnionDuration(entries)),
		}
		for _, iv := range restiming.IntervalsOf(entries) {
			output.SumMs += iv.End() - iv.FetchStart
		}
		output.SumMs = round1(output.SumMs)

		byType := make(map[string][]perf.Entry)
		for _, e := range entries {
			typ := e.InitiatorType
			if typ == "" {
				typ = perf.InitiatorOther
			}
			byType[typ] = append(byType[typ], e)
		}
		if len(byType) > 1 {
			output.ByInitiatorType = make(map[string]float64, len(byType))
			for typ, group := range byType {
				output.ByInitiatorType[typ] = round1(eng.UnionDuration(group))
			}
		}

		return nil, output, nil
	}
}

// ToolFindResource looks up a single resource entry in a snapshot.
func ToolFindResource(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input FindResourceInput) (*sdkmcp.CallToolResult, FindResourceOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input FindResourceInput) (*sdkmcp.CallToolResult, FindResourceOutput, error) {
		if input.URL == "" {
			return nil, FindResourceOutput{}, ErrInvalidInput("url is required")
		}

		snap, err := d.Snapshot(ctx, input.SnapshotID)
		if err != nil {
			return nil, FindResourceOutput{}, err
		}

		output := FindResourceOutput{SnapshotID: snap.ID}
		entry, ok := restiming.FindResource(snap.Frame, input.URL)
		if !ok {
			return nil, output, nil
		}

		rt := ToResourceTiming(entry)
		if rt.Duration == 0 && entry.ResponseEnd > 0 {
			rt.Duration = round1(math.Max(0, entry.ResponseEnd-entry.StartTime))
		}
		output.Found = true
		output.Resource = &rt
		return nil, output, nil
	}
}
