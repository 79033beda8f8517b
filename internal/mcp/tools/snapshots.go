package tools

import (
	"context"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/restiming-mcp/internal/cache"
	"github.com/usestring/restiming-mcp/internal/loader"
)

// maxLoadSources bounds how many documents one load call may name.
const maxLoadSources = 50

// SnapshotLoadInput is the input for restiming_snapshot_load.
type SnapshotLoadInput struct {
	Documents    []string `json:"documents,omitempty" jsonschema:"Inline snapshot JSON documents"`
	Paths        []string `json:"paths,omitempty" jsonschema:"Paths of snapshot JSON files on the server host"`
	CollectorIDs []string `json:"collector_ids,omitempty" jsonschema:"Collector snapshot IDs to fetch ('latest' for the newest capture)"`
}

// SnapshotLoadOutput is the output for restiming_snapshot_load.
type SnapshotLoadOutput struct {
	Snapshots []LoadedSnapshot `json:"snapshots,omitzero"`
	Loaded    int              `json:"loaded"`
	Failed    int              `json:"failed"`
}

// LoadedSnapshot describes the outcome of loading one source.
type LoadedSnapshot struct {
	SnapshotID string `json:"snapshot_id,omitempty"`
	Source     string `json:"source"`
	URL        string `json:"url,omitempty"`
	Frames     int    `json:"frames,omitempty"`
	Entries    int    `json:"entries,omitempty"`
	Error      string `json:"error,omitempty"`
}

// SnapshotsListInput is the input for restiming_snapshots_list.
type SnapshotsListInput struct {
	IncludeCollector bool `json:"include_collector,omitempty" jsonschema:"Also list the snapshots held by the collector"`
}

// SnapshotsListOutput is the output for restiming_snapshots_list.
type SnapshotsListOutput struct {
	Loaded    []LoadedSnapshotInfo    `json:"loaded,omitzero"`
	Collector []CollectorSnapshotInfo `json:"collector,omitzero"`
}

// LoadedSnapshotInfo summarizes a snapshot held in memory.
type LoadedSnapshotInfo struct {
	SnapshotID string `json:"snapshot_id"`
	Source     string `json:"source"`
	URL        string `json:"url"`
	Frames     int    `json:"frames"`
	Entries    int    `json:"entries"`
	LoadedAt   string `json:"loaded_at"`
}

// CollectorSnapshotInfo summarizes a snapshot held by the collector.
type CollectorSnapshotInfo struct {
	CollectorID string `json:"collector_id"`
	URL         string `json:"url"`
	CapturedAt  int64  `json:"captured_at"`
	Frames      int    `json:"frames"`
	Entries     int    `json:"entries"`
}

// ToolSnapshotLoad loads snapshot documents into the snapshot cache.
func ToolSnapshotLoad(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SnapshotLoadInput) (*sdkmcp.CallToolResult, SnapshotLoadOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SnapshotLoadInput) (*sdkmcp.CallToolResult, SnapshotLoadOutput, error) {
		var sources []loader.Source
		for _, doc := range input.Documents {
			sources = append(sources, loader.Inline(doc))
		}
		for _, path := range input.Paths {
			sources = append(sources, loader.File(path))
		}
		for _, id := range input.CollectorIDs {
			sources = append(sources, loader.Collector(id))
		}

		if len(sources) == 0 {
			return nil, SnapshotLoadOutput{}, ErrInvalidInput("at least one of documents, paths or collector_ids is required")
		}
		if len(sources) > maxLoadSources {
			return nil, SnapshotLoadOutput{}, ErrInvalidInput("too many sources in one call")
		}

		results := d.Loader.LoadMany(ctx, sources)

		output := SnapshotLoadOutput{Snapshots: make([]LoadedSnapshot, len(results))}
		for i, r := range results {
			item := LoadedSnapshot{Source: r.Source.String()}
			if r.Err != nil {
				item.Error = WrapLoadError(r.Err).Error()
				output.Failed++
			} else {
				item.SnapshotID = r.Snapshot.ID
				item.URL = r.Snapshot.Frame.URL()
				item.Frames = r.Snapshot.Frames
				item.Entries = r.Snapshot.Entries
				output.Loaded++
			}
			output.Snapshots[i] = item
		}

		return nil, output, nil
	}
}

// ToolSnapshotsList lists loaded snapshots and, optionally, the collector's.
func ToolSnapshotsList(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SnapshotsListInput) (*sdkmcp.CallToolResult, SnapshotsListOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SnapshotsListInput) (*sdkmcp.CallToolResult, SnapshotsListOutput, error) {
		loaded := d.Cache.List()

		output := SnapshotsListOutput{
			Loaded: make([]LoadedSnapshotInfo, len(loaded)),
		}
		for i, snap := range loaded {
			output.Loaded[i] = LoadedInfo(snap)
		}

		if !input.IncludeCollector {
			return nil, output, nil
		}
		if d.Client == nil {
			return nil, SnapshotsListOutput{}, ErrInvalidInput("no collector configured")
		}

		remote, err := d.Client.ListSnapshots(ctx)
		if err != nil {
			return nil, SnapshotsListOutput{}, WrapCollectorError(err)
		}
		output.Collector = make([]CollectorSnapshotInfo, len(remote))
		for i, s := range remote {
			output.Collector[i] = CollectorSnapshotInfo{
				CollectorID: s.ID,
				URL:         s.URL,
				CapturedAt:  s.CapturedAt,
				Frames:      s.Frames,
				Entries:     s.Entries,
			}
		}

		return nil, output, nil
	}
}

// LoadedInfo summarizes a cached snapshot.
func LoadedInfo(snap *cache.Snapshot) LoadedSnapshotInfo {
	return LoadedSnapshotInfo{
		SnapshotID: snap.ID,
		Source:     snap.Source,
		URL:        snap.Frame.URL(),
		Frames:     snap.Frames,
		Entries:    snap.Entries,
		LoadedAt:   snap.LoadedAt.UTC().Format(time.RFC3339),
	}
}
