package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	// Tool 1: restiming_snapshot_load
	AddTool(srv, &sdkmcp.Tool{
		Name:        "restiming_snapshot_load",
		Description: "Load page performance snapshots (a frame tree of resource timing buffers) from inline JSON, files, or the collector. Documents are validated against the snapshot schema. Returns a snapshot_id per source; identical documents share one ID. Other tools default to the most recently loaded snapshot.",
	}, ToolSnapshotLoad(d))

	// Tool 2: restiming_snapshots_list
	AddTool(srv, &sdkmcp.Tool{
		Name:        "restiming_snapshots_list",
		Description: "List loaded snapshots with their frame and entry counts. Set include_collector=true to also list snapshots the collector holds; pass a collector ID as snapshot_id to any tool to load it on demand.",
	}, ToolSnapshotsList(d))

	// Tool 3: restiming_compress
	AddTool(srv, &sdkmcp.Tool{
		Name:        "restiming_compress",
		Description: "Compress a snapshot's resource timings into the optimized URL trie attached to beacons. Returns the trie, its JSON size, and the size of the flat URL map for comparison. Without filters the page-ready lifecycle runs and the beacon payload is returned; from/to (Unix ms) and initiator_types narrow the entries.",
	}, ToolCompress(d))

	// Tool 4: restiming_decode
	AddTool(srv, &sdkmcp.Tool{
		Name:        "restiming_decode",
		Description: "Expand a compressed trie (as produced by restiming_compress or received on a beacon) back into URLs and decoded timings in whole milliseconds. Use url_pattern to narrow the output.",
	}, ToolDecode(d))

	// Tool 5: restiming_union_duration
	AddTool(srv, &sdkmcp.Tool{
		Name:        "restiming_union_duration",
		Description: "Compute the wall-clock time spent fetching resources with overlapping fetches counted once. Returns union_ms, the naive sum_ms, and a per-initiator-type breakdown.",
	}, ToolUnionDuration(d))

	// Tool 6: restiming_query
	AddTool(srv, &sdkmcp.Tool{
		Name:        "restiming_query",
		Description: "Run a JQ expression over one or more snapshots. target selects the input: resources (re-based entry list, default), trie, decoded (URL to timings), or snapshot (raw document). Returns values and per-snapshot counts.",
	}, ToolQuery(d))

	// Tool 7: restiming_find_resource
	AddTool(srv, &sdkmcp.Tool{
		Name:        "restiming_find_resource",
		Description: "Find one resource entry by exact URL, a * pattern, or 'slowest'. Searches the top document first, then nested frames. Times are relative to the owning frame.",
	}, ToolFindResource(d))
}
