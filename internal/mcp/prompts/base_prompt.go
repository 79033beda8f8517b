package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleBasePrompt serves the tool usage guide.
// Collector rows are included only when a collector is configured.
func HandleBasePrompt(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		var sb strings.Builder

		sb.WriteString("# Resource Timing Tools Guide\n\n")

		sb.WriteString("## Which Tool\n\n")
		sb.WriteString("| Question | Tool |\n")
		sb.WriteString("|----------|------|\n")
		sb.WriteString("| Get a page into memory | `restiming_snapshot_load` |\n")
		if cfg.CollectorEnabled {
			sb.WriteString("| See what the collector captured | `restiming_snapshots_list(include_collector: true)` |\n")
		}
		sb.WriteString("| How large is the beacon payload? | `restiming_compress` |\n")
		sb.WriteString("| What is inside a trie I received? | `restiming_decode` |\n")
		sb.WriteString("| How long was the network busy? | `restiming_union_duration` |\n")
		sb.WriteString("| Which resource was slowest? | `restiming_find_resource(url: \"slowest\")` |\n")
		sb.WriteString("| Anything else | `restiming_query` with a JQ expression |\n")

		sb.WriteString("\n## Snapshots\n")
		sb.WriteString("- Every tool takes an optional `snapshot_id`; omit it to use the most recently loaded snapshot\n")
		sb.WriteString("- Identical documents get the same ID, so reloading is cheap\n")
		if cfg.CollectorEnabled {
			sb.WriteString("- Collector IDs (including `latest`) work anywhere a snapshot_id is accepted\n")
		}

		sb.WriteString("\n## Times\n")
		sb.WriteString("- Entry times are milliseconds relative to the top document's navigation start\n")
		sb.WriteString("- Entries from nested frames are shifted onto that clock\n")
		sb.WriteString("- `from`/`to` filters are Unix milliseconds\n")

		sb.WriteString("\n## Trie Layout\n")
		sb.WriteString("- Keys are URL fragments; concatenating keys along a path gives the URL\n")
		sb.WriteString("- A `|` key holds the value of a URL that is also a prefix of others\n")
		sb.WriteString("- Values are an initiator digit then base-36 fields: start time, then offsets from it\n")
		sb.WriteString("- Repeated fetches of one URL are joined with `|` inside the value\n")
		fmt.Fprintf(&sb, "- URLs longer than %d characters are truncated and end in `...`\n", cfg.URLLimit)

		sb.WriteString("\n## JQ Quick Reference (target: resources)\n")
		sb.WriteString("- `[.[] | select(.initiator_type == \"script\")] | length` - Count scripts\n")
		sb.WriteString("- `sort_by(-.duration) | .[:5] | .[].url` - Five longest resources\n")
		sb.WriteString("- `group_by(.initiator_type) | map({type: .[0].initiator_type, n: length})` - Counts per type\n")

		return &sdkmcp.GetPromptResult{
			Description: "Guide for the resource timing tools",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}

// HandleAnalyzePageLoad implements the page load analysis workflow.
func HandleAnalyzePageLoad(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		var snapshotID, focus string
		if args := req.Params.Arguments; args != nil {
			snapshotID = args["snapshot_id"]
			focus = args["focus"]
		}

		idArg := ""
		if snapshotID != "" {
			idArg = fmt.Sprintf("snapshot_id: %q, ", snapshotID)
		}

		var sb strings.Builder
		sb.WriteString("# Analyze Page Load\n\n")
		sb.WriteString("You are a web performance engineer. Explain where this page spent its load time and what the resource timing beacon would cost to send.\n\n")

		sb.WriteString("## Workflow Steps\n\n")
		if snapshotID == "" {
			sb.WriteString("1. **Load** - `restiming_snapshot_load` with the page document, or pick one from `restiming_snapshots_list`\n")
		} else {
			fmt.Fprintf(&sb, "1. **Load** - `restiming_snapshots_list` to confirm %q is available\n", snapshotID)
		}
		fmt.Fprintf(&sb, "2. **Slowest** - `restiming_find_resource(%surl: \"slowest\")`\n", idArg)
		fmt.Fprintf(&sb, "3. **Overlap** - `restiming_union_duration(%s)`; a sum_ms far above union_ms means fetches ran in parallel\n", strings.TrimSuffix(idArg, ", "))
		if focus != "" {
			expr := fmt.Sprintf("[.[] | select(.initiator_type == %q)] | sort_by(-.duration) | .[:10]", focus)
			fmt.Fprintf(&sb, "4. **Focus** - `restiming_query(%sexpression: %q)`\n", idArg, expr)
		} else {
			expr := "group_by(.initiator_type) | map({type: .[0].initiator_type, count: length})"
			fmt.Fprintf(&sb, "4. **Breakdown** - `restiming_query(%sexpression: %q)`\n", idArg, expr)
		}
		fmt.Fprintf(&sb, "5. **Payload** - `restiming_compress(%s)`; report bytes against uncompressed_bytes\n", strings.TrimSuffix(idArg, ", "))

		sb.WriteString("\n## Report\n")
		sb.WriteString("- The slowest resources with their phase that dominated (DNS, connect, TTFB, download)\n")
		sb.WriteString("- Network busy time versus the sum of fetch times\n")
		sb.WriteString("- Beacon payload size and compression ratio\n")

		return &sdkmcp.GetPromptResult{
			Description: "Page load analysis workflow",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
