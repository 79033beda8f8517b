// Package mcpsrv provides an extensible MCP server for resource timing
// snapshots.
//
// The server exposes tools that load page performance snapshots, compress
// their resource timings into the beacon trie, decode tries, and measure
// fetch overlap. Users can extend it with custom tools, prompts, and
// resources using functional options.
//
// # Basic Usage
//
// Create a server backed by a collector:
//
//	server, err := mcpsrv.NewServer(client.New())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Close()
//	server.Run(ctx)
//
// Pass a nil client to work only with inline documents and local files.
//
// # Extension
//
// Add custom tools using MCP SDK types directly:
//
//	type CountInput struct {
//	    SnapshotID string `json:"snapshot_id"`
//	}
//
//	type CountOutput struct {
//	    Entries int `json:"entries"`
//	}
//
//	server, err := mcpsrv.NewServer(
//	    nil,
//	    mcpsrv.WithDepsTool(
//	        &mcp.Tool{Name: "count_entries", Description: "Count resource entries"},
//	        func(d *mcpsrv.Deps) func(ctx context.Context, req *mcp.CallToolRequest, in CountInput) (*mcp.CallToolResult, CountOutput, error) {
//	            return func(ctx context.Context, req *mcp.CallToolRequest, in CountInput) (*mcp.CallToolResult, CountOutput, error) {
//	                snap, ok := d.Cache.Get(in.SnapshotID)
//	                if !ok {
//	                    return nil, CountOutput{}, fmt.Errorf("unknown snapshot %s", in.SnapshotID)
//	                }
//	                return nil, CountOutput{Entries: snap.Entries}, nil
//	            }
//	        },
//	    ),
//	)
//
// # Configuration
//
// Settings come from the TOML file named by RESTIMING_CONFIG and from
// environment variables. Options override logging and preload snapshots:
//
//	server, err := mcpsrv.NewServer(
//	    client.New(),
//	    mcpsrv.WithLogLevel("debug"),
//	    mcpsrv.WithSnapshotFiles("page.json"),
//	)
package mcpsrv
