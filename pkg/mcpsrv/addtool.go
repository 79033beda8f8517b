package mcpsrv

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/restiming-mcp/internal/mcp/tools"
)

// AddTool registers a tool with the server after checking that the zero value
// of Out passes the schema the SDK infers for it. Nil slices marshal as null
// but are inferred as arrays, so an output type that would fail validation at
// runtime makes AddTool panic at startup with the field to fix.
//
// Use this instead of [sdkmcp.AddTool] to get the additional check.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	tools.AddTool(srv, t, h)
}
