package mcpsrv

import (
	"context"
	"net/http"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/restiming-mcp/internal/config"
)

// serverConfig holds configuration built from options.
type serverConfig struct {
	config     *config.Config
	httpClient *http.Client

	// Logging overrides
	logLevel string
	logFile  string

	configuredCollector bool
	snapshotFiles       []string

	disableBuiltinTools   bool
	disableBuiltinPrompts bool

	// Registration callbacks keep the generic handler types intact.
	registrations []func(*mcp.Server)
	// depsRegistrations run once Deps exist.
	depsRegistrations []func(*mcp.Server, *Deps)
}

// Option configures the server.
type Option func(*serverConfig)

// WithLogLevel sets the log level (debug, info, warn, error).
func WithLogLevel(level string) Option {
	return func(cfg *serverConfig) {
		cfg.logLevel = level
	}
}

// WithLogFile writes logs to a rotated file instead of stderr.
func WithLogFile(path string) Option {
	return func(cfg *serverConfig) {
		cfg.logFile = path
	}
}

// WithHTTPClient sets the HTTP client used by WithConfiguredCollector.
// It does not affect a client passed to NewServer.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *serverConfig) {
		cfg.httpClient = c
	}
}

// WithConfiguredCollector builds the collector client from COLLECTOR_BASE_URL
// when NewServer is given a nil client. An empty base URL in the config file
// leaves the server without a collector.
func WithConfiguredCollector() Option {
	return func(cfg *serverConfig) {
		cfg.configuredCollector = true
	}
}

// WithSnapshotFiles loads the given snapshot files when the server starts.
// Files that fail to load are logged and skipped.
func WithSnapshotFiles(paths ...string) Option {
	return func(cfg *serverConfig) {
		cfg.snapshotFiles = append(cfg.snapshotFiles, paths...)
	}
}

// WithURLLimit overrides the maximum URL length kept in the trie.
func WithURLLimit(n int) Option {
	return func(cfg *serverConfig) {
		cfg.config.URLLimit = n
	}
}

// WithoutBuiltinTools disables the builtin restiming tools and resources.
func WithoutBuiltinTools() Option {
	return func(cfg *serverConfig) {
		cfg.disableBuiltinTools = true
	}
}

// WithoutBuiltinPrompts disables the builtin restiming prompts.
func WithoutBuiltinPrompts() Option {
	return func(cfg *serverConfig) {
		cfg.disableBuiltinPrompts = true
	}
}

// WithTool registers a custom tool. Input is decoded from the call arguments
// and Out is encoded as structured content:
//
//	type SlowInput struct {
//	    ThresholdMs float64 `json:"threshold_ms"`
//	}
//
//	type SlowOutput struct {
//	    Verdict string `json:"verdict"`
//	}
//
//	mcpsrv.WithTool(&mcp.Tool{Name: "classify_load", Description: "Classify a load time"},
//	    func(ctx context.Context, req *mcp.CallToolRequest, in SlowInput) (*mcp.CallToolResult, SlowOutput, error) {
//	        if in.ThresholdMs > 3000 {
//	            return nil, SlowOutput{Verdict: "slow"}, nil
//	        }
//	        return nil, SlowOutput{Verdict: "ok"}, nil
//	    })
func WithTool[In, Out any](tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error)) Option {
	return func(cfg *serverConfig) {
		cfg.registrations = append(cfg.registrations, func(srv *mcp.Server) {
			AddTool(srv, tool, handler)
		})
	}
}

// WithDepsTool registers a custom tool whose handler is built from Deps.
// Use it when the tool needs the snapshot cache, loader, or query engine:
//
//	mcpsrv.WithDepsTool(
//	    &mcp.Tool{Name: "count_snapshots", Description: "Count loaded snapshots"},
//	    func(d *mcpsrv.Deps) func(ctx context.Context, req *mcp.CallToolRequest, in CountInput) (*mcp.CallToolResult, CountOutput, error) {
//	        return func(ctx context.Context, req *mcp.CallToolRequest, in CountInput) (*mcp.CallToolResult, CountOutput, error) {
//	            return nil, CountOutput{Count: d.Cache.Len()}, nil
//	        }
//	    },
//	)
func WithDepsTool[In, Out any](tool *mcp.Tool, builder func(*Deps) func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error)) Option {
	return func(cfg *serverConfig) {
		cfg.depsRegistrations = append(cfg.depsRegistrations, func(srv *mcp.Server, deps *Deps) {
			AddTool(srv, tool, builder(deps))
		})
	}
}

// WithPrompt registers a custom prompt.
func WithPrompt(prompt *mcp.Prompt, handler func(context.Context, *mcp.GetPromptRequest) (*mcp.GetPromptResult, error)) Option {
	return func(cfg *serverConfig) {
		cfg.registrations = append(cfg.registrations, func(srv *mcp.Server) {
			srv.AddPrompt(prompt, handler)
		})
	}
}

// WithResourceTemplate registers a custom resource template, for example a
// view over snapshots kept outside the builtin cache:
//
//	mcpsrv.WithResourceTemplate(
//	    &mcp.ResourceTemplate{URITemplate: "archive://page/{id}", Name: "Archived page"},
//	    func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
//	        doc, err := archive.Read(req.Params.URI)
//	        if err != nil {
//	            return nil, mcp.ResourceNotFoundError(req.Params.URI)
//	        }
//	        return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
//	            {URI: req.Params.URI, MIMEType: "application/json", Text: doc},
//	        }}, nil
//	    },
//	)
func WithResourceTemplate(template *mcp.ResourceTemplate, handler func(context.Context, *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error)) Option {
	return func(cfg *serverConfig) {
		cfg.registrations = append(cfg.registrations, func(srv *mcp.Server) {
			srv.AddResourceTemplate(template, handler)
		})
	}
}
