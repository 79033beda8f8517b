// Package mcp serves resource timing snapshots over the Model Context
// Protocol.
package mcp

import (
	"context"
	"errors"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/restiming-mcp/internal/mcp/prompts"
	"github.com/usestring/restiming-mcp/internal/mcp/tools"
)

// Version is reported to clients during initialization.
const Version = "0.3.0"

// Server is the restiming MCP server.
type Server struct {
	mcpServer *sdkmcp.Server
	deps      *tools.Deps

	builtinTools   bool
	builtinPrompts bool
	extra          []func(*sdkmcp.Server)
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithBuiltinTools registers the restiming tools and snapshot resources.
func WithBuiltinTools() ServerOption {
	return func(s *Server) { s.builtinTools = true }
}

// WithBuiltinPrompts registers the guide and page load analysis prompts.
func WithBuiltinPrompts() ServerOption {
	return func(s *Server) { s.builtinPrompts = true }
}

// WithCustomRegistration runs fn against the underlying MCP server after the
// builtins are registered.
func WithCustomRegistration(fn func(*sdkmcp.Server)) ServerOption {
	return func(s *Server) { s.extra = append(s.extra, fn) }
}

// NewServer creates a server over deps. Client may be nil; everything else
// is required.
func NewServer(deps *tools.Deps, opts ...ServerOption) (*Server, error) {
	if deps == nil {
		return nil, errors.New("deps is required")
	}
	if deps.Config == nil || deps.Cache == nil || deps.Loader == nil || deps.Query == nil {
		return nil, errors.New("deps is missing config, cache, loader or query engine")
	}

	s := &Server{deps: deps}
	for _, opt := range opts {
		opt(s)
	}

	s.mcpServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "restiming-mcp", Version: Version},
		&sdkmcp.ServerOptions{Instructions: instructions(deps.Client != nil)},
	)
	s.mcpServer.AddReceivingMiddleware(LoggingMiddleware())

	if s.builtinTools {
		tools.Register(s.mcpServer, deps)
		s.registerResources()
	}
	if s.builtinPrompts {
		prompts.Register(s.mcpServer, &prompts.Config{
			CollectorEnabled: deps.Client != nil,
			URLLimit:         deps.Config.URLLimit,
		})
	}
	for _, fn := range s.extra {
		fn(s.mcpServer)
	}

	return s, nil
}

// instructions is the short orientation sent to clients on initialize.
func instructions(collector bool) string {
	var sb strings.Builder
	sb.WriteString("Analyzes page resource timings and the compressed trie beacons carry. ")
	sb.WriteString("Load a snapshot with restiming_snapshot_load")
	if collector {
		sb.WriteString(" or pass a collector snapshot ID to any tool")
	}
	sb.WriteString("; tools default to the most recently loaded snapshot. ")
	sb.WriteString("The restiming_guide prompt lists which tool answers which question.")
	return sb.String()
}

// Run serves over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &sdkmcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.mcpServer
}
