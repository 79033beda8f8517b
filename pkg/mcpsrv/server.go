package mcpsrv

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/restiming-mcp/internal/cache"
	"github.com/usestring/restiming-mcp/internal/config"
	"github.com/usestring/restiming-mcp/internal/loader"
	"github.com/usestring/restiming-mcp/internal/logging"
	"github.com/usestring/restiming-mcp/internal/mcp"
	"github.com/usestring/restiming-mcp/internal/mcp/tools"
	"github.com/usestring/restiming-mcp/internal/query"
	"github.com/usestring/restiming-mcp/pkg/client"
)

// Server is the resource timing MCP server.
// It wraps the internal implementation and provides extension points.
type Server struct {
	internal   *mcp.Server
	deps       *Deps
	logCleanup func() error
}

// NewServer creates a new MCP server with the builtin restiming tools.
//
// The client connects the server to a snapshot collector. It may be nil, in
// which case snapshots come only from inline documents and local files unless
// WithConfiguredCollector is given.
func NewServer(c *client.Client, opts ...Option) (*Server, error) {
	base, err := config.Load()
	if err != nil {
		return nil, err
	}

	cfg := &serverConfig{config: base}
	for _, opt := range opts {
		opt(cfg)
	}

	logCfg := logging.Config{
		Level:      cfg.config.LogLevel,
		Format:     cfg.config.LogFormat,
		FilePath:   cfg.config.LogFile,
		MaxSizeMB:  cfg.config.LogMaxSizeMB,
		MaxBackups: cfg.config.LogMaxBackups,
		MaxAgeDays: cfg.config.LogMaxAgeDays,
		Compress:   cfg.config.LogCompress,
	}
	if cfg.logLevel != "" {
		logCfg.Level = cfg.logLevel
	}
	if cfg.logFile != "" {
		logCfg.FilePath = cfg.logFile
	}
	logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	if c == nil && cfg.configuredCollector && cfg.config.CollectorBaseURL != "" {
		httpClient := cfg.httpClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: cfg.config.HTTPClientTimeout}
		}
		c = client.New(client.WithBaseURL(cfg.config.CollectorBaseURL), client.WithHTTPClient(httpClient))
	}

	snapshots, err := cache.NewSnapshotCache(cfg.config.SnapshotCacheMaxItems)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot cache: %w", err)
	}

	// A nil *client.Client must not become a non-nil interface.
	var fetcher loader.SnapshotFetcher
	if c != nil {
		fetcher = c
	}
	l, err := loader.New(fetcher, snapshots, loader.Config{
		Timeout: cfg.config.LoadTimeout,
		Workers: cfg.config.LoadWorkers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create loader: %w", err)
	}

	queryEngine := query.NewEngine()

	toolDeps := &tools.Deps{
		Client: c,
		Loader: l,
		Cache:  snapshots,
		Config: cfg.config,
		Query:  queryEngine,
	}

	// Same values, public type
	deps := &Deps{
		Client: c,
		Loader: l,
		Cache:  snapshots,
		Config: cfg.config,
		Query:  queryEngine,
	}

	if len(cfg.snapshotFiles) > 0 {
		preload(l, cfg.snapshotFiles)
	}

	var internalOpts []mcp.ServerOption
	if !cfg.disableBuiltinTools {
		internalOpts = append(internalOpts, mcp.WithBuiltinTools())
	}
	if !cfg.disableBuiltinPrompts {
		internalOpts = append(internalOpts, mcp.WithBuiltinPrompts())
	}

	for _, fn := range cfg.registrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.depsRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(func(srv *sdkmcp.Server) {
			fn(srv, deps)
		}))
	}

	internal, err := mcp.NewServer(toolDeps, internalOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &Server{
		internal:   internal,
		deps:       deps,
		logCleanup: logCleanup,
	}, nil
}

// preload loads snapshot files at startup. Failures are logged, not fatal.
func preload(l *loader.Loader, paths []string) {
	sources := make([]loader.Source, len(paths))
	for i, p := range paths {
		sources[i] = loader.File(p)
	}
	for _, r := range l.LoadMany(context.Background(), sources) {
		if r.Err != nil {
			slog.Warn("failed to preload snapshot",
				slog.String("path", r.Source.Value),
				slog.String("error", r.Err.Error()),
			)
			continue
		}
		slog.Info("preloaded snapshot",
			slog.String("path", r.Source.Value),
			slog.String("snapshot_id", r.Snapshot.ID),
			slog.Int("entries", r.Snapshot.Entries),
		)
	}
}

// Run starts the MCP server with stdio transport.
// The server runs until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.internal.Run(ctx)
}

// Close cleans up server resources.
func (s *Server) Close() error {
	if s.logCleanup != nil {
		return s.logCleanup()
	}
	return nil
}

// Deps returns the dependencies for building custom tools.
func (s *Server) Deps() *Deps {
	return s.deps
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.internal.MCPServer()
}
