package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/usestring/restiming-mcp/pkg/mcpsrv"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Configuration is loaded from RESTIMING_CONFIG and environment variables:
	// - COLLECTOR_BASE_URL: snapshot collector (default: http://localhost:7780)
	// - LOG_LEVEL: debug, info, warn, error (default: info)
	// - LOG_FILE: path to log file (default: stderr only)
	// - URL_LIMIT, XSS_BREAK_WORDS, BEACON_URL: trie options
	// - etc. (see internal/config for all options)
	// Arguments are snapshot files to load at startup.
	server, err := mcpsrv.NewServer(nil,
		mcpsrv.WithConfiguredCollector(),
		mcpsrv.WithSnapshotFiles(os.Args[1:]...),
	)
	if err != nil {
		slog.Error("failed to create MCP server", "error", err)
		os.Exit(1)
	}
	defer server.Close()

	slog.Info("starting restiming MCP server on stdio")
	if err := server.Run(ctx); err != nil && err != context.Canceled {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
