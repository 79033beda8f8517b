package mcpsrv

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/restiming-mcp/pkg/client"
)

const pageDoc = `{
  "url": "https://example.com/",
  "navigationStart": 1000,
  "resources": [
    {"name": "https://example.com/app.js", "initiatorType": "script", "startTime": 100, "responseEnd": 250}
  ]
}`

type countInput struct{}

type countOutput struct {
	Count int `json:"count"`
}

func newServer(t *testing.T, c *client.Client, opts ...Option) *Server {
	t.Helper()
	t.Setenv("RESTIMING_CONFIG", "")
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	s, err := NewServer(c, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewServerWithoutCollector(t *testing.T) {
	s := newServer(t, nil)
	assert.Nil(t, s.Deps().Client)
	assert.NotNil(t, s.Deps().Loader)
	assert.NotNil(t, s.MCPServer())
}

func TestNewServerConfiguredCollector(t *testing.T) {
	t.Setenv("COLLECTOR_BASE_URL", "http://collector.test:9000/")
	s := newServer(t, nil, WithConfiguredCollector())
	require.NotNil(t, s.Deps().Client)
	assert.Equal(t, "http://collector.test:9000", s.Deps().Client.BaseURL())

	explicit := client.New()
	s = newServer(t, explicit, WithConfiguredCollector())
	assert.Same(t, explicit, s.Deps().Client)
}

func TestWithSnapshotFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "page.json")
	require.NoError(t, os.WriteFile(good, []byte(pageDoc), 0o644))

	s := newServer(t, nil, WithSnapshotFiles(good, filepath.Join(dir, "missing.json")))
	loaded := s.Deps().Cache.List()
	require.Len(t, loaded, 1)
	assert.Equal(t, 1, loaded[0].Entries)
}

func TestWithURLLimit(t *testing.T) {
	s := newServer(t, nil, WithURLLimit(64))
	assert.Equal(t, 64, s.Deps().Config.URLLimit)
}

func TestWithDepsTool(t *testing.T) {
	var got *Deps
	s := newServer(t, nil,
		WithoutBuiltinTools(),
		WithoutBuiltinPrompts(),
		WithDepsTool(
			&mcp.Tool{Name: "count_snapshots", Description: "Count loaded snapshots"},
			func(d *Deps) func(context.Context, *mcp.CallToolRequest, countInput) (*mcp.CallToolResult, countOutput, error) {
				got = d
				return func(ctx context.Context, req *mcp.CallToolRequest, in countInput) (*mcp.CallToolResult, countOutput, error) {
					return nil, countOutput{Count: d.Cache.Len()}, nil
				}
			},
		),
	)
	assert.Same(t, s.Deps(), got)
}
