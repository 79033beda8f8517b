package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/restiming-mcp/internal/cache"
	"github.com/usestring/restiming-mcp/internal/config"
	"github.com/usestring/restiming-mcp/internal/loader"
	"github.com/usestring/restiming-mcp/internal/logging"
	"github.com/usestring/restiming-mcp/internal/mcp/prompts"
	"github.com/usestring/restiming-mcp/internal/mcp/tools"
	"github.com/usestring/restiming-mcp/internal/query"
)

const pageDoc = `{
  "url": "https://example.com/",
  "navigationStart": 1000,
  "resources": [
    {"name": "https://example.com/app.js", "initiatorType": "script", "startTime": 100, "responseEnd": 250}
  ]
}`

func newTestServer(t *testing.T, opts ...ServerOption) (*Server, *cache.Snapshot) {
	t.Helper()
	snapshots, err := cache.NewSnapshotCache(4)
	require.NoError(t, err)
	l, err := loader.New(nil, snapshots, loader.Config{Workers: 1})
	require.NoError(t, err)

	snap, err := l.Load(context.Background(), loader.Inline(pageDoc))
	require.NoError(t, err)

	s, err := NewServer(&tools.Deps{
		Loader: l,
		Cache:  snapshots,
		Config: config.Default(),
		Query:  query.NewEngine(),
	}, opts...)
	require.NoError(t, err)
	return s, snap
}

func readRequest(uri string) *sdkmcp.ReadResourceRequest {
	return &sdkmcp.ReadResourceRequest{Params: &sdkmcp.ReadResourceParams{URI: uri}}
}

func TestNewServer(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)

	_, err = NewServer(&tools.Deps{Config: config.Default()})
	assert.Error(t, err)

	var custom bool
	s, _ := newTestServer(t,
		WithBuiltinTools(),
		WithBuiltinPrompts(),
		WithCustomRegistration(func(*sdkmcp.Server) { custom = true }),
	)
	assert.NotNil(t, s.MCPServer())
	assert.True(t, custom)
}

func TestResourceSnapshot(t *testing.T) {
	s, snap := newTestServer(t)

	res, err := s.handleResourceSnapshot(context.Background(), readRequest("restiming://snapshot/"+snap.ID))
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, tools.MimeJSON, res.Contents[0].MIMEType)
	assert.JSONEq(t, pageDoc, res.Contents[0].Text)

	res, err = s.handleResourceSnapshot(context.Background(), readRequest("restiming://snapshot/"+snap.ID+"/trie"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"https://example.com/app.js":"32s,46"}`, res.Contents[0].Text)

	_, err = s.handleResourceSnapshot(context.Background(), readRequest("restiming://snapshot/ffffffffffffffff"))
	assert.Error(t, err)
}

func TestResourceSnapshots(t *testing.T) {
	s, snap := newTestServer(t)

	res, err := s.handleResourceSnapshots(context.Background(), readRequest("restiming://snapshots"))
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Contains(t, res.Contents[0].Text, snap.ID)
	assert.Contains(t, res.Contents[0].Text, `"entries": 1`)
}

func TestParseResourceURI(t *testing.T) {
	tests := []struct {
		uri     string
		want    map[string]string
		wantErr bool
	}{
		{uri: "restiming://snapshot/abc", want: map[string]string{"id": "abc"}},
		{uri: "restiming://snapshot/abc/trie", want: map[string]string{"id": "abc", "view": "trie"}},
		{uri: "restiming://snapshot/", wantErr: true},
		{uri: "restiming://snapshot/abc/raw", wantErr: true},
		{uri: "restiming://entry/abc", wantErr: true},
		{uri: "http://snapshot/abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := parseResourceURI(tt.uri)
			if tt.wantErr {
				var coded *tools.CodedError
				require.True(t, errors.As(err, &coded))
				assert.Equal(t, tools.ErrCodeInvalidInput, coded.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrompts(t *testing.T) {
	cfg := &prompts.Config{CollectorEnabled: true, URLLimit: 1000}

	res, err := prompts.HandleBasePrompt(cfg)(context.Background(), &sdkmcp.GetPromptRequest{Params: &sdkmcp.GetPromptParams{Name: "restiming_guide"}})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	text := res.Messages[0].Content.(*sdkmcp.TextContent).Text
	assert.Contains(t, text, "include_collector")
	assert.Contains(t, text, "longer than 1000 characters")

	res, err = prompts.HandleAnalyzePageLoad(cfg)(context.Background(), &sdkmcp.GetPromptRequest{Params: &sdkmcp.GetPromptParams{
		Name:      "analyze_page_load",
		Arguments: map[string]string{"snapshot_id": "abc", "focus": "script"},
	}})
	require.NoError(t, err)
	text = res.Messages[0].Content.(*sdkmcp.TextContent).Text
	assert.Contains(t, text, `restiming_find_resource(snapshot_id: "abc", url: "slowest")`)
	assert.Contains(t, text, `select(.initiator_type == \"script\")`)
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, logging.Config{Level: "debug", Format: "text"}))
	t.Cleanup(func() { slog.SetDefault(prev) })

	next := func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
		if method == "fail" {
			return nil, errors.New("boom")
		}
		return &sdkmcp.ReadResourceResult{}, nil
	}
	handler := LoggingMiddleware()(next)

	_, err := handler(context.Background(), "resources/read", readRequest("restiming://snapshots"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "method call completed")
	assert.Contains(t, buf.String(), "uri=restiming://snapshots")

	buf.Reset()
	_, err = handler(context.Background(), "tools/call", &sdkmcp.CallToolRequest{Params: &sdkmcp.CallToolParamsRaw{
		Name:      "restiming_compress",
		Arguments: json.RawMessage(`{"snapshot_id":"abc123"}`),
	}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "tool=restiming_compress")
	assert.Contains(t, buf.String(), "snapshot_id=abc123")

	buf.Reset()
	_, err = handler(context.Background(), "fail", readRequest("restiming://snapshots"))
	require.Error(t, err)
	assert.Contains(t, buf.String(), "method call failed")
	assert.Contains(t, buf.String(), "error=boom")
}

func TestInstructions(t *testing.T) {
	assert.Contains(t, instructions(true), "collector snapshot ID")
	assert.NotContains(t, instructions(false), "collector")
	assert.Contains(t, instructions(false), "restiming_snapshot_load")
}

func TestSnapshotArg(t *testing.T) {
	assert.Equal(t, "abc", snapshotArg(json.RawMessage(`{"snapshot_id":"abc","url":"x"}`)))
	assert.Equal(t, "abc", snapshotArg(map[string]any{"snapshot_id": "abc"}))
	assert.Empty(t, snapshotArg(json.RawMessage(`{"url":"x"}`)))
	assert.Empty(t, snapshotArg(json.RawMessage(`not json`)))
	assert.Empty(t, snapshotArg(nil))
}
