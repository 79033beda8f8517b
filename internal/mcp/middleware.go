package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// LoggingMiddleware logs every incoming method call with its duration. Tool
// calls add the tool name and requested snapshot; resource reads add the URI.
func LoggingMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			start := time.Now()
			result, err := next(ctx, method, req)

			attrs := append([]slog.Attr{
				slog.String("method", method),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			}, requestAttrs(req)...)

			switch {
			case err != nil:
				attrs = append(attrs, slog.String("error", err.Error()))
				slog.LogAttrs(ctx, slog.LevelError, "method call failed", attrs...)
			case isToolError(result):
				slog.LogAttrs(ctx, slog.LevelWarn, "tool returned error", attrs...)
			default:
				slog.LogAttrs(ctx, slog.LevelInfo, "method call completed", attrs...)
			}
			return result, err
		}
	}
}

func requestAttrs(req sdkmcp.Request) []slog.Attr {
	switch r := req.(type) {
	case *sdkmcp.CallToolRequest:
		if r.Params == nil {
			return nil
		}
		attrs := []slog.Attr{slog.String("tool", r.Params.Name)}
		if id := snapshotArg(r.Params.Arguments); id != "" {
			attrs = append(attrs, slog.String("snapshot_id", id))
		}
		return attrs
	case *sdkmcp.ReadResourceRequest:
		if r.Params == nil {
			return nil
		}
		return []slog.Attr{slog.String("uri", r.Params.URI)}
	}
	return nil
}

// snapshotArg extracts snapshot_id from raw tool arguments, if present.
func snapshotArg(args any) string {
	var data []byte
	switch a := args.(type) {
	case json.RawMessage:
		data = a
	case []byte:
		data = a
	case nil:
		return ""
	default:
		b, err := json.Marshal(a)
		if err != nil {
			return ""
		}
		data = b
	}

	var v struct {
		SnapshotID string `json:"snapshot_id"`
	}
	if len(data) == 0 || json.Unmarshal(data, &v) != nil {
		return ""
	}
	return v.SnapshotID
}

func isToolError(result sdkmcp.Result) bool {
	res, ok := result.(*sdkmcp.CallToolResult)
	return ok && res != nil && res.IsError
}
