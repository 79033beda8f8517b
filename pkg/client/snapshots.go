package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/usestring/restiming-mcp/pkg/perf"
)

// ListSnapshots retrieves the snapshots the collector currently holds.
func (c *Client) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	var snapshots []SnapshotInfo
	if err := c.get(ctx, "/snapshots", nil, &snapshots); err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	return snapshots, nil
}

// GetSnapshotRaw retrieves the JSON document of one snapshot without
// decoding it. Use LatestSnapshot as id for the most recent capture.
func (c *Client) GetSnapshotRaw(ctx context.Context, id string) ([]byte, error) {
	body, err := c.getRaw(ctx, "/snapshots/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("getting snapshot %q: %w", id, err)
	}
	return body, nil
}

// GetSnapshot retrieves and decodes one snapshot.
func (c *Client) GetSnapshot(ctx context.Context, id string) (*perf.Frame, error) {
	body, err := c.GetSnapshotRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	frame, err := perf.ParseFrame(body)
	if err != nil {
		return nil, fmt.Errorf("getting snapshot %q: %w", id, err)
	}
	return frame, nil
}
