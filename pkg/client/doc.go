// Package client provides a Go SDK for a resource timing snapshot collector.
//
// A collector is any HTTP service that records page snapshots (the frame
// tree with each context's navigation and resource timing buffers) and
// serves them as JSON in the shape of perf.Frame.
//
// # Quick Start
//
// Create a client and list snapshots:
//
//	c := client.New()
//	snapshots, err := c.ListSnapshots(ctx)
//
// Use custom configuration:
//
//	c := client.New(
//	    client.WithBaseURL("http://localhost:8080"),
//	    client.WithHTTPClient(customHTTPClient),
//	)
//
// # The "latest" Identifier
//
// GetSnapshot accepts "latest" to fetch the most recent capture:
//
//	frame, err := c.GetSnapshot(ctx, client.LatestSnapshot)
//
// GetSnapshotRaw returns the undecoded document for callers that validate
// it before use.
package client
