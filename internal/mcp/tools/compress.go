package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/restiming-mcp/pkg/perf"
	"github.com/usestring/restiming-mcp/pkg/restiming"
)

// CompressInput is the input for restiming_compress.
type CompressInput struct {
	SnapshotID     string   `json:"snapshot_id,omitempty" jsonschema:"Snapshot ID (default: most recently loaded)"`
	From           float64  `json:"from,omitempty" jsonschema:"Only entries starting at or after this Unix ms time"`
	To             float64  `json:"to,omitempty" jsonschema:"Only entries starting at or before this Unix ms time"`
	InitiatorTypes []string `json:"initiator_types,omitempty" jsonschema:"Only these initiator types (e.g. script, img, css)"`
}

// CompressOutput is the output for restiming_compress.
type CompressOutput struct {
	SnapshotID        string  `json:"snapshot_id"`
	Entries           int     `json:"entries"`
	Trie              any     `json:"trie"`
	TrieJSON          string  `json:"trie_json"`
	Bytes             int     `json:"bytes"`
	UncompressedBytes int     `json:"uncompressed_bytes"`
	Ratio             float64 `json:"ratio,omitempty"`
}

// DecodeInput is the input for restiming_decode.
type DecodeInput struct {
	Trie       string `json:"trie" jsonschema:"required,Compressed trie JSON as attached to the beacon"`
	URLPattern string `json:"url_pattern,omitempty" jsonschema:"Only URLs matching this pattern (* matches any run of characters)"`
}

// DecodeOutput is the output for restiming_decode.
type DecodeOutput struct {
	Resources []DecodedResource `json:"resources,omitzero"`
	URLs      int               `json:"urls"`
	Timings   int               `json:"timings"`
}

// DecodedResource is one URL of a decoded trie with its timings.
type DecodedResource struct {
	URL     string             `json:"url"`
	Timings []restiming.Timing `json:"timings"`
}

// ToolCompress compresses the resource timings of a snapshot into a trie.
// Without filters the page-ready lifecycle runs against an in-memory beacon
// and the attached payload is returned.
func ToolCompress(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input CompressInput) (*sdkmcp.CallToolResult, CompressOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input CompressInput) (*sdkmcp.CallToolResult, CompressOutput, error) {
		if input.From < 0 || input.To < 0 {
			return nil, CompressOutput{}, ErrInvalidInput("from and to must be non-negative")
		}

		snap, err := d.Snapshot(ctx, input.SnapshotID)
		if err != nil {
			return nil, CompressOutput{}, err
		}

		beacon := restiming.NewMemoryBeacon()
		eng, err := d.Engine(snap, beacon)
		if err != nil {
			return nil, CompressOutput{}, err
		}

		entries := eng.FilteredResourceTiming(input.From, input.To, input.InitiatorTypes)

		var payload string
		if input.From == 0 && input.To == 0 && len(input.InitiatorTypes) == 0 {
			eng.PageReady()
			payload, _ = beacon.Var(restiming.VarName)
		} else {
			rules, err := d.BreakRules()
			if err != nil {
				return nil, CompressOutput{}, err
			}
			data, err := restiming.Compress(entries, rules, d.Config.URLLimit).MarshalJSON()
			if err != nil {
				return nil, CompressOutput{}, fmt.Errorf("encoding trie: %w", err)
			}
			payload = string(data)
		}
		if payload == "" {
			payload = "{}"
		}

		var trie any
		if err := json.Unmarshal([]byte(payload), &trie); err != nil {
			return nil, CompressOutput{}, fmt.Errorf("decoding trie: %w", err)
		}

		output := CompressOutput{
			SnapshotID:        snap.ID,
			Entries:           len(entries),
			Trie:              trie,
			TrieJSON:          payload,
			Bytes:             len(payload),
			UncompressedBytes: uncompressedSize(entries, d.Config.URLLimit),
		}
		if output.UncompressedBytes > 0 {
			output.Ratio = float64(output.Bytes) / float64(output.UncompressedBytes)
		}

		return nil, output, nil
	}
}

// uncompressedSize is the size of a flat URL to payload JSON object for the
// same entries.
func uncompressedSize(entries []perf.Entry, urlLimit int) int {
	flat := make(map[string]string, len(entries))
	for _, e := range entries {
		url := restiming.CleanupURL(e.Name, urlLimit)
		if url == "" {
			continue
		}
		if prev, ok := flat[url]; ok {
			flat[url] = prev + restiming.EntrySeparator + restiming.Encode(e)
		} else {
			flat[url] = restiming.Encode(e)
		}
	}
	if len(flat) == 0 {
		return 0
	}
	data, err := json.Marshal(flat)
	if err != nil {
		return 0
	}
	return len(data)
}

// ToolDecode expands a compressed trie back into per-URL timings.
func ToolDecode(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input DecodeInput) (*sdkmcp.CallToolResult, DecodeOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input DecodeInput) (*sdkmcp.CallToolResult, DecodeOutput, error) {
		if input.Trie == "" {
			return nil, DecodeOutput{}, ErrInvalidInput("trie is required")
		}

		var root restiming.Node
		if err := json.Unmarshal([]byte(input.Trie), &root); err != nil {
			return nil, DecodeOutput{}, ErrInvalidInput(fmt.Sprintf("invalid trie: %v", err))
		}

		expanded := restiming.Expand(&root)
		urls := make([]string, 0, len(expanded))
		for url := range expanded {
			if restiming.MatchURLPattern(input.URLPattern, url) {
				urls = append(urls, url)
			}
		}
		sort.Strings(urls)

		output := DecodeOutput{Resources: make([]DecodedResource, 0, len(urls))}
		for _, url := range urls {
			timings, err := restiming.DecodeTimings(expanded[url])
			if err != nil {
				return nil, DecodeOutput{}, ErrInvalidInput(fmt.Sprintf("invalid timing for %s: %v", url, err))
			}
			output.Resources = append(output.Resources, DecodedResource{URL: url, Timings: timings})
			output.Timings += len(timings)
		}
		output.URLs = len(urls)

		return nil, output, nil
	}
}
