package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/restiming-mcp/internal/mcp/tools"
)

// Resource URI scheme: restiming://
// Supported URIs:
//   restiming://snapshots
//   restiming://snapshot/{id}
//   restiming://snapshot/{id}/trie

// registerResources registers resource templates and handlers.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         "restiming://snapshots",
		Name:        "Loaded Snapshots",
		Description: "Summaries of the snapshots currently held in memory, oldest first.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.5,
		},
	}, s.handleResourceSnapshots)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: "restiming://snapshot/{id}",
		Name:        "Snapshot Document",
		Description: "Raw snapshot document as loaded. High context cost - the tools already return entry counts and compressed tries. Only fetch when you need the full frame tree.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.3,
		},
	}, s.handleResourceSnapshot)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: "restiming://snapshot/{id}/trie",
		Name:        "Compressed Trie",
		Description: "Optimized resource timing trie for a snapshot, exactly as attached to the beacon.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.6,
		},
	}, s.handleResourceSnapshot)
}

func (s *Server) handleResourceSnapshots(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	loaded := s.deps.Cache.List()
	summaries := make([]tools.LoadedSnapshotInfo, len(loaded))
	for i, snap := range loaded {
		summaries[i] = tools.LoadedInfo(snap)
	}
	return toResourceResult(req.Params.URI, map[string]any{"snapshots": summaries})
}

func (s *Server) handleResourceSnapshot(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	params, err := parseResourceURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	snap, ok := s.deps.Cache.Get(params["id"])
	if !ok {
		return nil, sdkmcp.ResourceNotFoundError(req.Params.URI)
	}

	if params["view"] != "trie" {
		return textResourceResult(req.Params.URI, string(snap.Raw)), nil
	}

	eng, err := s.deps.Engine(snap, nil)
	if err != nil {
		return nil, err
	}
	data, err := eng.CompressedResourceTiming(0, 0).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("serializing trie: %w", err)
	}
	return textResourceResult(req.Params.URI, string(data)), nil
}

// parseResourceURI extracts parameters from a restiming:// URI.
func parseResourceURI(uri string) (map[string]string, error) {
	if !strings.HasPrefix(uri, "restiming://") {
		return nil, tools.ErrInvalidInput("invalid URI scheme: expected restiming://")
	}

	parts := strings.Split(strings.TrimPrefix(uri, "restiming://"), "/")
	params := make(map[string]string)

	switch parts[0] {
	case "snapshot":
		if len(parts) < 2 || parts[1] == "" {
			return nil, tools.ErrInvalidInput("snapshot URI requires a snapshot ID")
		}
		params["id"] = parts[1]
		if len(parts) >= 3 {
			if parts[2] != "trie" {
				return nil, tools.ErrInvalidInput(fmt.Sprintf("unknown snapshot view: %s", parts[2]))
			}
			params["view"] = parts[2]
		}

	default:
		return nil, tools.ErrInvalidInput(fmt.Sprintf("unknown resource type: %s", parts[0]))
	}

	return params, nil
}

// textResourceResult wraps JSON text in a ReadResourceResult.
func textResourceResult(uri, text string) *sdkmcp.ReadResourceResult {
	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: tools.MimeJSON,
				Text:     text,
			},
		},
	}
}

// toResourceResult serializes content to a ReadResourceResult.
func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}
	return textResourceResult(uri, string(data)), nil
}
