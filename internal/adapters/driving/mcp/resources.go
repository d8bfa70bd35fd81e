package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for knowledge base resources.
	uriScheme = "sercha-kb://"

	statsURI   = uriScheme + "stats"
	sourcesURI = uriScheme + "sources"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.sdk.AddResource(&mcp.Resource{
		URI:         statsURI,
		Name:        "stats",
		Description: "Record count, embedding model and vector size of the knowledge base",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	s.sdk.AddResource(&mcp.Resource{
		URI:         sourcesURI,
		Name:        "sources",
		Description: "Files added to the knowledge base with their chunk counts",
		MIMEType:    "application/json",
	}, s.handleSourcesResource)
}

// handleStatsResource returns the knowledge base summary.
func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Knowledge.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}

	type statsInfo struct {
		Created    bool   `json:"created"`
		Records    int    `json:"records"`
		Dimensions int    `json:"dimensions"`
		Model      string `json:"model,omitempty"`
		Sources    int    `json:"sources"`
	}

	return jsonResource(req.Params.URI, statsInfo{
		Created:    stats.Created,
		Records:    stats.Records,
		Dimensions: stats.Dimensions,
		Model:      stats.Model,
		Sources:    len(stats.Sources),
	})
}

// handleSourcesResource returns the per-file chunk counts.
func (s *Server) handleSourcesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Knowledge.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}

	sources := stats.Sources
	if sources == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}
	return jsonResource(req.Params.URI, sources)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
