package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"ppdmloader/internal/etl"
)

const (
	runsResourceURI    = "ppdmloader://runs"
	sourcesResourceURI = "ppdmloader://sources"
)

func (s *Server) registerResources() {
	// ── ppdmloader://runs ──────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		runsResourceURI,
		"Recent Loader Runs",
		mcp.WithMIMEType("application/json"),
	), s.handleRunsResource)

	// ── ppdmloader://sources ───────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		sourcesResourceURI,
		"Dataset Source Types",
		mcp.WithMIMEType("application/json"),
	), s.handleSourcesResource)
}

func (s *Server) handleRunsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	runs, err := s.loader.ListRuns(20)
	if err != nil {
		return nil, err
	}
	return jsonResource(runsResourceURI, runs)
}

func (s *Server) handleSourcesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(sourcesResourceURI, etl.ListSources())
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
