package mcpserver

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"ppdmloader/internal/loader"
	"ppdmloader/internal/service"
)

func (s *Server) registerLoaderTools() {
	s.mcp.AddTool(mcp.NewTool("run_load",
		mcp.WithDescription("Download the surface and bottom-hole datasets, reconcile them into wells and insert new wells and reference values into the PPDM store. Existing rows are never modified."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(false), IdempotentHint: boolPtr(true)}),
	), s.handleRunLoad)

	s.mcp.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List recent loader runs, newest first, with counts and errors"),
		mcp.WithNumber("limit", mcp.Description("Maximum runs to return (default 20, max 200)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListRuns)

	s.mcp.AddTool(mcp.NewTool("preview_source",
		mcp.WithDescription("Preview the first rows of a dataset without persisting anything"),
		mcp.WithString("dataset", mcp.Description("Dataset name: surface or bottom_hole"), mcp.Required()),
		mcp.WithNumber("maxRows", mcp.Description("Rows to return (default 10, max 100)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handlePreviewSource)

	s.mcp.AddTool(mcp.NewTool("resolve_schema",
		mcp.WithDescription("Report the text column lengths of the well table and the truncation limits the next run applies"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleResolveSchema)
}

func (s *Server) handleRunLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runLog, err := s.loader.Run(ctx, service.TriggerMCP)
	switch {
	case errors.Is(err, service.ErrAlreadyRunning):
		if active, ok := s.loader.Active(); ok {
			return errorResult("A %s load started at %s is still running; try again when it finishes",
				active.Trigger, active.StartedAt.Format(time.RFC3339)), nil
		}
		return errorResult("A load is already running; try again when it finishes"), nil
	case errors.Is(err, loader.ErrSourceUnavailable):
		return errorResult("Source unavailable: %v", err), nil
	case errors.Is(err, loader.ErrPersistence):
		return errorResult("Persistence failure: %v", err), nil
	case err != nil:
		return nil, err
	}
	return jsonResult(runLog)
}

func (s *Server) handleListRuns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := clamp(req.GetInt("limit", 0), 20, 1, 200)
	runs, err := s.loader.ListRuns(limit)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return textResult("No runs recorded yet"), nil
	}
	return jsonResult(runs)
}

func (s *Server) handlePreviewSource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dataset := req.GetString("dataset", "")
	if dataset == "" {
		return errorResult("dataset is required"), nil
	}
	maxRows := clamp(req.GetInt("maxRows", 0), 10, 1, 100)

	preview, err := s.loader.Preview(ctx, dataset, maxRows)
	if err != nil {
		return errorResult("Preview failed: %v", err), nil
	}
	return jsonResult(preview)
}

func (s *Server) handleResolveSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.loader.ResolveSchema(ctx)
	if err != nil {
		return errorResult("Schema lookup failed: %v", err), nil
	}
	return jsonResult(report)
}
