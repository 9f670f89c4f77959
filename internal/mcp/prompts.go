package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("check_load",
		mcp.WithPromptDescription("Verify the datasets and destination schema, then run a load and summarize it"),
		mcp.WithArgument("dataset",
			mcp.ArgumentDescription("Dataset to preview first (surface or bottom_hole)"),
		),
	), s.handleCheckLoadPrompt)
}

func (s *Server) handleCheckLoadPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	dataset := req.Params.Arguments["dataset"]
	if dataset == "" {
		dataset = "surface"
	}
	return &mcp.GetPromptResult{
		Description: "Check and run the well loader",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Check the Colorado well loader and run it. Follow these steps:

1. Use resolve_schema and report any column that fell back to the default length.
2. Use preview_source with dataset "%s" and confirm the API, Operator and Well_Name columns are present.
3. Use run_load.
4. Summarize the run: wells reconciled, bottom-hole locations merged, sidetracks inferred, orphans dropped and rows inserted per table.
5. If the run failed, compare it with the previous runs from list_runs.`, dataset),
				},
			},
		},
	}, nil
}
