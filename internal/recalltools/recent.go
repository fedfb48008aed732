package recalltools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dmfarley/recollect/internal/store"
)

// RecentTool handles the recall_recent MCP tool.
type RecentTool struct {
	store *store.Store
}

// NewRecentTool creates a RecentTool.
func NewRecentTool(st *store.Store) *RecentTool {
	return &RecentTool{store: st}
}

// Definition returns the MCP tool definition for recall_recent.
func (t *RecentTool) Definition() mcp.Tool {
	return mcp.NewTool("recall_recent",
		mcp.WithDescription(
			"List the most recently captured session records, newest first. "+
				"Use this to pick up where a previous session left off.",
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10, max: 50)"),
		),
	)
}

// Handle processes the recall_recent tool call.
func (t *RecentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := clampLimit(intArg(req, "limit", 10), maxSearchLimit)

	results, err := t.store.Recent(limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list recent records: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No records captured yet."), nil
	}

	return mcp.NewToolResultText(formatRecords(results)), nil
}
