package recalltools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dmfarley/recollect/internal/store"
)

const maxSearchLimit = 50

// SearchTool handles the recall_search MCP tool.
type SearchTool struct {
	store *store.Store
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(st *store.Store) *SearchTool {
	return &SearchTool{store: st}
}

// Definition returns the MCP tool definition for recall_search.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("recall_search",
		mcp.WithDescription(
			"Search captured session records across all past sessions. Use this to find "+
				"earlier discoveries, solutions, refactors, and problems by keyword.",
		),
		mcp.WithString("query",
			mcp.Description("Search query — keywords matched against record text. Empty returns the most recent records."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10, max: 50)"),
		),
	)
}

// Handle processes the recall_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	limit := clampLimit(intArg(req, "limit", 10), maxSearchLimit)

	results, err := t.store.Search(query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No records found matching your query."), nil
	}

	return mcp.NewToolResultText(formatRecords(results)), nil
}
