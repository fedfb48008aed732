package recalltools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dmfarley/recollect/internal/store"
)

// StatsTool handles the recall_stats MCP tool.
type StatsTool struct {
	store *store.Store
}

// NewStatsTool creates a StatsTool.
func NewStatsTool(st *store.Store) *StatsTool {
	return &StatsTool{store: st}
}

// Definition returns the MCP tool definition for recall_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("recall_stats",
		mcp.WithDescription(
			"Show capture store statistics — total records, counts per kind, and time range covered.",
		),
	)
}

// Handle processes the recall_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := t.store.Stats()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get stats: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("## Capture Statistics\n\n")
	sb.WriteString(fmt.Sprintf("- **Records**: %d\n", stats.Count))

	if len(stats.CountsByKind) > 0 {
		kinds := make([]string, 0, len(stats.CountsByKind))
		for kind := range stats.CountsByKind {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		parts := make([]string, 0, len(kinds))
		for _, kind := range kinds {
			parts = append(parts, fmt.Sprintf("%s: %d", kind, stats.CountsByKind[kind]))
		}
		sb.WriteString(fmt.Sprintf("- **By kind**: %s\n", strings.Join(parts, ", ")))
	}

	if stats.OldestTimestamp != nil && stats.NewestTimestamp != nil {
		sb.WriteString(fmt.Sprintf("- **Range**: %s to %s\n",
			time.UnixMilli(*stats.OldestTimestamp).UTC().Format("2006-01-02"),
			time.UnixMilli(*stats.NewestTimestamp).UTC().Format("2006-01-02"),
		))
	}

	sb.WriteString(fmt.Sprintf("- **Approx size**: %d bytes\n", stats.ApproxSizeBytes))

	return mcp.NewToolResultText(sb.String()), nil
}
