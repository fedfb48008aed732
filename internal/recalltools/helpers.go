// Package recalltools provides the MCP tool handlers for the capture store.
//
// Each handler follows the same pattern:
// - A struct with dependencies (store.Store) injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Handlers report failures as tool-result errors, never as Go errors, so a
// storage problem degrades the tool call instead of the server.
package recalltools

import (
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dmfarley/recollect/internal/store"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// clampLimit bounds a requested result count to [1, max].
func clampLimit(n, max int) int {
	if n < 1 {
		return 1
	}
	if n > max {
		return max
	}
	return n
}

// formatRecords renders records as a numbered list for a tool result.
func formatRecords(records []store.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d records:\n\n", len(records))

	for i, r := range records {
		when := time.UnixMilli(r.CreatedAt).UTC().Format("2006-01-02 15:04")
		fmt.Fprintf(&b, "[%d] (%s) %s\n    %s", i+1, r.Kind, when, r.Body)
		if files, ok := r.Attributes["files"].([]any); ok && len(files) > 0 {
			parts := make([]string, 0, len(files))
			for _, f := range files {
				if s, ok := f.(string); ok {
					parts = append(parts, s)
				}
			}
			fmt.Fprintf(&b, "\n    files: %s", strings.Join(parts, ", "))
		}
		if r.SessionID != "" {
			fmt.Fprintf(&b, "\n    session: %s", r.SessionID)
		}
		b.WriteString("\n\n")
	}

	return b.String()
}
