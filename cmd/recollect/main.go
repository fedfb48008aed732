// Recollect: session memory capture and recall.
//
// Captures coding-session events (tool runs, file edits, errors), redacts
// sensitive content, and persists them to a local SQLite database that
// later sessions can search over MCP or the CLI.
//
// Usage:
//
//	recollect serve     # Start MCP server (stdio transport)
//	recollect capture   # Capture one event from stdin (for hooks)
//	recollect search    # Search captured records
//	recollect recent    # List recent records
//	recollect stats     # Show store statistics
package main

import (
	"fmt"
	"os"

	"github.com/dmfarley/recollect/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
