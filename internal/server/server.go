// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it opens the storage engine and injects it
// into the tool handlers. No business logic lives here — only wiring.
package server

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dmfarley/recollect/internal/config"
	"github.com/dmfarley/recollect/internal/recalltools"
	"github.com/dmfarley/recollect/internal/store"
)

// Version is set at build time via ldflags.
var Version = "dev"

const serverInstructions = `recollect exposes the persistent record of past coding sessions.

Use recall_search to find earlier discoveries, solutions, refactors, and
problems by keyword. Use recall_recent at the start of a session to see what
the previous one did. Use recall_stats to check how much history exists.`

// New creates and configures the MCP server with the recall tools
// registered.
//
// The returned cleanup function closes the store's database connection and
// must be called on shutdown (typically via defer). It is always non-nil
// and safe to call even if storage init failed.
//
// Storage is an independent subsystem: if it fails to open, the server
// still starts — we log a warning and skip tool registration so the host
// session is never taken down by a storage problem.
func New(cfg config.Config, log *slog.Logger) (*server.MCPServer, func(), error) {
	s := server.NewMCPServer(
		"recollect",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions),
	)

	cleanup := noop
	st, err := store.Open(cfg.DatabaseFile, log)
	if err != nil {
		log.Warn("storage disabled, recall tools not registered", "error", err)
		return s, cleanup, nil
	}

	cleanup = func() {
		if err := st.Close(); err != nil {
			log.Warn("store close failed", "error", err)
		}
	}

	searchTool := recalltools.NewSearchTool(st)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	recentTool := recalltools.NewRecentTool(st)
	s.AddTool(recentTool.Definition(), recentTool.Handle)

	statsTool := recalltools.NewStatsTool(st)
	s.AddTool(statsTool.Definition(), statsTool.Handle)

	return s, cleanup, nil
}

// noop is the default cleanup when storage is disabled.
func noop() {}
