// Package cli provides the command-line interface for recollect.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmfarley/recollect/internal/config"
	"github.com/dmfarley/recollect/internal/store"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global config and logger, resolved once before any command runs.
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "recollect",
	Short: "Session memory capture and recall",
	Long: `Recollect captures what happens during coding sessions — files edited,
commands run, problems hit — redacts anything sensitive, and persists it to
a local SQLite database so later sessions can search it.

Run 'recollect serve' to expose the records over MCP, or use the capture,
search, recent, and stats commands directly.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}

		logger, logCleanup = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// openStore opens the configured database for the read-side commands.
// Callers must Close the returned store.
func openStore() (*store.Store, error) {
	st, err := store.Open(cfg.DatabaseFile, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(statsCmd)
}
