package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmfarley/recollect/internal/store"
)

var recentLimit int

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recently captured records",
	Args:  cobra.NoArgs,
	RunE:  runRecent,
}

func init() {
	recentCmd.Flags().IntVarP(&recentLimit, "limit", "n", 10, "max results")
}

func runRecent(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	limit := recentLimit
	if limit > cfg.MaxSearchResults {
		limit = cfg.MaxSearchResults
	}

	results, err := st.Recent(limit)
	if err != nil {
		return fmt.Errorf("recent: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No records captured yet.")
		return nil
	}

	printRecords(results)
	return nil
}

// printRecords renders records for terminal output, newest first.
func printRecords(records []store.Record) {
	for i, r := range records {
		when := time.UnixMilli(r.CreatedAt).Local().Format("2006-01-02 15:04")
		fmt.Printf("%d. [%s] %s\n   %s\n", i+1, r.Kind, when, r.Body)
		if files, ok := r.Attributes["files"].([]any); ok && len(files) > 0 {
			fmt.Printf("   files:")
			for _, f := range files {
				if s, ok := f.(string); ok {
					fmt.Printf(" %s", s)
				}
			}
			fmt.Println()
		}
	}
}
