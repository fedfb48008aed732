package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show capture store statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Stats()
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	fmt.Printf("Records:     %d\n", stats.Count)
	fmt.Printf("Approx size: %d bytes\n", stats.ApproxSizeBytes)

	if stats.OldestTimestamp != nil && stats.NewestTimestamp != nil {
		fmt.Printf("Range:       %s to %s\n",
			time.UnixMilli(*stats.OldestTimestamp).Local().Format("2006-01-02"),
			time.UnixMilli(*stats.NewestTimestamp).Local().Format("2006-01-02"),
		)
	}

	if len(stats.CountsByKind) > 0 {
		kinds := make([]string, 0, len(stats.CountsByKind))
		for kind := range stats.CountsByKind {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		fmt.Println("By kind:")
		for _, kind := range kinds {
			fmt.Printf("  %-10s %d\n", kind, stats.CountsByKind[kind])
		}
	}

	return nil
}
