// ABOUTME: CLI command for statistics and correlations.
// ABOUTME: Prints the overview, per-metric trends and notable correlations.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harperreed/moody/internal/insights"
	"github.com/harperreed/moody/internal/output"
)

var statsDays int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Averages, 30 day trends and correlations",
	Long: `Summarize every metric you have logged.

TREND compares the last 30 days with the 30 before; changes within 5% are
stable. Correlations pair metrics logged in the same entries and show those
with |r| of at least 0.2 over 3 or more entries.

EXAMPLES:

  moody stats             # Everything
  moody stats --days 90   # Only the last 90 days`,
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		window := insights.All
		if statsDays > 0 {
			window = insights.Since(now.AddDate(0, 0, -statsDays))
		}
		snap, err := loader().Load(cmd.Context(), owner, window)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprint(w, output.Overview(snap.Overview(now)))
		fmt.Fprintln(w)
		fmt.Fprint(w, output.Stats(snap.Stats(now)))
		return nil
	},
}

func init() {
	statsCmd.Flags().IntVar(&statsDays, "days", 0, "only use the last N days (default all)")
	rootCmd.AddCommand(statsCmd)
}
