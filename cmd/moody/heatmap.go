// ABOUTME: CLI command for the calendar heatmap of one metric.
// ABOUTME: Twelve month rows, one colored cell pair per day.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harperreed/moody/internal/insights"
	"github.com/harperreed/moody/internal/output"
	"github.com/harperreed/moody/internal/storage"
)

var heatmapYear int

var heatmapCmd = &cobra.Command{
	Use:   "heatmap <metric>",
	Short: "A year of one metric on a calendar grid",
	Long: `Color every day of a year by the metric's value, from blue (low) through
white to red (high). Zero gets its own green. A day logged more than once
shows its first and last value.

EXAMPLES:

  moody heatmap mood
  moody heatmap "sleep duration" --year 2025`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		m, err := storage.ResolveMetric(ctx, repo, owner, args[0])
		if err != nil {
			return err
		}
		year := heatmapYear
		if year == 0 {
			year = time.Now().Year()
		}
		snap, err := loader().Load(ctx, owner, insights.Year(year, time.Local))
		if err != nil {
			return err
		}
		h, err := snap.Heatmap(m, year)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), output.Heatmap(h))
		return nil
	},
}

func init() {
	heatmapCmd.Flags().IntVar(&heatmapYear, "year", 0, "calendar year (default this year)")
	rootCmd.AddCommand(heatmapCmd)
}
