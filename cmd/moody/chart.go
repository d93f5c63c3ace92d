// ABOUTME: CLI command for the daily chart table.
// ABOUTME: One row per day with each metric's daily average.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harperreed/moody/internal/analytics"
	"github.com/harperreed/moody/internal/insights"
	"github.com/harperreed/moody/internal/output"
)

var (
	chartMonth string
	chartFrom  string
	chartTo    string
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Daily averages for a month or date range",
	Long: `Show one row per day with the average of every tracked metric, plus any
metric that was logged in the range. Days without a value show a dash.
--from takes precedence over --month.

EXAMPLES:

  moody chart                                  # This month
  moody chart --month 2026-01                  # January 2026
  moody chart --from 2026-01-10 --to 2026-01-20`,
	RunE: func(cmd *cobra.Command, args []string) error {
		first, last, err := chartRange(time.Now())
		if err != nil {
			return err
		}
		snap, err := loader().Load(cmd.Context(), owner, insights.Days(first, last))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), output.Chart(snap.Daily(first, last)))
		return nil
	},
}

// chartRange resolves the chart flags into an inclusive day range.
func chartRange(now time.Time) (time.Time, time.Time, error) {
	if chartFrom != "" {
		first, err := time.ParseInLocation(analytics.DayLayout, chartFrom, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date: %s (use YYYY-MM-DD)", chartFrom)
		}
		last := now
		if chartTo != "" {
			if last, err = time.ParseInLocation(analytics.DayLayout, chartTo, time.Local); err != nil {
				return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date: %s (use YYYY-MM-DD)", chartTo)
			}
		}
		if last.Before(first) {
			return time.Time{}, time.Time{}, fmt.Errorf("--to is before --from")
		}
		return first, last, nil
	}

	month := chartMonth
	if month == "" {
		month = now.Format(analytics.MonthLayout)
	}
	return analytics.MonthRange(month, time.Local)
}

func init() {
	chartCmd.Flags().StringVar(&chartMonth, "month", "", "month as YYYY-MM (default this month)")
	chartCmd.Flags().StringVar(&chartFrom, "from", "", "first day as YYYY-MM-DD")
	chartCmd.Flags().StringVar(&chartTo, "to", "", "last day as YYYY-MM-DD (default today)")
	rootCmd.AddCommand(chartCmd)
}
