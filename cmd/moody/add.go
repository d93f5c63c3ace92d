// ABOUTME: CLI command for logging an entry.
// ABOUTME: Takes metric=value pairs; values are labels or numbers.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/moody/internal/output"
	"github.com/harperreed/moody/internal/tracking"
)

var (
	addAt      string
	addComment string
	addFill    bool
)

var addCmd = &cobra.Command{
	Use:     "add <metric=value>...",
	Aliases: []string{"a", "log"},
	Short:   "Log an entry",
	Long: `Log an entry with one value per metric.

Metrics are matched by name (case-insensitive) or ID prefix. Vibes take a
label or its number, measurements a number in range, and moments yes/no.

Examples:
  moody add mood=happy
  moody add "sleep duration=6.5" exercised=no --comment "late night"
  moody add mood=-1 --at "2026-01-14 21:00"
  moody add mood=happy --fill     # other tracked metrics get their baseline`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !addFill {
			return fmt.Errorf("nothing to log: give metric=value pairs or --fill")
		}

		assignments := make([]tracking.Assignment, 0, len(args))
		for _, arg := range args {
			a, err := tracking.ParseAssignment(arg)
			if err != nil {
				return err
			}
			assignments = append(assignments, a)
		}

		ctx := cmd.Context()
		values, err := tracking.Resolve(ctx, repo, owner, assignments)
		if err != nil {
			return err
		}
		tracked, err := repo.FetchTrackedMetrics(ctx, owner)
		if err != nil {
			return fmt.Errorf("failed to load tracking: %w", err)
		}
		e, err := tracking.NewState(tracked).Draft(owner, values, addFill)
		if err != nil {
			return err
		}
		if len(e.Values) == 0 {
			return fmt.Errorf("nothing to log: no tracked metrics to fill")
		}

		if addAt != "" {
			t, err := parseTime(addAt)
			if err != nil {
				return fmt.Errorf("invalid timestamp: %s", addAt)
			}
			e.WithRecordedAt(t)
		}
		if addComment != "" {
			e.WithComment(addComment)
		}

		if err := repo.CreateEntry(ctx, e); err != nil {
			return fmt.Errorf("failed to create entry: %w", err)
		}

		color.Green("✓ Logged %d value(s)", len(e.Values))
		faint := color.New(color.Faint)
		for _, v := range e.Values {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s %s = %s\n",
				faint.Sprint(output.ShortEntryID(e)), v.Metric.Name, output.DisplayValue(v.Metric, v.Value))
		}
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addAt, "at", "", "timestamp (YYYY-MM-DD HH:MM)")
	addCmd.Flags().StringVarP(&addComment, "comment", "c", "", "comment for the entry")
	addCmd.Flags().BoolVar(&addFill, "fill", false, "fill other tracked metrics with their baselines")
	rootCmd.AddCommand(addCmd)
}
