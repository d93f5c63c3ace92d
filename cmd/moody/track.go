// ABOUTME: CLI commands for tracking metrics and setting baselines.
// ABOUTME: Changes go through the optimistic tracking commands.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/moody/internal/codec"
	"github.com/harperreed/moody/internal/output"
	"github.com/harperreed/moody/internal/storage"
	"github.com/harperreed/moody/internal/tracking"
)

var trackBaseline string

var trackCmd = &cobra.Command{
	Use:   "track <metric>",
	Short: "Start tracking a metric",
	Long: `Start tracking a metric so it shows in charts and can be filled with
its baseline by 'moody add --fill'.

Without --baseline the baseline is 0 when allowed, else the lowest value.

EXAMPLES:

  moody track exercised
  moody track energy --baseline 5
  moody track mood --baseline neutral`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := storage.ResolveMetric(cmd.Context(), repo, owner, args[0])
		if err != nil {
			return err
		}
		c := tracking.Track{Metric: m}
		if trackBaseline != "" {
			b, err := codec.ParseValue(m, trackBaseline)
			if err != nil {
				return err
			}
			c.Baseline = &b
		}
		return applyTracking(cmd, c)
	},
}

var untrackCmd = &cobra.Command{
	Use:   "untrack <metric>",
	Short: "Stop tracking a metric (recorded values are kept)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := storage.ResolveMetric(cmd.Context(), repo, owner, args[0])
		if err != nil {
			return err
		}
		return applyTracking(cmd, tracking.Untrack{MetricID: m.ID})
	},
}

var baselineCmd = &cobra.Command{
	Use:   "baseline <metric> <value>",
	Short: "Change the baseline of a tracked metric",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := storage.ResolveMetric(cmd.Context(), repo, owner, args[0])
		if err != nil {
			return err
		}
		b, err := codec.ParseValue(m, args[1])
		if err != nil {
			return err
		}
		return applyTracking(cmd, tracking.SetBaseline{Metric: m, Baseline: b})
	},
}

// loadState reads the owner's current tracking.
func loadState(cmd *cobra.Command) (tracking.State, error) {
	tracked, err := repo.FetchTrackedMetrics(cmd.Context(), owner)
	if err != nil {
		return tracking.State{}, fmt.Errorf("failed to load tracking: %w", err)
	}
	return tracking.NewState(tracked), nil
}

// applyTracking runs a tracking command and persists it.
func applyTracking(cmd *cobra.Command, c tracking.Command) error {
	state, err := loadState(cmd)
	if err != nil {
		return err
	}
	next, pending, err := tracking.Apply(owner, state, c)
	if err != nil {
		return err
	}
	if _, err := pending.Confirm(cmd.Context(), repo); err != nil {
		return fmt.Errorf("failed to save tracking: %w", err)
	}

	switch c := c.(type) {
	case tracking.Track:
		t, _ := next.Lookup(c.Metric.ID)
		color.Green("✓ Tracking %s (baseline %s)", c.Metric.Name, output.DisplayValue(c.Metric, t.Baseline))
	case tracking.Untrack:
		color.Yellow("✗ Stopped tracking (%d metric(s) still tracked)", next.Len())
	case tracking.SetBaseline:
		color.Green("✓ %s baseline is now %s", c.Metric.Name, output.DisplayValue(c.Metric, c.Baseline))
	}
	return nil
}

func init() {
	trackCmd.Flags().StringVarP(&trackBaseline, "baseline", "b", "", "baseline value or label")
	rootCmd.AddCommand(trackCmd, untrackCmd, baselineCmd)
}
