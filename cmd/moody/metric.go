// ABOUTME: CLI commands for managing metric definitions.
// ABOUTME: Create, edit, list, show, options and delete.
package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/moody/internal/models"
	"github.com/harperreed/moody/internal/output"
	"github.com/harperreed/moody/internal/storage"
	"github.com/harperreed/moody/internal/tracking"
)

var (
	metricType        string
	metricDescription string
	metricLabels      []string
	metricMin         float64
	metricMax         float64
	metricTrack       bool
	metricName        string
)

var metricCmd = &cobra.Command{
	Use:     "metric",
	Aliases: []string{"metrics", "m"},
	Short:   "Manage metrics",
	Long: `Manage the metrics you can log.

KINDS:

  discrete    Vibe: labels mapped to numbers (--label Happy=1 --label Sad=-1)
  continuous  Measurement: numbers between --min and --max
  event       Moment: happened (1) or didn't (0)

System metrics (Mood, Sleep Duration, Exercised) are shared and read-only.`,
}

var metricCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a metric",
	Long: `Create a metric owned by you.

EXAMPLES:

  moody metric create Energy --type continuous --min 1 --max 10
  moody metric create Anxiety --type discrete --label Calm=0 --label Uneasy=1 --label Panicky=2
  moody metric create Meditated --type event --track`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !models.IsValidMetricType(metricType) {
			return fmt.Errorf("unknown metric type: %s (use discrete, continuous or event)", metricType)
		}
		m := models.NewMetric(args[0], models.MetricType(metricType)).WithOwner(owner)
		if metricDescription != "" {
			m.WithDescription(metricDescription)
		}
		switch m.Type {
		case models.MetricDiscrete:
			labels, err := parseLabels(metricLabels)
			if err != nil {
				return err
			}
			m.WithLabels(labels)
		case models.MetricContinuous:
			m.WithRange(metricMin, metricMax)
		}

		ctx := cmd.Context()
		if err := repo.CreateMetric(ctx, m); err != nil {
			return fmt.Errorf("failed to create metric: %w", err)
		}
		color.Green("✓ Created %s", m.Name)
		fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", color.New(color.Faint).Sprint(output.ShortMetricID(m)), output.Domain(m))

		if metricTrack {
			return applyTracking(cmd, tracking.Track{Metric: m})
		}
		return nil
	},
}

var metricEditCmd = &cobra.Command{
	Use:   "edit <metric>",
	Short: "Rename a metric or change its description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		m, err := storage.ResolveMetric(ctx, repo, owner, args[0])
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("name") {
			m.Name = metricName
		}
		if cmd.Flags().Changed("description") {
			m.Description = metricDescription
		}
		if err := repo.UpdateMetric(ctx, owner, m); err != nil {
			return fmt.Errorf("failed to update metric: %w", err)
		}
		color.Green("✓ Updated %s", m.Name)
		return nil
	},
}

var metricListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List metrics grouped by tracked, yours and system",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		metrics, err := repo.ListMetrics(ctx, owner)
		if err != nil {
			return fmt.Errorf("failed to list metrics: %w", err)
		}
		state, err := loadState(cmd)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), output.MetricList(tracking.Categorize(metrics, state), state))
		return nil
	},
}

var metricShowCmd = &cobra.Command{
	Use:   "show <metric>",
	Short: "Show a metric",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := storage.ResolveMetric(cmd.Context(), repo, owner, args[0])
		if err != nil {
			return err
		}
		state, err := loadState(cmd)
		if err != nil {
			return err
		}
		var tr *models.MetricTracking
		if t, ok := state.Lookup(m.ID); ok {
			tr = &t
		}
		fmt.Fprint(cmd.OutOrStdout(), output.MetricDetail(m, tr))
		return nil
	},
}

var metricOptionsCmd = &cobra.Command{
	Use:   "options <metric>",
	Short: "Show the values a metric accepts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := storage.ResolveMetric(cmd.Context(), repo, owner, args[0])
		if err != nil {
			return err
		}
		out, err := output.Options(m)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

var metricDeleteCmd = &cobra.Command{
	Use:     "delete <metric>",
	Aliases: []string{"rm"},
	Short:   "Delete a metric with its tracking and recorded values",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		m, err := storage.ResolveMetric(ctx, repo, owner, args[0])
		if err != nil {
			return err
		}
		if err := repo.DeleteMetric(ctx, owner, m.ID.String()); err != nil {
			return fmt.Errorf("failed to delete metric: %w", err)
		}
		color.Yellow("✗ Deleted %s", m.Name)
		return nil
	},
}

// parseLabels reads Label=value flags.
func parseLabels(raw []string) (map[string]float64, error) {
	labels := make(map[string]float64, len(raw))
	for _, r := range raw {
		name, value, ok := strings.Cut(r, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid label %q (use Label=value)", r)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid label value %q", r)
		}
		labels[name] = v
	}
	return labels, nil
}

func init() {
	metricCreateCmd.Flags().StringVarP(&metricType, "type", "t", string(models.MetricDiscrete), "discrete, continuous or event")
	metricCreateCmd.Flags().StringVarP(&metricDescription, "description", "d", "", "what the metric measures")
	metricCreateCmd.Flags().StringArrayVarP(&metricLabels, "label", "l", nil, "discrete label as Label=value (repeatable)")
	metricCreateCmd.Flags().Float64Var(&metricMin, "min", 0, "lowest value (continuous)")
	metricCreateCmd.Flags().Float64Var(&metricMax, "max", 10, "highest value (continuous)")
	metricCreateCmd.Flags().BoolVar(&metricTrack, "track", false, "start tracking the new metric")

	metricEditCmd.Flags().StringVar(&metricName, "name", "", "new name")
	metricEditCmd.Flags().StringVarP(&metricDescription, "description", "d", "", "new description")

	metricCmd.AddCommand(metricCreateCmd, metricEditCmd, metricListCmd, metricShowCmd, metricOptionsCmd, metricDeleteCmd)
	rootCmd.AddCommand(metricCmd)
}
