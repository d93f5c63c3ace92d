// ABOUTME: CLI command for the value distribution of one metric.
// ABOUTME: Shows how often each value was logged.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harperreed/moody/internal/insights"
	"github.com/harperreed/moody/internal/output"
	"github.com/harperreed/moody/internal/storage"
)

var distributionCmd = &cobra.Command{
	Use:     "distribution <metric>",
	Aliases: []string{"dist"},
	Short:   "How often each value of a metric was logged",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		m, err := storage.ResolveMetric(ctx, repo, owner, args[0])
		if err != nil {
			return err
		}
		snap, err := loader().Load(ctx, owner, insights.All)
		if err != nil {
			return err
		}
		slices, err := snap.Distribution(m)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), output.Distribution(m, slices))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(distributionCmd)
}
