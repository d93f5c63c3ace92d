// ABOUTME: CLI command for deleting entries.
// ABOUTME: Supports deletion by full ID or ID prefix.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/moody/internal/output"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"del", "rm"},
	Short:   "Delete an entry",
	Long: `Delete an entry and all of its values by ID or ID prefix.

The ID prefix is shown in the first column of 'moody list' output.

EXAMPLES:

  moody delete 01JH8Z3K2M          # Delete by prefix
  moody rm 01JH8Z3K2MQ4W7XYZ...    # Delete by full ID

CAUTION:

  This permanently deletes the entry. There is no undo.
  If the prefix matches several entries, an error is returned.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := repo.GetEntry(ctx, owner, args[0])
		if err != nil {
			return fmt.Errorf("entry not found: %s: %w", args[0], err)
		}
		if err := repo.DeleteEntry(ctx, owner, e.ID.String()); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}

		color.Yellow("✗ Deleted entry from %s", e.RecordedAt.Local().Format("2006-01-02 15:04"))
		fmt.Fprintf(cmd.OutOrStdout(), "  %s %d value(s)\n",
			color.New(color.Faint).Sprint(output.ShortEntryID(e)), len(e.Values))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
