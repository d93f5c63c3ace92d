// ABOUTME: CLI command for listing recent entries.
// ABOUTME: Newest first, limited by --limit.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harperreed/moody/internal/output"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List recent entries",
	Long: `List recent entries, newest first.

Each row shows: ID  RECORDED  VALUES  COMMENT

The ID is a prefix you can pass to 'moody delete'.

EXAMPLES:

  moody list           # Last 20 entries
  moody list -n 100    # Last 100 entries`,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := repo.ListEntries(cmd.Context(), owner, listLimit)
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), output.Entries(entries))
		return nil
	},
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "max number of results")
	rootCmd.AddCommand(listCmd)
}
