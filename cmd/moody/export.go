// ABOUTME: CLI commands for exporting and importing moody data.
// ABOUTME: Supports JSON, YAML, and Markdown export formats.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/moody/internal/storage"
)

var (
	exportOutput string
	exportSince  string
)

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export your data",
	Long: `Export your metrics, tracking and entries.

FORMATS:

  json       Full JSON export (suitable for backup/restore)
  yaml       YAML export grouped by metric (human-readable)
  markdown   One table row per entry (for notes/sharing)

OPTIONS:

  --output, -o   Write to file instead of stdout
  --since        Only include entries since this date (markdown only, YYYY-MM-DD)

EXAMPLES:

  moody export json                         # Export all data as JSON
  moody export json -o backup.json          # Save to file
  moody export yaml                         # Export as YAML
  moody export markdown --since 2026-01-01  # Entries from 2026 onward`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "yaml", "markdown"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var (
			data []byte
			err  error
		)
		switch args[0] {
		case "json":
			data, err = storage.ExportJSON(ctx, repo, owner)
		case "yaml":
			data, err = storage.ExportYAML(ctx, repo, owner)
		case "markdown", "md":
			var since *time.Time
			if exportSince != "" {
				t, perr := time.ParseInLocation("2006-01-02", exportSince, time.Local)
				if perr != nil {
					return fmt.Errorf("invalid date format: %s (use YYYY-MM-DD)", exportSince)
				}
				since = &t
			}
			var md string
			md, err = storage.ExportMarkdown(ctx, repo, owner, since)
			data = []byte(md)
		default:
			return fmt.Errorf("unknown format: %s (use json, yaml, or markdown)", args[0])
		}
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, data, 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			color.Green("✓ Exported to %s", exportOutput)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import data from a JSON export",
	Long: `Import metrics, tracking and entries from a JSON export.

Records that already exist (same ID) are skipped, so importing the same
file twice is safe. Imported data belongs to the current owner.

EXAMPLES:

  moody import backup.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		summary, err := storage.ImportJSON(cmd.Context(), repo, owner, raw)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		color.Green("✓ Imported from %s", args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "  %d metric(s), %d tracked, %d entr(ies), %d skipped\n",
			summary.Metrics, summary.Tracking, summary.Entries, summary.Skipped)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().StringVar(&exportSince, "since", "", "only include entries since date (YYYY-MM-DD)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
