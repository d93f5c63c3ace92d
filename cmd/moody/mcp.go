// ABOUTME: CLI command for starting the MCP server.
// ABOUTME: Runs a stdio MCP server for AI assistant integration.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harperreed/moody/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

The server acts for the configured owner and talks over stdin/stdout.

CLAUDE DESKTOP CONFIGURATION:

  {
    "mcpServers": {
      "moody": {
        "command": "moody",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  add_entry         Log an entry (metric -> label or number)
  list_entries      Recent entries
  delete_entry      Delete an entry by ID
  list_metrics      Tracked, personal and system metrics
  metric_options    Values a metric accepts
  get_stats         Averages, trends and correlations
  get_chart         Daily averages for a month or range
  get_heatmap       A year of one metric
  get_distribution  How often each value was logged

AVAILABLE RESOURCES:

  moody://recent    Last 10 entries
  moody://stats     Overview, trends and correlations`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(repo, owner, log)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
