// ABOUTME: CLI command for first-run setup.
// ABOUTME: Writes the config file and tracks the default metrics.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/moody/internal/config"
	"github.com/harperreed/moody/internal/storage"
)

var (
	initBackend string
	initDataDir string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up moody and track the default metrics",
	Long: `Set up moody for the current owner.

Writes ~/.config/moody/config.json when it does not exist yet (or when
--backend/--data-dir are given), then tracks Mood and Sleep Duration with
their default baselines. Owners who already track something are left alone.

EXAMPLES:

  moody init
  moody init --backend badger
  moody init --data-dir ~/Dropbox/moody`,
	Annotations: map[string]string{skipStorage: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		_, statErr := os.Stat(config.GetConfigPath())
		changed := cmd.Flags().Changed("backend") || cmd.Flags().Changed("data-dir")
		if initBackend != "" {
			if initBackend != config.BackendSQLite && initBackend != config.BackendBadger {
				return fmt.Errorf("unknown backend: %s (use sqlite or badger)", initBackend)
			}
			cfg.Backend = initBackend
		}
		if initDataDir != "" {
			cfg.DataDir = initDataDir
		}
		if os.IsNotExist(statErr) || changed {
			if err := cfg.Save(); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			color.Green("✓ Wrote %s", config.GetConfigPath())
		}

		if err := openStorage(cmd.Context()); err != nil {
			return err
		}
		n, err := storage.ConfigureDefaultTracking(cmd.Context(), repo, owner)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if n == 0 {
			fmt.Fprintf(w, "Already set up for %s.\n", owner)
		} else {
			color.Green("✓ Tracking %d default metric(s) for %s", n, owner)
		}
		where := cfg.StoragePath()
		if dbPath != "" {
			where = dbPath
		}
		fmt.Fprintf(w, "  backend: %s\n  data:    %s\n", cfg.GetBackend(), where)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initBackend, "backend", "", "storage backend: sqlite or badger")
	initCmd.Flags().StringVar(&initDataDir, "data-dir", "", "data directory (default ~/.local/share/moody)")
	rootCmd.AddCommand(initCmd)
}
