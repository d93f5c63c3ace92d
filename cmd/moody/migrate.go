// ABOUTME: CLI command for moving data between storage backends.
// ABOUTME: Copies the owner's metrics, tracking and entries from one backend to another.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/harperreed/moody/internal/config"
	"github.com/harperreed/moody/internal/storage"
)

var (
	migrateFrom  string
	migrateTo    string
	migrateForce bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy data between storage backends",
	Long: `Copy your data from one storage backend to another.

Both backends live under the configured data directory:

  sqlite   <data_dir>/moody.db
  badger   <data_dir>/kv/

Records already present in the destination are kept. The destination must
hold no data of yours unless --force is given.

AFTER MIGRATION:

  Point moody at the new backend:
    MOODY_BACKEND=badger moody list
  or set "backend" in ~/.config/moody/config.json.

EXAMPLES:

  moody migrate --from sqlite --to badger
  moody migrate --from badger --to sqlite --force`,
	Annotations: map[string]string{skipStorage: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if migrateFrom == migrateTo {
			return fmt.Errorf("source and destination are both %s", migrateFrom)
		}
		dataDir := cfg.GetDataDir()

		src, err := config.OpenBackend(migrateFrom, dataDir, storage.WithLogger(log))
		if err != nil {
			return fmt.Errorf("failed to open source: %w", err)
		}
		defer func() { _ = src.Close() }()

		dst, err := config.OpenBackend(migrateTo, dataDir, storage.WithLogger(log))
		if err != nil {
			return fmt.Errorf("failed to open destination: %w", err)
		}
		defer func() { _ = dst.Close() }()

		if !migrateForce {
			empty, err := storage.SourceEmpty(ctx, dst, owner)
			if err != nil {
				return fmt.Errorf("failed to inspect destination: %w", err)
			}
			if !empty {
				return fmt.Errorf("destination %s already has data for %s (use --force to merge)", migrateTo, owner)
			}
		}

		log.WithFields(logrus.Fields{"from": migrateFrom, "to": migrateTo, "owner": owner}).Info("migrating")
		summary, err := storage.MigrateData(ctx, src, dst, owner)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		color.Green("✓ Migrated %s → %s", migrateFrom, migrateTo)
		fmt.Fprintf(cmd.OutOrStdout(), "  %d metric(s), %d default(s), %d tracked, %d entr(ies), %d value(s)\n",
			summary.Metrics, summary.Defaults, summary.Tracking, summary.Entries, summary.Values)
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateFrom, "from", config.BackendSQLite, "source backend: sqlite or badger")
	migrateCmd.Flags().StringVar(&migrateTo, "to", config.BackendBadger, "destination backend: sqlite or badger")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "merge into a destination that already has data")
	rootCmd.AddCommand(migrateCmd)
}
