// ABOUTME: Root Cobra command for the moody CLI.
// ABOUTME: Opens the configured store in PersistentPreRunE and closes it afterwards.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/harperreed/moody/internal/config"
	"github.com/harperreed/moody/internal/insights"
	"github.com/harperreed/moody/internal/logging"
	"github.com/harperreed/moody/internal/output"
	"github.com/harperreed/moody/internal/storage"
)

// skipStorage marks commands that open storage themselves, or not at all.
const skipStorage = "skip-storage"

var (
	repo   storage.Repository
	cfg    *config.Config
	log    *logrus.Logger
	owner  string
	dbPath string

	verbose   bool
	ownerFlag string
)

var rootCmd = &cobra.Command{
	Use:   "moody",
	Short: "Personal mood and metrics tracker",
	Long: `Moody is a CLI for logging how you feel and what you did, then finding
patterns in it.

METRICS:

  Vibe         a labeled scale, e.g. Mood: Depressed (-1) / Neutral (0) / Happy (1)
  Measurement  a number in a range, e.g. Sleep Duration: 0..24
  Moment       something that happened or didn't, e.g. Exercised

  Mood, Sleep Duration and Exercised are built in. Create your own with
  'moody metric create'.

QUICK START:

  $ moody init                                  # Track the default metrics
  $ moody add mood=happy "sleep duration=7.5"   # Log an entry
  $ moody add exercised=yes --fill              # Fill the rest with baselines
  $ moody list                                  # Recent entries
  $ moody chart                                 # Daily averages this month
  $ moody stats                                 # Trends and correlations
  $ moody heatmap mood                          # The year at a glance

MCP INTEGRATION:

  Run 'moody mcp' to start the Model Context Protocol server:

  {
    "mcpServers": {
      "moody": { "command": "moody", "args": ["mcp"] }
    }
  }

DATA STORAGE:

  SQLite at ~/.local/share/moody/moody.db by default. Set "backend": "badger"
  in ~/.config/moody/config.json (or MOODY_BACKEND=badger) to use Badger.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = logging.New(verbose, os.Stderr)
		output.Detect(os.Stdout)

		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		owner = cfg.GetOwner()
		if ownerFlag != "" {
			owner = ownerFlag
		}

		if cmd.Annotations[skipStorage] == "true" {
			return nil
		}
		return openStorage(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeStorage()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func openStorage(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var err error
	if dbPath != "" {
		repo, err = storage.Open(dbPath, storage.WithLogger(log))
	} else {
		repo, err = cfg.OpenStorage(storage.WithLogger(log))
	}
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	if err := storage.SeedSystemMetrics(ctx, repo); err != nil {
		_ = closeStorage()
		return fmt.Errorf("failed to seed system metrics: %w", err)
	}
	log.WithFields(logrus.Fields{"owner": owner, "backend": cfg.GetBackend()}).Debug("storage ready")
	return nil
}

func closeStorage() error {
	if repo == nil {
		return nil
	}
	err := repo.Close()
	repo = nil
	return err
}

// loader builds an insights loader over the open store.
func loader() *insights.Loader {
	return insights.NewLoader(repo, log, time.Local)
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"2006-01-02",
		time.RFC3339,
	}
	for _, f := range formats {
		if t, err := time.ParseInLocation(f, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format")
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "use this SQLite file instead of the configured store")
	rootCmd.PersistentFlags().StringVar(&ownerFlag, "owner", "", "act as this owner (default from config or $USER)")
}
