// ABOUTME: CLI command for migrating data between storage backends.
// ABOUTME: Copies the full snapshot from the current backend to the target.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/vitals/internal/charm"
	"github.com/harperreed/vitals/internal/config"
	"github.com/harperreed/vitals/internal/storage"
	"github.com/spf13/cobra"
)

var migrateDryRun bool

var migrateCmd = &cobra.Command{
	Use:   "migrate <target-backend>",
	Short: "Migrate data to another backend",
	Long: `Migrate all data from the currently configured backend to another one.

TARGETS:

  sqlite   Local SQLite database (~/.local/share/vitals/vitals.db)
  charm    Charm Cloud KV (E2E encrypted, synced across devices)

The migration copies the full snapshot with ids preserved. The target
should be empty; duplicate ids cause errors. The source is never
modified, and the config is not switched automatically.

USAGE:

  vitals migrate charm --dry-run   # Preview what would be migrated
  vitals migrate charm             # Copy everything to Charm KV

  Then set "backend": "charm" in ~/.config/vitals/config.json.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"sqlite", "charm"},
	RunE: func(cmd *cobra.Command, args []string) error {
		target := args[0]
		if target == cfg.GetBackend() {
			return fmt.Errorf("already using the %s backend", target)
		}

		snapshot, err := repo.GetAllData()
		if err != nil {
			return fmt.Errorf("failed to read source data: %w", err)
		}

		fmt.Printf("Source backend: %s\n", cfg.GetBackend())
		fmt.Printf("  %d subjects, %d metrics, %d recipes, %d sources, %d observations\n",
			len(snapshot.Subjects), len(snapshot.Metrics), len(snapshot.Recipes),
			len(snapshot.Sources), len(snapshot.Observations))

		if migrateDryRun {
			color.Yellow("Dry run mode - no changes made")
			return nil
		}

		targetCfg := &config.Config{Backend: target, DataDir: cfg.DataDir}
		dst, err := targetCfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open %s backend: %w", target, err)
		}
		// The charm client is process-global; only close throwaway stores.
		if _, shared := dst.(*charm.Client); !shared {
			defer dst.Close()
		}

		summary, err := storage.MigrateData(repo, dst)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		color.Green("✓ Migrated to %s", target)
		fmt.Printf("  %d subjects, %d metrics, %d recipes, %d sources, %d observations\n",
			summary.Subjects, summary.Metrics, summary.Recipes,
			summary.Sources, summary.Observations)
		fmt.Println()
		fmt.Printf("To switch, set \"backend\": %q in %s\n", target, config.GetConfigPath())

		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "preview migration without making changes")
	rootCmd.AddCommand(migrateCmd)
}
