// ABOUTME: CLI commands for managing data sources.
// ABOUTME: Provenance labels observations can optionally reference.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/vitals/internal/models"
	"github.com/harperreed/vitals/internal/storage"
	"github.com/spf13/cobra"
)

var sourceMeta string

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Manage data sources",
	Long: `Manage data sources: where observations came from.

Sources are optional provenance. Kinds: device, manual, import, system.`,
}

var sourceAddCmd = &cobra.Command{
	Use:   "add <kind> <name>",
	Short: "Register a data source",
	Long: `Register a data source.

The --meta flag attaches a free-form JSON metadata blob.

Examples:
  vitals source add device "bathroom scale"
  vitals source add device scale --meta '{"model":"mi-2"}'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := models.NewDataSource(models.SourceKind(args[0]), args[1])
		if sourceMeta != "" {
			source.WithMetadata([]byte(sourceMeta))
		}

		if err := svc.CreateDataSource(source); err != nil {
			return fmt.Errorf("failed to add source: %w", err)
		}

		color.Green("✓ Added %s source %s", source.Kind, source.Name)
		fmt.Printf("  %s\n", color.New(color.Faint).Sprintf("#%d", source.ID))
		return nil
	},
}

var sourceListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List data sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		sources, err := repo.ListDataSources(storage.Page{})
		if err != nil {
			return fmt.Errorf("failed to list sources: %w", err)
		}

		if len(sources) == 0 {
			fmt.Println("No sources found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, s := range sources {
			fmt.Printf("%s %s %s\n",
				faint.Sprintf("#%-4d", s.ID),
				padRight(string(s.Kind), 8),
				s.Name)
		}
		return nil
	},
}

func init() {
	sourceAddCmd.Flags().StringVar(&sourceMeta, "meta", "", "JSON metadata blob")

	sourceCmd.AddCommand(sourceAddCmd)
	sourceCmd.AddCommand(sourceListCmd)
	rootCmd.AddCommand(sourceCmd)
}
