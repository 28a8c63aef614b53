// ABOUTME: CLI commands for managing the metric catalog.
// ABOUTME: Add, list, and deprecate metric definitions.
package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/harperreed/vitals/internal/models"
	"github.com/harperreed/vitals/internal/storage"
	"github.com/spf13/cobra"
)

var (
	metricUnit string
	metricViz  string
	metricAll  bool
)

var metricCmd = &cobra.Command{
	Use:     "metric",
	Aliases: []string{"m"},
	Short:   "Manage metric definitions",
	Long: `Manage the metric catalog.

A metric defines something observable: a unique code, a display name, a
value type, and presentation hints. Observations reference metrics;
deleting a metric is not supported, only deprecating it.`,
}

var metricAddCmd = &cobra.Command{
	Use:   "add <code> <name> <value-type>",
	Short: "Define a new metric",
	Long: `Define a new metric.

Value types: integer, float, decimal, boolean, text
Visualizations: line_chart, bar_chart, value_list, single_value

Examples:
  vitals metric add weight Weight float --unit kg
  vitals metric add mood Mood integer --viz bar_chart
  vitals metric add notes "Daily notes" text --viz value_list`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := models.NewMetric(args[0], args[1], models.ValueType(args[2]))
		if metricUnit != "" {
			m.WithUnit(metricUnit)
		}
		if metricViz != "" {
			m.WithVisualization(models.Visualization(metricViz))
		}

		if err := svc.CreateMetric(m); err != nil {
			return fmt.Errorf("failed to create metric: %w", err)
		}

		color.Green("✓ Added metric %s", m.Code)
		fmt.Printf("  %s %s (%s)\n",
			color.New(color.Faint).Sprintf("#%d", m.ID),
			m.Name, m.ValueType)
		return nil
	},
}

var metricListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List metrics",
	Long: `List metrics from the catalog.

By default only active metrics are shown, ordered by name. Use --all to
include deprecated metrics, ordered by id.

Examples:
  vitals metric list
  vitals metric list --all`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var metrics []*models.Metric
		var err error
		if metricAll {
			metrics, err = repo.ListMetrics(storage.Page{})
		} else {
			metrics, err = svc.ListSelectableMetrics()
		}
		if err != nil {
			return fmt.Errorf("failed to list metrics: %w", err)
		}

		if len(metrics) == 0 {
			fmt.Println("No metrics found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, m := range metrics {
			status := ""
			if m.Status == models.MetricDeprecated {
				status = faint.Sprint(" (deprecated)")
			}
			unit := ""
			if m.Unit != "" {
				unit = " " + m.Unit
			}
			fmt.Printf("%s %s %s%s%s\n",
				faint.Sprintf("#%-4d", m.ID),
				padRight(m.Code, 20),
				m.Name, unit, status)
		}
		return nil
	},
}

var metricDeprecateCmd = &cobra.Command{
	Use:   "deprecate <id>",
	Short: "Deprecate a metric",
	Long: `Deprecate a metric so it no longer appears in selectable listings.

Historical observations of a deprecated metric remain stored and
queryable.

Examples:
  vitals metric deprecate 7`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid metric id: %s", args[0])
		}

		if err := svc.DeprecateMetric(id); err != nil {
			return fmt.Errorf("failed to deprecate metric: %w", err)
		}

		color.Green("✓ Deprecated metric #%d", id)
		return nil
	},
}

func init() {
	metricAddCmd.Flags().StringVar(&metricUnit, "unit", "", "display unit")
	metricAddCmd.Flags().StringVar(&metricViz, "viz", "", "visualization hint")
	metricListCmd.Flags().BoolVar(&metricAll, "all", false, "include deprecated metrics")

	metricCmd.AddCommand(metricAddCmd)
	metricCmd.AddCommand(metricListCmd)
	metricCmd.AddCommand(metricDeprecateCmd)
	rootCmd.AddCommand(metricCmd)
}
