// ABOUTME: CLI commands for querying raw series and latest values.
// ABOUTME: Supports inclusive --from/--to range bounds.
package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/vitals/internal/storage"
	"github.com/spf13/cobra"
)

var (
	seriesFrom string
	seriesTo   string
)

var seriesCmd = &cobra.Command{
	Use:     "series <subject-id> <metric>",
	Aliases: []string{"s"},
	Short:   "Query a raw observation series",
	Long: `Query the raw time series for a subject and metric, ascending by
observation time.

Both range bounds are inclusive. An omitted --from means "since the
beginning"; an omitted --to means "until now".

Examples:
  vitals series 1 weight
  vitals series 1 weight --from 2024-01-01
  vitals series 1 16 --from 2024-01-01 --to 2024-06-30`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		subjectID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid subject id: %s", args[0])
		}

		metric, err := resolveMetric(args[1])
		if err != nil {
			return err
		}

		rng, err := parseRangeFlags(seriesFrom, seriesTo)
		if err != nil {
			return err
		}

		series, err := svc.QuerySeries(subjectID, metric.ID, rng)
		if err != nil {
			return fmt.Errorf("failed to query series: %w", err)
		}

		if len(series.Points) == 0 {
			fmt.Println("No observations found.")
			return nil
		}

		faint := color.New(color.Faint)
		fmt.Printf("%s (%s)\n", series.Metric.Name, series.Metric.Code)
		for _, p := range series.Points {
			fmt.Printf("  %s %s %s\n",
				faint.Sprint(p.ObservedAt.Format("2006-01-02 15:04")),
				p.Value, series.Metric.Unit)
		}

		return nil
	},
}

var latestCmd = &cobra.Command{
	Use:   "latest <subject-id> <metric>",
	Short: "Show the most recent observation",
	Long: `Show the most recent observation for a subject and metric, by
observation time.

Examples:
  vitals latest 1 weight
  vitals latest 1 16`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		subjectID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid subject id: %s", args[0])
		}

		metric, err := resolveMetric(args[1])
		if err != nil {
			return err
		}

		o, err := svc.Latest(subjectID, metric.ID)
		if err != nil {
			return fmt.Errorf("failed to get latest: %w", err)
		}

		fmt.Printf("%s %s %s %s\n",
			color.New(color.Faint).Sprint(o.ObservedAt.Format("2006-01-02 15:04")),
			metric.Code, o.Value, metric.Unit)

		return nil
	},
}

// parseRangeFlags builds an inclusive range from the --from/--to strings.
func parseRangeFlags(from, to string) (storage.Range, error) {
	var rng storage.Range
	if from != "" {
		t, err := parseTime(from)
		if err != nil {
			return rng, fmt.Errorf("invalid --from: %s", from)
		}
		rng.From = &t
	}
	if to != "" {
		t, err := parseTime(to)
		if err != nil {
			return rng, fmt.Errorf("invalid --to: %s", to)
		}
		rng.To = &t
	}
	return rng, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func init() {
	seriesCmd.Flags().StringVar(&seriesFrom, "from", "", "range start, inclusive (YYYY-MM-DD)")
	seriesCmd.Flags().StringVar(&seriesTo, "to", "", "range end, inclusive (YYYY-MM-DD)")
	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(latestCmd)
}
