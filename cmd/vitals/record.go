// ABOUTME: CLI command for recording observations.
// ABOUTME: Resolves metrics by id or code and handles the --at timestamp.
package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/vitals/internal/models"
	"github.com/spf13/cobra"
)

var (
	recordAt     string
	recordSource int64
)

var recordCmd = &cobra.Command{
	Use:     "record <subject-id> <metric> <value>",
	Aliases: []string{"r"},
	Short:   "Record an observation",
	Long: `Record one observed value for a subject and metric.

The metric can be given by numeric id or by its code. The value is stored
as text exactly as given; its meaning comes from the metric's value type
at read time.

The --at flag sets the business timestamp (when the value was observed).
The write timestamp is always assigned by the store.

Examples:
  vitals record 1 weight 82.5
  vitals record 1 glucose_fasting 5.4 --at "2024-12-14 07:00"
  vitals record 1 16 1.7 --source 2`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		subjectID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid subject id: %s", args[0])
		}

		metric, err := resolveMetric(args[1])
		if err != nil {
			return err
		}

		observedAt := time.Now().UTC()
		if recordAt != "" {
			observedAt, err = parseTime(recordAt)
			if err != nil {
				return fmt.Errorf("invalid timestamp: %s", recordAt)
			}
		}

		var sourceID *int64
		if recordSource > 0 {
			sourceID = &recordSource
		}

		o, err := svc.RecordObservation(subjectID, metric.ID,
			models.ObservationValue(args[2]), observedAt, sourceID)
		if err != nil {
			return fmt.Errorf("failed to record observation: %w", err)
		}

		color.Green("✓ Recorded %s", metric.Code)
		fmt.Printf("  %s %s %s\n",
			color.New(color.Faint).Sprintf("#%d", o.ID),
			o.Value, metric.Unit)

		return nil
	},
}

// resolveMetric accepts a numeric id or a metric code.
func resolveMetric(arg string) (*models.Metric, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		m, err := repo.GetMetric(id)
		if err != nil {
			return nil, fmt.Errorf("metric %d: %w", id, err)
		}
		return m, nil
	}
	m, err := repo.GetMetricByCode(arg)
	if err != nil {
		return nil, fmt.Errorf("metric %q: %w", arg, err)
	}
	return m, nil
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"2006-01-02",
		time.RFC3339,
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format")
}

func init() {
	recordCmd.Flags().StringVar(&recordAt, "at", "", "observation timestamp (YYYY-MM-DD HH:MM)")
	recordCmd.Flags().Int64Var(&recordSource, "source", 0, "data source id")
	rootCmd.AddCommand(recordCmd)
}
