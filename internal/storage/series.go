// ABOUTME: Time-aligned multi-series reader feeding derived-metric evaluation.
// ABOUTME: One ordered scan pivoted into per-timestamp dependency rows.
package storage

import (
	"strings"
	"time"

	"github.com/harperreed/vitals/internal/models"
)

// QueryAligned pivots the subject's observations over the dependency metric
// set into one row per distinct observed_at timestamp, ascending. A row
// exists for every instant at which at least one dependency has an
// observation; dependencies silent at that instant are simply absent from
// the row's map. Grouping is exact timestamp equality: readings one
// nanosecond apart are never merged.
func (d *DB) QueryAligned(subjectID int64, metricIDs []int64, rng Range) ([]AlignedRow, error) {
	if len(metricIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT metric_id, value, observed_at
		FROM observations
		WHERE subject_id = ? AND metric_id IN (` + placeholders(len(metricIDs)) + `)`
	args := make([]interface{}, 0, len(metricIDs)+3)
	args = append(args, subjectID)
	for _, id := range metricIDs {
		args = append(args, id)
	}
	query, args = appendRange(query, args, rng)
	query += " ORDER BY observed_at ASC, metric_id ASC"

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, &models.StorageError{Op: "query aligned", Err: err}
	}
	defer rows.Close()

	// The scan arrives ordered by observed_at, so rows can be folded in a
	// single pass: a timestamp change closes the current row.
	var aligned []AlignedRow
	var current *AlignedRow
	var currentNanos int64

	for rows.Next() {
		var metricID int64
		var value string
		var observedNanos int64
		if err := rows.Scan(&metricID, &value, &observedNanos); err != nil {
			return nil, &models.StorageError{Op: "scan aligned row", Err: err}
		}

		if current == nil || observedNanos != currentNanos {
			aligned = append(aligned, AlignedRow{
				ObservedAt: time.Unix(0, observedNanos).UTC(),
				Values:     make(map[int64]models.ObservationValue, len(metricIDs)),
			})
			current = &aligned[len(aligned)-1]
			currentNanos = observedNanos
		}
		current.Values[metricID] = models.ObservationValue(value)
	}

	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: "query aligned", Err: err}
	}
	return aligned, nil
}

// placeholders returns n comma-separated SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
