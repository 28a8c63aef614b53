// ABOUTME: Observation fact log for SQLite storage.
// ABOUTME: Append-only writes and ordered, inclusive range reads.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/vitals/internal/models"
)

// RecordObservation appends a new fact. RecordedAt is always assigned here,
// server-side; a caller-supplied value is ignored. The store trusts its
// referential inputs: subject/metric existence is the service's precondition.
func (d *DB) RecordObservation(o *models.Observation) error {
	o.RecordedAt = time.Now().UTC()

	var sourceID sql.NullInt64
	if o.SourceID != nil {
		sourceID = sql.NullInt64{Int64: *o.SourceID, Valid: true}
	}

	res, err := d.db.Exec(`
		INSERT INTO observations (subject_id, metric_id, value, observed_at, recorded_at, source_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		o.SubjectID,
		o.MetricID,
		string(o.Value),
		o.ObservedAt.UTC().UnixNano(),
		o.RecordedAt.UnixNano(),
		sourceID,
	)
	if err != nil {
		return &models.StorageError{Op: "record observation", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return &models.StorageError{Op: "record observation", Err: err}
	}
	o.ID = id
	return nil
}

// QuerySeries returns all observations for a (subject, metric) pair within
// the inclusive range, ordered ascending by observed_at. Rows are consumed
// through the driver cursor, so memory stays bounded on large ranges even
// though the returned slice is fully materialized.
func (d *DB) QuerySeries(subjectID, metricID int64, rng Range) ([]models.Point, error) {
	query := `
		SELECT value, observed_at
		FROM observations
		WHERE subject_id = ? AND metric_id = ?`
	args := []interface{}{subjectID, metricID}
	query, args = appendRange(query, args, rng)
	query += " ORDER BY observed_at ASC"

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, &models.StorageError{Op: "query series", Err: err}
	}
	defer rows.Close()

	var points []models.Point
	for rows.Next() {
		var value string
		var observedNanos int64
		if err := rows.Scan(&value, &observedNanos); err != nil {
			return nil, &models.StorageError{Op: "scan point", Err: err}
		}
		points = append(points, models.Point{
			Value:      models.ObservationValue(value),
			ObservedAt: time.Unix(0, observedNanos).UTC(),
		})
	}

	return points, rows.Err()
}

// LatestObservation returns the most recent observation by observed_at for
// a (subject, metric) pair.
func (d *DB) LatestObservation(subjectID, metricID int64) (*models.Observation, error) {
	row := d.db.QueryRow(`
		SELECT id, subject_id, metric_id, value, observed_at, recorded_at, source_id
		FROM observations
		WHERE subject_id = ? AND metric_id = ?
		ORDER BY observed_at DESC
		LIMIT 1`, subjectID, metricID)

	o, err := scanObservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no observations for subject %d metric %d: %w",
				subjectID, metricID, models.ErrNotFound)
		}
		return nil, err
	}
	return o, nil
}

// listObservations returns every observation ordered by ID, for export.
func (d *DB) listObservations() ([]*models.Observation, error) {
	rows, err := d.db.Query(`
		SELECT id, subject_id, metric_id, value, observed_at, recorded_at, source_id
		FROM observations ORDER BY id`)
	if err != nil {
		return nil, &models.StorageError{Op: "list observations", Err: err}
	}
	defer rows.Close()

	var observations []*models.Observation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		observations = append(observations, o)
	}
	return observations, rows.Err()
}

// importObservation inserts an observation preserving its original ID and
// recorded_at. Import replays history; it is not a fresh record.
func (d *DB) importObservation(o *models.Observation) error {
	var sourceID sql.NullInt64
	if o.SourceID != nil {
		sourceID = sql.NullInt64{Int64: *o.SourceID, Valid: true}
	}

	_, err := d.db.Exec(`
		INSERT INTO observations (id, subject_id, metric_id, value, observed_at, recorded_at, source_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ID,
		o.SubjectID,
		o.MetricID,
		string(o.Value),
		o.ObservedAt.UTC().UnixNano(),
		o.RecordedAt.UTC().UnixNano(),
		sourceID,
	)
	if err != nil {
		return fmt.Errorf("import observation %d: %w", o.ID, err)
	}
	return nil
}

// appendRange adds inclusive observed_at bounds to a WHERE clause.
func appendRange(query string, args []interface{}, rng Range) (string, []interface{}) {
	if rng.From != nil {
		query += " AND observed_at >= ?"
		args = append(args, rng.From.UTC().UnixNano())
	}
	if rng.To != nil {
		query += " AND observed_at <= ?"
		args = append(args, rng.To.UTC().UnixNano())
	}
	return query, args
}

// scanObservation scans a single row into an Observation struct.
func scanObservation(row scanner) (*models.Observation, error) {
	var o models.Observation
	var value string
	var observedNanos, recordedNanos int64
	var sourceID sql.NullInt64

	err := row.Scan(&o.ID, &o.SubjectID, &o.MetricID, &value, &observedNanos, &recordedNanos, &sourceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, &models.StorageError{Op: "scan observation", Err: err}
	}

	o.Value = models.ObservationValue(value)
	o.ObservedAt = time.Unix(0, observedNanos).UTC()
	o.RecordedAt = time.Unix(0, recordedNanos).UTC()
	if sourceID.Valid {
		o.SourceID = &sourceID.Int64
	}
	return &o, nil
}
