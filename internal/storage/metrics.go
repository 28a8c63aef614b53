// ABOUTME: Metric catalog operations for SQLite storage.
// ABOUTME: Create, get, list, and one-way deprecation.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/vitals/internal/models"
)

// CreateMetric inserts a new metric definition and assigns its ID.
func (d *DB) CreateMetric(m *models.Metric) error {
	if err := m.Validate(); err != nil {
		return err
	}

	res, err := d.db.Exec(`
		INSERT INTO metrics (code, name, unit, value_type, visualization, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.Code,
		m.Name,
		m.Unit,
		string(m.ValueType),
		string(m.Visualization),
		string(m.Status),
		m.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return &models.StorageError{Op: "create metric", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return &models.StorageError{Op: "create metric", Err: err}
	}
	m.ID = id
	return nil
}

// GetMetric retrieves a metric by ID.
func (d *DB) GetMetric(id int64) (*models.Metric, error) {
	row := d.db.QueryRow(`
		SELECT id, code, name, unit, value_type, visualization, status, created_at
		FROM metrics WHERE id = ?`, id)

	m, err := scanMetric(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &models.NotFoundError{Entity: "metric", ID: id}
		}
		return nil, err
	}
	return m, nil
}

// GetMetricByCode retrieves a metric by its unique code.
func (d *DB) GetMetricByCode(code string) (*models.Metric, error) {
	row := d.db.QueryRow(`
		SELECT id, code, name, unit, value_type, visualization, status, created_at
		FROM metrics WHERE code = ?`, code)

	m, err := scanMetric(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("metric %q: %w", code, models.ErrNotFound)
		}
		return nil, err
	}
	return m, nil
}

// MetricExists reports whether a metric with the given ID exists.
func (d *DB) MetricExists(id int64) (bool, error) {
	var n int
	err := d.db.QueryRow(`SELECT COUNT(1) FROM metrics WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, &models.StorageError{Op: "metric exists", Err: err}
	}
	return n > 0, nil
}

// ListMetrics retrieves all metrics ordered by ID.
func (d *DB) ListMetrics(page Page) ([]*models.Metric, error) {
	query := `
		SELECT id, code, name, unit, value_type, visualization, status, created_at
		FROM metrics ORDER BY id`
	query, args := applyPage(query, nil, page)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, &models.StorageError{Op: "list metrics", Err: err}
	}
	defer rows.Close()

	return scanMetrics(rows)
}

// ListSelectableMetrics retrieves active metrics ordered by name.
// Deprecated metrics stay valid for history but are not offered here.
func (d *DB) ListSelectableMetrics() ([]*models.Metric, error) {
	rows, err := d.db.Query(`
		SELECT id, code, name, unit, value_type, visualization, status, created_at
		FROM metrics
		WHERE status = ?
		ORDER BY name`, string(models.MetricActive))
	if err != nil {
		return nil, &models.StorageError{Op: "list selectable metrics", Err: err}
	}
	defer rows.Close()

	return scanMetrics(rows)
}

// DeprecateMetric moves a metric to deprecated status. One way only.
func (d *DB) DeprecateMetric(id int64) error {
	res, err := d.db.Exec(`UPDATE metrics SET status = ? WHERE id = ?`,
		string(models.MetricDeprecated), id)
	if err != nil {
		return &models.StorageError{Op: "deprecate metric", Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return &models.StorageError{Op: "deprecate metric", Err: err}
	}
	if affected == 0 {
		return &models.NotFoundError{Entity: "metric", ID: id}
	}
	return nil
}

// importMetric inserts a metric preserving its original ID.
func (d *DB) importMetric(m *models.Metric) error {
	_, err := d.db.Exec(`
		INSERT INTO metrics (id, code, name, unit, value_type, visualization, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID,
		m.Code,
		m.Name,
		m.Unit,
		string(m.ValueType),
		string(m.Visualization),
		string(m.Status),
		m.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("import metric %d: %w", m.ID, err)
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for the scan helpers.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanMetric scans a single row into a Metric struct.
func scanMetric(row scanner) (*models.Metric, error) {
	var m models.Metric
	var valueType, visualization, status, createdAt string

	err := row.Scan(&m.ID, &m.Code, &m.Name, &m.Unit, &valueType, &visualization, &status, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, &models.StorageError{Op: "scan metric", Err: err}
	}

	m.ValueType = models.ValueType(valueType)
	m.Visualization = models.Visualization(visualization)
	m.Status = models.MetricStatus(status)
	m.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &m, nil
}

// scanMetrics scans multiple rows into a slice of Metrics.
func scanMetrics(rows *sql.Rows) ([]*models.Metric, error) {
	var metrics []*models.Metric
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}
