// ABOUTME: DataSource operations for SQLite storage.
// ABOUTME: Provenance tags referenced by observations.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/vitals/internal/models"
)

// CreateDataSource inserts a new data source and assigns its ID.
func (d *DB) CreateDataSource(s *models.DataSource) error {
	if err := s.Validate(); err != nil {
		return err
	}

	var metadata sql.NullString
	if len(s.Metadata) > 0 {
		metadata = sql.NullString{String: string(s.Metadata), Valid: true}
	}

	res, err := d.db.Exec(`
		INSERT INTO data_sources (kind, name, metadata, created_at)
		VALUES (?, ?, ?, ?)`,
		string(s.Kind),
		s.Name,
		metadata,
		s.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return &models.StorageError{Op: "create data source", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return &models.StorageError{Op: "create data source", Err: err}
	}
	s.ID = id
	return nil
}

// GetDataSource retrieves a data source by ID.
func (d *DB) GetDataSource(id int64) (*models.DataSource, error) {
	row := d.db.QueryRow(`
		SELECT id, kind, name, metadata, created_at
		FROM data_sources WHERE id = ?`, id)

	s, err := scanDataSource(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &models.NotFoundError{Entity: "source", ID: id}
		}
		return nil, err
	}
	return s, nil
}

// ListDataSources retrieves data sources ordered by ID.
func (d *DB) ListDataSources(page Page) ([]*models.DataSource, error) {
	query := `SELECT id, kind, name, metadata, created_at FROM data_sources ORDER BY id`
	query, args := applyPage(query, nil, page)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, &models.StorageError{Op: "list data sources", Err: err}
	}
	defer rows.Close()

	var sources []*models.DataSource
	for rows.Next() {
		s, err := scanDataSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// importDataSource inserts a data source preserving its original ID.
func (d *DB) importDataSource(s *models.DataSource) error {
	var metadata sql.NullString
	if len(s.Metadata) > 0 {
		metadata = sql.NullString{String: string(s.Metadata), Valid: true}
	}

	_, err := d.db.Exec(`
		INSERT INTO data_sources (id, kind, name, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		s.ID,
		string(s.Kind),
		s.Name,
		metadata,
		s.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("import data source %d: %w", s.ID, err)
	}
	return nil
}

// scanDataSource scans a single row into a DataSource struct.
func scanDataSource(row scanner) (*models.DataSource, error) {
	var s models.DataSource
	var kind, createdAt string
	var metadata sql.NullString

	err := row.Scan(&s.ID, &kind, &s.Name, &metadata, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, &models.StorageError{Op: "scan data source", Err: err}
	}

	s.Kind = models.SourceKind(kind)
	if metadata.Valid {
		s.Metadata = json.RawMessage(metadata.String)
	}
	s.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &s, nil
}
