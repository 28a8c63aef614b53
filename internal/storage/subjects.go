// ABOUTME: Subject operations for SQLite storage.
// ABOUTME: Subjects are insert-only identity anchors.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/vitals/internal/models"
)

// CreateSubject inserts a new subject and assigns its ID.
func (d *DB) CreateSubject(s *models.Subject) error {
	if err := s.Validate(); err != nil {
		return err
	}

	res, err := d.db.Exec(
		`INSERT INTO subjects (kind, created_at) VALUES (?, ?)`,
		string(s.Kind),
		s.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return &models.StorageError{Op: "create subject", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return &models.StorageError{Op: "create subject", Err: err}
	}
	s.ID = id
	return nil
}

// GetSubject retrieves a subject by ID.
func (d *DB) GetSubject(id int64) (*models.Subject, error) {
	row := d.db.QueryRow(`SELECT id, kind, created_at FROM subjects WHERE id = ?`, id)

	var s models.Subject
	var kind, createdAt string
	if err := row.Scan(&s.ID, &kind, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &models.NotFoundError{Entity: "subject", ID: id}
		}
		return nil, &models.StorageError{Op: "get subject", Err: err}
	}

	s.Kind = models.SubjectKind(kind)
	s.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &s, nil
}

// SubjectExists reports whether a subject with the given ID exists.
func (d *DB) SubjectExists(id int64) (bool, error) {
	var n int
	err := d.db.QueryRow(`SELECT COUNT(1) FROM subjects WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, &models.StorageError{Op: "subject exists", Err: err}
	}
	return n > 0, nil
}

// ListSubjects retrieves subjects ordered by ID.
func (d *DB) ListSubjects(page Page) ([]*models.Subject, error) {
	query := `SELECT id, kind, created_at FROM subjects ORDER BY id`
	query, args := applyPage(query, nil, page)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, &models.StorageError{Op: "list subjects", Err: err}
	}
	defer rows.Close()

	var subjects []*models.Subject
	for rows.Next() {
		var s models.Subject
		var kind, createdAt string
		if err := rows.Scan(&s.ID, &kind, &createdAt); err != nil {
			return nil, &models.StorageError{Op: "scan subject", Err: err}
		}
		s.Kind = models.SubjectKind(kind)
		s.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		subjects = append(subjects, &s)
	}

	return subjects, rows.Err()
}

// importSubject inserts a subject preserving its original ID.
func (d *DB) importSubject(s *models.Subject) error {
	_, err := d.db.Exec(
		`INSERT INTO subjects (id, kind, created_at) VALUES (?, ?, ?)`,
		s.ID,
		string(s.Kind),
		s.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("import subject %d: %w", s.ID, err)
	}
	return nil
}

// applyPage appends LIMIT/OFFSET clauses for a Page.
func applyPage(query string, args []interface{}, page Page) (string, []interface{}) {
	if page.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, page.Limit)
		if page.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, page.Offset)
		}
	} else if page.Offset > 0 {
		// SQLite requires a LIMIT before OFFSET; -1 means unlimited.
		query += " LIMIT -1 OFFSET ?"
		args = append(args, page.Offset)
	}
	return query, args
}
