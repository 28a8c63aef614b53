// ABOUTME: DataSource model, optional provenance tag for observations.
// ABOUTME: Many observations may share one source.
package models

import (
	"encoding/json"
	"time"
)

// SourceKind tags where observation data came from.
type SourceKind string

const (
	SourceDevice SourceKind = "device"
	SourceManual SourceKind = "manual"
	SourceImport SourceKind = "import"
	SourceSystem SourceKind = "system"
)

// KnownSourceKinds lists the well-known source kinds. Any other non-empty
// string is accepted as a free-form kind.
var KnownSourceKinds = []SourceKind{SourceDevice, SourceManual, SourceImport, SourceSystem}

// DataSource describes the provenance of observations that reference it.
type DataSource struct {
	ID        int64
	Kind      SourceKind
	Name      string
	Metadata  json.RawMessage // optional free-form JSON
	CreatedAt time.Time
}

// NewDataSource creates a data source. The ID is assigned by storage on
// insert.
func NewDataSource(kind SourceKind, name string) *DataSource {
	return &DataSource{
		Kind:      kind,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

// WithMetadata attaches free-form JSON metadata.
func (s *DataSource) WithMetadata(meta json.RawMessage) *DataSource {
	s.Metadata = meta
	return s
}

// Validate checks the data source before persistence.
func (s *DataSource) Validate() error {
	if s.Kind == "" {
		return &ValidationError{Msg: "source kind must not be empty"}
	}
	if s.Name == "" {
		return &ValidationError{Msg: "source name must not be empty"}
	}
	if len(s.Metadata) > 0 && !json.Valid(s.Metadata) {
		return &ValidationError{Msg: "source metadata is not valid JSON"}
	}
	return nil
}
