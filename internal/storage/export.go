// ABOUTME: Export and import functionality for vitals data.
// ABOUTME: Snapshots the full catalog and fact log as JSON or YAML.
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/vitals/internal/models"
	"gopkg.in/yaml.v3"
)

// ExportData is the full snapshot format. IDs are preserved so that recipe
// deps and observation references survive a round trip between backends.
type ExportData struct {
	Version      string                `json:"version" yaml:"version"`
	SnapshotID   uuid.UUID             `json:"snapshot_id" yaml:"snapshot_id"`
	ExportedAt   time.Time             `json:"exported_at" yaml:"exported_at"`
	Tool         string                `json:"tool" yaml:"tool"`
	Subjects     []*models.Subject     `json:"subjects" yaml:"subjects"`
	Metrics      []*models.Metric      `json:"metrics" yaml:"metrics"`
	Recipes      []*models.Recipe      `json:"recipes" yaml:"recipes"`
	Sources      []*models.DataSource  `json:"sources" yaml:"sources"`
	Observations []*models.Observation `json:"observations" yaml:"observations"`
}

// GetAllData retrieves all data for export.
func (d *DB) GetAllData() (*ExportData, error) {
	subjects, err := d.ListSubjects(Page{})
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	metrics, err := d.ListMetrics(Page{})
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	recipes, err := d.ListRecipes("", Page{})
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	sources, err := d.ListDataSources(Page{})
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	observations, err := d.listObservations()
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}

	return &ExportData{
		Version:      "1.0",
		SnapshotID:   uuid.New(),
		ExportedAt:   time.Now().UTC(),
		Tool:         "vitals",
		Subjects:     subjects,
		Metrics:      metrics,
		Recipes:      recipes,
		Sources:      sources,
		Observations: observations,
	}, nil
}

// ImportData imports a snapshot into an empty database. Catalog entities go
// first so the observation foreign keys resolve.
func (d *DB) ImportData(data *ExportData) error {
	for _, s := range data.Subjects {
		if err := d.importSubject(s); err != nil {
			return err
		}
	}
	for _, m := range data.Metrics {
		if err := d.importMetric(m); err != nil {
			return err
		}
	}
	for _, r := range data.Recipes {
		if err := d.importRecipe(r); err != nil {
			return err
		}
	}
	for _, s := range data.Sources {
		if err := d.importDataSource(s); err != nil {
			return err
		}
	}
	for _, o := range data.Observations {
		if err := d.importObservation(o); err != nil {
			return err
		}
	}
	return nil
}

// ExportJSON exports all data as JSON.
func (d *DB) ExportJSON() ([]byte, error) {
	data, err := d.GetAllData()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

// ExportYAML exports all data as YAML.
func (d *DB) ExportYAML() ([]byte, error) {
	data, err := d.GetAllData()
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(data)
}

// ParseImport decodes a JSON snapshot.
func ParseImport(raw []byte) (*ExportData, error) {
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse import: %w", err)
	}
	return &data, nil
}
