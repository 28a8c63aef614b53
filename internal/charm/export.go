// ABOUTME: Snapshot export and import for the Charm KV backend.
// ABOUTME: Preserves ids and advances sequences so later writes never collide.
package charm

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/vitals/internal/models"
	"github.com/harperreed/vitals/internal/storage"
)

// GetAllData retrieves all data for export.
func (c *Client) GetAllData() (*storage.ExportData, error) {
	subjects, err := c.ListSubjects(storage.Page{})
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	metrics, err := c.ListMetrics(storage.Page{})
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	recipes, err := c.ListRecipes("", storage.Page{})
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	sources, err := c.ListDataSources(storage.Page{})
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	observations, err := listRecords[models.Observation](c, ObservationPrefix)
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	sort.Slice(observations, func(i, j int) bool { return observations[i].ID < observations[j].ID })

	return &storage.ExportData{
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

// ImportData loads a snapshot, keeping every id from the source backend.
func (c *Client) ImportData(data *storage.ExportData) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range data.Subjects {
		if err := c.importRecord(SubjectPrefix, s.ID, s); err != nil {
			return err
		}
	}
	for _, m := range data.Metrics {
		if err := c.importRecord(MetricPrefix, m.ID, m); err != nil {
			return err
		}
	}
	for _, r := range data.Recipes {
		if err := c.importRecord(RecipePrefix, r.ID, r); err != nil {
			return err
		}
	}
	for _, s := range data.Sources {
		if err := c.importRecord(SourcePrefix, s.ID, s); err != nil {
			return err
		}
	}
	for _, o := range data.Observations {
		if err := c.importRecord(ObservationPrefix, o.ID, o); err != nil {
			return err
		}
	}
	return nil
}

// importRecord writes a record under its original id and keeps the sequence
// ahead of it. Callers must hold the write lock.
func (c *Client) importRecord(prefix string, id int64, v any) error {
	data, err := marshalJSON(v)
	if err != nil {
		return fmt.Errorf("marshal import record: %w", err)
	}
	if err := c.setLocked(recordKey(prefix, id), data); err != nil {
		return err
	}
	return c.bumpSeq(prefix, id)
}
