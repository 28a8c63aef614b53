// ABOUTME: Repository interface for observation and catalog storage.
// ABOUTME: Implemented by the SQLite DB and the Charm KV backend.
package storage

import (
	"time"

	"github.com/harperreed/vitals/internal/models"
)

// AlignedRow is the pivot of all dependency observations sharing one exact
// observed_at timestamp. A dependency with no observation at that instant is
// absent from Values, never zero-filled.
type AlignedRow struct {
	ObservedAt time.Time
	Values     map[int64]models.ObservationValue
}

// Repository defines the storage contract for vitals data.
// This interface allows swapping implementations (SQLite, Charm KV, tests).
type Repository interface {
	// Subject operations
	CreateSubject(s *models.Subject) error
	GetSubject(id int64) (*models.Subject, error)
	SubjectExists(id int64) (bool, error)
	ListSubjects(page Page) ([]*models.Subject, error)

	// Metric operations
	CreateMetric(m *models.Metric) error
	GetMetric(id int64) (*models.Metric, error)
	GetMetricByCode(code string) (*models.Metric, error)
	MetricExists(id int64) (bool, error)
	ListMetrics(page Page) ([]*models.Metric, error)
	ListSelectableMetrics() ([]*models.Metric, error)
	DeprecateMetric(id int64) error

	// Recipe operations
	CreateRecipe(r *models.Recipe) error
	GetRecipe(id int64) (*models.Recipe, error)
	ListRecipes(calcKey string, page Page) ([]*models.Recipe, error)
	ListSelectableRecipes() ([]*models.Recipe, error)

	// Data source operations
	CreateDataSource(s *models.DataSource) error
	GetDataSource(id int64) (*models.DataSource, error)
	ListDataSources(page Page) ([]*models.DataSource, error)

	// Observation operations. Observations are write-once: there is no
	// update or delete anywhere on this interface.
	RecordObservation(o *models.Observation) error
	QuerySeries(subjectID, metricID int64, rng Range) ([]models.Point, error)
	QueryAligned(subjectID int64, metricIDs []int64, rng Range) ([]AlignedRow, error)
	LatestObservation(subjectID, metricID int64) (*models.Observation, error)

	// Export/Import
	GetAllData() (*ExportData, error)
	ImportData(data *ExportData) error

	// Lifecycle
	Close() error
}
