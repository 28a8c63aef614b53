// ABOUTME: Orchestrating service over the catalog, fact log, and calc registry.
// ABOUTME: Dispatches primitive passthrough vs derived evaluation per recipe kind.
package health

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/vitals/internal/calc"
	"github.com/harperreed/vitals/internal/models"
	"github.com/harperreed/vitals/internal/storage"
)

// EvalPolicy decides what a derived-series query does with a row that fails
// evaluation (missing dependency or bad literal).
type EvalPolicy int

const (
	// EvalSkipRows drops the failing row, logs a warning, and continues.
	EvalSkipRows EvalPolicy = iota
	// EvalStrict aborts the whole series with the row's error.
	EvalStrict
)

// Service wires the repository and calc registry behind the operations the
// CLI and MCP surfaces consume. All reads are recomputed on demand; nothing
// derived is ever cached or persisted.
type Service struct {
	repo   storage.Repository
	calcs  *calc.Registry
	logger *log.Logger
	policy EvalPolicy
}

// Option configures a Service.
type Option func(*Service)

// WithEvalPolicy sets the derived-row failure policy.
func WithEvalPolicy(p EvalPolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithLogger sets the service logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a service over the given repository and registry.
func NewService(repo storage.Repository, calcs *calc.Registry, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		calcs:  calcs,
		logger: log.Default(),
		policy: EvalSkipRows,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Series is a primitive metric's point sequence with its definition.
type Series struct {
	Metric *models.Metric `json:"metric"`
	Points []models.Point `json:"points"`
}

// RecipeSeries is a recipe query result. Points is populated for primitive
// passthrough, Derived for computed series; the other stays nil, mirroring
// the recipe union.
type RecipeSeries struct {
	Recipe  *models.Recipe        `json:"recipe"`
	Points  []models.Point        `json:"points,omitempty"`
	Derived []models.DerivedPoint `json:"derived,omitempty"`
}

// RecordObservation checks that the subject and metric exist, then appends
// the fact. recorded_at is assigned by the store; observed_at is the
// caller's business time.
func (s *Service) RecordObservation(subjectID, metricID int64, value models.ObservationValue, observedAt time.Time, sourceID *int64) (*models.Observation, error) {
	ok, err := s.repo.SubjectExists(subjectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &models.NotFoundError{Entity: "subject", ID: subjectID}
	}

	if _, err := s.repo.GetMetric(metricID); err != nil {
		return nil, err
	}

	if sourceID != nil {
		if _, err := s.repo.GetDataSource(*sourceID); err != nil {
			return nil, err
		}
	}

	o := &models.Observation{
		SubjectID:  subjectID,
		MetricID:   metricID,
		Value:      value,
		ObservedAt: observedAt.UTC(),
		SourceID:   sourceID,
	}
	if err := s.repo.RecordObservation(o); err != nil {
		return nil, err
	}
	return o, nil
}

// QuerySeries returns the raw point series for a subject/metric pair,
// ascending by observed_at, bounds inclusive.
func (s *Service) QuerySeries(subjectID, metricID int64, rng storage.Range) (*Series, error) {
	metric, err := s.repo.GetMetric(metricID)
	if err != nil {
		return nil, err
	}

	points, err := s.repo.QuerySeries(subjectID, metricID, normalizeRange(rng))
	if err != nil {
		return nil, err
	}

	return &Series{Metric: metric, Points: points}, nil
}

// QueryDerivedSeries resolves the recipe and dispatches on its kind: a
// primitive is a passthrough to the aliased metric's observations, a
// derived recipe evaluates its calculation over time-aligned dependency
// rows. Row failures follow the configured EvalPolicy.
func (s *Service) QueryDerivedSeries(subjectID, recipeID int64, rng storage.Range) (*RecipeSeries, error) {
	recipe, err := s.repo.GetRecipe(recipeID)
	if err != nil {
		return nil, err
	}
	rng = normalizeRange(rng)

	switch recipe.Kind {
	case models.RecipePrimitive:
		points, err := s.repo.QuerySeries(subjectID, recipe.Primitive.MetricID, rng)
		if err != nil {
			return nil, err
		}
		return &RecipeSeries{Recipe: recipe, Points: points}, nil

	case models.RecipeDerived:
		derived, err := s.evaluateDerived(subjectID, recipe, rng)
		if err != nil {
			return nil, err
		}
		return &RecipeSeries{Recipe: recipe, Derived: derived}, nil
	}

	return nil, &models.ValidationError{Msg: "unknown recipe kind: " + string(recipe.Kind)}
}

// evaluateDerived computes one point per aligned row.
func (s *Service) evaluateDerived(subjectID int64, recipe *models.Recipe, rng storage.Range) ([]models.DerivedPoint, error) {
	def := recipe.Derived

	// Configuration errors surface before any row work.
	if !s.calcs.Has(def.CalcKey) {
		return nil, &models.UnknownCalculationError{CalcKey: def.CalcKey}
	}

	rows, err := s.repo.QueryAligned(subjectID, def.Deps, rng)
	if err != nil {
		return nil, err
	}

	var points []models.DerivedPoint
	for _, row := range rows {
		value, err := s.calcs.Evaluate(def.CalcKey, def.Deps, row.ObservedAt, row.Values)
		if err != nil {
			if s.policy == EvalStrict {
				return nil, fmt.Errorf("evaluate %s at %s: %w",
					def.CalcKey, row.ObservedAt.Format(time.RFC3339Nano), err)
			}
			s.logger.Warn("skipping derived row",
				"recipe", recipe.ID,
				"calc", def.CalcKey,
				"observed_at", row.ObservedAt,
				"err", err)
			continue
		}
		points = append(points, models.DerivedPoint{Value: value, ObservedAt: row.ObservedAt})
	}

	return points, nil
}

// Latest returns the most recent observation for a subject/metric pair.
func (s *Service) Latest(subjectID, metricID int64) (*models.Observation, error) {
	return s.repo.LatestObservation(subjectID, metricID)
}

// CreateSubject validates and persists a subject.
func (s *Service) CreateSubject(subject *models.Subject) error {
	if err := subject.Validate(); err != nil {
		return err
	}
	return s.repo.CreateSubject(subject)
}

// CreateMetric validates and persists a metric definition.
func (s *Service) CreateMetric(metric *models.Metric) error {
	if err := metric.Validate(); err != nil {
		return err
	}
	return s.repo.CreateMetric(metric)
}

// DeprecateMetric retires a metric from selectable listings. Historical
// observations stay queryable.
func (s *Service) DeprecateMetric(id int64) error {
	return s.repo.DeprecateMetric(id)
}

// CreateRecipe validates the tagged-union invariant, checks referenced
// metrics, and rejects unknown calc keys before anything touches storage.
func (s *Service) CreateRecipe(recipe *models.Recipe) error {
	if err := recipe.Validate(); err != nil {
		return err
	}

	for _, dep := range recipe.Deps() {
		if _, err := s.repo.GetMetric(dep); err != nil {
			return err
		}
	}

	if recipe.Kind == models.RecipeDerived && !s.calcs.Has(recipe.Derived.CalcKey) {
		return &models.UnknownCalculationError{CalcKey: recipe.Derived.CalcKey}
	}

	return s.repo.CreateRecipe(recipe)
}

// CreateDataSource validates and persists a data source.
func (s *Service) CreateDataSource(source *models.DataSource) error {
	if err := source.Validate(); err != nil {
		return err
	}
	return s.repo.CreateDataSource(source)
}

// GetRecipe fetches a recipe by id.
func (s *Service) GetRecipe(id int64) (*models.Recipe, error) {
	return s.repo.GetRecipe(id)
}

// ListSelectableMetrics returns active metrics ordered by name.
func (s *Service) ListSelectableMetrics() ([]*models.Metric, error) {
	return s.repo.ListSelectableMetrics()
}

// ListSelectableRecipes returns active derived recipes; primitives are an
// internal aliasing detail.
func (s *Service) ListSelectableRecipes() ([]*models.Recipe, error) {
	return s.repo.ListSelectableRecipes()
}

// normalizeRange fills absent bounds: since epoch, until now. The store
// itself only honors explicit bounds; defaults belong to this boundary.
func normalizeRange(rng storage.Range) storage.Range {
	if rng.From == nil {
		epoch := time.Unix(0, 0).UTC()
		rng.From = &epoch
	}
	if rng.To == nil {
		now := time.Now().UTC()
		rng.To = &now
	}
	return rng
}
