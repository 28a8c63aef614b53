// ABOUTME: Catalog operations (subjects, metrics, recipes, sources) on Charm KV.
// ABOUTME: Type-prefixed JSON records with client-side filtering and ordering.
package charm

import (
	"fmt"
	"sort"

	"github.com/harperreed/vitals/internal/models"
	"github.com/harperreed/vitals/internal/storage"
)

// CreateSubject stores a new subject and assigns its id.
func (c *Client) CreateSubject(s *models.Subject) error {
	if err := s.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.nextID(SubjectPrefix)
	if err != nil {
		return err
	}
	s.ID = id

	data, err := marshalJSON(s)
	if err != nil {
		return fmt.Errorf("marshal subject: %w", err)
	}
	return c.setLocked(recordKey(SubjectPrefix, id), data)
}

// GetSubject retrieves a subject by id.
func (c *Client) GetSubject(id int64) (*models.Subject, error) {
	data, ok, err := c.get(recordKey(SubjectPrefix, id))
	if err != nil {
		return nil, fmt.Errorf("get subject: %w", err)
	}
	if !ok {
		return nil, &models.NotFoundError{Entity: "subject", ID: id}
	}
	return unmarshalJSON[models.Subject](data)
}

// SubjectExists reports whether the subject id is present.
func (c *Client) SubjectExists(id int64) (bool, error) {
	_, ok, err := c.get(recordKey(SubjectPrefix, id))
	return ok, err
}

// ListSubjects returns subjects ordered by id.
func (c *Client) ListSubjects(page storage.Page) ([]*models.Subject, error) {
	subjects, err := listRecords[models.Subject](c, SubjectPrefix)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].ID < subjects[j].ID })
	return storage.Slice(subjects, page), nil
}

// CreateMetric validates, enforces code uniqueness, and stores a metric.
func (c *Client) CreateMetric(m *models.Metric) error {
	if err := m.Validate(); err != nil {
		return err
	}

	existing, err := listRecords[models.Metric](c, MetricPrefix)
	if err != nil {
		return fmt.Errorf("list metrics: %w", err)
	}
	for _, other := range existing {
		if other.Code == m.Code {
			return &models.ValidationError{Msg: "metric code already exists: " + m.Code}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.nextID(MetricPrefix)
	if err != nil {
		return err
	}
	m.ID = id

	data, err := marshalJSON(m)
	if err != nil {
		return fmt.Errorf("marshal metric: %w", err)
	}
	return c.setLocked(recordKey(MetricPrefix, id), data)
}

// GetMetric retrieves a metric by id.
func (c *Client) GetMetric(id int64) (*models.Metric, error) {
	data, ok, err := c.get(recordKey(MetricPrefix, id))
	if err != nil {
		return nil, fmt.Errorf("get metric: %w", err)
	}
	if !ok {
		return nil, &models.NotFoundError{Entity: "metric", ID: id}
	}
	return unmarshalJSON[models.Metric](data)
}

// GetMetricByCode retrieves a metric by its unique code.
func (c *Client) GetMetricByCode(code string) (*models.Metric, error) {
	metrics, err := listRecords[models.Metric](c, MetricPrefix)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	for _, m := range metrics {
		if m.Code == code {
			return m, nil
		}
	}
	return nil, &models.NotFoundError{Entity: "metric", ID: 0}
}

// MetricExists reports whether the metric id is present.
func (c *Client) MetricExists(id int64) (bool, error) {
	_, ok, err := c.get(recordKey(MetricPrefix, id))
	return ok, err
}

// ListMetrics returns metrics ordered by id.
func (c *Client) ListMetrics(page storage.Page) ([]*models.Metric, error) {
	metrics, err := listRecords[models.Metric](c, MetricPrefix)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	sort.Slice(metrics, func(i, j int) bool { return metrics[i].ID < metrics[j].ID })
	return storage.Slice(metrics, page), nil
}

// ListSelectableMetrics returns active metrics ordered by name.
func (c *Client) ListSelectableMetrics() ([]*models.Metric, error) {
	all, err := listRecords[models.Metric](c, MetricPrefix)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	var metrics []*models.Metric
	for _, m := range all {
		if m.Status == models.MetricActive {
			metrics = append(metrics, m)
		}
	}
	sort.Slice(metrics, func(i, j int) bool { return metrics[i].Name < metrics[j].Name })
	return metrics, nil
}

// DeprecateMetric retires a metric; its observations stay queryable.
func (c *Client) DeprecateMetric(id int64) error {
	m, err := c.GetMetric(id)
	if err != nil {
		return err
	}
	m.Status = models.MetricDeprecated
	data, err := marshalJSON(m)
	if err != nil {
		return fmt.Errorf("marshal metric: %w", err)
	}
	return c.set(recordKey(MetricPrefix, id), data)
}

// CreateRecipe validates the union invariant and stores a recipe.
func (c *Client) CreateRecipe(r *models.Recipe) error {
	if err := r.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.nextID(RecipePrefix)
	if err != nil {
		return err
	}
	r.ID = id

	data, err := marshalJSON(r)
	if err != nil {
		return fmt.Errorf("marshal recipe: %w", err)
	}
	return c.setLocked(recordKey(RecipePrefix, id), data)
}

// GetRecipe retrieves a recipe by id.
func (c *Client) GetRecipe(id int64) (*models.Recipe, error) {
	data, ok, err := c.get(recordKey(RecipePrefix, id))
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	if !ok {
		return nil, &models.NotFoundError{Entity: "recipe", ID: id}
	}
	return unmarshalJSON[models.Recipe](data)
}

// ListRecipes returns recipes ordered by id, optionally filtered by calc key.
func (c *Client) ListRecipes(calcKey string, page storage.Page) ([]*models.Recipe, error) {
	all, err := listRecords[models.Recipe](c, RecipePrefix)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	var recipes []*models.Recipe
	for _, r := range all {
		if calcKey != "" && (r.Derived == nil || r.Derived.CalcKey != calcKey) {
			continue
		}
		recipes = append(recipes, r)
	}
	sort.Slice(recipes, func(i, j int) bool { return recipes[i].ID < recipes[j].ID })
	return storage.Slice(recipes, page), nil
}

// ListSelectableRecipes returns active derived recipes ordered by name.
func (c *Client) ListSelectableRecipes() ([]*models.Recipe, error) {
	all, err := listRecords[models.Recipe](c, RecipePrefix)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	var recipes []*models.Recipe
	for _, r := range all {
		if r.Kind == models.RecipeDerived && r.Derived != nil && r.Derived.Status == models.MetricActive {
			recipes = append(recipes, r)
		}
	}
	sort.Slice(recipes, func(i, j int) bool { return recipes[i].Derived.Name < recipes[j].Derived.Name })
	return recipes, nil
}

// CreateDataSource validates and stores a data source.
func (c *Client) CreateDataSource(s *models.DataSource) error {
	if err := s.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.nextID(SourcePrefix)
	if err != nil {
		return err
	}
	s.ID = id

	data, err := marshalJSON(s)
	if err != nil {
		return fmt.Errorf("marshal source: %w", err)
	}
	return c.setLocked(recordKey(SourcePrefix, id), data)
}

// GetDataSource retrieves a data source by id.
func (c *Client) GetDataSource(id int64) (*models.DataSource, error) {
	data, ok, err := c.get(recordKey(SourcePrefix, id))
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	if !ok {
		return nil, &models.NotFoundError{Entity: "source", ID: id}
	}
	return unmarshalJSON[models.DataSource](data)
}

// ListDataSources returns data sources ordered by id.
func (c *Client) ListDataSources(page storage.Page) ([]*models.DataSource, error) {
	sources, err := listRecords[models.DataSource](c, SourcePrefix)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].ID < sources[j].ID })
	return storage.Slice(sources, page), nil
}

// listRecords loads and decodes every record under a prefix. Invalid entries
// are skipped.
func listRecords[T any](c *Client, prefix string) ([]*T, error) {
	allData, err := c.listByPrefix(prefix)
	if err != nil {
		return nil, err
	}
	var records []*T
	for _, data := range allData {
		rec, err := unmarshalJSON[T](data)
		if err != nil {
			continue // Skip invalid entries
		}
		records = append(records, rec)
	}
	return records, nil
}
