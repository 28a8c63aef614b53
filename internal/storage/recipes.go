// ABOUTME: Recipe catalog operations for SQLite storage.
// ABOUTME: Maps the Recipe tagged union to and from the nullable row shape.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/vitals/internal/models"
)

// CreateRecipe inserts a new recipe and assigns its ID. The tagged-union
// invariant is validated in the domain first; the schema CHECK is only the
// backstop.
func (d *DB) CreateRecipe(r *models.Recipe) error {
	if err := r.Validate(); err != nil {
		return err
	}

	cols, err := recipeColumns(r)
	if err != nil {
		return err
	}

	res, err := d.db.Exec(`
		INSERT INTO recipes (kind, metric_id, deps, calc_key, code, name, unit, value_type, visualization, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(r.Kind),
		cols.metricID, cols.deps, cols.calcKey, cols.code, cols.name,
		cols.unit, cols.valueType, cols.visualization, cols.status,
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return &models.StorageError{Op: "create recipe", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return &models.StorageError{Op: "create recipe", Err: err}
	}
	r.ID = id
	return nil
}

// GetRecipe retrieves a recipe by ID.
func (d *DB) GetRecipe(id int64) (*models.Recipe, error) {
	row := d.db.QueryRow(`
		SELECT id, kind, metric_id, deps, calc_key, code, name, unit, value_type, visualization, status, created_at
		FROM recipes WHERE id = ?`, id)

	r, err := scanRecipe(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &models.NotFoundError{Entity: "recipe", ID: id}
		}
		return nil, err
	}
	return r, nil
}

// ListRecipes retrieves recipes ordered by ID, optionally filtered by
// calc key.
func (d *DB) ListRecipes(calcKey string, page Page) ([]*models.Recipe, error) {
	query := `
		SELECT id, kind, metric_id, deps, calc_key, code, name, unit, value_type, visualization, status, created_at
		FROM recipes`
	var args []interface{}
	if calcKey != "" {
		query += " WHERE calc_key = ?"
		args = append(args, calcKey)
	}
	query += " ORDER BY id"
	query, args = applyPage(query, args, page)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, &models.StorageError{Op: "list recipes", Err: err}
	}
	defer rows.Close()

	return scanRecipes(rows)
}

// ListSelectableRecipes retrieves active derived recipes ordered by name.
// Primitive recipes are an internal aliasing detail, never user-facing.
func (d *DB) ListSelectableRecipes() ([]*models.Recipe, error) {
	rows, err := d.db.Query(`
		SELECT id, kind, metric_id, deps, calc_key, code, name, unit, value_type, visualization, status, created_at
		FROM recipes
		WHERE kind = ? AND status = ?
		ORDER BY name`,
		string(models.RecipeDerived), string(models.MetricActive))
	if err != nil {
		return nil, &models.StorageError{Op: "list selectable recipes", Err: err}
	}
	defer rows.Close()

	return scanRecipes(rows)
}

// importRecipe inserts a recipe preserving its original ID.
func (d *DB) importRecipe(r *models.Recipe) error {
	cols, err := recipeColumns(r)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`
		INSERT INTO recipes (id, kind, metric_id, deps, calc_key, code, name, unit, value_type, visualization, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		string(r.Kind),
		cols.metricID, cols.deps, cols.calcKey, cols.code, cols.name,
		cols.unit, cols.valueType, cols.visualization, cols.status,
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("import recipe %d: %w", r.ID, err)
	}
	return nil
}

// recipeRow is the nullable storage shape of the Recipe union.
type recipeRow struct {
	metricID      sql.NullInt64
	deps          sql.NullString
	calcKey       sql.NullString
	code          sql.NullString
	name          sql.NullString
	unit          sql.NullString
	valueType     sql.NullString
	visualization sql.NullString
	status        sql.NullString
}

// recipeColumns maps a validated Recipe variant to its nullable columns.
func recipeColumns(r *models.Recipe) (*recipeRow, error) {
	var cols recipeRow
	switch r.Kind {
	case models.RecipePrimitive:
		cols.metricID = sql.NullInt64{Int64: r.Primitive.MetricID, Valid: true}
	case models.RecipeDerived:
		depsJSON, err := json.Marshal(r.Derived.Deps)
		if err != nil {
			return nil, &models.StorageError{Op: "encode recipe deps", Err: err}
		}
		cols.deps = sql.NullString{String: string(depsJSON), Valid: true}
		cols.calcKey = sql.NullString{String: r.Derived.CalcKey, Valid: true}
		cols.code = sql.NullString{String: r.Derived.Code, Valid: true}
		cols.name = sql.NullString{String: r.Derived.Name, Valid: true}
		cols.unit = sql.NullString{String: r.Derived.Unit, Valid: true}
		cols.valueType = sql.NullString{String: string(r.Derived.ValueType), Valid: true}
		cols.visualization = sql.NullString{String: string(r.Derived.Visualization), Valid: true}
		cols.status = sql.NullString{String: string(r.Derived.Status), Valid: true}
	}
	return &cols, nil
}

// scanRecipe rebuilds the Recipe union from its nullable row shape.
func scanRecipe(row scanner) (*models.Recipe, error) {
	var r models.Recipe
	var kind, createdAt string
	var cols recipeRow

	err := row.Scan(&r.ID, &kind, &cols.metricID, &cols.deps, &cols.calcKey,
		&cols.code, &cols.name, &cols.unit, &cols.valueType, &cols.visualization,
		&cols.status, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, &models.StorageError{Op: "scan recipe", Err: err}
	}

	r.Kind = models.RecipeKind(kind)
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

	switch r.Kind {
	case models.RecipePrimitive:
		r.Primitive = &models.PrimitiveRecipe{MetricID: cols.metricID.Int64}
	case models.RecipeDerived:
		var deps []int64
		if err := json.Unmarshal([]byte(cols.deps.String), &deps); err != nil {
			return nil, &models.StorageError{Op: "decode recipe deps", Err: err}
		}
		r.Derived = &models.DerivedRecipe{
			Deps:          deps,
			CalcKey:       cols.calcKey.String,
			Code:          cols.code.String,
			Name:          cols.name.String,
			Unit:          cols.unit.String,
			ValueType:     models.ValueType(cols.valueType.String),
			Visualization: models.Visualization(cols.visualization.String),
			Status:        models.MetricStatus(cols.status.String),
		}
	default:
		return nil, &models.StorageError{Op: "scan recipe", Err: fmt.Errorf("unknown kind %q", kind)}
	}

	return &r, nil
}

// scanRecipes scans multiple rows into a slice of Recipes.
func scanRecipes(rows *sql.Rows) ([]*models.Recipe, error) {
	var recipes []*models.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	return recipes, rows.Err()
}
