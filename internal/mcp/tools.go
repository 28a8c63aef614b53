// ABOUTME: MCP tool implementations for the vitals store.
// ABOUTME: Recording facts, querying raw and derived series, catalog management.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/vitals/internal/models"
	"github.com/harperreed/vitals/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	// record_observation
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "record_observation",
		Description: "Record an observed value for a subject and metric",
	}, s.handleRecordObservation)

	// query_series
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "query_series",
		Description: "Query the raw time series for a subject/metric pair",
	}, s.handleQuerySeries)

	// query_recipe_series
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "query_recipe_series",
		Description: "Query a recipe series (primitive passthrough or derived calculation)",
	}, s.handleQueryRecipeSeries)

	// get_latest
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_latest",
		Description: "Get the most recent observation for a subject/metric pair",
	}, s.handleGetLatest)

	// list_metrics
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_metrics",
		Description: "List active metrics available for display",
	}, s.handleListMetrics)

	// list_recipes
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_recipes",
		Description: "List active derived recipes available for display",
	}, s.handleListRecipes)

	// create_metric
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "create_metric",
		Description: "Define a new metric in the catalog",
	}, s.handleCreateMetric)

	// create_recipe
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "create_recipe",
		Description: "Define a recipe: a primitive metric alias or a derived calculation",
	}, s.handleCreateRecipe)

	// add_subject
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_subject",
		Description: "Register a new subject (user, member, or device)",
	}, s.handleAddSubject)
}

// Tool input/output types

type recordObservationInput struct {
	SubjectID  int64  `json:"subject_id" jsonschema:"Subject id"`
	MetricID   int64  `json:"metric_id" jsonschema:"Metric id"`
	Value      string `json:"value" jsonschema:"The observed value as a string"`
	ObservedAt string `json:"observed_at,omitempty" jsonschema:"Business timestamp (ISO 8601), defaults to now"`
	SourceID   *int64 `json:"source_id,omitempty" jsonschema:"Optional data source id"`
}

type observationOutput struct {
	ID         int64  `json:"id"`
	SubjectID  int64  `json:"subject_id"`
	MetricID   int64  `json:"metric_id"`
	Value      string `json:"value"`
	ObservedAt string `json:"observed_at"`
	Message    string `json:"message"`
}

type querySeriesInput struct {
	SubjectID int64  `json:"subject_id" jsonschema:"Subject id"`
	MetricID  int64  `json:"metric_id" jsonschema:"Metric id"`
	From      string `json:"from,omitempty" jsonschema:"Range start (ISO 8601, inclusive)"`
	To        string `json:"to,omitempty" jsonschema:"Range end (ISO 8601, inclusive)"`
}

type queryRecipeSeriesInput struct {
	SubjectID int64  `json:"subject_id" jsonschema:"Subject id"`
	RecipeID  int64  `json:"recipe_id" jsonschema:"Recipe id"`
	From      string `json:"from,omitempty" jsonschema:"Range start (ISO 8601, inclusive)"`
	To        string `json:"to,omitempty" jsonschema:"Range end (ISO 8601, inclusive)"`
}

type getLatestInput struct {
	SubjectID int64 `json:"subject_id" jsonschema:"Subject id"`
	MetricID  int64 `json:"metric_id" jsonschema:"Metric id"`
}

type createMetricInput struct {
	Code          string `json:"code" jsonschema:"Unique machine code"`
	Name          string `json:"name" jsonschema:"Display name"`
	ValueType     string `json:"value_type" jsonschema:"Value type (integer, float, decimal, boolean, text)"`
	Unit          string `json:"unit,omitempty" jsonschema:"Display unit"`
	Visualization string `json:"visualization,omitempty" jsonschema:"Visualization hint (line_chart, bar_chart, value_list, single_value)"`
}

type createRecipeInput struct {
	Kind          string  `json:"kind" jsonschema:"Recipe kind (primitive or derived)"`
	MetricID      int64   `json:"metric_id,omitempty" jsonschema:"Aliased metric id (primitive only)"`
	Code          string  `json:"code,omitempty" jsonschema:"Unique machine code (derived only)"`
	Name          string  `json:"name,omitempty" jsonschema:"Display name (derived only)"`
	ValueType     string  `json:"value_type,omitempty" jsonschema:"Value type (derived only)"`
	Unit          string  `json:"unit,omitempty" jsonschema:"Display unit (derived only)"`
	Deps          []int64 `json:"deps,omitempty" jsonschema:"Ordered dependency metric ids (derived only)"`
	CalcKey       string  `json:"calc_key,omitempty" jsonschema:"Registered calculation key (derived only)"`
	Visualization string  `json:"visualization,omitempty" jsonschema:"Visualization hint (derived only)"`
}

type addSubjectInput struct {
	Kind string `json:"kind,omitempty" jsonschema:"Subject kind (user, member, device), defaults to user"`
}

type simpleOutput struct {
	Message string `json:"message"`
}

// parseTimestamp accepts RFC 3339 or a short local form.
func parseTimestamp(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t, err = time.Parse("2006-01-02 15:04", raw)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
	}
	return t, nil
}

// parseRange builds an inclusive range from optional ISO 8601 bounds.
func parseRange(from, to string) (storage.Range, error) {
	var rng storage.Range
	if from != "" {
		t, err := parseTimestamp(from)
		if err != nil {
			return rng, err
		}
		rng.From = &t
	}
	if to != "" {
		t, err := parseTimestamp(to)
		if err != nil {
			return rng, err
		}
		rng.To = &t
	}
	return rng, nil
}

// Tool handlers

func (s *Server) handleRecordObservation(ctx context.Context, req *mcp.CallToolRequest, input recordObservationInput) (*mcp.CallToolResult, observationOutput, error) {
	observedAt := time.Now().UTC()
	if input.ObservedAt != "" {
		t, err := parseTimestamp(input.ObservedAt)
		if err != nil {
			return nil, observationOutput{}, err
		}
		observedAt = t
	}

	o, err := s.svc.RecordObservation(input.SubjectID, input.MetricID,
		models.ObservationValue(input.Value), observedAt, input.SourceID)
	if err != nil {
		return nil, observationOutput{}, fmt.Errorf("failed to record observation: %w", err)
	}

	return nil, observationOutput{
		ID:         o.ID,
		SubjectID:  o.SubjectID,
		MetricID:   o.MetricID,
		Value:      o.Value.String(),
		ObservedAt: o.ObservedAt.Format(time.RFC3339Nano),
		Message: fmt.Sprintf("Recorded metric %d = %s for subject %d",
			o.MetricID, o.Value, o.SubjectID),
	}, nil
}

func (s *Server) handleQuerySeries(ctx context.Context, req *mcp.CallToolRequest, input querySeriesInput) (*mcp.CallToolResult, any, error) {
	rng, err := parseRange(input.From, input.To)
	if err != nil {
		return nil, nil, err
	}

	series, err := s.svc.QuerySeries(input.SubjectID, input.MetricID, rng)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query series: %w", err)
	}

	if len(series.Points) == 0 {
		return nil, map[string]interface{}{"message": "No observations found."}, nil
	}
	return nil, series, nil
}

func (s *Server) handleQueryRecipeSeries(ctx context.Context, req *mcp.CallToolRequest, input queryRecipeSeriesInput) (*mcp.CallToolResult, any, error) {
	rng, err := parseRange(input.From, input.To)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.svc.QueryDerivedSeries(input.SubjectID, input.RecipeID, rng)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query recipe series: %w", err)
	}

	if len(result.Points) == 0 && len(result.Derived) == 0 {
		return nil, map[string]interface{}{"message": "No points in range."}, nil
	}
	return nil, result, nil
}

func (s *Server) handleGetLatest(ctx context.Context, req *mcp.CallToolRequest, input getLatestInput) (*mcp.CallToolResult, any, error) {
	o, err := s.svc.Latest(input.SubjectID, input.MetricID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get latest: %w", err)
	}
	return nil, o, nil
}

func (s *Server) handleListMetrics(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	metrics, err := s.svc.ListSelectableMetrics()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list metrics: %w", err)
	}
	if len(metrics) == 0 {
		return nil, map[string]interface{}{"message": "No metrics defined."}, nil
	}
	return nil, metrics, nil
}

func (s *Server) handleListRecipes(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	recipes, err := s.svc.ListSelectableRecipes()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	if len(recipes) == 0 {
		return nil, map[string]interface{}{"message": "No recipes defined."}, nil
	}
	return nil, recipes, nil
}

func (s *Server) handleCreateMetric(ctx context.Context, req *mcp.CallToolRequest, input createMetricInput) (*mcp.CallToolResult, simpleOutput, error) {
	m := models.NewMetric(input.Code, input.Name, models.ValueType(input.ValueType))
	if input.Unit != "" {
		m.WithUnit(input.Unit)
	}
	if input.Visualization != "" {
		m.WithVisualization(models.Visualization(input.Visualization))
	}

	if err := s.svc.CreateMetric(m); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to create metric: %w", err)
	}

	return nil, simpleOutput{
		Message: fmt.Sprintf("Created metric %s (ID: %d)", m.Code, m.ID),
	}, nil
}

func (s *Server) handleCreateRecipe(ctx context.Context, req *mcp.CallToolRequest, input createRecipeInput) (*mcp.CallToolResult, simpleOutput, error) {
	var recipe *models.Recipe
	switch models.RecipeKind(input.Kind) {
	case models.RecipePrimitive:
		recipe = models.NewPrimitiveRecipe(input.MetricID)
	case models.RecipeDerived:
		recipe = models.NewDerivedRecipe(input.Code, input.Name,
			models.ValueType(input.ValueType), input.Deps, input.CalcKey)
		if input.Unit != "" {
			recipe.WithUnit(input.Unit)
		}
		if input.Visualization != "" {
			recipe.WithVisualization(models.Visualization(input.Visualization))
		}
	default:
		return nil, simpleOutput{}, fmt.Errorf("unknown recipe kind: %s", input.Kind)
	}

	if err := s.svc.CreateRecipe(recipe); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to create recipe: %w", err)
	}

	return nil, simpleOutput{
		Message: fmt.Sprintf("Created %s recipe (ID: %d)", input.Kind, recipe.ID),
	}, nil
}

func (s *Server) handleAddSubject(ctx context.Context, req *mcp.CallToolRequest, input addSubjectInput) (*mcp.CallToolResult, simpleOutput, error) {
	kind := models.SubjectUser
	if input.Kind != "" {
		kind = models.SubjectKind(input.Kind)
	}

	subject := models.NewSubject(kind)
	if err := s.svc.CreateSubject(subject); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to add subject: %w", err)
	}

	return nil, simpleOutput{
		Message: fmt.Sprintf("Added %s subject (ID: %d)", subject.Kind, subject.ID),
	}, nil
}
