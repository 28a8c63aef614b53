// ABOUTME: Tests for MCP server, tools, and resources.
// ABOUTME: Covers NewServer, tool handlers, and resource handlers.
package mcp

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harperreed/vitals/internal/calc"
	"github.com/harperreed/vitals/internal/health"
	"github.com/harperreed/vitals/internal/models"
	"github.com/harperreed/vitals/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// setupServer builds an MCP server over a temp SQLite store.
func setupServer(t *testing.T) (*Server, *storage.DB) {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "vitals.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	svc := health.NewService(db, calc.NewRegistry())
	server, err := NewServer(svc, db)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return server, db
}

func seed(t *testing.T, db *storage.DB) (*models.Subject, *models.Metric) {
	t.Helper()
	subject := models.NewSubject(models.SubjectUser)
	if err := db.CreateSubject(subject); err != nil {
		t.Fatalf("CreateSubject failed: %v", err)
	}
	metric := models.NewMetric("weight", "Weight", models.ValueFloat)
	if err := db.CreateMetric(metric); err != nil {
		t.Fatalf("CreateMetric failed: %v", err)
	}
	return subject, metric
}

func TestNewServer(t *testing.T) {
	server, _ := setupServer(t)

	if server.mcpServer == nil {
		t.Error("Expected non-nil mcpServer")
	}
	if server.svc == nil {
		t.Error("Expected non-nil service")
	}
	if server.repo == nil {
		t.Error("Expected non-nil repo")
	}
}

func TestHandleRecordObservation(t *testing.T) {
	server, db := setupServer(t)
	subject, metric := seed(t, db)
	ctx := context.Background()

	tests := []struct {
		name      string
		input     recordObservationInput
		wantErr   bool
		errSubstr string
	}{
		{
			name: "valid with RFC3339 timestamp",
			input: recordObservationInput{
				SubjectID:  subject.ID,
				MetricID:   metric.ID,
				Value:      "82.5",
				ObservedAt: "2025-01-31T08:00:00Z",
			},
		},
		{
			name: "valid with simple timestamp",
			input: recordObservationInput{
				SubjectID:  subject.ID,
				MetricID:   metric.ID,
				Value:      "82.1",
				ObservedAt: "2025-01-31 08:00",
			},
		},
		{
			name: "valid defaulting to now",
			input: recordObservationInput{
				SubjectID: subject.ID,
				MetricID:  metric.ID,
				Value:     "81.9",
			},
		},
		{
			name: "unknown subject",
			input: recordObservationInput{
				SubjectID: 999,
				MetricID:  metric.ID,
				Value:     "1",
			},
			wantErr:   true,
			errSubstr: "not found",
		},
		{
			name: "bad timestamp",
			input: recordObservationInput{
				SubjectID:  subject.ID,
				MetricID:   metric.ID,
				Value:      "1",
				ObservedAt: "yesterday",
			},
			wantErr:   true,
			errSubstr: "invalid timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, output, err := server.handleRecordObservation(ctx, &mcp.CallToolRequest{}, tt.input)

			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				} else if tt.errSubstr != "" && !strings.Contains(err.Error(), tt.errSubstr) {
					t.Errorf("error %q missing %q", err.Error(), tt.errSubstr)
				}
				return
			}
			if err != nil {
				t.Fatalf("handler failed: %v", err)
			}
			if output.ID == 0 {
				t.Error("expected assigned observation id")
			}
		})
	}
}

func TestHandleQuerySeries(t *testing.T) {
	server, db := setupServer(t)
	subject, metric := seed(t, db)
	ctx := context.Background()

	_, _, err := server.handleRecordObservation(ctx, &mcp.CallToolRequest{}, recordObservationInput{
		SubjectID:  subject.ID,
		MetricID:   metric.ID,
		Value:      "82.5",
		ObservedAt: "2025-01-31T08:00:00Z",
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}

	_, result, err := server.handleQuerySeries(ctx, &mcp.CallToolRequest{}, querySeriesInput{
		SubjectID: subject.ID,
		MetricID:  metric.ID,
	})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	series, ok := result.(*health.Series)
	if !ok {
		t.Fatalf("unexpected result type %T", result)
	}
	if len(series.Points) != 1 || series.Points[0].Value != "82.5" {
		t.Errorf("unexpected points: %v", series.Points)
	}

	t.Run("empty range message", func(t *testing.T) {
		_, result, err := server.handleQuerySeries(ctx, &mcp.CallToolRequest{}, querySeriesInput{
			SubjectID: subject.ID,
			MetricID:  metric.ID,
			From:      "2030-01-01T00:00:00Z",
		})
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if _, ok := result.(map[string]interface{}); !ok {
			t.Errorf("expected message map, got %T", result)
		}
	})
}

func TestHandleQueryRecipeSeries(t *testing.T) {
	server, db := setupServer(t)
	subject, metric := seed(t, db)
	ctx := context.Background()

	_, _, err := server.handleCreateRecipe(ctx, &mcp.CallToolRequest{}, createRecipeInput{
		Kind:     "primitive",
		MetricID: metric.ID,
	})
	if err != nil {
		t.Fatalf("create recipe failed: %v", err)
	}

	_, _, err = server.handleRecordObservation(ctx, &mcp.CallToolRequest{}, recordObservationInput{
		SubjectID:  subject.ID,
		MetricID:   metric.ID,
		Value:      "82.5",
		ObservedAt: "2025-01-31T08:00:00Z",
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}

	_, result, err := server.handleQueryRecipeSeries(ctx, &mcp.CallToolRequest{}, queryRecipeSeriesInput{
		SubjectID: subject.ID,
		RecipeID:  1,
	})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	rs, ok := result.(*health.RecipeSeries)
	if !ok {
		t.Fatalf("unexpected result type %T", result)
	}
	if len(rs.Points) != 1 {
		t.Errorf("expected passthrough point, got %v", rs)
	}
}

func TestHandleCreateRecipeValidation(t *testing.T) {
	server, db := setupServer(t)
	seed(t, db)
	ctx := context.Background()

	_, _, err := server.handleCreateRecipe(ctx, &mcp.CallToolRequest{}, createRecipeInput{
		Kind: "sideways",
	})
	if err == nil || !strings.Contains(err.Error(), "unknown recipe kind") {
		t.Errorf("expected kind error, got %v", err)
	}

	_, _, err = server.handleCreateRecipe(ctx, &mcp.CallToolRequest{}, createRecipeInput{
		Kind:      "derived",
		Code:      "x",
		Name:      "X",
		ValueType: "float",
		Deps:      []int64{1},
		CalcKey:   "nope_v1",
	})
	if err == nil {
		t.Error("expected error for unregistered calc key")
	}
}

func TestHandleListMetricsAndRecipes(t *testing.T) {
	server, db := setupServer(t)
	_, metric := seed(t, db)
	ctx := context.Background()

	_, result, err := server.handleListMetrics(ctx, &mcp.CallToolRequest{}, struct{}{})
	if err != nil {
		t.Fatalf("list metrics failed: %v", err)
	}
	metrics, ok := result.([]*models.Metric)
	if !ok || len(metrics) != 1 {
		t.Errorf("unexpected metrics result: %T %v", result, result)
	}

	_, result, err = server.handleListRecipes(ctx, &mcp.CallToolRequest{}, struct{}{})
	if err != nil {
		t.Fatalf("list recipes failed: %v", err)
	}
	if _, ok := result.(map[string]interface{}); !ok {
		t.Errorf("expected empty message, got %T", result)
	}

	_, _, err = server.handleCreateRecipe(ctx, &mcp.CallToolRequest{}, createRecipeInput{
		Kind:      "derived",
		Code:      "w2",
		Name:      "Weight doubled",
		ValueType: "float",
		Deps:      []int64{metric.ID},
		CalcKey:   "sum_v1",
	})
	if err != nil {
		t.Fatalf("create recipe failed: %v", err)
	}

	_, result, err = server.handleListRecipes(ctx, &mcp.CallToolRequest{}, struct{}{})
	if err != nil {
		t.Fatalf("list recipes failed: %v", err)
	}
	recipes, ok := result.([]*models.Recipe)
	if !ok || len(recipes) != 1 {
		t.Errorf("unexpected recipes result: %T %v", result, result)
	}
}

func TestHandleAddSubject(t *testing.T) {
	server, _ := setupServer(t)
	ctx := context.Background()

	_, output, err := server.handleAddSubject(ctx, &mcp.CallToolRequest{}, addSubjectInput{Kind: "device"})
	if err != nil {
		t.Fatalf("add subject failed: %v", err)
	}
	if !strings.Contains(output.Message, "device") {
		t.Errorf("unexpected message: %s", output.Message)
	}
}

func TestRecentResource(t *testing.T) {
	server, db := setupServer(t)
	subject, metric := seed(t, db)
	ctx := context.Background()

	_, _, err := server.handleRecordObservation(ctx, &mcp.CallToolRequest{}, recordObservationInput{
		SubjectID: subject.ID,
		MetricID:  metric.ID,
		Value:     "82.5",
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}

	result, err := server.handleRecentResource(ctx, &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("recent resource failed: %v", err)
	}
	if len(result.Contents) != 1 || result.Contents[0].URI != "vitals://recent" {
		t.Errorf("unexpected contents: %+v", result.Contents)
	}
	if !strings.Contains(result.Contents[0].Text, "82.5") {
		t.Error("recent resource missing the recorded value")
	}
}

func TestSummaryResource(t *testing.T) {
	server, db := setupServer(t)
	subject, metric := seed(t, db)
	ctx := context.Background()

	_, _, err := server.handleRecordObservation(ctx, &mcp.CallToolRequest{}, recordObservationInput{
		SubjectID: subject.ID,
		MetricID:  metric.ID,
		Value:     "82.5",
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}

	result, err := server.handleSummaryResource(ctx, &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("summary resource failed: %v", err)
	}
	text := result.Contents[0].Text
	if !strings.Contains(text, "subject_1") || !strings.Contains(text, "weight") {
		t.Errorf("summary missing expected keys: %s", text)
	}
}
