// ABOUTME: Tests for the orchestrating service.
// ABOUTME: Covers preconditions, recipe dispatch, and eval policies end to end.
package health

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/vitals/internal/calc"
	"github.com/harperreed/vitals/internal/models"
	"github.com/harperreed/vitals/internal/storage"
)

func setupService(t *testing.T, opts ...Option) (*Service, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "vitals.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewService(db, calc.NewRegistry(), opts...), db
}

func seedSubject(t *testing.T, s *Service) *models.Subject {
	t.Helper()
	subject := models.NewSubject(models.SubjectUser)
	if err := s.CreateSubject(subject); err != nil {
		t.Fatalf("CreateSubject failed: %v", err)
	}
	return subject
}

func seedMetric(t *testing.T, s *Service, code string) *models.Metric {
	t.Helper()
	m := models.NewMetric(code, code, models.ValueFloat)
	if err := s.CreateMetric(m); err != nil {
		t.Fatalf("CreateMetric %s failed: %v", code, err)
	}
	return m
}

func record(t *testing.T, s *Service, subjectID, metricID int64, value string, at time.Time) {
	t.Helper()
	if _, err := s.RecordObservation(subjectID, metricID, models.ObservationValue(value), at, nil); err != nil {
		t.Fatalf("RecordObservation failed: %v", err)
	}
}

func TestRecordObservationPreconditions(t *testing.T) {
	s, _ := setupService(t)
	subject := seedSubject(t, s)
	metric := seedMetric(t, s, "weight")
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("unknown subject", func(t *testing.T) {
		_, err := s.RecordObservation(999, metric.ID, "1", at, nil)
		var nf *models.NotFoundError
		if !errors.As(err, &nf) || nf.Entity != "subject" {
			t.Errorf("expected subject NotFoundError, got %v", err)
		}
	})

	t.Run("unknown metric", func(t *testing.T) {
		_, err := s.RecordObservation(subject.ID, 999, "1", at, nil)
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("unknown source", func(t *testing.T) {
		bogus := int64(999)
		_, err := s.RecordObservation(subject.ID, metric.ID, "1", at, &bogus)
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("valid write assigns recorded_at", func(t *testing.T) {
		o, err := s.RecordObservation(subject.ID, metric.ID, "82.5", at, nil)
		if err != nil {
			t.Fatalf("RecordObservation failed: %v", err)
		}
		if o.RecordedAt.IsZero() {
			t.Error("RecordedAt should be assigned on write")
		}
		if !o.ObservedAt.Equal(at) {
			t.Errorf("ObservedAt = %v, want %v", o.ObservedAt, at)
		}
	})
}

func TestQuerySeriesRoundTrip(t *testing.T) {
	s, _ := setupService(t)
	subject := seedSubject(t, s)
	metric := seedMetric(t, s, "weight")

	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	record(t, s, subject.ID, metric.ID, "83.0", base.Add(24*time.Hour))
	record(t, s, subject.ID, metric.ID, "82.5", base)

	series, err := s.QuerySeries(subject.ID, metric.ID, storage.Range{})
	if err != nil {
		t.Fatalf("QuerySeries failed: %v", err)
	}
	if series.Metric.Code != "weight" {
		t.Errorf("Metric.Code = %s", series.Metric.Code)
	}
	if len(series.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(series.Points))
	}
	if series.Points[0].Value != "82.5" || series.Points[1].Value != "83.0" {
		t.Errorf("points not ascending by observed_at: %v", series.Points)
	}
}

func TestQuerySeriesRangeBoundsInclusive(t *testing.T) {
	s, _ := setupService(t)
	subject := seedSubject(t, s)
	metric := seedMetric(t, s, "hr")

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(48 * time.Hour)
	record(t, s, subject.ID, metric.ID, "60", from)
	record(t, s, subject.ID, metric.ID, "61", to)
	record(t, s, subject.ID, metric.ID, "62", to.Add(time.Second))

	series, err := s.QuerySeries(subject.ID, metric.ID, storage.Range{From: &from, To: &to})
	if err != nil {
		t.Fatalf("QuerySeries failed: %v", err)
	}
	if len(series.Points) != 2 {
		t.Errorf("bounds must be inclusive, got %d points", len(series.Points))
	}
}

func TestQueryDerivedSeriesPrimitivePassthrough(t *testing.T) {
	s, _ := setupService(t)
	subject := seedSubject(t, s)
	metric := seedMetric(t, s, "weight")

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	record(t, s, subject.ID, metric.ID, "82.5", at)

	recipe := models.NewPrimitiveRecipe(metric.ID)
	if err := s.CreateRecipe(recipe); err != nil {
		t.Fatalf("CreateRecipe failed: %v", err)
	}

	result, err := s.QueryDerivedSeries(subject.ID, recipe.ID, storage.Range{})
	if err != nil {
		t.Fatalf("QueryDerivedSeries failed: %v", err)
	}
	if result.Derived != nil {
		t.Error("primitive passthrough must not populate Derived")
	}
	if len(result.Points) != 1 || result.Points[0].Value != "82.5" {
		t.Errorf("unexpected passthrough points: %v", result.Points)
	}
}

func TestQueryDerivedSeriesAlignment(t *testing.T) {
	s, _ := setupService(t)
	subject := seedSubject(t, s)
	a := seedMetric(t, s, "a")
	b := seedMetric(t, s, "b")

	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	record(t, s, subject.ID, a.ID, "10", t1)
	record(t, s, subject.ID, b.ID, "20", t1)
	record(t, s, subject.ID, a.ID, "11", t2) // b has no value at t2

	recipe := models.NewDerivedRecipe("ab_sum", "A plus B", models.ValueFloat,
		[]int64{a.ID, b.ID}, "sum_v1")
	if err := s.CreateRecipe(recipe); err != nil {
		t.Fatalf("CreateRecipe failed: %v", err)
	}

	result, err := s.QueryDerivedSeries(subject.ID, recipe.ID, storage.Range{})
	if err != nil {
		t.Fatalf("QueryDerivedSeries failed: %v", err)
	}
	if result.Points != nil {
		t.Error("derived recipe must not populate raw Points")
	}
	// Default policy skips the t2 row where b is missing.
	if len(result.Derived) != 1 {
		t.Fatalf("expected 1 derived point, got %d", len(result.Derived))
	}
	p := result.Derived[0]
	if p.Value != 30 || !p.ObservedAt.Equal(t1) {
		t.Errorf("derived point = %+v, want 30 at %v", p, t1)
	}
}

func TestQueryDerivedSeriesStrictPolicy(t *testing.T) {
	s, _ := setupService(t, WithEvalPolicy(EvalStrict))
	subject := seedSubject(t, s)
	a := seedMetric(t, s, "a")
	b := seedMetric(t, s, "b")

	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	record(t, s, subject.ID, a.ID, "10", t1) // b missing at t1

	recipe := models.NewDerivedRecipe("ab_sum", "A plus B", models.ValueFloat,
		[]int64{a.ID, b.ID}, "sum_v1")
	if err := s.CreateRecipe(recipe); err != nil {
		t.Fatalf("CreateRecipe failed: %v", err)
	}

	_, err := s.QueryDerivedSeries(subject.ID, recipe.ID, storage.Range{})
	var md *models.MissingDependencyError
	if !errors.As(err, &md) {
		t.Fatalf("expected MissingDependencyError under strict policy, got %v", err)
	}
	if md.MetricID != b.ID || !md.ObservedAt.Equal(t1) {
		t.Errorf("error names wrong row: %+v", md)
	}
}

func TestQueryDerivedSeriesTygScenario(t *testing.T) {
	s, db := setupService(t)
	subject := seedSubject(t, s)

	// The TyG formula reads the seeded catalog ids for TG and FPG.
	for id := 1; id <= 18; id++ {
		m := models.NewMetric(fmt.Sprintf("m%d", id), "Metric", models.ValueFloat)
		if err := db.CreateMetric(m); err != nil {
			t.Fatalf("CreateMetric failed: %v", err)
		}
	}

	at := time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC)
	record(t, s, subject.ID, 16, "1.7", at)
	record(t, s, subject.ID, 18, "5.4", at)

	recipe := models.NewDerivedRecipe("tyg", "TyG Index", models.ValueFloat,
		[]int64{16, 18}, "tyg_v1")
	if err := s.CreateRecipe(recipe); err != nil {
		t.Fatalf("CreateRecipe failed: %v", err)
	}

	result, err := s.QueryDerivedSeries(subject.ID, recipe.ID, storage.Range{})
	if err != nil {
		t.Fatalf("QueryDerivedSeries failed: %v", err)
	}
	if len(result.Derived) != 1 {
		t.Fatalf("expected 1 derived point, got %d", len(result.Derived))
	}
	if got := result.Derived[0].Value; math.Abs(got-2.2169) > 1e-3 {
		t.Errorf("tyg = %v, want ~2.2169", got)
	}
}

func TestCreateRecipeRejectsBadDefinitions(t *testing.T) {
	s, _ := setupService(t)
	metric := seedMetric(t, s, "weight")

	t.Run("unknown dependency metric", func(t *testing.T) {
		r := models.NewDerivedRecipe("x", "X", models.ValueFloat, []int64{999}, "sum_v1")
		if err := s.CreateRecipe(r); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("unregistered calc key", func(t *testing.T) {
		r := models.NewDerivedRecipe("x", "X", models.ValueFloat, []int64{metric.ID}, "nope_v1")
		err := s.CreateRecipe(r)
		var uc *models.UnknownCalculationError
		if !errors.As(err, &uc) {
			t.Errorf("expected UnknownCalculationError, got %v", err)
		}
	})

	t.Run("union invariant violation", func(t *testing.T) {
		r := &models.Recipe{Kind: models.RecipePrimitive}
		err := s.CreateRecipe(r)
		var ve *models.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("expected ValidationError, got %v", err)
		}
	})
}

func TestQueryDerivedSeriesUnknownRecipe(t *testing.T) {
	s, _ := setupService(t)
	seedSubject(t, s)
	_, err := s.QueryDerivedSeries(1, 404, storage.Range{})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLatest(t *testing.T) {
	s, _ := setupService(t)
	subject := seedSubject(t, s)
	metric := seedMetric(t, s, "weight")

	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	record(t, s, subject.ID, metric.ID, "83.0", base)
	record(t, s, subject.ID, metric.ID, "82.1", base.Add(72*time.Hour))

	o, err := s.Latest(subject.ID, metric.ID)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if o.Value != "82.1" {
		t.Errorf("Value = %s, want 82.1", o.Value)
	}
}
