// ABOUTME: Tests for the Recipe tagged-union invariant.
// ABOUTME: Illegal variant shapes must be rejected with ValidationError.
package models

import (
	"errors"
	"testing"
)

func TestPrimitiveRecipeValid(t *testing.T) {
	r := NewPrimitiveRecipe(16)
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	deps := r.Deps()
	if len(deps) != 1 || deps[0] != 16 {
		t.Errorf("Deps = %v, want [16]", deps)
	}
}

func TestDerivedRecipeValid(t *testing.T) {
	r := NewDerivedRecipe("tyg", "TyG Index", ValueFloat, []int64{16, 18}, "tyg_v1")
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	deps := r.Deps()
	if len(deps) != 2 || deps[0] != 16 || deps[1] != 18 {
		t.Errorf("Deps = %v, want [16 18]", deps)
	}
}

func TestRecipeInvariantViolations(t *testing.T) {
	tests := []struct {
		name   string
		recipe *Recipe
	}{
		{
			"primitive with derived fields",
			&Recipe{
				Kind:      RecipePrimitive,
				Primitive: &PrimitiveRecipe{MetricID: 16},
				Derived:   &DerivedRecipe{CalcKey: "tyg_v1"},
			},
		},
		{
			"primitive without metric",
			&Recipe{Kind: RecipePrimitive},
		},
		{
			"derived with empty deps",
			NewDerivedRecipe("tyg", "TyG Index", ValueFloat, nil, "tyg_v1"),
		},
		{
			"derived with empty calc key",
			NewDerivedRecipe("tyg", "TyG Index", ValueFloat, []int64{16, 18}, ""),
		},
		{
			"derived with empty code",
			NewDerivedRecipe("", "TyG Index", ValueFloat, []int64{16, 18}, "tyg_v1"),
		},
		{
			"derived with empty name",
			NewDerivedRecipe("tyg", "", ValueFloat, []int64{16, 18}, "tyg_v1"),
		},
		{
			"derived with text-typed bogus value type",
			NewDerivedRecipe("tyg", "TyG Index", ValueType("bogus"), []int64{16, 18}, "tyg_v1"),
		},
		{
			"derived with primitive alias attached",
			&Recipe{
				Kind:      RecipeDerived,
				Primitive: &PrimitiveRecipe{MetricID: 16},
				Derived: &DerivedRecipe{
					Deps: []int64{16}, CalcKey: "tyg_v1", Code: "tyg", Name: "TyG",
					ValueType: ValueFloat, Visualization: VisLineChart, Status: MetricActive,
				},
			},
		},
		{
			"unknown kind",
			&Recipe{Kind: RecipeKind("weird")},
		},
		{
			"derived with non-positive dep",
			NewDerivedRecipe("tyg", "TyG Index", ValueFloat, []int64{16, 0}, "tyg_v1"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.recipe.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestNotFoundErrorMatchesSentinel(t *testing.T) {
	err := &NotFoundError{Entity: "metric", ID: 99}
	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}
}
