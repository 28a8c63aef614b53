// ABOUTME: Recipe model, the generalized observable definition.
// ABOUTME: Tagged union of a Primitive metric alias and a Derived formula.
package models

import (
	"fmt"
	"time"
)

// RecipeKind discriminates the two recipe variants.
type RecipeKind string

const (
	RecipePrimitive RecipeKind = "primitive"
	RecipeDerived   RecipeKind = "derived"
)

// PrimitiveRecipe is a thin alias over exactly one existing metric.
// Querying it is a passthrough to that metric's observations.
type PrimitiveRecipe struct {
	MetricID int64
}

// DerivedRecipe defines a virtual metric computed from dependency metrics.
// It carries its own presentation metadata since it is itself selectable
// for display.
type DerivedRecipe struct {
	Deps          []int64 // ordered dependency metric ids
	CalcKey       string
	Code          string
	Name          string
	Unit          string
	ValueType     ValueType
	Visualization Visualization
	Status        MetricStatus
}

// Recipe is a tagged union: exactly one of Primitive or Derived is set,
// matching Kind. Use Validate to enforce the invariant before persistence;
// storage additionally mirrors it with CHECK constraints.
type Recipe struct {
	ID        int64
	Kind      RecipeKind
	Primitive *PrimitiveRecipe
	Derived   *DerivedRecipe
	CreatedAt time.Time
}

// NewPrimitiveRecipe creates a primitive alias of the given metric.
func NewPrimitiveRecipe(metricID int64) *Recipe {
	return &Recipe{
		Kind:      RecipePrimitive,
		Primitive: &PrimitiveRecipe{MetricID: metricID},
		CreatedAt: time.Now().UTC(),
	}
}

// NewDerivedRecipe creates a derived recipe over the given dependency
// metrics.
func NewDerivedRecipe(code, name string, valueType ValueType, deps []int64, calcKey string) *Recipe {
	return &Recipe{
		Kind: RecipeDerived,
		Derived: &DerivedRecipe{
			Deps:          deps,
			CalcKey:       calcKey,
			Code:          code,
			Name:          name,
			ValueType:     valueType,
			Visualization: VisLineChart,
			Status:        MetricActive,
		},
		CreatedAt: time.Now().UTC(),
	}
}

// WithUnit sets the display unit on a derived recipe. No-op for primitives.
func (r *Recipe) WithUnit(unit string) *Recipe {
	if r.Derived != nil {
		r.Derived.Unit = unit
	}
	return r
}

// WithVisualization sets the visualization hint on a derived recipe.
func (r *Recipe) WithVisualization(v Visualization) *Recipe {
	if r.Derived != nil {
		r.Derived.Visualization = v
	}
	return r
}

// Deps returns the dependency metric ids: the single aliased metric for a
// primitive, the ordered dependency list for a derived recipe.
func (r *Recipe) Deps() []int64 {
	switch r.Kind {
	case RecipePrimitive:
		if r.Primitive == nil {
			return nil
		}
		return []int64{r.Primitive.MetricID}
	case RecipeDerived:
		if r.Derived == nil {
			return nil
		}
		return r.Derived.Deps
	}
	return nil
}

// Validate enforces the tagged-union invariant: a primitive carries only a
// metric reference, a derived recipe carries a non-empty dependency list,
// a calc key, and complete presentation metadata.
func (r *Recipe) Validate() error {
	switch r.Kind {
	case RecipePrimitive:
		if r.Primitive == nil {
			return &ValidationError{Msg: "primitive recipe missing metric reference"}
		}
		if r.Derived != nil {
			return &ValidationError{Msg: "primitive recipe must not carry derived fields"}
		}
		if r.Primitive.MetricID <= 0 {
			return &ValidationError{Msg: "primitive recipe requires a metric id"}
		}
	case RecipeDerived:
		if r.Derived == nil {
			return &ValidationError{Msg: "derived recipe missing definition"}
		}
		if r.Primitive != nil {
			return &ValidationError{Msg: "derived recipe must not carry a primitive alias"}
		}
		d := r.Derived
		if len(d.Deps) == 0 {
			return &ValidationError{Msg: "derived recipe requires at least one dependency"}
		}
		for _, dep := range d.Deps {
			if dep <= 0 {
				return &ValidationError{Msg: fmt.Sprintf("invalid dependency metric id: %d", dep)}
			}
		}
		if d.CalcKey == "" {
			return &ValidationError{Msg: "derived recipe requires a calc key"}
		}
		if d.Code == "" {
			return &ValidationError{Msg: "derived recipe requires a code"}
		}
		if d.Name == "" {
			return &ValidationError{Msg: "derived recipe requires a name"}
		}
		if !IsValidValueType(string(d.ValueType)) {
			return &ValidationError{Msg: "unknown value type: " + string(d.ValueType)}
		}
		if !IsValidVisualization(string(d.Visualization)) {
			return &ValidationError{Msg: "unknown visualization: " + string(d.Visualization)}
		}
		if d.Status != MetricActive && d.Status != MetricDeprecated {
			return &ValidationError{Msg: "unknown status: " + string(d.Status)}
		}
	default:
		return &ValidationError{Msg: "unknown recipe kind: " + string(r.Kind)}
	}
	return nil
}
