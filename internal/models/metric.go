// ABOUTME: Metric model defining what can be observed.
// ABOUTME: Includes value type, visualization hint, and status enums.
package models

import "time"

// ValueType governs how an observation's stored string value may be
// interpreted at read time. It never changes after a metric is created;
// changing it would silently reinterpret historical values.
type ValueType string

const (
	ValueInteger ValueType = "integer"
	ValueFloat   ValueType = "float"
	ValueDecimal ValueType = "decimal"
	ValueBoolean ValueType = "boolean"
	ValueText    ValueType = "text"
)

// AllValueTypes returns all valid value types.
var AllValueTypes = []ValueType{
	ValueInteger, ValueFloat, ValueDecimal, ValueBoolean, ValueText,
}

// IsValidValueType checks if a string is a valid value type.
func IsValidValueType(s string) bool {
	for _, vt := range AllValueTypes {
		if string(vt) == s {
			return true
		}
	}
	return false
}

// IsNumeric reports whether values of this type carry a numeric reading.
func (vt ValueType) IsNumeric() bool {
	switch vt {
	case ValueInteger, ValueFloat, ValueDecimal:
		return true
	case ValueBoolean, ValueText:
		return false
	}
	return false
}

// Visualization hints how a metric's series should be rendered.
type Visualization string

const (
	VisLineChart   Visualization = "line_chart"
	VisBarChart    Visualization = "bar_chart"
	VisValueList   Visualization = "value_list"
	VisSingleValue Visualization = "single_value"
)

// AllVisualizations returns all valid visualization hints.
var AllVisualizations = []Visualization{
	VisLineChart, VisBarChart, VisValueList, VisSingleValue,
}

// IsValidVisualization checks if a string is a valid visualization hint.
func IsValidVisualization(s string) bool {
	for _, v := range AllVisualizations {
		if string(v) == s {
			return true
		}
	}
	return false
}

// MetricStatus is the metric lifecycle state. The only transition is
// active -> deprecated, one way.
type MetricStatus string

const (
	MetricActive     MetricStatus = "active"
	MetricDeprecated MetricStatus = "deprecated"
)

// Metric defines a directly-observable quantity. Deprecated metrics remain
// valid targets for historical observations but are excluded from selectable
// listings.
type Metric struct {
	ID            int64
	Code          string // stable machine-readable identifier, globally unique
	Name          string
	Unit          string
	ValueType     ValueType
	Visualization Visualization
	Status        MetricStatus
	CreatedAt     time.Time
}

// NewMetric creates an active metric definition. The ID is assigned by
// storage on insert.
func NewMetric(code, name string, valueType ValueType) *Metric {
	return &Metric{
		Code:          code,
		Name:          name,
		ValueType:     valueType,
		Visualization: VisLineChart,
		Status:        MetricActive,
		CreatedAt:     time.Now().UTC(),
	}
}

// WithUnit sets the display unit.
func (m *Metric) WithUnit(unit string) *Metric {
	m.Unit = unit
	return m
}

// WithVisualization sets the visualization hint.
func (m *Metric) WithVisualization(v Visualization) *Metric {
	m.Visualization = v
	return m
}

// Validate checks the definition before persistence.
func (m *Metric) Validate() error {
	if m.Code == "" {
		return &ValidationError{Msg: "metric code must not be empty"}
	}
	if m.Name == "" {
		return &ValidationError{Msg: "metric name must not be empty"}
	}
	if !IsValidValueType(string(m.ValueType)) {
		return &ValidationError{Msg: "unknown value type: " + string(m.ValueType)}
	}
	if !IsValidVisualization(string(m.Visualization)) {
		return &ValidationError{Msg: "unknown visualization: " + string(m.Visualization)}
	}
	return nil
}
