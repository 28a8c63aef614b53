// ABOUTME: Observation model, one immutable recorded fact for a subject/metric pair.
// ABOUTME: Values are stored as opaque strings; interpretation is deferred to read time.
package models

import (
	"strconv"
	"time"
)

// ObservationValue wraps the stored string form of an observed value.
// The store never interprets it; numeric meaning comes from the owning
// metric's value type at read time.
type ObservationValue string

// String returns the raw stored form.
func (v ObservationValue) String() string {
	return string(v)
}

// TryParseNumeric attempts to read the value as a float64 under the owning
// metric's value type. Boolean and text values never parse, whatever their
// literal content. Malformed numeric literals return ok=false, never panic.
// This is the single seam between value-as-stored and value-as-plotted.
func (v ObservationValue) TryParseNumeric(vt ValueType) (float64, bool) {
	switch vt {
	case ValueInteger:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return float64(n), true
	case ValueFloat, ValueDecimal:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case ValueBoolean, ValueText:
		return 0, false
	}
	return 0, false
}

// Observation is a recorded fact: subject S had value V for metric M at time T.
// Observations are write-once; no update or delete exists anywhere in this
// module.
type Observation struct {
	ID         int64
	SubjectID  int64
	MetricID   int64
	Value      ObservationValue
	ObservedAt time.Time // business/event time, caller-supplied
	RecordedAt time.Time // system write time, always server-assigned
	SourceID   *int64
}

// Point is one (value, observed_at) pair of a queried series.
type Point struct {
	Value      ObservationValue `json:"value"`
	ObservedAt time.Time        `json:"observed_at"`
}

// DerivedPoint is one computed value of a derived series.
type DerivedPoint struct {
	Value      float64   `json:"value"`
	ObservedAt time.Time `json:"observed_at"`
}
