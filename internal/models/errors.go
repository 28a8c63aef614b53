// ABOUTME: Error taxonomy shared across storage, calc, and service layers.
// ABOUTME: Typed errors matched with errors.As; everything else wraps with %w.
package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is the sentinel all NotFoundError values match via errors.Is.
var ErrNotFound = errors.New("not found")

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string // "subject", "metric", "recipe", "observation", "source"
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d: not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError reports a malformed definition or a value that fails
// numeric coercion during derived evaluation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Msg
}

// MissingDependencyError reports a dependency metric with no observation at
// an aligned timestamp. Fatal for that row's evaluation; never silently
// defaulted, because calc formulas are not total over partial input.
type MissingDependencyError struct {
	MetricID   int64
	ObservedAt time.Time
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("metric %d has no observation at %s", e.MetricID, e.ObservedAt.UTC().Format(time.RFC3339Nano))
}

// UnknownCalculationError reports a calc_key absent from the registry.
// Caught at recipe creation, but re-checked defensively at query time.
type UnknownCalculationError struct {
	CalcKey string
}

func (e *UnknownCalculationError) Error() string {
	return fmt.Sprintf("unknown calculation %q", e.CalcKey)
}

// StorageError wraps an underlying persistence failure. Never retried
// internally; propagated as-is to the caller.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
