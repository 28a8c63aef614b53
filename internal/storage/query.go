// ABOUTME: Range and Page query helpers shared across the storage layer.
// ABOUTME: Inclusive time-range filtering and offset/limit pagination.
package storage

import "time"

// Range is an optional inclusive time window. A nil From means "since
// epoch", a nil To means "until now"; callers supply those defaults at the
// boundary, the store only honors what it is given.
type Range struct {
	From *time.Time
	To   *time.Time
}

// NewRange builds an inclusive range from two optional instants.
func NewRange(from, to *time.Time) Range {
	return Range{From: from, To: to}
}

// Contains reports whether t falls inside the range, boundaries included.
func (r Range) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// IsZero reports whether the range is unbounded on both ends.
func (r Range) IsZero() bool {
	return r.From == nil && r.To == nil
}

// Page is offset/limit pagination. A zero Limit means "no limit".
type Page struct {
	Offset int
	Limit  int
}

// Slice applies the page to an in-memory list, for backends that filter
// client-side.
func Slice[T any](items []T, page Page) []T {
	if page.Offset > 0 {
		if page.Offset >= len(items) {
			return nil
		}
		items = items[page.Offset:]
	}
	if page.Limit > 0 && len(items) > page.Limit {
		items = items[:page.Limit]
	}
	return items
}
