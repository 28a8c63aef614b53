// ABOUTME: Subject model, the identity anchor an observation is about.
// ABOUTME: Subjects are created once and never mutated.
package models

import "time"

// SubjectKind tags what sort of identity a subject is.
type SubjectKind string

const (
	SubjectUser   SubjectKind = "user"
	SubjectMember SubjectKind = "member"
	SubjectDevice SubjectKind = "device"
)

// KnownSubjectKinds lists the well-known subject kinds. Any other non-empty
// string is accepted as a free-form kind.
var KnownSubjectKinds = []SubjectKind{SubjectUser, SubjectMember, SubjectDevice}

// Subject is an opaque identity anchor that observations reference.
// It carries no profile data; it exists only to be pointed at.
type Subject struct {
	ID        int64
	Kind      SubjectKind
	CreatedAt time.Time
}

// NewSubject creates a subject of the given kind. The ID is assigned by
// storage on insert.
func NewSubject(kind SubjectKind) *Subject {
	return &Subject{
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks the subject before persistence.
func (s *Subject) Validate() error {
	if s.Kind == "" {
		return &ValidationError{Msg: "subject kind must not be empty"}
	}
	return nil
}
