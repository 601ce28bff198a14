// Package student owns candidate profiles. Profiles are created by the bulk
// import pipeline or an explicit administrative upsert, never implicitly by
// registration.
package student

import (
	"strings"
	"time"

	"examreg/pkg/domain"
	dErrors "examreg/pkg/domain-errors"
)

// Profile is a candidate record keyed by the student code.
type Profile struct {
	StudentID domain.StudentID `json:"student_id"`
	FullName  string           `json:"full_name"`
	BirthDate time.Time        `json:"birth_date"`
	Faculty   string           `json:"faculty"`
	Email     string           `json:"email"`
	Phone     string           `json:"phone"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Normalize trims fields and lowercases the contact email.
func (p *Profile) Normalize() {
	p.FullName = strings.TrimSpace(p.FullName)
	p.Faculty = strings.TrimSpace(p.Faculty)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
}

// Validate checks the invariants an imported or upserted profile must hold.
func (p *Profile) Validate() error {
	if p.StudentID.IsZero() {
		return dErrors.New(dErrors.CodeInvariantViolation, "profile requires a student id")
	}
	if p.FullName == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "profile requires a full name")
	}
	return nil
}
