// Package domain defines the typed identifiers shared across features.
// Distinct types keep a student code from ever being passed where a session
// id is expected; the compiler enforces what code review would miss.
package domain

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	dErrors "examreg/pkg/domain-errors"
)

// StudentID is the student's institutional code (MSSV). It is a natural key
// assigned by the academic system, not generated here.
type StudentID string

func (s StudentID) String() string { return string(s) }

// IsZero reports whether the id is empty.
func (s StudentID) IsZero() bool { return s == "" }

// ParseStudentID validates and normalizes a student code: trimmed, non-empty,
// and limited to letters and digits (codes like "20123456" or "B20DCCN123").
func ParseStudentID(raw string) (StudentID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "student id is required")
	}
	if len(trimmed) > 32 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "student id too long")
	}
	for _, r := range trimmed {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "student id must be alphanumeric")
		}
	}
	return StudentID(strings.ToUpper(trimmed)), nil
}

// SessionID identifies an exam session (đợt thi).
type SessionID uuid.UUID

func (s SessionID) String() string { return uuid.UUID(s).String() }

// IsZero reports whether the id is the nil UUID.
func (s SessionID) IsZero() bool { return uuid.UUID(s) == uuid.Nil }

// MarshalText renders the id in canonical UUID form for JSON bodies.
func (s SessionID) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses the id from its UUID form.
func (s *SessionID) UnmarshalText(text []byte) error {
	parsed, err := ParseSessionID(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// NewSessionID returns a fresh random session id.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// ParseSessionID validates a session id string: well-formed and non-nil.
func ParseSessionID(raw string) (SessionID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return SessionID{}, dErrors.New(dErrors.CodeInvalidInput, "session id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return SessionID{}, dErrors.New(dErrors.CodeInvalidInput, "session id must not be nil")
	}
	return SessionID(parsed), nil
}
