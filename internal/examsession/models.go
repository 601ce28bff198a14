// Package examsession owns exam sessions and is the single authority on
// whether a session can accept one more registration. Every path that grows
// a session's occupancy goes through ReserveSlot.
package examsession

import (
	"strings"
	"time"

	"examreg/pkg/domain"
	dErrors "examreg/pkg/domain-errors"
)

// Status is a session's lifecycle state.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusActive   Status = "active"
	StatusClosed   Status = "closed"
)

func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusUpcoming:
		return StatusUpcoming, nil
	case StatusActive:
		return StatusActive, nil
	case StatusClosed:
		return StatusClosed, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown session status %q", raw)
	}
}

// ExamSession is a scheduled exam round (đợt thi) with bounded capacity.
type ExamSession struct {
	ID        domain.SessionID `json:"id"`
	Name      string           `json:"name"`
	ExamDate  time.Time        `json:"exam_date"`
	Capacity  int              `json:"capacity"`
	Occupancy int              `json:"occupancy"`
	Fee       int64            `json:"fee"`
	Status    Status           `json:"status"`
}

// Validate checks the structural invariants of a session definition.
func (s *ExamSession) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "session requires a name")
	}
	if s.Capacity < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "session capacity must not be negative")
	}
	if s.Fee < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "session fee must not be negative")
	}
	if s.ExamDate.IsZero() {
		return dErrors.New(dErrors.CodeInvariantViolation, "session requires an exam date")
	}
	return nil
}

// Admissible reports whether the session can accept one more registration at
// the given instant. Order matters: closure and deadline are terminal
// rejections regardless of capacity.
func (s *ExamSession) Admissible(now time.Time, cutoff time.Duration) error {
	if s.Status != StatusActive {
		return dErrors.New(dErrors.CodeSessionClosed, "session is not open for registration")
	}
	if now.After(s.ExamDate.Add(-cutoff)) {
		return dErrors.New(dErrors.CodeDeadlinePassed, "registration deadline for this session has passed")
	}
	if s.Occupancy >= s.Capacity {
		return dErrors.New(dErrors.CodeSessionFull, "session has no remaining capacity")
	}
	return nil
}

// OpenSession is the list projection shown to registrants. The flags are
// advisory; Register re-validates server-side regardless of what a client
// concluded from them.
type OpenSession struct {
	ExamSession
	IsExpired bool `json:"is_expired"`
	IsFull    bool `json:"is_full"`
}
