package registration

import (
	"context"

	"examreg/pkg/domain"
)

// Store persists registrations keyed by (student, session).
type Store interface {
	// Create fails with sentinel.ErrConflict when the key already exists.
	Create(ctx context.Context, registration *Registration) error
	Find(ctx context.Context, studentID domain.StudentID, sessionID domain.SessionID) (*Registration, error)
	FindByStudent(ctx context.Context, studentID domain.StudentID) ([]Registration, error)
	ListBySession(ctx context.Context, sessionID domain.SessionID) ([]Registration, error)
	UpdateStatus(ctx context.Context, studentID domain.StudentID, sessionID domain.SessionID, status Status) error
	// Move rekeys a registration to another session in one step. Fails with
	// sentinel.ErrConflict when the student already holds a registration in
	// the target session.
	Move(ctx context.Context, studentID domain.StudentID, from, to domain.SessionID) error
	Delete(ctx context.Context, studentID domain.StudentID, sessionID domain.SessionID) error
}
