package examsession

import (
	"context"
	"time"

	"examreg/pkg/domain"
)

// Store persists sessions and performs the atomic occupancy updates.
//
// ReserveSlot is the concurrency-critical operation: the admissibility check
// and the increment must be one atomic step against the authoritative store,
// never a read-then-write from the caller. Two reservations racing for the
// last slot must yield exactly one success.
type Store interface {
	Create(ctx context.Context, session *ExamSession) error
	Update(ctx context.Context, session *ExamSession) error
	FindByID(ctx context.Context, id domain.SessionID) (*ExamSession, error)
	List(ctx context.Context) ([]ExamSession, error)
	// ReserveSlot atomically re-validates admissibility at `now` and
	// increments occupancy. Failures carry the rejection code.
	ReserveSlot(ctx context.Context, id domain.SessionID, now time.Time, cutoff time.Duration) error
	// ReleaseSlot decrements occupancy, flooring at zero.
	ReleaseSlot(ctx context.Context, id domain.SessionID) error
}
