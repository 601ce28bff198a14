package examsession

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"examreg/pkg/domain"
	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/platform/sentinel"
)

const testCutoff = 7 * 24 * time.Hour

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) newSession(capacity int) *ExamSession {
	return &ExamSession{
		ID:       domain.NewSessionID(),
		Name:     "Dot 1 2026",
		ExamDate: s.now.Add(30 * 24 * time.Hour),
		Capacity: capacity,
		Fee:      500000,
		Status:   StatusActive,
	}
}

func (s *InMemoryStoreSuite) TestReserveSlot() {
	s.Run("reserves while capacity remains", func() {
		session := s.newSession(2)
		s.Require().NoError(s.store.Create(s.ctx, session))

		s.Require().NoError(s.store.ReserveSlot(s.ctx, session.ID, s.now, testCutoff))
		s.Require().NoError(s.store.ReserveSlot(s.ctx, session.ID, s.now, testCutoff))

		err := s.store.ReserveSlot(s.ctx, session.ID, s.now, testCutoff)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeSessionFull))
	})

	s.Run("unknown session", func() {
		s.Require().ErrorIs(
			s.store.ReserveSlot(s.ctx, domain.NewSessionID(), s.now, testCutoff),
			sentinel.ErrNotFound)
	})

	s.Run("inactive session refused", func() {
		session := s.newSession(10)
		session.Status = StatusUpcoming
		s.Require().NoError(s.store.Create(s.ctx, session))

		err := s.store.ReserveSlot(s.ctx, session.ID, s.now, testCutoff)
		s.True(dErrors.HasCode(err, dErrors.CodeSessionClosed))
	})

	s.Run("inside cutoff window refused regardless of capacity", func() {
		session := s.newSession(10)
		session.ExamDate = s.now.Add(3 * 24 * time.Hour)
		s.Require().NoError(s.store.Create(s.ctx, session))

		err := s.store.ReserveSlot(s.ctx, session.ID, s.now, testCutoff)
		s.True(dErrors.HasCode(err, dErrors.CodeDeadlinePassed))
	})

	s.Run("exact cutoff boundary still admits", func() {
		session := s.newSession(10)
		session.ExamDate = s.now.Add(testCutoff)
		s.Require().NoError(s.store.Create(s.ctx, session))

		s.Require().NoError(s.store.ReserveSlot(s.ctx, session.ID, s.now, testCutoff))
	})
}

// Two concurrent reservations against the last remaining slot must yield
// exactly one success and one full rejection.
func (s *InMemoryStoreSuite) TestReserveSlotLastSlotRace() {
	session := s.newSession(1)
	s.Require().NoError(s.store.Create(s.ctx, session))

	const racers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes, fulls := 0, 0

	for n := 0; n < racers; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.ReserveSlot(s.ctx, session.ID, s.now, testCutoff)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case dErrors.HasCode(err, dErrors.CodeSessionFull):
				fulls++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, successes)
	s.Equal(racers-1, fulls)

	stored, err := s.store.FindByID(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(1, stored.Occupancy)
}

func (s *InMemoryStoreSuite) TestReleaseSlot() {
	session := s.newSession(1)
	s.Require().NoError(s.store.Create(s.ctx, session))
	s.Require().NoError(s.store.ReserveSlot(s.ctx, session.ID, s.now, testCutoff))

	s.Require().NoError(s.store.ReleaseSlot(s.ctx, session.ID))

	stored, err := s.store.FindByID(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(0, stored.Occupancy)

	// Floor at zero.
	s.Require().NoError(s.store.ReleaseSlot(s.ctx, session.ID))
	stored, err = s.store.FindByID(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(0, stored.Occupancy)
}

func (s *InMemoryStoreSuite) TestCreateDuplicateRejected() {
	session := s.newSession(5)
	s.Require().NoError(s.store.Create(s.ctx, session))
	s.Require().ErrorIs(s.store.Create(s.ctx, session), sentinel.ErrConflict)
}
