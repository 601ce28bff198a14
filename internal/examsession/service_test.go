package examsession

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"examreg/pkg/domain"
	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/requestcontext"
)

type SessionServiceSuite struct {
	suite.Suite
	svc   *Service
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestSessionServiceSuite(t *testing.T) {
	suite.Run(t, new(SessionServiceSuite))
}

func (s *SessionServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.svc = NewService(s.store, testCutoff)
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *SessionServiceSuite) create(mutate func(*ExamSession)) *ExamSession {
	session := &ExamSession{
		Name:     "Dot 1 2026",
		ExamDate: s.now.Add(30 * 24 * time.Hour),
		Capacity: 50,
		Fee:      500000,
		Status:   StatusActive,
	}
	if mutate != nil {
		mutate(session)
	}
	created, err := s.svc.Create(s.ctx, session)
	s.Require().NoError(err)
	return created
}

func (s *SessionServiceSuite) TestCreate() {
	s.Run("assigns id and zeroes occupancy", func() {
		session := s.create(func(e *ExamSession) { e.Occupancy = 99 })
		s.False(session.ID.IsZero())
		s.Equal(0, session.Occupancy)
	})

	s.Run("rejects negative capacity", func() {
		_, err := s.svc.Create(s.ctx, &ExamSession{
			Name:     "Bad",
			ExamDate: s.now.Add(time.Hour),
			Capacity: -1,
			Status:   StatusActive,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *SessionServiceSuite) TestUpdate() {
	s.Run("exam date editable while empty", func() {
		session := s.create(nil)
		session.ExamDate = session.ExamDate.Add(24 * time.Hour)
		_, err := s.svc.Update(s.ctx, session)
		s.Require().NoError(err)
	})

	s.Run("exam date frozen once occupied", func() {
		session := s.create(nil)
		s.Require().NoError(s.svc.ReserveSlot(s.ctx, session.ID))

		session.ExamDate = session.ExamDate.Add(24 * time.Hour)
		_, err := s.svc.Update(s.ctx, session)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("capacity cannot drop below occupancy", func() {
		session := s.create(func(e *ExamSession) { e.Capacity = 2 })
		s.Require().NoError(s.svc.ReserveSlot(s.ctx, session.ID))
		s.Require().NoError(s.svc.ReserveSlot(s.ctx, session.ID))

		session.Capacity = 1
		_, err := s.svc.Update(s.ctx, session)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown session", func() {
		_, err := s.svc.Update(s.ctx, &ExamSession{
			ID:       domain.NewSessionID(),
			Name:     "Ghost",
			ExamDate: s.now.Add(time.Hour),
			Status:   StatusActive,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *SessionServiceSuite) TestCheckAdmissible() {
	s.Run("admissible session", func() {
		session := s.create(nil)
		s.Require().NoError(s.svc.CheckAdmissible(s.ctx, session.ID))
	})

	s.Run("deadline gate", func() {
		session := s.create(func(e *ExamSession) {
			e.ExamDate = s.now.Add(2 * 24 * time.Hour)
		})
		err := s.svc.CheckAdmissible(s.ctx, session.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeDeadlinePassed))
	})

	s.Run("closed session", func() {
		session := s.create(func(e *ExamSession) { e.Status = StatusClosed })
		err := s.svc.CheckAdmissible(s.ctx, session.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeSessionClosed))
	})
}

func (s *SessionServiceSuite) TestListOpen() {
	s.create(nil)
	s.create(func(e *ExamSession) { e.Status = StatusClosed })
	full := s.create(func(e *ExamSession) { e.Capacity = 1 })
	s.Require().NoError(s.svc.ReserveSlot(s.ctx, full.ID))
	nearDeadline := s.create(func(e *ExamSession) {
		e.ExamDate = s.now.Add(2 * 24 * time.Hour)
	})

	open, err := s.svc.ListOpen(s.ctx)
	s.Require().NoError(err)
	s.Len(open, 3)

	byID := make(map[domain.SessionID]OpenSession)
	for _, session := range open {
		byID[session.ID] = session
	}
	s.True(byID[full.ID].IsFull)
	s.False(byID[full.ID].IsExpired)
	s.True(byID[nearDeadline.ID].IsExpired)
	s.False(byID[nearDeadline.ID].IsFull)
}
