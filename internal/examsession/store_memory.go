package examsession

import (
	"context"
	"sort"
	"sync"
	"time"

	"examreg/pkg/domain"
	"examreg/pkg/platform/sentinel"
)

// InMemoryStore keeps sessions under one mutex, which makes the
// check-and-increment in ReserveSlot trivially atomic.
type InMemoryStore struct {
	mu       sync.Mutex
	sessions map[domain.SessionID]*ExamSession
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[domain.SessionID]*ExamSession)}
}

func (s *InMemoryStore) Create(_ context.Context, session *ExamSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, session *ExamSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; !exists {
		return sentinel.ErrNotFound
	}
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.SessionID) (*ExamSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]ExamSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make([]ExamSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, *session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].ExamDate.Before(sessions[j].ExamDate)
	})
	return sessions, nil
}

func (s *InMemoryStore) ReserveSlot(_ context.Context, id domain.SessionID, now time.Time, cutoff time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if err := session.Admissible(now, cutoff); err != nil {
		return err
	}
	session.Occupancy++
	return nil
}

func (s *InMemoryStore) ReleaseSlot(_ context.Context, id domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if session.Occupancy > 0 {
		session.Occupancy--
	}
	return nil
}
