package student

import (
	"context"
	"sync"

	"examreg/pkg/domain"
	"examreg/pkg/platform/sentinel"
)

// InMemoryStore keeps profiles in a map for development and tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[domain.StudentID]Profile
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[domain.StudentID]Profile)}
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.StudentID) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &profile, nil
}

func (s *InMemoryStore) Upsert(_ context.Context, profile Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.StudentID] = profile
	return nil
}

func (s *InMemoryStore) BulkUpsert(_ context.Context, profiles []Profile) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, profile := range profiles {
		s.profiles[profile.StudentID] = profile
	}
	return len(profiles), nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles), nil
}
