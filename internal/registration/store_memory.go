package registration

import (
	"context"
	"sort"
	"sync"

	"examreg/pkg/domain"
	"examreg/pkg/platform/sentinel"
)

type key struct {
	student domain.StudentID
	session domain.SessionID
}

// InMemoryStore keeps registrations in a map for development and tests.
type InMemoryStore struct {
	mu            sync.Mutex
	registrations map[key]*Registration
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{registrations: make(map[key]*Registration)}
}

func (s *InMemoryStore) Create(_ context.Context, registration *Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{registration.StudentID, registration.SessionID}
	if _, exists := s.registrations[k]; exists {
		return sentinel.ErrConflict
	}
	copied := *registration
	s.registrations[k] = &copied
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, studentID domain.StudentID, sessionID domain.SessionID) (*Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	registration, ok := s.registrations[key{studentID, sessionID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *registration
	return &copied, nil
}

func (s *InMemoryStore) FindByStudent(_ context.Context, studentID domain.StudentID) ([]Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []Registration
	for k, registration := range s.registrations {
		if k.student == studentID {
			result = append(result, *registration)
		}
	}
	sortByCreation(result)
	return result, nil
}

func (s *InMemoryStore) ListBySession(_ context.Context, sessionID domain.SessionID) ([]Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []Registration
	for k, registration := range s.registrations {
		if k.session == sessionID {
			result = append(result, *registration)
		}
	}
	sortByCreation(result)
	return result, nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, studentID domain.StudentID, sessionID domain.SessionID, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	registration, ok := s.registrations[key{studentID, sessionID}]
	if !ok {
		return sentinel.ErrNotFound
	}
	registration.Status = status
	return nil
}

func (s *InMemoryStore) Move(_ context.Context, studentID domain.StudentID, from, to domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	registration, ok := s.registrations[key{studentID, from}]
	if !ok {
		return sentinel.ErrNotFound
	}
	if _, exists := s.registrations[key{studentID, to}]; exists {
		return sentinel.ErrConflict
	}

	registration.SessionID = to
	s.registrations[key{studentID, to}] = registration
	delete(s.registrations, key{studentID, from})
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, studentID domain.StudentID, sessionID domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{studentID, sessionID}
	if _, ok := s.registrations[k]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.registrations, k)
	return nil
}

func sortByCreation(registrations []Registration) {
	sort.Slice(registrations, func(i, j int) bool {
		return registrations[i].CreatedAt.Before(registrations[j].CreatedAt)
	})
}
