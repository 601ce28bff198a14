package otp

import (
	"context"
	"crypto/subtle"
	"sync"

	"examreg/pkg/platform/sentinel"
	"examreg/pkg/requestcontext"
)

// InMemoryStore keeps challenges in process memory. Consumed challenges stay
// behind as tombstones so a replayed verification is told "already used"
// rather than "not found"; Cleanup drops them once expired.
type InMemoryStore struct {
	mu         sync.Mutex
	challenges map[string]*Challenge
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{challenges: make(map[string]*Challenge)}
}

func (s *InMemoryStore) Put(_ context.Context, challenge Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[challenge.Address] = &challenge
	return nil
}

func (s *InMemoryStore) Consume(ctx context.Context, address, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.challenges[address]
	if !ok {
		return sentinel.ErrNotFound
	}
	if challenge.Consumed {
		return sentinel.ErrAlreadyUsed
	}
	if challenge.expired(requestcontext.Now(ctx)) {
		return sentinel.ErrExpired
	}
	if subtle.ConstantTimeCompare([]byte(challenge.Code), []byte(code)) != 1 {
		return sentinel.ErrMismatch
	}

	challenge.Consumed = true
	return nil
}

// Cleanup removes expired challenges and spent tombstones.
func (s *InMemoryStore) Cleanup(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := requestcontext.Now(ctx)
	removed := 0
	for address, challenge := range s.challenges {
		if challenge.expired(now) {
			delete(s.challenges, address)
			removed++
		}
	}
	return removed
}
