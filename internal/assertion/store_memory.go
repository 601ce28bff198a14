package assertion

import (
	"context"
	"sync"
	"time"

	"examreg/pkg/platform/sentinel"
	"examreg/pkg/requestcontext"
)

// InMemoryUsedStore tracks consumed token IDs in process memory.
type InMemoryUsedStore struct {
	mu   sync.Mutex
	used map[string]time.Time
}

func NewInMemoryUsedStore() *InMemoryUsedStore {
	return &InMemoryUsedStore{used: make(map[string]time.Time)}
}

// MarkUsed records jti as consumed. Returns sentinel.ErrAlreadyUsed when a
// previous consumption is still within its retention window.
func (s *InMemoryUsedStore) MarkUsed(ctx context.Context, jti string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := requestcontext.Now(ctx)
	if expiry, ok := s.used[jti]; ok && expiry.After(now) {
		return sentinel.ErrAlreadyUsed
	}
	s.used[jti] = now.Add(ttl)
	return nil
}
