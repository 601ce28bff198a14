package ratelimit

import (
	"context"
	"sync"
	"time"

	"examreg/pkg/requestcontext"
)

// InMemoryLimiter implements Limiter with an in-process sliding window.
// Single-node only; use the Redis limiter when running replicated.
type InMemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*slidingWindow
}

// slidingWindow tracks event timestamps so counts decay continuously instead
// of resetting at fixed boundaries.
type slidingWindow struct {
	timestamps []time.Time
	window     time.Duration
}

func NewInMemoryLimiter() *InMemoryLimiter {
	return &InMemoryLimiter{windows: make(map[string]*slidingWindow)}
}

func (l *InMemoryLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := requestcontext.Now(ctx)
	sw := l.getOrCreate(key, window)
	sw.cleanup(now)

	if len(sw.timestamps)+1 > limit {
		// A non-positive limit denies everything; the window is empty then,
		// so the reset falls back to one full window from now.
		resetAt := now.Add(window)
		if len(sw.timestamps) > 0 {
			resetAt = sw.timestamps[0].Add(window)
		}
		return &Result{
			Allowed: false,
			Limit:   limit,
			ResetAt: resetAt,
		}, nil
	}

	sw.timestamps = append(sw.timestamps, now)
	return &Result{
		Allowed:   true,
		Remaining: limit - len(sw.timestamps),
		Limit:     limit,
		ResetAt:   sw.timestamps[0].Add(window),
	}, nil
}

func (l *InMemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
	return nil
}

func (sw *slidingWindow) cleanup(now time.Time) {
	cutoff := now.Add(-sw.window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}

// getOrCreate must be called with l.mu held.
func (l *InMemoryLimiter) getOrCreate(key string, window time.Duration) *slidingWindow {
	if sw := l.windows[key]; sw != nil {
		return sw
	}
	sw := &slidingWindow{window: window}
	l.windows[key] = sw
	return sw
}
