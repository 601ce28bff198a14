// Package ratelimit provides sliding-window request limiting used to cap
// verification code issuance per contact address.
package ratelimit

import (
	"context"
	"time"
)

// Result reports the outcome of a limiter check.
type Result struct {
	Allowed   bool
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// Limiter checks and counts events against a sliding window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
	Reset(ctx context.Context, key string) error
}
