package otp

import "context"

// Store holds at most one challenge per address.
//
// Consume must be atomic: concurrent verifications of the same challenge
// yield exactly one success, and it distinguishes its failures via
// sentinel errors so the service can map them to the closed taxonomy:
// ErrNotFound (no challenge issued), ErrExpired, ErrMismatch (wrong code),
// ErrAlreadyUsed (challenge was consumed earlier).
type Store interface {
	// Put replaces any existing challenge for the address, consumed or not.
	Put(ctx context.Context, challenge Challenge) error
	// Consume validates code against the active challenge for address and
	// marks it consumed on success.
	Consume(ctx context.Context, address, code string) error
}
