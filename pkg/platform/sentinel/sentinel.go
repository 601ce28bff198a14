package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so services can translate them into coded
// domain errors at the boundary.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: entity already exists or a uniqueness rule was hit
// - ErrExpired: challenge/assertion past its TTL
// - ErrAlreadyUsed: one-shot resource (OTP challenge, assertion jti) already consumed
// - ErrMismatch: presented credential does not match the stored one
// - ErrInvalidState: entity in wrong state for the requested operation
// - ErrExhausted: conditional counter update refused (no capacity left)
// - ErrUnavailable: backing service temporarily unreachable
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrAlreadyUsed  = errors.New("already used")
	ErrMismatch     = errors.New("mismatch")
	ErrInvalidState = errors.New("invalid state")
	ErrExhausted    = errors.New("exhausted")
	ErrUnavailable  = errors.New("unavailable")
)
