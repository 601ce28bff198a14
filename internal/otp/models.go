// Package otp issues and verifies the short-lived one-time codes that gate
// self-service registration. One active challenge per contact address;
// issuing a new code supersedes the previous one, and verification is
// one-shot.
package otp

import "time"

// Challenge is a pending verification code bound to a contact address.
type Challenge struct {
	Address   string
	Code      string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Consumed  bool
}

func (c Challenge) expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
