// Package domainerrors defines the closed error taxonomy for the registration
// engine. Every public operation fails with one of these codes, never a bare
// error, so transports can map failures mechanically and callers can tell
// business rejections (refuse and stop) from infrastructure faults (retry).
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a failure class. Values are wire-stable: they appear in the
// JSON error envelope.
type Code string

const (
	CodeInternal           Code = "internal_error"
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeInvariantViolation Code = "invariant_violation"
	CodeRateLimited        Code = "rate_limited"

	// Admission rejections. These are expected outcomes, not faults.
	CodeSessionClosed  Code = "session_closed"
	CodeDeadlinePassed Code = "deadline_passed"
	CodeSessionFull    Code = "session_full"

	// Registration lifecycle rejections.
	CodeAlreadyRegistered Code = "already_registered"
	CodeNotPending        Code = "not_pending"
	CodeAssertionInvalid  Code = "assertion_invalid"

	// OTP verification outcomes. Each maps to a different corrective action
	// for the caller: resend, re-type, or restart the flow.
	CodeOTPNotFound Code = "otp_not_found"
	CodeOTPExpired  Code = "otp_expired"
	CodeOTPMismatch Code = "otp_mismatch"
	CodeOTPConsumed Code = "otp_consumed"
)

// Error carries a code, a human-readable message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. The cause stays
// reachable through errors.Is / errors.Unwrap.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded
// errors so unknown failures are never presented as business rejections.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the message from a coded error, empty otherwise.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// IsRejection reports whether the code is a business-rule rejection rather
// than an infrastructure fault. Rejections are terminal for the caller;
// faults may be retried.
func IsRejection(code Code) bool {
	switch code {
	case CodeSessionClosed, CodeDeadlinePassed, CodeSessionFull,
		CodeAlreadyRegistered, CodeNotPending, CodeAssertionInvalid,
		CodeOTPNotFound, CodeOTPExpired, CodeOTPMismatch, CodeOTPConsumed,
		CodeRateLimited:
		return true
	}
	return false
}

// ToHTTPStatus maps a code to its HTTP response status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeInvalidInput, CodeOTPMismatch:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeAssertionInvalid:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound, CodeOTPNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeAlreadyRegistered, CodeNotPending,
		CodeSessionClosed, CodeSessionFull, CodeOTPConsumed:
		return http.StatusConflict
	case CodeOTPExpired:
		return http.StatusGone
	case CodeDeadlinePassed:
		return http.StatusUnprocessableEntity
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
