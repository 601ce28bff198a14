package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	err := New(CodeSessionFull, "no capacity")
	assert.True(t, HasCode(err, CodeSessionFull))
	assert.False(t, HasCode(err, CodeSessionClosed))
	assert.False(t, HasCode(nil, CodeSessionFull))
}

func TestHasCodeThroughWrapping(t *testing.T) {
	inner := New(CodeOTPExpired, "expired")
	wrapped := fmt.Errorf("verify: %w", inner)
	assert.True(t, HasCode(wrapped, CodeOTPExpired))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "store unavailable")

	assert.True(t, HasCode(err, CodeInternal))
	assert.ErrorIs(t, err, cause)
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.Equal(t, CodeSessionFull, CodeOf(New(CodeSessionFull, "full")))
}

func TestRejectionVsFault(t *testing.T) {
	assert.True(t, IsRejection(CodeSessionFull))
	assert.True(t, IsRejection(CodeDeadlinePassed))
	assert.True(t, IsRejection(CodeOTPMismatch))
	assert.False(t, IsRejection(CodeInternal))
	assert.False(t, IsRejection(CodeNotFound))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeOTPMismatch:       http.StatusBadRequest,
		CodeAssertionInvalid:  http.StatusUnauthorized,
		CodeOTPNotFound:       http.StatusNotFound,
		CodeAlreadyRegistered: http.StatusConflict,
		CodeSessionFull:       http.StatusConflict,
		CodeOTPExpired:        http.StatusGone,
		CodeDeadlinePassed:    http.StatusUnprocessableEntity,
		CodeRateLimited:       http.StatusTooManyRequests,
		CodeInternal:          http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}
