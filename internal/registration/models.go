// Package registration owns the registration lifecycle: creation behind the
// verified-contact gate, transfer between sessions, payment status, and
// deletion. Any transition that grows a session's occupancy goes through the
// admission controller.
package registration

import (
	"strings"
	"time"

	"examreg/internal/payment"
	"examreg/pkg/domain"
	dErrors "examreg/pkg/domain-errors"
)

// Status is the payment settlement state. Occupancy counts both states; only
// deletion frees a slot.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, nil
	case StatusPaid:
		return StatusPaid, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown registration status %q", raw)
	}
}

// Registration is keyed by (student, session).
type Registration struct {
	StudentID domain.StudentID `json:"student_id"`
	SessionID domain.SessionID `json:"session_id"`
	Email     string           `json:"email"`
	Phone     string           `json:"phone"`
	Status    Status           `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

// Contact is the address pair captured at registration time.
type Contact struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (c *Contact) Normalize() {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)
}

func (c Contact) Validate() error {
	if c.Email == "" || !strings.Contains(c.Email, "@") {
		return dErrors.New(dErrors.CodeValidation, "a valid contact email address is required")
	}
	return nil
}

// Details pairs a registration with its payment instructions for display.
type Details struct {
	Registration Registration         `json:"registration"`
	SessionName  string               `json:"session_name"`
	ExamDate     time.Time            `json:"exam_date"`
	Payment      payment.Instructions `json:"payment"`
}
