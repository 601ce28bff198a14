// Package payment derives the reference strings students put on their bank
// transfers. References are reconciled out-of-band against incoming
// transfers, so generation must be deterministic: the same registration
// always yields the identical string.
package payment

import (
	"fmt"
	"time"

	"examreg/pkg/domain"
)

// referenceTag prefixes every reference so bank statements can be filtered.
const referenceTag = "TA"

// Reference builds the transfer reference for a registration. Format:
// "TA <exam year> Dot <session id> <student id>". Pure function of its
// inputs; contains no secrets.
func Reference(studentID domain.StudentID, sessionID domain.SessionID, examDate time.Time) string {
	return fmt.Sprintf("%s %d Dot %s %s", referenceTag, examDate.Year(), sessionID, studentID)
}

// Instructions bundles what the payer needs to settle a registration fee.
type Instructions struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

// InstructionsFor pairs the reference with the session's fee. The fee is read
// from the session at display time so an administrative fee correction is
// reflected without touching stored registrations.
func InstructionsFor(studentID domain.StudentID, sessionID domain.SessionID, examDate time.Time, fee int64) Instructions {
	return Instructions{
		Reference: Reference(studentID, sessionID, examDate),
		Amount:    fee,
		Currency:  "VND",
	}
}
