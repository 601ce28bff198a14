package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	// Subject is the student code the action concerns, when there is one.
	Subject string
	Action  string
	// Actor is the administrative account that performed the action; empty
	// for public self-service traffic.
	Actor     string
	SessionID string
	RequestID string
	Reason    string
}

// Action names the engine emits. Keeping them in one place makes the audit
// trail greppable.
const (
	ActionOTPIssued             = "otp_issued"
	ActionOTPVerified           = "otp_verified"
	ActionRegistrationCreated   = "registration_created"
	ActionRegistrationMoved     = "registration_transferred"
	ActionRegistrationStatusSet = "registration_status_set"
	ActionRegistrationDeleted   = "registration_deleted"
	ActionSessionCreated        = "session_created"
	ActionSessionUpdated        = "session_updated"
	ActionImportCompleted       = "import_completed"
)
