package registration

import (
	"context"
	"errors"
	"log/slog"

	"examreg/internal/audit"
	"examreg/internal/examsession"
	"examreg/internal/payment"
	"examreg/pkg/domain"
	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/platform/sentinel"
	"examreg/pkg/requestcontext"
)

// Admissions is the slot-reservation boundary. Reserve-before-release
// ordering in Transfer depends on these being separate operations.
type Admissions interface {
	Get(ctx context.Context, id domain.SessionID) (*examsession.ExamSession, error)
	ReserveSlot(ctx context.Context, id domain.SessionID) error
	ReleaseSlot(ctx context.Context, id domain.SessionID) error
}

// StudentDirectory answers whether a profile exists; registration never
// creates profiles implicitly.
type StudentDirectory interface {
	Exists(ctx context.Context, id domain.StudentID) (bool, error)
}

// AssertionConsumer retires a verified-contact assertion, enforcing that the
// contact was verified for this specific use.
type AssertionConsumer interface {
	Consume(ctx context.Context, token, address string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns registration state transitions.
type Service struct {
	store      Store
	admissions Admissions
	students   StudentDirectory
	assertions AssertionConsumer

	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func NewService(store Store, admissions Admissions, students StudentDirectory, assertions AssertionConsumer, opts ...Option) *Service {
	s := &Service{
		store:      store,
		admissions: admissions,
		students:   students,
		assertions: assertions,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterRequest carries everything Register needs. Assertion is the token
// returned by code verification; it must match Contact.Email and is consumed
// by this call.
type RegisterRequest struct {
	StudentID domain.StudentID
	SessionID domain.SessionID
	Contact   Contact
	Assertion string
}

// Register creates a Pending registration after the full admission gauntlet:
// verified contact, existing profile, no duplicate, and an atomically
// reserved slot. The reserved slot is released again if the write fails.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Details, error) {
	req.Contact.Normalize()
	if err := req.Contact.Validate(); err != nil {
		return nil, err
	}

	if err := s.assertions.Consume(ctx, req.Assertion, req.Contact.Email); err != nil {
		s.countDenied(err)
		return nil, err
	}

	exists, err := s.students.Exists(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, dErrors.New(dErrors.CodeNotFound, "no student profile on record for this id")
	}

	if _, err := s.store.Find(ctx, req.StudentID, req.SessionID); err == nil {
		// Surface the duplicate explicitly so the caller can offer the
		// existing registration instead of failing silently.
		s.countDenied(dErrors.New(dErrors.CodeAlreadyRegistered, ""))
		return nil, dErrors.New(dErrors.CodeAlreadyRegistered, "student is already registered for this session")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "check existing registration")
	}

	if err := s.admissions.ReserveSlot(ctx, req.SessionID); err != nil {
		s.countDenied(err)
		return nil, err
	}

	registration := &Registration{
		StudentID: req.StudentID,
		SessionID: req.SessionID,
		Email:     req.Contact.Email,
		Phone:     req.Contact.Phone,
		Status:    StatusPending,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, registration); err != nil {
		s.compensate(ctx, req.SessionID, "registration write failed")
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeAlreadyRegistered, "student is already registered for this session")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create registration")
	}

	if s.metrics != nil {
		s.metrics.RegistrationsCreated.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Action:    audit.ActionRegistrationCreated,
		Subject:   registration.StudentID.String(),
		SessionID: registration.SessionID.String(),
	})
	return s.details(ctx, registration)
}

// Transfer moves a Pending registration from one session to another. The
// target slot is reserved before the source is touched, so a failure at any
// later step can only leave an extra reservation on the target, which the
// compensating release removes; occupancy never drifts.
func (s *Service) Transfer(ctx context.Context, studentID domain.StudentID, from, to domain.SessionID) (*Details, error) {
	if from == to {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "source and target sessions are the same")
	}

	existing, err := s.store.Find(ctx, studentID, from)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load registration")
	}
	if existing.Status != StatusPending {
		return nil, dErrors.New(dErrors.CodeNotPending, "only pending registrations can be moved")
	}

	if err := s.admissions.ReserveSlot(ctx, to); err != nil {
		return nil, err
	}

	if err := s.store.Move(ctx, studentID, from, to); err != nil {
		s.compensate(ctx, to, "registration move failed")
		if s.metrics != nil {
			s.metrics.TransfersCompensated.Inc()
		}
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeAlreadyRegistered, "student is already registered for the target session")
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "move registration")
	}

	if err := s.admissions.ReleaseSlot(ctx, from); err != nil {
		// The move itself committed; log the stranded source slot rather
		// than failing the caller's transfer.
		s.logger.ErrorContext(ctx, "release of source slot failed after transfer",
			"student_id", studentID, "from", from, "error", err)
	}

	if s.metrics != nil {
		s.metrics.Transfers.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Action:    audit.ActionRegistrationMoved,
		Subject:   studentID.String(),
		SessionID: to.String(),
		Reason:    "from " + from.String(),
	})

	moved := *existing
	moved.SessionID = to
	return s.details(ctx, &moved)
}

// SetStatus flips payment settlement, administrative path. Occupancy is
// unaffected; both Pending and Paid hold a slot.
func (s *Service) SetStatus(ctx context.Context, studentID domain.StudentID, sessionID domain.SessionID, status Status) (*Registration, error) {
	if err := s.store.UpdateStatus(ctx, studentID, sessionID, status); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update registration status")
	}

	s.emitAudit(ctx, audit.Event{
		Action:    audit.ActionRegistrationStatusSet,
		Subject:   studentID.String(),
		SessionID: sessionID.String(),
		Reason:    string(status),
	})

	registration, err := s.store.Find(ctx, studentID, sessionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load registration")
	}
	return registration, nil
}

// Delete removes the registration and frees its slot.
func (s *Service) Delete(ctx context.Context, studentID domain.StudentID, sessionID domain.SessionID) error {
	if err := s.store.Delete(ctx, studentID, sessionID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete registration")
	}

	if err := s.admissions.ReleaseSlot(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "release slot failed after deletion",
			"student_id", studentID, "session_id", sessionID, "error", err)
	}

	if s.metrics != nil {
		s.metrics.Deletions.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Action:    audit.ActionRegistrationDeleted,
		Subject:   studentID.String(),
		SessionID: sessionID.String(),
	})
	return nil
}

// GetForStudent lists a student's registrations with payment instructions.
func (s *Service) GetForStudent(ctx context.Context, studentID domain.StudentID) ([]Details, error) {
	registrations, err := s.store.FindByStudent(ctx, studentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list registrations")
	}

	details := make([]Details, 0, len(registrations))
	for i := range registrations {
		d, err := s.details(ctx, &registrations[i])
		if err != nil {
			return nil, err
		}
		details = append(details, *d)
	}
	return details, nil
}

// ListBySession lists registrations for a session, administrative view.
func (s *Service) ListBySession(ctx context.Context, sessionID domain.SessionID) ([]Registration, error) {
	registrations, err := s.store.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list registrations")
	}
	return registrations, nil
}

func (s *Service) details(ctx context.Context, registration *Registration) (*Details, error) {
	session, err := s.admissions.Get(ctx, registration.SessionID)
	if err != nil {
		return nil, err
	}
	return &Details{
		Registration: *registration,
		SessionName:  session.Name,
		ExamDate:     session.ExamDate,
		Payment: payment.InstructionsFor(registration.StudentID,
			registration.SessionID, session.ExamDate, session.Fee),
	}, nil
}

// compensate releases a slot reserved by an operation that failed afterward.
func (s *Service) compensate(ctx context.Context, sessionID domain.SessionID, reason string) {
	if err := s.admissions.ReleaseSlot(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "compensating slot release failed",
			"session_id", sessionID, "reason", reason, "error", err)
	}
}

func (s *Service) countDenied(err error) {
	if s.metrics != nil && dErrors.IsRejection(dErrors.CodeOf(err)) {
		s.metrics.RegistrationsDenied.WithLabelValues(string(dErrors.CodeOf(err))).Inc()
	}
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.Actor = requestcontext.AdminActor(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
