package examsession

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"examreg/internal/audit"
	"examreg/pkg/domain"
	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/platform/sentinel"
	"examreg/pkg/requestcontext"
)

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the session admission controller plus the administrative CRUD
// around session definitions.
type Service struct {
	store  Store
	cutoff time.Duration

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

// NewService constructs a Service. cutoff is the window before the exam date
// during which new registrations are refused.
func NewService(store Store, cutoff time.Duration, opts ...Option) *Service {
	s := &Service{store: store, cutoff: cutoff, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get fetches a session by id.
func (s *Service) Get(ctx context.Context, id domain.SessionID) (*ExamSession, error) {
	session, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load session")
	}
	return session, nil
}

// CheckAdmissible evaluates the admission rules without reserving anything.
// Advisory only; Register relies on ReserveSlot's atomic re-check.
func (s *Service) CheckAdmissible(ctx context.Context, id domain.SessionID) error {
	session, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return session.Admissible(requestcontext.Now(ctx), s.cutoff)
}

// ReserveSlot claims one slot, re-validating admissibility atomically in the
// store. Exactly one of two callers racing for the last slot succeeds.
func (s *Service) ReserveSlot(ctx context.Context, id domain.SessionID) error {
	err := s.store.ReserveSlot(ctx, id, requestcontext.Now(ctx), s.cutoff)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			err = dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		if s.metrics != nil && dErrors.IsRejection(dErrors.CodeOf(err)) {
			s.metrics.AdmissionDenied.WithLabelValues(string(dErrors.CodeOf(err))).Inc()
		}
		return err
	}
	if s.metrics != nil {
		s.metrics.SlotsReserved.Inc()
	}
	return nil
}

// ReleaseSlot returns a previously reserved slot.
func (s *Service) ReleaseSlot(ctx context.Context, id domain.SessionID) error {
	if err := s.store.ReleaseSlot(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "release slot")
	}
	if s.metrics != nil {
		s.metrics.SlotsReleased.Inc()
	}
	return nil
}

// ListOpen returns upcoming and active sessions with the advisory flags the
// registration form renders. Closed sessions are omitted.
func (s *Service) ListOpen(ctx context.Context) ([]OpenSession, error) {
	sessions, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list sessions")
	}

	now := requestcontext.Now(ctx)
	open := make([]OpenSession, 0, len(sessions))
	for _, session := range sessions {
		if session.Status == StatusClosed {
			continue
		}
		open = append(open, OpenSession{
			ExamSession: session,
			IsExpired:   now.After(session.ExamDate.Add(-s.cutoff)),
			IsFull:      session.Occupancy >= session.Capacity,
		})
	}
	return open, nil
}

// ListAll returns every session, administrative view.
func (s *Service) ListAll(ctx context.Context) ([]ExamSession, error) {
	sessions, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list sessions")
	}
	return sessions, nil
}

// Create defines a new session, administrative path.
func (s *Service) Create(ctx context.Context, session *ExamSession) (*ExamSession, error) {
	if session.ID.IsZero() {
		session.ID = domain.NewSessionID()
	}
	if session.Status == "" {
		session.Status = StatusUpcoming
	}
	session.Occupancy = 0
	if err := session.Validate(); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}

	if err := s.store.Create(ctx, session); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "session already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create session")
	}

	s.emitAudit(ctx, audit.Event{
		Action:    audit.ActionSessionCreated,
		SessionID: session.ID.String(),
	})
	return session, nil
}

// Update edits a session definition. The exam date is immutable once any
// registration exists: moving the date would invalidate admission decisions
// already communicated to registrants.
func (s *Service) Update(ctx context.Context, update *ExamSession) (*ExamSession, error) {
	existing, err := s.Get(ctx, update.ID)
	if err != nil {
		return nil, err
	}

	if existing.Occupancy > 0 && !update.ExamDate.Equal(existing.ExamDate) {
		return nil, dErrors.New(dErrors.CodeConflict, "exam date cannot change once registrations exist")
	}
	if update.Capacity < existing.Occupancy {
		return nil, dErrors.New(dErrors.CodeConflict, "capacity cannot drop below current occupancy")
	}

	update.Occupancy = existing.Occupancy
	if err := update.Validate(); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}

	if err := s.store.Update(ctx, update); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update session")
	}

	s.emitAudit(ctx, audit.Event{
		Action:    audit.ActionSessionUpdated,
		SessionID: update.ID.String(),
	})
	return update, nil
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
