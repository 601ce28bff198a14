package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"examreg/internal/audit"
	"examreg/internal/ratelimit"
	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/platform/sentinel"
	"examreg/pkg/requestcontext"
)

// Assertions issues proof-of-contact tokens on successful verification.
type Assertions interface {
	Issue(ctx context.Context, address string) (string, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Config tunes challenge issuance.
type Config struct {
	TTL         time.Duration
	CodeLength  int
	IssueLimit  int
	IssueWindow time.Duration
}

// Service orchestrates code issuance, delivery, and one-shot verification.
type Service struct {
	store      Store
	limiter    ratelimit.Limiter
	sender     Sender
	assertions Assertions
	cfg        Config

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

// NewService constructs a Service.
func NewService(store Store, limiter ratelimit.Limiter, sender Sender, assertions Assertions, cfg Config, opts ...Option) *Service {
	s := &Service{
		store:      store,
		limiter:    limiter,
		sender:     sender,
		assertions: assertions,
		cfg:        cfg,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue generates a fresh code for the address, superseding any prior
// unconsumed one, and hands it to the Sender. The code is never returned to
// the caller.
func (s *Service) Issue(ctx context.Context, address string) error {
	address, err := normalizeAddress(address)
	if err != nil {
		return err
	}

	result, err := s.limiter.Allow(ctx, "otp:issue:"+address, s.cfg.IssueLimit, s.cfg.IssueWindow)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "check issuance limit")
	}
	if !result.Allowed {
		if s.metrics != nil {
			s.metrics.IssueRateLimited.Inc()
		}
		return dErrors.New(dErrors.CodeRateLimited, "too many verification codes requested, try again later")
	}

	code, err := generateCode(s.cfg.CodeLength)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "generate verification code")
	}

	now := requestcontext.Now(ctx)
	challenge := Challenge{
		Address:   address,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.TTL),
	}
	if err := s.store.Put(ctx, challenge); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "store verification code")
	}

	if err := s.sender.Send(ctx, address, code); err != nil {
		if s.metrics != nil {
			s.metrics.DeliveryFailures.Inc()
		}
		s.logger.ErrorContext(ctx, "verification code delivery failed",
			"address", address, "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "deliver verification code")
	}

	if s.metrics != nil {
		s.metrics.ChallengesIssued.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Action:  audit.ActionOTPIssued,
		Subject: address,
	})
	return nil
}

// Verify consumes the active challenge for the address. On success it
// returns a verified-contact assertion the caller presents when registering.
// The four failure modes are distinct because the corrective action differs:
// resend on expiry, re-type on mismatch, restart the flow on replay.
func (s *Service) Verify(ctx context.Context, address, code string) (string, error) {
	address, err := normalizeAddress(address)
	if err != nil {
		return "", err
	}

	if err := s.store.Consume(ctx, address, strings.TrimSpace(code)); err != nil {
		reason, derr := translateConsumeError(err)
		if s.metrics != nil && reason != "" {
			s.metrics.VerifyFailures.WithLabelValues(reason).Inc()
		}
		return "", derr
	}

	token, err := s.assertions.Issue(ctx, address)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "issue contact assertion")
	}

	if s.metrics != nil {
		s.metrics.VerifySuccesses.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Action:  audit.ActionOTPVerified,
		Subject: address,
	})
	return token, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

func translateConsumeError(err error) (reason string, derr error) {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return "not_found", dErrors.New(dErrors.CodeOTPNotFound, "no verification code issued for this address")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return "already_consumed", dErrors.New(dErrors.CodeOTPConsumed, "verification code already used")
	case errors.Is(err, sentinel.ErrExpired):
		return "expired", dErrors.New(dErrors.CodeOTPExpired, "verification code has expired")
	case errors.Is(err, sentinel.ErrMismatch):
		return "mismatch", dErrors.New(dErrors.CodeOTPMismatch, "verification code does not match")
	default:
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "verify code")
	}
}

func normalizeAddress(address string) (string, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" || !strings.Contains(address, "@") {
		return "", dErrors.New(dErrors.CodeValidation, "a valid contact email address is required")
	}
	return address, nil
}

func generateCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
