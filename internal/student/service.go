package student

import (
	"context"
	"errors"
	"log/slog"

	"examreg/pkg/domain"
	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/platform/sentinel"
)

type Store interface {
	FindByID(ctx context.Context, id domain.StudentID) (*Profile, error)
	Upsert(ctx context.Context, profile Profile) error
	BulkUpsert(ctx context.Context, profiles []Profile) (int, error)
	Count(ctx context.Context) (int, error)
}

// Service owns profile lookups and writes.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup fetches the profile for a raw student code.
func (s *Service) Lookup(ctx context.Context, rawID string) (*Profile, error) {
	id, err := domain.ParseStudentID(rawID)
	if err != nil {
		return nil, err
	}

	profile, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "student not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up student")
	}
	return profile, nil
}

// Exists reports whether a profile is on record for the id.
func (s *Service) Exists(ctx context.Context, id domain.StudentID) (bool, error) {
	_, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "look up student")
	}
	return true, nil
}

// Upsert writes a single profile, administrative path.
func (s *Service) Upsert(ctx context.Context, profile Profile) error {
	profile.Normalize()
	if err := profile.Validate(); err != nil {
		return dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}
	if err := s.store.Upsert(ctx, profile); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "upsert student")
	}
	return nil
}

// SubmitBatch writes one import batch. The batch is atomic: any invalid row
// fails the whole batch so the import pipeline can record the index and move
// on without half-written batches.
func (s *Service) SubmitBatch(ctx context.Context, profiles []Profile) (int, error) {
	normalized := make([]Profile, len(profiles))
	for i, p := range profiles {
		p.Normalize()
		if err := p.Validate(); err != nil {
			return 0, dErrors.Newf(dErrors.CodeValidation, "row %s: %s", p.StudentID, dErrors.MessageOf(err))
		}
		normalized[i] = p
	}

	accepted, err := s.store.BulkUpsert(ctx, normalized)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "write student batch")
	}
	return accepted, nil
}
