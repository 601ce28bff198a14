package examsession

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"examreg/pkg/domain"
	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/platform/sentinel"
)

// PostgresStore persists sessions. ReserveSlot relies on a single guarded
// UPDATE so the capacity predicate and the increment are evaluated under the
// row lock; concurrent reservations serialize on the row.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, session *ExamSession) error {
	query := `
		INSERT INTO exam_sessions (id, name, exam_date, capacity, occupancy, fee, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		session.ID.String(), session.Name, session.ExamDate,
		session.Capacity, session.Occupancy, session.Fee, string(session.Status))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, session *ExamSession) error {
	query := `
		UPDATE exam_sessions
		SET name = $2, exam_date = $3, capacity = $4, fee = $5, status = $6
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		session.ID.String(), session.Name, session.ExamDate,
		session.Capacity, session.Fee, string(session.Status))
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.SessionID) (*ExamSession, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, name, exam_date, capacity, occupancy, fee, status
		FROM exam_sessions
		WHERE id = $1
	`, id.String()))
}

func (s *PostgresStore) List(ctx context.Context) ([]ExamSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, exam_date, capacity, occupancy, fee, status
		FROM exam_sessions
		ORDER BY exam_date
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []ExamSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// ReserveSlot increments occupancy only when every admission predicate holds
// in the same statement. When no row was updated, a follow-up read diagnoses
// which predicate failed; the diagnosis read does not need to be atomic with
// the update because it only selects the error message.
func (s *PostgresStore) ReserveSlot(ctx context.Context, id domain.SessionID, now time.Time, cutoff time.Duration) error {
	deadline := now.Add(cutoff)
	query := `
		UPDATE exam_sessions
		SET occupancy = occupancy + 1
		WHERE id = $1
		  AND status = 'active'
		  AND exam_date >= $2
		  AND occupancy < capacity
	`
	result, err := s.db.ExecContext(ctx, query, id.String(), deadline)
	if err != nil {
		return fmt.Errorf("reserve slot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reserve slot: %w", err)
	}
	if affected == 1 {
		return nil
	}

	session, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if admErr := session.Admissible(now, cutoff); admErr != nil {
		return admErr
	}
	// The session became admissible again between the failed update and the
	// diagnosis read. Report a retryable conflict instead of claiming a slot
	// that was never incremented.
	return dErrors.New(dErrors.CodeConflict, "session changed concurrently, retry")
}

func (s *PostgresStore) ReleaseSlot(ctx context.Context, id domain.SessionID) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE exam_sessions
		SET occupancy = occupancy - 1
		WHERE id = $1 AND occupancy > 0
	`, id.String())
	if err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	if affected == 0 {
		// Either the session is gone or occupancy was already zero; both
		// leave nothing to release.
		if _, findErr := s.FindByID(ctx, id); findErr != nil {
			return findErr
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanOne(row *sql.Row) (*ExamSession, error) {
	session, err := scanSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return session, nil
}

func scanSession(row rowScanner) (*ExamSession, error) {
	var session ExamSession
	var id, status string
	if err := row.Scan(&id, &session.Name, &session.ExamDate,
		&session.Capacity, &session.Occupancy, &session.Fee, &status); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	parsed, err := domain.ParseSessionID(id)
	if err != nil {
		return nil, fmt.Errorf("scan session id: %w", err)
	}
	session.ID = parsed
	session.Status = Status(status)
	return &session, nil
}
