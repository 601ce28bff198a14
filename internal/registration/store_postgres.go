package registration

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"examreg/pkg/domain"
	"examreg/pkg/platform/sentinel"
)

// PostgresStore persists registrations with a composite primary key on
// (student_id, session_id).
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == uniqueViolation
	}
	return false
}

func (s *PostgresStore) Create(ctx context.Context, registration *Registration) error {
	query := `
		INSERT INTO registrations (student_id, session_id, email, phone, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		registration.StudentID.String(), registration.SessionID.String(),
		registration.Email, registration.Phone, string(registration.Status),
		registration.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, studentID domain.StudentID, sessionID domain.SessionID) (*Registration, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT student_id, session_id, email, phone, status, created_at
		FROM registrations
		WHERE student_id = $1 AND session_id = $2
	`, studentID.String(), sessionID.String())

	registration, err := scanRegistration(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return registration, nil
}

func (s *PostgresStore) FindByStudent(ctx context.Context, studentID domain.StudentID) ([]Registration, error) {
	return s.query(ctx, `
		SELECT student_id, session_id, email, phone, status, created_at
		FROM registrations
		WHERE student_id = $1
		ORDER BY created_at
	`, studentID.String())
}

func (s *PostgresStore) ListBySession(ctx context.Context, sessionID domain.SessionID) ([]Registration, error) {
	return s.query(ctx, `
		SELECT student_id, session_id, email, phone, status, created_at
		FROM registrations
		WHERE session_id = $1
		ORDER BY created_at
	`, sessionID.String())
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, studentID domain.StudentID, sessionID domain.SessionID, status Status) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE registrations
		SET status = $3
		WHERE student_id = $1 AND session_id = $2
	`, studentID.String(), sessionID.String(), string(status))
	if err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	return requireAffected(result, "update registration status")
}

func (s *PostgresStore) Move(ctx context.Context, studentID domain.StudentID, from, to domain.SessionID) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE registrations
		SET session_id = $3
		WHERE student_id = $1 AND session_id = $2
	`, studentID.String(), from.String(), to.String())
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("move registration: %w", err)
	}
	return requireAffected(result, "move registration")
}

func (s *PostgresStore) Delete(ctx context.Context, studentID domain.StudentID, sessionID domain.SessionID) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM registrations
		WHERE student_id = $1 AND session_id = $2
	`, studentID.String(), sessionID.String())
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	return requireAffected(result, "delete registration")
}

func (s *PostgresStore) query(ctx context.Context, query string, arg any) ([]Registration, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	defer rows.Close()

	var registrations []Registration
	for rows.Next() {
		registration, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		registrations = append(registrations, *registration)
	}
	return registrations, rows.Err()
}

func requireAffected(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (*Registration, error) {
	var registration Registration
	var studentID, sessionID, status string
	if err := row.Scan(&studentID, &sessionID, &registration.Email,
		&registration.Phone, &status, &registration.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan registration: %w", err)
	}

	parsedSession, err := domain.ParseSessionID(sessionID)
	if err != nil {
		return nil, fmt.Errorf("scan registration session id: %w", err)
	}
	registration.StudentID = domain.StudentID(studentID)
	registration.SessionID = parsedSession
	registration.Status = Status(status)
	return &registration, nil
}
