package student

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"examreg/pkg/domain"
	"examreg/pkg/platform/sentinel"
	txcontext "examreg/pkg/platform/tx"
	"examreg/pkg/requestcontext"
)

// PostgresStore persists profiles keyed by student code. Writes go through
// the transaction-aware executor so a caller holding a transaction gets its
// writes joined to it.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.StudentID) (*Profile, error) {
	var p Profile
	var studentID string
	err := txcontext.From(ctx, s.db).QueryRowContext(ctx, `
		SELECT student_id, full_name, birth_date, faculty, email, phone, updated_at
		FROM students
		WHERE student_id = $1
	`, id.String()).Scan(&studentID, &p.FullName, &p.BirthDate, &p.Faculty, &p.Email, &p.Phone, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	p.StudentID = domain.StudentID(studentID)
	return &p, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, profile Profile) error {
	query := `
		INSERT INTO students (student_id, full_name, birth_date, faculty, email, phone, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (student_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			birth_date = EXCLUDED.birth_date,
			faculty = EXCLUDED.faculty,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			updated_at = EXCLUDED.updated_at
	`
	_, err := txcontext.From(ctx, s.db).ExecContext(ctx, query,
		profile.StudentID.String(), profile.FullName, profile.BirthDate,
		profile.Faculty, profile.Email, profile.Phone, requestcontext.Now(ctx))
	if err != nil {
		return fmt.Errorf("upsert student: %w", err)
	}
	return nil
}

// BulkUpsert writes one batch of profiles inside a single transaction using
// one unnest statement; the batch commits or fails as a unit. Duplicate ids
// within a batch collapse to the last occurrence, since ON CONFLICT cannot
// update the same row twice in one statement.
func (s *PostgresStore) BulkUpsert(ctx context.Context, profiles []Profile) (int, error) {
	profiles = dedupeByID(profiles)
	if len(profiles) == 0 {
		return 0, nil
	}

	ids := make([]string, len(profiles))
	names := make([]string, len(profiles))
	birthDates := make([]time.Time, len(profiles))
	faculties := make([]string, len(profiles))
	emails := make([]string, len(profiles))
	phones := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.StudentID.String()
		names[i] = p.FullName
		birthDates[i] = p.BirthDate
		faculties[i] = p.Faculty
		emails[i] = p.Email
		phones[i] = p.Phone
	}

	query := `
		INSERT INTO students (student_id, full_name, birth_date, faculty, email, phone, updated_at)
		SELECT unnest($1::text[]), unnest($2::text[]), unnest($3::timestamptz[]),
		       unnest($4::text[]), unnest($5::text[]), unnest($6::text[]), $7
		ON CONFLICT (student_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			birth_date = EXCLUDED.birth_date,
			faculty = EXCLUDED.faculty,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			updated_at = EXCLUDED.updated_at
	`
	var accepted int
	err := txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		result, err := txcontext.From(ctx, s.db).ExecContext(ctx, query,
			pq.Array(ids), pq.Array(names), pq.Array(birthDates),
			pq.Array(faculties), pq.Array(emails), pq.Array(phones), requestcontext.Now(ctx))
		if err != nil {
			return fmt.Errorf("bulk upsert students: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			accepted = len(profiles)
			return nil
		}
		accepted = int(affected)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return accepted, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}

// dedupeByID keeps the last occurrence of each student id, preserving the
// order in which ids first appear.
func dedupeByID(profiles []Profile) []Profile {
	seen := make(map[domain.StudentID]int, len(profiles))
	deduped := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		if at, ok := seen[p.StudentID]; ok {
			deduped[at] = p
			continue
		}
		seen[p.StudentID] = len(deduped)
		deduped = append(deduped, p)
	}
	return deduped
}
