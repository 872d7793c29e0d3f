package school

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// PostgresSchoolRepository implements SchoolRepository using PostgreSQL
type PostgresSchoolRepository struct {
	db DBTX
}

func NewPostgresSchoolRepository(db DBTX) *PostgresSchoolRepository {
	return &PostgresSchoolRepository{db: db}
}

const schoolColumns = `id, name, short_name, domain, created_at, updated_at`

func scanSchool(row pgx.Row) (School, error) {
	var s School
	err := row.Scan(&s.ID, &s.Name, &s.ShortName, &s.Domain, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *PostgresSchoolRepository) ListSchools(ctx context.Context) ([]School, error) {
	rows, err := r.db.Query(ctx, `SELECT `+schoolColumns+` FROM schools ORDER BY short_name`)
	if err != nil {
		slog.Error("Failed to list schools", "err", err)
		return nil, fmt.Errorf("failed to list schools: %w", err)
	}
	defer rows.Close()

	schools := []School{}
	for rows.Next() {
		s, err := scanSchool(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan school: %w", err)
		}
		schools = append(schools, s)
	}
	return schools, rows.Err()
}

func (r *PostgresSchoolRepository) GetSchool(ctx context.Context, id uuid.UUID) (School, error) {
	s, err := scanSchool(r.db.QueryRow(ctx, `SELECT `+schoolColumns+` FROM schools WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			slog.Debug("School not found", "id", id)
			return School{}, ErrSchoolNotFound
		}
		slog.Error("Failed to get school", "err", err, "id", id)
		return School{}, fmt.Errorf("failed to get school: %w", err)
	}
	return s, nil
}

func (r *PostgresSchoolRepository) CreateSchool(ctx context.Context, params SchoolParams) (School, error) {
	now := time.Now().UTC()
	s, err := scanSchool(r.db.QueryRow(ctx, `
		INSERT INTO schools (id, name, short_name, domain, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING `+schoolColumns,
		uuid.New(), params.Name, params.ShortName, params.Domain, now,
	))
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return School{}, ErrShortNameTaken
		}
		slog.Error("Failed to create school", "err", err, "shortName", params.ShortName)
		return School{}, fmt.Errorf("failed to create school: %w", err)
	}
	return s, nil
}

func (r *PostgresSchoolRepository) UpdateSchool(ctx context.Context, id uuid.UUID, params SchoolParams) (School, error) {
	s, err := scanSchool(r.db.QueryRow(ctx, `
		UPDATE schools SET name = $2, short_name = $3, domain = $4, updated_at = $5
		WHERE id = $1
		RETURNING `+schoolColumns,
		id, params.Name, params.ShortName, params.Domain, time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return School{}, ErrSchoolNotFound
		}
		if pgErrorCode(err) == pgUniqueViolation {
			return School{}, ErrShortNameTaken
		}
		slog.Error("Failed to update school", "err", err, "id", id)
		return School{}, fmt.Errorf("failed to update school: %w", err)
	}
	return s, nil
}

func (r *PostgresSchoolRepository) DeleteSchool(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM schools WHERE id = $1`, id)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return ErrSchoolInUse
		}
		slog.Error("Failed to delete school", "err", err, "id", id)
		return fmt.Errorf("failed to delete school: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSchoolNotFound
	}
	return nil
}
