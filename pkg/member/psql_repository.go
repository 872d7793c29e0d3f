package member

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

const pgForeignKeyViolation = "23503"

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

// PostgresMemberRepository implements MemberRepository using PostgreSQL
type PostgresMemberRepository struct {
	db DBTX
}

func NewPostgresMemberRepository(db DBTX) *PostgresMemberRepository {
	return &PostgresMemberRepository{db: db}
}

const memberColumns = `id, school_id, display_name, email, role, created_at, updated_at`

func scanMember(row pgx.Row) (Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.SchoolID, &m.DisplayName, &m.Email, &m.Role, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (r *PostgresMemberRepository) CreateMember(ctx context.Context, params CreateMemberParams) (Member, error) {
	now := time.Now().UTC()
	m, err := scanMember(r.db.QueryRow(ctx, `
		INSERT INTO members (id, school_id, display_name, email, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING `+memberColumns,
		uuid.New(), params.SchoolID, params.DisplayName, params.Email, params.Role, now,
	))
	if err != nil {
		if isForeignKeyViolation(err) {
			return Member{}, ErrUnknownSchool
		}
		slog.Error("Failed to create member", "err", err, "schoolID", params.SchoolID)
		return Member{}, fmt.Errorf("failed to create member: %w", err)
	}
	return m, nil
}

func (r *PostgresMemberRepository) GetMember(ctx context.Context, id uuid.UUID) (Member, error) {
	m, err := scanMember(r.db.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			slog.Debug("Member not found", "id", id)
			return Member{}, ErrMemberNotFound
		}
		slog.Error("Failed to get member", "err", err, "id", id)
		return Member{}, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

func (r *PostgresMemberRepository) ListMembersBySchool(ctx context.Context, schoolID uuid.UUID) ([]Member, error) {
	rows, err := r.db.Query(ctx, `SELECT `+memberColumns+` FROM members WHERE school_id = $1 ORDER BY created_at`, schoolID)
	if err != nil {
		slog.Error("Failed to list members", "err", err, "schoolID", schoolID)
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := []Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *PostgresMemberRepository) GetSettings(ctx context.Context, memberID uuid.UUID) (Settings, error) {
	var s Settings
	err := r.db.QueryRow(ctx, `
		SELECT member_id, notify_email, locale, share_with_partners, updated_at
		FROM member_settings WHERE member_id = $1`,
		memberID,
	).Scan(&s.MemberID, &s.NotifyEmail, &s.Locale, &s.ShareWithPartners, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Settings{}, ErrSettingsNotFound
		}
		slog.Error("Failed to get member settings", "err", err, "memberID", memberID)
		return Settings{}, fmt.Errorf("failed to get member settings: %w", err)
	}
	return s, nil
}

func (r *PostgresMemberRepository) UpsertSettings(ctx context.Context, settings Settings) (Settings, error) {
	var s Settings
	err := r.db.QueryRow(ctx, `
		INSERT INTO member_settings (member_id, notify_email, locale, share_with_partners, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (member_id) DO UPDATE SET
			notify_email = EXCLUDED.notify_email,
			locale = EXCLUDED.locale,
			share_with_partners = EXCLUDED.share_with_partners,
			updated_at = EXCLUDED.updated_at
		RETURNING member_id, notify_email, locale, share_with_partners, updated_at`,
		settings.MemberID, settings.NotifyEmail, settings.Locale, settings.ShareWithPartners, time.Now().UTC(),
	).Scan(&s.MemberID, &s.NotifyEmail, &s.Locale, &s.ShareWithPartners, &s.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return Settings{}, ErrMemberNotFound
		}
		slog.Error("Failed to save member settings", "err", err, "memberID", settings.MemberID)
		return Settings{}, fmt.Errorf("failed to save member settings: %w", err)
	}
	return s, nil
}
