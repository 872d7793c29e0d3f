package federated

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

// PostgresLinkRepository implements LinkRepository using PostgreSQL
type PostgresLinkRepository struct {
	db DBTX
}

func NewPostgresLinkRepository(db DBTX) *PostgresLinkRepository {
	return &PostgresLinkRepository{db: db}
}

func (r *PostgresLinkRepository) FindUserByIdentity(ctx context.Context, provider, subject string) (uuid.UUID, error) {
	var memberID uuid.UUID
	err := r.db.QueryRow(ctx,
		`SELECT member_id FROM federated_identities WHERE provider = $1 AND subject = $2`,
		provider, subject,
	).Scan(&memberID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			slog.Debug("Federated identity not linked", "provider", provider, "subject", subject)
			return uuid.Nil, ErrIdentityNotLinked
		}
		slog.Error("Failed to find federated identity", "err", err, "provider", provider)
		return uuid.Nil, fmt.Errorf("failed to find federated identity: %w", err)
	}
	return memberID, nil
}

func (r *PostgresLinkRepository) LinkIdentity(ctx context.Context, memberID uuid.UUID, identity ExternalIdentity) (Link, error) {
	var link Link
	err := r.db.QueryRow(ctx, `
		INSERT INTO federated_identities (provider, subject, member_id, email, linked_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider, subject) DO NOTHING
		RETURNING provider, subject, member_id, email, linked_at`,
		identity.Provider, identity.Subject, memberID, identity.Email, time.Now().UTC(),
	).Scan(&link.Provider, &link.Subject, &link.MemberID, &link.Email, &link.LinkedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Link{}, ErrIdentityAlreadyLinked
		}
		slog.Error("Failed to link federated identity", "err", err, "memberID", memberID)
		return Link{}, fmt.Errorf("failed to link federated identity: %w", err)
	}
	return link, nil
}

func (r *PostgresLinkRepository) ListLinks(ctx context.Context, memberID uuid.UUID) ([]Link, error) {
	rows, err := r.db.Query(ctx, `
		SELECT provider, subject, member_id, email, linked_at
		FROM federated_identities
		WHERE member_id = $1
		ORDER BY linked_at`,
		memberID,
	)
	if err != nil {
		slog.Error("Failed to list federated identities", "err", err, "memberID", memberID)
		return nil, fmt.Errorf("failed to list federated identities: %w", err)
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.Provider, &l.Subject, &l.MemberID, &l.Email, &l.LinkedAt); err != nil {
			return nil, fmt.Errorf("failed to scan federated identity: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}
