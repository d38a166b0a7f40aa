// Package xid implements persistence for caller-supplied credentials:
// external identifiers, the owner-scoped allow-list, and legacy fallback
// credentials carried over from the previous platform generation.
package xid

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openagora/agora/internal/adapter/postgres"
	"github.com/openagora/agora/internal/domain"
)

// Repo provides credential-record persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new credential repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// External identifiers
// ---------------------------------------------------------------------------

// Get returns the external-identifier record for (conversation, external_id).
func (r *Repo) Get(ctx context.Context, conversationID uuid.UUID, externalID string) (*domain.ExternalIdentifier, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select("conversation_id", "external_id", "subject_id", "created_at").
		From("external_identifiers").
		Where(sq.Eq{"conversation_id": conversationID, "external_id": externalID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select external identifier: %w", err)
	}

	var x domain.ExternalIdentifier
	row := q.QueryRow(ctx, sql, args...)
	if err := row.Scan(&x.ConversationID, &x.ExternalID, &x.SubjectID, &x.CreatedAt); err != nil {
		return nil, postgres.MapError(err, "external_identifier", externalID)
	}
	return &x, nil
}

// Create inserts an external-identifier record. A concurrent duplicate maps
// to domain.ErrAlreadyExists; callers re-read the winner.
func (r *Repo) Create(ctx context.Context, x *domain.ExternalIdentifier) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Insert("external_identifiers").
		Columns("conversation_id", "external_id", "subject_id", "created_at").
		Values(x.ConversationID, x.ExternalID, x.SubjectID, x.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert external identifier: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "external_identifier", x.ExternalID)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Allow-list
// ---------------------------------------------------------------------------

// IsAllowed reports whether the owner's allow-list contains the identifier.
func (r *Repo) IsAllowed(ctx context.Context, ownerID uuid.UUID, externalID string) (bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select("1").
		From("xid_allowlist").
		Where(sq.Eq{"owner_id": ownerID, "external_id": externalID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build select allowlist: %w", err)
	}

	var one int
	if err := q.QueryRow(ctx, sql, args...).Scan(&one); err != nil {
		mapped := postgres.MapError(err, "xid_allowlist", externalID)
		if errors.Is(mapped, domain.ErrNotFound) {
			return false, nil
		}
		return false, mapped
	}
	return true, nil
}

// Allow adds an identifier to the owner's allow-list. Adding an identifier
// that is already present is not an error.
func (r *Repo) Allow(ctx context.Context, ownerID uuid.UUID, externalID string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Insert("xid_allowlist").
		Columns("owner_id", "external_id").
		Values(ownerID, externalID).
		Suffix("ON CONFLICT (owner_id, external_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert allowlist: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "xid_allowlist", externalID)
	}
	return nil
}

// Disallow removes an identifier from the owner's allow-list.
func (r *Repo) Disallow(ctx context.Context, ownerID uuid.UUID, externalID string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Delete("xid_allowlist").
		Where(sq.Eq{"owner_id": ownerID, "external_id": externalID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete allowlist: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "xid_allowlist", externalID)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Legacy fallback credentials
// ---------------------------------------------------------------------------

// GetLegacy resolves a legacy fallback credential for the conversation.
func (r *Repo) GetLegacy(ctx context.Context, conversationID uuid.UUID, credential string) (*domain.LegacyRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select("subject_id", "pid").
		From("legacy_credentials").
		Where(sq.Eq{"conversation_id": conversationID, "credential": credential}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select legacy credential: %w", err)
	}

	var rec domain.LegacyRecord
	if err := q.QueryRow(ctx, sql, args...).Scan(&rec.SubjectID, &rec.PID); err != nil {
		return nil, postgres.MapError(err, "legacy_credential", conversationID)
	}
	return &rec, nil
}
