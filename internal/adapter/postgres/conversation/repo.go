// Package conversation implements the Conversation repository using PostgreSQL.
package conversation

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openagora/agora/internal/adapter/postgres"
	"github.com/openagora/agora/internal/domain"
)

const table = "conversations"

var columns = []string{
	"id", "owner_id", "topic", "description", "is_active",
	"profanity_filter", "spam_filter", "strict_moderation",
	"use_xid_allowlist", "created_at", "modified_at",
}

// Repo provides conversation persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new conversation repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create inserts a new conversation.
func (r *Repo) Create(ctx context.Context, c *domain.Conversation) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(c.ID, c.OwnerID, c.Topic, c.Description, c.IsActive,
			c.ProfanityFilter, c.SpamFilter, c.StrictModeration,
			c.UseXidAllowlist, c.CreatedAt, c.ModifiedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert conversation: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "conversation", c.ID)
	}
	return nil
}

// GetByID returns a conversation by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select conversation: %w", err)
	}

	var c domain.Conversation
	row := q.QueryRow(ctx, sql, args...)
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Topic, &c.Description, &c.IsActive,
		&c.ProfanityFilter, &c.SpamFilter, &c.StrictModeration,
		&c.UseXidAllowlist, &c.CreatedAt, &c.ModifiedAt); err != nil {
		return nil, postgres.MapError(err, "conversation", id)
	}
	return &c, nil
}

// Update applies the non-nil fields of upd and bumps modified_at.
// Returns the updated conversation.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, upd domain.ConversationUpdate) (*domain.Conversation, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	b := postgres.Builder().
		Update(table).
		Set("modified_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns())

	if upd.Topic != nil {
		b = b.Set("topic", *upd.Topic)
	}
	if upd.Description != nil {
		b = b.Set("description", *upd.Description)
	}
	if upd.IsActive != nil {
		b = b.Set("is_active", *upd.IsActive)
	}
	if upd.ProfanityFilter != nil {
		b = b.Set("profanity_filter", *upd.ProfanityFilter)
	}
	if upd.SpamFilter != nil {
		b = b.Set("spam_filter", *upd.SpamFilter)
	}
	if upd.StrictModeration != nil {
		b = b.Set("strict_moderation", *upd.StrictModeration)
	}
	if upd.UseXidAllowlist != nil {
		b = b.Set("use_xid_allowlist", *upd.UseXidAllowlist)
	}

	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update conversation: %w", err)
	}

	var c domain.Conversation
	row := q.QueryRow(ctx, sql, args...)
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Topic, &c.Description, &c.IsActive,
		&c.ProfanityFilter, &c.SpamFilter, &c.StrictModeration,
		&c.UseXidAllowlist, &c.CreatedAt, &c.ModifiedAt); err != nil {
		return nil, postgres.MapError(err, "conversation", id)
	}
	return &c, nil
}

// Touch bumps modified_at. Used by the background bookkeeping task; loss of
// this update is not a correctness failure.
func (r *Repo) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Update(table).
		Set("modified_at", at).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build touch conversation: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "conversation", id)
	}
	return nil
}

func joinColumns() string {
	s := columns[0]
	for _, c := range columns[1:] {
		s += ", " + c
	}
	return s
}
