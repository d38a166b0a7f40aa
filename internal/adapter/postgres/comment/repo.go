// Package comment implements the Comment repository using PostgreSQL.
package comment

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

const table = "comments"

var columns = []string{
	"id", "conversation_id", "pid", "body", "language",
	"active", "mod_status", "is_seed", "created_at",
}

// Repo provides comment persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new comment repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Insert writes a comment and fills in the generated id. A foreign-key
// failure against the participants table maps to domain.ErrParticipantMissing
// so the ingest pipeline can re-provision and retry.
func (r *Repo) Insert(ctx context.Context, c *domain.Comment) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Insert(table).
		Columns("conversation_id", "pid", "body", "language", "active", "mod_status", "is_seed", "created_at").
		Values(c.ConversationID, c.PID, c.Text, c.Language, c.Active, c.ModStatus, c.IsSeed, c.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert comment: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&c.ID); err != nil {
		return postgres.MapError(err, "comment", c.ConversationID)
	}
	return nil
}

// GetByID returns a comment by primary key scoped to a conversation.
func (r *Repo) GetByID(ctx context.Context, conversationID uuid.UUID, id int64) (*domain.Comment, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"conversation_id": conversationID, "id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select comment: %w", err)
	}

	var c domain.Comment
	row := q.QueryRow(ctx, sql, args...)
	if err := row.Scan(&c.ID, &c.ConversationID, &c.PID, &c.Text, &c.Language,
		&c.Active, &c.ModStatus, &c.IsSeed, &c.CreatedAt); err != nil {
		return nil, postgres.MapError(err, "comment", id)
	}
	return &c, nil
}

// ListActive returns all active comments of a conversation in stable id
// order. The scheduler builds its cumulative weight sums over this order.
func (r *Repo) ListActive(ctx context.Context, conversationID uuid.UUID) ([]*domain.Comment, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"conversation_id": conversationID, "active": true}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list active comments: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list active comments: %w", err)
	}
	defer rows.Close()

	var comments []*domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.ConversationID, &c.PID, &c.Text, &c.Language,
			&c.Active, &c.ModStatus, &c.IsSeed, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active comments: %w", err)
	}
	return comments, nil
}

// ExistsText reports whether the conversation already contains a comment
// with exactly this text.
func (r *Repo) ExistsText(ctx context.Context, conversationID uuid.UUID, text string) (bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select("1").
		From(table).
		Where(sq.Eq{"conversation_id": conversationID, "body": text}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists text: %w", err)
	}

	var one int
	err = q.QueryRow(ctx, sql, args...).Scan(&one)
	if err != nil {
		mapped := postgres.MapError(err, "comment", conversationID)
		if errors.Is(mapped, domain.ErrNotFound) {
			return false, nil
		}
		return false, mapped
	}
	return true, nil
}

// SetModeration applies a moderator verdict and the resulting active flag.
func (r *Repo) SetModeration(ctx context.Context, conversationID uuid.UUID, id int64, status domain.ModStatus, active bool) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Update(table).
		Set("mod_status", status).
		Set("active", active).
		Where(sq.Eq{"conversation_id": conversationID, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set moderation: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "comment", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("comment %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListPending returns comments awaiting a moderation verdict, oldest first.
func (r *Repo) ListPending(ctx context.Context, conversationID uuid.UUID) ([]*domain.Comment, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"conversation_id": conversationID, "mod_status": domain.ModPending}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list pending comments: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending comments: %w", err)
	}
	defer rows.Close()

	var comments []*domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.ConversationID, &c.PID, &c.Text, &c.Language,
			&c.Active, &c.ModStatus, &c.IsSeed, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending comments: %w", err)
	}
	return comments, nil
}
