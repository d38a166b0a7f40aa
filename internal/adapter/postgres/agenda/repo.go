// Package agenda implements the topic-agenda selection repository using
// PostgreSQL.
package agenda

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

const table = "agenda_selections"

// Repo provides agenda-selection persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new agenda repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Get returns the participant's agenda selection, or domain.ErrNotFound when
// the participant never picked topics.
func (r *Repo) Get(ctx context.Context, conversationID uuid.UUID, pid int32) (*domain.AgendaSelection, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select("conversation_id", "pid", "topic_keys", "updated_at").
		From(table).
		Where(sq.Eq{"conversation_id": conversationID, "pid": pid}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select agenda: %w", err)
	}

	var a domain.AgendaSelection
	row := q.QueryRow(ctx, sql, args...)
	if err := row.Scan(&a.ConversationID, &a.PID, &a.TopicKeys, &a.UpdatedAt); err != nil {
		return nil, postgres.MapError(err, "agenda_selection", pid)
	}
	return &a, nil
}

// Upsert replaces the participant's agenda selection.
func (r *Repo) Upsert(ctx context.Context, a *domain.AgendaSelection) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Insert(table).
		Columns("conversation_id", "pid", "topic_keys", "updated_at").
		Values(a.ConversationID, a.PID, a.TopicKeys, time.Now().UTC()).
		Suffix("ON CONFLICT (conversation_id, pid) DO UPDATE SET topic_keys = EXCLUDED.topic_keys, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert agenda: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "agenda_selection", a.PID)
	}
	return nil
}
