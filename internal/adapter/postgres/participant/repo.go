// Package participant implements the Participant repository using PostgreSQL.
//
// The (conversation_id, subject_id) unique constraint is what makes
// provisioning race-safe: concurrent duplicate inserts lose with a unique
// violation and re-read the winner's row.
package participant

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openagora/agora/internal/adapter/postgres"
	"github.com/openagora/agora/internal/domain"
)

const table = "participants"

var columns = []string{"conversation_id", "subject_id", "pid", "vote_count", "created_at"}

// Repo provides participant persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new participant repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// GetBySubject returns the participant row for (conversation, subject).
func (r *Repo) GetBySubject(ctx context.Context, conversationID, subjectID uuid.UUID) (*domain.Participant, error) {
	return r.getOne(ctx, sq.Eq{"conversation_id": conversationID, "subject_id": subjectID}, subjectID)
}

// GetByPID returns the participant row for (conversation, pid).
func (r *Repo) GetByPID(ctx context.Context, conversationID uuid.UUID, pid int32) (*domain.Participant, error) {
	return r.getOne(ctx, sq.Eq{"conversation_id": conversationID, "pid": pid}, pid)
}

func (r *Repo) getOne(ctx context.Context, pred sq.Eq, key any) (*domain.Participant, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select participant: %w", err)
	}

	var p domain.Participant
	row := q.QueryRow(ctx, sql, args...)
	if err := row.Scan(&p.ConversationID, &p.SubjectID, &p.PID, &p.VoteCount, &p.CreatedAt); err != nil {
		return nil, postgres.MapError(err, "participant", key)
	}
	return &p, nil
}

const insertSQL = `
INSERT INTO participants (conversation_id, subject_id, pid, vote_count, created_at)
VALUES (
    $1, $2,
    (SELECT COALESCE(MAX(pid), 0) + 1 FROM participants WHERE conversation_id = $1),
    0, now()
)
RETURNING conversation_id, subject_id, pid, vote_count, created_at`

// Insert creates a participant with the next pid for the conversation.
// The pid subquery races with concurrent inserts; the primary key on
// (conversation_id, pid) turns the loser into a unique violation, which the
// provisioner classifies and retries.
func (r *Repo) Insert(ctx context.Context, conversationID, subjectID uuid.UUID) (*domain.Participant, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var p domain.Participant
	row := q.QueryRow(ctx, insertSQL, conversationID, subjectID)
	if err := row.Scan(&p.ConversationID, &p.SubjectID, &p.PID, &p.VoteCount, &p.CreatedAt); err != nil {
		return nil, postgres.MapError(err, "participant", subjectID)
	}
	return &p, nil
}

// IncrementVoteCount adds delta to the participant's vote_count. Derived
// state only; invoked from the background bookkeeping task.
func (r *Repo) IncrementVoteCount(ctx context.Context, conversationID uuid.UUID, pid int32, delta int32) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Update(table).
		Set("vote_count", sq.Expr("vote_count + ?", delta)).
		Where(sq.Eq{"conversation_id": conversationID, "pid": pid}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build increment vote_count: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "participant", pid)
	}
	return nil
}
