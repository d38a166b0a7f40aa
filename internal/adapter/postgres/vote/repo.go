// Package vote implements the Vote repository using PostgreSQL.
//
// Votes are append-only. The primary key on (conversation_id, pid,
// comment_id) linearizes concurrent duplicates: the first insert wins, the
// second surfaces as domain.ErrAlreadyExists and is never an overwrite.
package vote

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openagora/agora/internal/adapter/postgres"
	"github.com/openagora/agora/internal/domain"
)

const table = "votes"

var columns = []string{"conversation_id", "pid", "comment_id", "value", "weight", "created_at"}

// Repo provides vote persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new vote repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Insert writes a vote. A unique violation maps to domain.ErrAlreadyExists.
func (r *Repo) Insert(ctx context.Context, v *domain.Vote) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(v.ConversationID, v.PID, v.CommentID, v.Value, v.Weight, v.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert vote: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "vote", v.CommentID)
	}
	return nil
}

// Get returns the stored vote for (conversation, pid, comment).
func (r *Repo) Get(ctx context.Context, conversationID uuid.UUID, pid int32, commentID int64) (*domain.Vote, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"conversation_id": conversationID, "pid": pid, "comment_id": commentID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select vote: %w", err)
	}

	var v domain.Vote
	row := q.QueryRow(ctx, sql, args...)
	if err := row.Scan(&v.ConversationID, &v.PID, &v.CommentID, &v.Value, &v.Weight, &v.CreatedAt); err != nil {
		return nil, postgres.MapError(err, "vote", commentID)
	}
	return &v, nil
}

// VotedCommentIDs returns the ids of all comments this participant has
// already voted on in the conversation.
func (r *Repo) VotedCommentIDs(ctx context.Context, conversationID uuid.UUID, pid int32) ([]int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select("comment_id").
		From(table).
		Where(sq.Eq{"conversation_id": conversationID, "pid": pid}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select voted comment ids: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("voted comment ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan voted comment id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("voted comment ids: %w", err)
	}
	return ids, nil
}

// CountForParticipant returns the number of votes cast by the participant.
func (r *Repo) CountForParticipant(ctx context.Context, conversationID uuid.UUID, pid int32) (int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select("COUNT(*)").
		From(table).
		Where(sq.Eq{"conversation_id": conversationID, "pid": pid}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count votes: %w", err)
	}

	var n int64
	if err := q.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, postgres.MapError(err, "vote", pid)
	}
	return n, nil
}
