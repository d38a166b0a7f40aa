// Package subject implements the Subject repository using PostgreSQL.
package subject

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openagora/agora/internal/adapter/postgres"
	"github.com/openagora/agora/internal/domain"
)

const table = "subjects"

var columns = []string{"id", "email", "password_hash", "is_owner", "created_at"}

// Repo provides subject persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new subject repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create inserts a new subject.
func (r *Repo) Create(ctx context.Context, s *domain.Subject) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(s.ID, s.Email, s.PasswordHash, s.IsOwner, s.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert subject: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "subject", s.ID)
	}
	return nil
}

// GetByID returns a subject by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subject, error) {
	return r.getOne(ctx, sq.Eq{"id": id}, id)
}

// GetByEmail returns a subject by email. Returns domain.ErrNotFound when no
// account with that email exists.
func (r *Repo) GetByEmail(ctx context.Context, email string) (*domain.Subject, error) {
	return r.getOne(ctx, sq.Eq{"email": email}, email)
}

func (r *Repo) getOne(ctx context.Context, pred sq.Eq, key any) (*domain.Subject, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select subject: %w", err)
	}

	var s domain.Subject
	row := q.QueryRow(ctx, sql, args...)
	if err := row.Scan(&s.ID, &s.Email, &s.PasswordHash, &s.IsOwner, &s.CreatedAt); err != nil {
		return nil, postgres.MapError(err, "subject", key)
	}
	return &s, nil
}
