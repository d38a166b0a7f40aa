package xid_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openagora/agora/internal/adapter/postgres/testhelper"
	"github.com/openagora/agora/internal/adapter/postgres/xid"
	"github.com/openagora/agora/internal/domain"
)

func newRepo(t *testing.T) (*xid.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return xid.New(pool), pool
}

func TestRepo_CreateAndGet(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	owner := testhelper.SeedSubject(t, pool)
	conv := testhelper.SeedConversation(t, pool, owner)
	subject := testhelper.SeedSubject(t, pool)

	rec := &domain.ExternalIdentifier{
		ConversationID: conv,
		ExternalID:     "employee-771",
		SubjectID:      subject,
		CreatedAt:      time.Now().UTC(),
	}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.Get(ctx, conv, "employee-771")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SubjectID != subject {
		t.Errorf("subject: got %s, want %s", got.SubjectID, subject)
	}

	// Same identifier in the same conversation is a unique violation.
	err = repo.Create(ctx, rec)
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("duplicate Create: got %v, want ErrAlreadyExists", err)
	}
}

func TestRepo_Get_NotFound(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	owner := testhelper.SeedSubject(t, pool)
	conv := testhelper.SeedConversation(t, pool, owner)

	_, err := repo.Get(ctx, conv, "never-seen")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestRepo_Allowlist(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	owner := testhelper.SeedSubject(t, pool)

	allowed, err := repo.IsAllowed(ctx, owner, "emp-1")
	if err != nil {
		t.Fatalf("IsAllowed: %v", err)
	}
	if allowed {
		t.Error("empty allow-list should not allow anyone")
	}

	if err := repo.Allow(ctx, owner, "emp-1"); err != nil {
		t.Fatalf("Allow: %v", err)
	}
	// Adding twice is not an error.
	if err := repo.Allow(ctx, owner, "emp-1"); err != nil {
		t.Fatalf("Allow twice: %v", err)
	}

	allowed, err = repo.IsAllowed(ctx, owner, "emp-1")
	if err != nil {
		t.Fatalf("IsAllowed: %v", err)
	}
	if !allowed {
		t.Error("emp-1 should be allowed")
	}

	if err := repo.Disallow(ctx, owner, "emp-1"); err != nil {
		t.Fatalf("Disallow: %v", err)
	}
	allowed, err = repo.IsAllowed(ctx, owner, "emp-1")
	if err != nil {
		t.Fatalf("IsAllowed: %v", err)
	}
	if allowed {
		t.Error("emp-1 should no longer be allowed")
	}
}

func TestRepo_GetLegacy(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	owner := testhelper.SeedSubject(t, pool)
	conv := testhelper.SeedConversation(t, pool, owner)
	subject := testhelper.SeedSubject(t, pool)
	pid := testhelper.SeedParticipant(t, pool, conv, subject)

	_, err := pool.Exec(ctx,
		`INSERT INTO legacy_credentials (conversation_id, credential, subject_id, pid) VALUES ($1, $2, $3, $4)`,
		conv, "old-cookie-abc", subject, pid)
	if err != nil {
		t.Fatalf("seed legacy credential: %v", err)
	}

	rec, err := repo.GetLegacy(ctx, conv, "old-cookie-abc")
	if err != nil {
		t.Fatalf("GetLegacy: %v", err)
	}
	if rec.SubjectID != subject || rec.PID != pid {
		t.Errorf("record: got %+v, want subject %s pid %d", rec, subject, pid)
	}

	_, err = repo.GetLegacy(ctx, conv, "unknown")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown credential: got %v, want ErrNotFound", err)
	}
}
