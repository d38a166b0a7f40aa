package participant_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openagora/agora/internal/adapter/postgres"
	"github.com/openagora/agora/internal/adapter/postgres/participant"
	"github.com/openagora/agora/internal/adapter/postgres/testhelper"
	"github.com/openagora/agora/internal/domain"
)

func newRepo(t *testing.T) (*participant.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return participant.New(pool), pool
}

func TestRepo_Insert_AssignsMonotonicPIDs(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	owner := testhelper.SeedSubject(t, pool)
	conv := testhelper.SeedConversation(t, pool, owner)

	first, err := repo.Insert(ctx, conv, testhelper.SeedSubject(t, pool))
	if err != nil {
		t.Fatalf("Insert first: %v", err)
	}
	second, err := repo.Insert(ctx, conv, testhelper.SeedSubject(t, pool))
	if err != nil {
		t.Fatalf("Insert second: %v", err)
	}

	if first.PID != 1 {
		t.Errorf("first pid: got %d, want 1", first.PID)
	}
	if second.PID != first.PID+1 {
		t.Errorf("second pid: got %d, want %d", second.PID, first.PID+1)
	}
	if first.VoteCount != 0 {
		t.Errorf("vote_count: got %d, want 0", first.VoteCount)
	}
}

func TestRepo_Insert_DuplicateSubjectIsUniqueViolation(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	owner := testhelper.SeedSubject(t, pool)
	conv := testhelper.SeedConversation(t, pool, owner)
	subject := testhelper.SeedSubject(t, pool)

	if _, err := repo.Insert(ctx, conv, subject); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	_, err := repo.Insert(ctx, conv, subject)
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("second insert: got %v, want ErrAlreadyExists", err)
	}
	if !postgres.IsUniqueViolation(err) {
		t.Error("second insert should classify as unique violation")
	}
}

func TestRepo_GetBySubject_RoundTrip(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	owner := testhelper.SeedSubject(t, pool)
	conv := testhelper.SeedConversation(t, pool, owner)
	subject := testhelper.SeedSubject(t, pool)

	inserted, err := repo.Insert(ctx, conv, subject)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := repo.GetBySubject(ctx, conv, subject)
	if err != nil {
		t.Fatalf("GetBySubject: %v", err)
	}
	if got.PID != inserted.PID {
		t.Errorf("pid: got %d, want %d", got.PID, inserted.PID)
	}

	byPID, err := repo.GetByPID(ctx, conv, inserted.PID)
	if err != nil {
		t.Fatalf("GetByPID: %v", err)
	}
	if byPID.SubjectID != subject {
		t.Errorf("subject: got %s, want %s", byPID.SubjectID, subject)
	}
}

func TestRepo_GetBySubject_NotFound(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	owner := testhelper.SeedSubject(t, pool)
	conv := testhelper.SeedConversation(t, pool, owner)

	_, err := repo.GetBySubject(ctx, conv, testhelper.SeedSubject(t, pool))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

// Concurrent inserts for distinct subjects race on the pid subquery; every
// loser must surface as a unique violation, never as a silent duplicate pid.
func TestRepo_Insert_ConcurrentDistinctSubjects(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	owner := testhelper.SeedSubject(t, pool)
	conv := testhelper.SeedConversation(t, pool, owner)

	const n = 8
	var wg sync.WaitGroup
	errCh := make(chan error, n)
	for i := 0; i < n; i++ {
		subject := testhelper.SeedSubject(t, pool)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Insert(ctx, conv, subject)
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil && !postgres.IsUniqueViolation(err) {
			t.Errorf("unexpected error class: %v", err)
		}
	}

	var count int
	if err := pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT pid) FROM participants WHERE conversation_id = $1`, conv).Scan(&count); err != nil {
		t.Fatalf("count pids: %v", err)
	}
	var rows int
	if err := pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM participants WHERE conversation_id = $1`, conv).Scan(&rows); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != rows {
		t.Errorf("pid collision: %d distinct pids for %d rows", count, rows)
	}
}

func TestRepo_IncrementVoteCount(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	owner := testhelper.SeedSubject(t, pool)
	conv := testhelper.SeedConversation(t, pool, owner)
	p, err := repo.Insert(ctx, conv, testhelper.SeedSubject(t, pool))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := repo.IncrementVoteCount(ctx, conv, p.PID, 3); err != nil {
		t.Fatalf("IncrementVoteCount: %v", err)
	}

	got, err := repo.GetByPID(ctx, conv, p.PID)
	if err != nil {
		t.Fatalf("GetByPID: %v", err)
	}
	if got.VoteCount != 3 {
		t.Errorf("vote_count: got %d, want 3", got.VoteCount)
	}
}
