package vote_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openagora/agora/internal/adapter/postgres/testhelper"
	"github.com/openagora/agora/internal/adapter/postgres/vote"
	"github.com/openagora/agora/internal/domain"
)

type fixture struct {
	repo      *vote.Repo
	pool      *pgxpool.Pool
	conv      uuid.UUID
	pid       int32
	commentID int64
}

func setup(t *testing.T) fixture {
	t.Helper()
	pool := testhelper.SetupTestDB(t)

	owner := testhelper.SeedSubject(t, pool)
	conv := testhelper.SeedConversation(t, pool, owner)
	pid := testhelper.SeedParticipant(t, pool, conv, testhelper.SeedSubject(t, pool))
	commentID := testhelper.SeedComment(t, pool, conv, pid, "a fresh take")

	return fixture{
		repo:      vote.New(pool),
		pool:      pool,
		conv:      conv,
		pid:       pid,
		commentID: commentID,
	}
}

func buildVote(f fixture, value domain.VoteValue) *domain.Vote {
	return &domain.Vote{
		ConversationID: f.conv,
		PID:            f.pid,
		CommentID:      f.commentID,
		Value:          value,
		CreatedAt:      time.Now().UTC(),
	}
}

func TestRepo_Insert_And_Get(t *testing.T) {
	t.Parallel()
	f := setup(t)
	ctx := context.Background()

	if err := f.repo.Insert(ctx, buildVote(f, domain.VoteAgree)); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := f.repo.Get(ctx, f.conv, f.pid, f.commentID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Value != domain.VoteAgree {
		t.Errorf("value: got %d, want %d", got.Value, domain.VoteAgree)
	}
}

func TestRepo_Insert_DuplicateNeverOverwrites(t *testing.T) {
	t.Parallel()
	f := setup(t)
	ctx := context.Background()

	if err := f.repo.Insert(ctx, buildVote(f, domain.VoteAgree)); err != nil {
		t.Fatalf("first Insert: %v", err)
	}

	err := f.repo.Insert(ctx, buildVote(f, domain.VoteDisagree))
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("second Insert: got %v, want ErrAlreadyExists", err)
	}

	// The stored value must still be the first vote.
	got, err := f.repo.Get(ctx, f.conv, f.pid, f.commentID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Value != domain.VoteAgree {
		t.Errorf("value after duplicate: got %d, want %d", got.Value, domain.VoteAgree)
	}
}

func TestRepo_Insert_ConcurrentDuplicates_ExactlyOneWins(t *testing.T) {
	t.Parallel()
	f := setup(t)
	ctx := context.Background()

	const n = 6
	var wg sync.WaitGroup
	errCh := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errCh <- f.repo.Insert(ctx, buildVote(f, domain.VotePass))
		}()
	}
	wg.Wait()
	close(errCh)

	var successes, duplicates int
	for err := range errCh {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrAlreadyExists):
			duplicates++
		default:
			t.Errorf("unexpected error class: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("successes: got %d, want 1", successes)
	}
	if duplicates != n-1 {
		t.Errorf("duplicates: got %d, want %d", duplicates, n-1)
	}

	var rows int
	if err := f.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM votes WHERE conversation_id = $1 AND pid = $2 AND comment_id = $3`,
		f.conv, f.pid, f.commentID).Scan(&rows); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 1 {
		t.Errorf("vote rows: got %d, want 1", rows)
	}
}

func TestRepo_VotedCommentIDs(t *testing.T) {
	t.Parallel()
	f := setup(t)
	ctx := context.Background()

	second := testhelper.SeedComment(t, f.pool, f.conv, f.pid, "another take")

	if err := f.repo.Insert(ctx, buildVote(f, domain.VoteAgree)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	v := buildVote(f, domain.VoteDisagree)
	v.CommentID = second
	if err := f.repo.Insert(ctx, v); err != nil {
		t.Fatalf("Insert second: %v", err)
	}

	ids, err := f.repo.VotedCommentIDs(ctx, f.conv, f.pid)
	if err != nil {
		t.Fatalf("VotedCommentIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("ids: got %d, want 2", len(ids))
	}

	n, err := f.repo.CountForParticipant(ctx, f.conv, f.pid)
	if err != nil {
		t.Fatalf("CountForParticipant: %v", err)
	}
	if n != 2 {
		t.Errorf("count: got %d, want 2", n)
	}
}
