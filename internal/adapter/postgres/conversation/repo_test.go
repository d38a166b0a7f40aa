package conversation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openagora/agora/internal/adapter/postgres/conversation"
	"github.com/openagora/agora/internal/adapter/postgres/testhelper"
	"github.com/openagora/agora/internal/domain"
)

func newRepo(t *testing.T) (*conversation.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return conversation.New(pool), pool
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestRepo_CreateAndGet(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	owner := testhelper.SeedSubject(t, pool)
	now := time.Now().UTC()

	c := &domain.Conversation{
		ID:               uuid.New(),
		OwnerID:          owner,
		Topic:            "transit funding",
		Description:      strPtr("where should the money go"),
		IsActive:         true,
		StrictModeration: true,
		CreatedAt:        now,
		ModifiedAt:       now,
	}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Topic != c.Topic {
		t.Errorf("topic: got %q, want %q", got.Topic, c.Topic)
	}
	if got.Description == nil || *got.Description != *c.Description {
		t.Errorf("description: got %v, want %q", got.Description, *c.Description)
	}
	if !got.StrictModeration {
		t.Error("strict_moderation not persisted")
	}
}

func TestRepo_GetByID_NotFound(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	_, err := repo.GetByID(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestRepo_Update_OnlySetFields(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	owner := testhelper.SeedSubject(t, pool)
	id := testhelper.SeedConversation(t, pool, owner)

	before, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	got, err := repo.Update(ctx, id, domain.ConversationUpdate{
		IsActive:   boolPtr(false),
		SpamFilter: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if got.IsActive {
		t.Error("is_active: still true after update")
	}
	if !got.SpamFilter {
		t.Error("spam_filter: not set")
	}
	if got.Topic != before.Topic {
		t.Errorf("topic changed by a partial update: %q -> %q", before.Topic, got.Topic)
	}
	if !got.ModifiedAt.After(before.ModifiedAt) {
		t.Error("modified_at not bumped")
	}
}

func TestRepo_Touch(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	owner := testhelper.SeedSubject(t, pool)
	id := testhelper.SeedConversation(t, pool, owner)

	at := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)
	if err := repo.Touch(ctx, id, at); err != nil {
		t.Fatalf("Touch: %v", err)
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.ModifiedAt.Equal(at) {
		t.Errorf("modified_at: got %v, want %v", got.ModifiedAt, at)
	}
}
