package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedSubject inserts a bare anonymous subject and returns its id.
func SeedSubject(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO subjects (id, created_at) VALUES ($1, $2)`,
		id, time.Now().UTC())
	if err != nil {
		t.Fatalf("testhelper: seed subject: %v", err)
	}
	return id
}

// SeedConversation inserts an active conversation owned by ownerID and
// returns its id.
func SeedConversation(t *testing.T, pool *pgxpool.Pool, ownerID uuid.UUID) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO conversations (id, owner_id, topic) VALUES ($1, $2, 'test conversation')`,
		id, ownerID)
	if err != nil {
		t.Fatalf("testhelper: seed conversation: %v", err)
	}
	return id
}

// SeedParticipant inserts a participant row and returns its pid.
func SeedParticipant(t *testing.T, pool *pgxpool.Pool, conversationID, subjectID uuid.UUID) int32 {
	t.Helper()

	var pid int32
	err := pool.QueryRow(context.Background(),
		`INSERT INTO participants (conversation_id, subject_id, pid)
		 VALUES ($1, $2, (SELECT COALESCE(MAX(pid), 0) + 1 FROM participants WHERE conversation_id = $1))
		 RETURNING pid`,
		conversationID, subjectID).Scan(&pid)
	if err != nil {
		t.Fatalf("testhelper: seed participant: %v", err)
	}
	return pid
}

// SeedComment inserts an active comment authored by pid and returns its id.
func SeedComment(t *testing.T, pool *pgxpool.Pool, conversationID uuid.UUID, pid int32, text string) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO comments (conversation_id, pid, body) VALUES ($1, $2, $3) RETURNING id`,
		conversationID, pid, text).Scan(&id)
	if err != nil {
		t.Fatalf("testhelper: seed comment: %v", err)
	}
	return id
}
