package domain

import (
	"time"

	"github.com/google/uuid"
)

// Subject is the durable account-like identity issued by the engine,
// independent of how the caller proved who they are. Anonymous visitors get
// a bare subject row; conversation owners additionally carry credentials.
type Subject struct {
	ID           uuid.UUID
	Email        *string
	PasswordHash *string
	IsOwner      bool
	CreatedAt    time.Time
}

// ExternalIdentifier binds a caller-supplied identifier from an outside
// system to a subject, scoped to one conversation. At most one record per
// (conversation, external_id) ever exists.
type ExternalIdentifier struct {
	ExternalID     string
	ConversationID uuid.UUID
	SubjectID      uuid.UUID
	CreatedAt      time.Time
}

// LegacyRecord is a (subject, participant) pair recovered from a
// previous-generation fallback credential.
type LegacyRecord struct {
	SubjectID uuid.UUID
	PID       int32
}

// Participant binds a subject to a conversation. PID is monotonic within
// the conversation and is the identity all votes and comments hang off.
// At most one row per (conversation, subject) ever exists; rows are never
// deleted.
type Participant struct {
	ConversationID uuid.UUID
	SubjectID      uuid.UUID
	PID            int32
	VoteCount      int32
	CreatedAt      time.Time
}
