package domain

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a free-text submission by a participant. Rejected content is
// stored inactive rather than discarded so moderators can review it.
type Comment struct {
	ID             int64
	ConversationID uuid.UUID
	PID            int32
	Text           string
	Language       string
	Active         bool
	ModStatus      ModStatus
	IsSeed         bool
	CreatedAt      time.Time
}

// Vote is a participant's verdict on a comment. Append-only: a later vote
// for the same (participant, comment) is a duplicate, never an overwrite.
type Vote struct {
	ConversationID uuid.UUID
	PID            int32
	CommentID      int64
	Value          VoteValue
	Weight         float64
	CreatedAt      time.Time
}

// AgendaSelection is a participant's optional ordered choice of topic keys,
// used to bias next-comment scheduling toward those topics.
type AgendaSelection struct {
	ConversationID uuid.UUID
	PID            int32
	TopicKeys      []string
	UpdatedAt      time.Time
}

// Translation is a cached rendering of a comment's text in another language.
type Translation struct {
	CommentID int64
	Language  string
	Text      string
}
