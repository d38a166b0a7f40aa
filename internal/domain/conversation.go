package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a single deliberation. Identity is immutable once created;
// only the flags, activity and modified time change afterwards.
type Conversation struct {
	ID      uuid.UUID
	OwnerID uuid.UUID

	// Topic and Description are owner-facing metadata.
	Topic       string
	Description *string

	IsActive bool

	// Moderation flags, mutated by moderators.
	ProfanityFilter  bool
	SpamFilter       bool
	StrictModeration bool

	// UseXidAllowlist gates external-identifier provisioning on the owner's
	// allow-list.
	UseXidAllowlist bool

	CreatedAt  time.Time
	ModifiedAt time.Time
}

// ConversationUpdate carries the mutable fields for a conversation. Nil
// pointers leave the current value untouched.
type ConversationUpdate struct {
	Topic            *string
	Description      *string
	IsActive         *bool
	ProfanityFilter  *bool
	SpamFilter       *bool
	StrictModeration *bool
	UseXidAllowlist  *bool
}
