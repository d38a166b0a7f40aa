package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Task types for derived-state bookkeeping after a successful vote.
const (
	TaskConversationTouch = "bookkeeping:conversation_touch"
	TaskVoteCountBump     = "bookkeeping:vote_count_bump"
)

// ConversationTouchPayload bumps a conversation's modified_time.
type ConversationTouchPayload struct {
	ConversationID uuid.UUID `json:"conversationId"`
	At             time.Time `json:"at"`
}

// VoteCountBumpPayload increments a participant's vote_count.
type VoteCountBumpPayload struct {
	ConversationID uuid.UUID `json:"conversationId"`
	PID            int32     `json:"pid"`
	Delta          int32     `json:"delta"`
}

// NewConversationTouchTask builds the touch task.
func NewConversationTouchTask(conversationID uuid.UUID, at time.Time) (Task, error) {
	payload, err := json.Marshal(ConversationTouchPayload{ConversationID: conversationID, At: at})
	if err != nil {
		return Task{}, fmt.Errorf("marshal touch payload: %w", err)
	}
	return Task{Type: TaskConversationTouch, Payload: payload}, nil
}

// NewVoteCountBumpTask builds the vote-count task.
func NewVoteCountBumpTask(conversationID uuid.UUID, pid, delta int32) (Task, error) {
	payload, err := json.Marshal(VoteCountBumpPayload{ConversationID: conversationID, PID: pid, Delta: delta})
	if err != nil {
		return Task{}, fmt.Errorf("marshal vote count payload: %w", err)
	}
	return Task{Type: TaskVoteCountBump, Payload: payload}, nil
}

type conversationToucher interface {
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
}

type voteCountIncrementer interface {
	IncrementVoteCount(ctx context.Context, conversationID uuid.UUID, pid int32, delta int32) error
}

// RegisterBookkeepingTasks binds the bookkeeping handlers to the server.
func RegisterBookkeepingTasks(srv Server, conversations conversationToucher, participants voteCountIncrementer, log *slog.Logger) {
	srv.Register(TaskConversationTouch, func(ctx context.Context, t Task) error {
		var p ConversationTouchPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: retrying cannot help
			log.ErrorContext(ctx, "bookkeeping: bad touch payload", slog.String("error", err.Error()))
			return nil
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return conversations.Touch(ctx, p.ConversationID, p.At)
	})

	srv.Register(TaskVoteCountBump, func(ctx context.Context, t Task) error {
		var p VoteCountBumpPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			log.ErrorContext(ctx, "bookkeeping: bad vote count payload", slog.String("error", err.Error()))
			return nil
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return participants.IncrementVoteCount(ctx, p.ConversationID, p.PID, p.Delta)
	})
}
