// Package conversation implements owner-facing conversation management:
// creation, flag updates, comment moderation and allow-list maintenance.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openagora/agora/internal/domain"
)

type conversationRepo interface {
	Create(ctx context.Context, c *domain.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	Update(ctx context.Context, id uuid.UUID, upd domain.ConversationUpdate) (*domain.Conversation, error)
}

type commentModerator interface {
	SetModeration(ctx context.Context, conversationID uuid.UUID, id int64, status domain.ModStatus, active bool) error
	ListPending(ctx context.Context, conversationID uuid.UUID) ([]*domain.Comment, error)
}

type allowlistRepo interface {
	Allow(ctx context.Context, ownerID uuid.UUID, externalID string) error
	Disallow(ctx context.Context, ownerID uuid.UUID, externalID string) error
}

type agendaRepo interface {
	Upsert(ctx context.Context, a *domain.AgendaSelection) error
}

// Service implements conversation management.
type Service struct {
	conversations conversationRepo
	comments      commentModerator
	allowlist     allowlistRepo
	agendas       agendaRepo
	log           *slog.Logger
}

// New creates a conversation Service.
func New(
	conversations conversationRepo,
	comments commentModerator,
	allowlist allowlistRepo,
	agendas agendaRepo,
	logger *slog.Logger,
) *Service {
	return &Service{
		conversations: conversations,
		comments:      comments,
		allowlist:     allowlist,
		agendas:       agendas,
		log:           logger.With("service", "conversation"),
	}
}

// CreateInput carries the fields for a new conversation.
type CreateInput struct {
	Topic            string
	Description      *string
	ProfanityFilter  bool
	SpamFilter       bool
	StrictModeration bool
	UseXidAllowlist  bool
}

// Create opens a new active conversation owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, in CreateInput) (*domain.Conversation, error) {
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return nil, domain.NewValidationError("topic", "must not be empty")
	}

	now := time.Now().UTC()
	c := &domain.Conversation{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		Topic:            topic,
		Description:      in.Description,
		IsActive:         true,
		ProfanityFilter:  in.ProfanityFilter,
		SpamFilter:       in.SpamFilter,
		StrictModeration: in.StrictModeration,
		UseXidAllowlist:  in.UseXidAllowlist,
		CreatedAt:        now,
		ModifiedAt:       now,
	}
	if err := s.conversations.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	s.log.InfoContext(ctx, "conversation created",
		slog.String("conversation_id", c.ID.String()),
		slog.String("owner_id", ownerID.String()),
	)
	return c, nil
}

// Get returns a conversation by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	return s.conversations.GetByID(ctx, id)
}

// Update applies the non-nil fields of upd. Only the owner may update.
func (s *Service) Update(ctx context.Context, actorID, id uuid.UUID, upd domain.ConversationUpdate) (*domain.Conversation, error) {
	if err := s.requireOwner(ctx, actorID, id); err != nil {
		return nil, err
	}
	return s.conversations.Update(ctx, id, upd)
}

// ModerateComment records an owner's verdict on a comment. Approval
// activates the comment; rejection deactivates it but keeps the row.
func (s *Service) ModerateComment(ctx context.Context, actorID, conversationID uuid.UUID, commentID int64, approve bool) error {
	if err := s.requireOwner(ctx, actorID, conversationID); err != nil {
		return err
	}

	status, active := domain.ModRejected, false
	if approve {
		status, active = domain.ModApproved, true
	}
	return s.comments.SetModeration(ctx, conversationID, commentID, status, active)
}

// PendingComments lists comments awaiting a verdict, oldest first.
func (s *Service) PendingComments(ctx context.Context, actorID, conversationID uuid.UUID) ([]*domain.Comment, error) {
	if err := s.requireOwner(ctx, actorID, conversationID); err != nil {
		return nil, err
	}
	return s.comments.ListPending(ctx, conversationID)
}

// AllowExternal adds an external identifier to the owner's allow-list.
func (s *Service) AllowExternal(ctx context.Context, ownerID uuid.UUID, externalID string) error {
	if strings.TrimSpace(externalID) == "" {
		return domain.NewValidationError("external_id", "must not be empty")
	}
	return s.allowlist.Allow(ctx, ownerID, externalID)
}

// DisallowExternal removes an external identifier from the owner's
// allow-list. Existing participants keep their rows; they only lose the
// ability to provision or vote.
func (s *Service) DisallowExternal(ctx context.Context, ownerID uuid.UUID, externalID string) error {
	return s.allowlist.Disallow(ctx, ownerID, externalID)
}

// SetAgenda replaces a participant's topic agenda selection.
func (s *Service) SetAgenda(ctx context.Context, conversationID uuid.UUID, pid int32, topicKeys []string) error {
	return s.agendas.Upsert(ctx, &domain.AgendaSelection{
		ConversationID: conversationID,
		PID:            pid,
		TopicKeys:      topicKeys,
	})
}

func (s *Service) requireOwner(ctx context.Context, actorID, conversationID uuid.UUID) error {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("load conversation: %w", err)
	}
	if conv.OwnerID != actorID {
		return fmt.Errorf("conversation %s: %w", conversationID, domain.ErrForbidden)
	}
	return nil
}
