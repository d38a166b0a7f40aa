package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/openagora/agora/internal/domain"
	"github.com/openagora/agora/internal/service/conversation"
	"github.com/openagora/agora/pkg/ctxutil"
)

type conversationService interface {
	Create(ctx context.Context, ownerID uuid.UUID, in conversation.CreateInput) (*domain.Conversation, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	Update(ctx context.Context, actorID, id uuid.UUID, upd domain.ConversationUpdate) (*domain.Conversation, error)
	ModerateComment(ctx context.Context, actorID, conversationID uuid.UUID, commentID int64, approve bool) error
	PendingComments(ctx context.Context, actorID, conversationID uuid.UUID) ([]*domain.Comment, error)
	AllowExternal(ctx context.Context, ownerID uuid.UUID, externalID string) error
	DisallowExternal(ctx context.Context, ownerID uuid.UUID, externalID string) error
}

// ConversationHandler serves the owner-facing conversation endpoints.
// All routes require a verified account in the request context.
type ConversationHandler struct {
	svc conversationService
	log *slog.Logger
}

// NewConversationHandler creates a ConversationHandler.
func NewConversationHandler(svc conversationService, logger *slog.Logger) *ConversationHandler {
	return &ConversationHandler{svc: svc, log: logger.With("handler", "conversation")}
}

type conversationRequest struct {
	Topic            string  `json:"topic"`
	Description      *string `json:"description,omitempty"`
	ProfanityFilter  *bool   `json:"profanityFilter,omitempty"`
	SpamFilter       *bool   `json:"spamFilter,omitempty"`
	StrictModeration *bool   `json:"strictModeration,omitempty"`
	UseXidAllowlist  *bool   `json:"useXidAllowlist,omitempty"`
	IsActive         *bool   `json:"isActive,omitempty"`
}

type conversationResponse struct {
	ID               string  `json:"id"`
	OwnerID          string  `json:"ownerId"`
	Topic            string  `json:"topic"`
	Description      *string `json:"description,omitempty"`
	IsActive         bool    `json:"isActive"`
	ProfanityFilter  bool    `json:"profanityFilter"`
	SpamFilter       bool    `json:"spamFilter"`
	StrictModeration bool    `json:"strictModeration"`
	UseXidAllowlist  bool    `json:"useXidAllowlist"`
}

func toConversationResponse(c *domain.Conversation) conversationResponse {
	return conversationResponse{
		ID:               c.ID.String(),
		OwnerID:          c.OwnerID.String(),
		Topic:            c.Topic,
		Description:      c.Description,
		IsActive:         c.IsActive,
		ProfanityFilter:  c.ProfanityFilter,
		SpamFilter:       c.SpamFilter,
		StrictModeration: c.StrictModeration,
		UseXidAllowlist:  c.UseXidAllowlist,
	}
}

// Create handles POST /api/conversations.
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := ctxutil.SubjectIDFromCtx(r.Context())

	var req conversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := conversation.CreateInput{Topic: req.Topic, Description: req.Description}
	if req.ProfanityFilter != nil {
		in.ProfanityFilter = *req.ProfanityFilter
	}
	if req.SpamFilter != nil {
		in.SpamFilter = *req.SpamFilter
	}
	if req.StrictModeration != nil {
		in.StrictModeration = *req.StrictModeration
	}
	if req.UseXidAllowlist != nil {
		in.UseXidAllowlist = *req.UseXidAllowlist
	}

	c, err := h.svc.Create(r.Context(), ownerID, in)
	if err != nil {
		handleError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toConversationResponse(c))
}

// Get handles GET /api/conversations/{id}.
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	c, err := h.svc.Get(r.Context(), id)
	if err != nil {
		handleError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toConversationResponse(c))
}

// Update handles PUT /api/conversations/{id}.
func (h *ConversationHandler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, _ := ctxutil.SubjectIDFromCtx(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	var req conversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	upd := domain.ConversationUpdate{
		Description:      req.Description,
		IsActive:         req.IsActive,
		ProfanityFilter:  req.ProfanityFilter,
		SpamFilter:       req.SpamFilter,
		StrictModeration: req.StrictModeration,
		UseXidAllowlist:  req.UseXidAllowlist,
	}
	if req.Topic != "" {
		upd.Topic = &req.Topic
	}

	c, err := h.svc.Update(r.Context(), actorID, id, upd)
	if err != nil {
		handleError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toConversationResponse(c))
}

type pendingCommentResponse struct {
	CommentID int64  `json:"commentId"`
	PID       int32  `json:"participantId"`
	Text      string `json:"text"`
	Language  string `json:"language,omitempty"`
}

// Pending handles GET /api/conversations/{id}/comments/pending.
func (h *ConversationHandler) Pending(w http.ResponseWriter, r *http.Request) {
	actorID, _ := ctxutil.SubjectIDFromCtx(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	comments, err := h.svc.PendingComments(r.Context(), actorID, id)
	if err != nil {
		handleError(r.Context(), w, h.log, err)
		return
	}

	out := make([]pendingCommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, pendingCommentResponse{
			CommentID: c.ID,
			PID:       c.PID,
			Text:      c.Text,
			Language:  c.Language,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type moderateRequest struct {
	Approve bool `json:"approve"`
}

// Moderate handles POST /api/conversations/{id}/comments/{commentId}/moderate.
func (h *ConversationHandler) Moderate(w http.ResponseWriter, r *http.Request) {
	actorID, _ := ctxutil.SubjectIDFromCtx(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}
	commentID, err := strconv.ParseInt(r.PathValue("commentId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid comment id")
		return
	}

	var req moderateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.ModerateComment(r.Context(), actorID, id, commentID, req.Approve); err != nil {
		handleError(r.Context(), w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type allowlistRequest struct {
	ExternalID string `json:"externalId"`
}

// Allow handles POST /api/allowlist.
func (h *ConversationHandler) Allow(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := ctxutil.SubjectIDFromCtx(r.Context())

	var req allowlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.AllowExternal(r.Context(), ownerID, req.ExternalID); err != nil {
		handleError(r.Context(), w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Disallow handles DELETE /api/allowlist/{externalId}.
func (h *ConversationHandler) Disallow(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := ctxutil.SubjectIDFromCtx(r.Context())

	externalID := r.PathValue("externalId")
	if externalID == "" {
		writeError(w, http.StatusBadRequest, "missing external id")
		return
	}

	if err := h.svc.DisallowExternal(r.Context(), ownerID, externalID); err != nil {
		handleError(r.Context(), w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
