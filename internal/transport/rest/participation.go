package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/openagora/agora/internal/domain"
	"github.com/openagora/agora/internal/service/identity"
	"github.com/openagora/agora/internal/service/ingest"
	"github.com/openagora/agora/internal/service/scheduler"
	"github.com/openagora/agora/internal/transport/middleware"
	"github.com/openagora/agora/pkg/ctxutil"
)

type identityService interface {
	Resolve(ctx context.Context, conversationID uuid.UUID, creds identity.Credentials) (*identity.Resolution, error)
}

type ingestService interface {
	SubmitVote(ctx context.Context, in ingest.VoteInput) error
	SubmitComment(ctx context.Context, in ingest.CommentInput) (*domain.Comment, error)
}

type schedulerService interface {
	SelectNext(ctx context.Context, in scheduler.NextInput) (*scheduler.NextItem, error)
}

type conversationGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
}

type agendaSetter interface {
	SetAgenda(ctx context.Context, conversationID uuid.UUID, pid int32, topicKeys []string) error
}

// ParticipationHandler serves the participant-facing endpoints: join, vote,
// comment, next-comment and agenda selection.
type ParticipationHandler struct {
	identity      identityService
	ingest        ingestService
	scheduler     schedulerService
	conversations conversationGetter
	agendas       agendaSetter
	log           *slog.Logger
}

// NewParticipationHandler creates a ParticipationHandler.
func NewParticipationHandler(
	ident identityService,
	ing ingestService,
	sched schedulerService,
	conversations conversationGetter,
	agendas agendaSetter,
	logger *slog.Logger,
) *ParticipationHandler {
	return &ParticipationHandler{
		identity:      ident,
		ingest:        ing,
		scheduler:     sched,
		conversations: conversations,
		agendas:       agendas,
		log:           logger.With("handler", "participation"),
	}
}

// identityFields are the identity inputs shared by every participation
// request body. The session token travels in the Authorization header.
type identityFields struct {
	ConversationID   string `json:"conversationId"`
	ExternalID       string `json:"externalId,omitempty"`
	LegacyCredential string `json:"legacyCredential,omitempty"`
}

// credentialResponse is the freshly issued credential object, present only
// when the caller's presented credential was absent, invalid or mismatched.
type credentialResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

func newCredentialResponse(res *identity.Resolution) *credentialResponse {
	if res.Token == "" {
		return nil
	}
	return &credentialResponse{
		Token:     res.Token,
		TokenType: "Bearer",
		ExpiresIn: int64(res.ExpiresIn.Seconds()),
	}
}

// resolve runs identity resolution for a request. The subject kind is
// derived from what was actually presented: a verified account in the
// context, an external identifier, or nothing.
func (h *ParticipationHandler) resolve(r *http.Request, conversationID uuid.UUID, fields identityFields) (*identity.Resolution, error) {
	creds := identity.Credentials{
		Kind:             domain.SubjectAnonymous,
		Token:            middleware.ExtractBearerToken(r),
		ExternalID:       strings.TrimSpace(fields.ExternalID),
		LegacyCredential: fields.LegacyCredential,
	}

	if subjectID, ok := ctxutil.SubjectIDFromCtx(r.Context()); ok {
		creds.Kind = domain.SubjectAccount
		creds.AccountSubjectID = &subjectID
	} else if creds.ExternalID != "" {
		creds.Kind = domain.SubjectExternal
	}

	return h.identity.Resolve(r.Context(), conversationID, creds)
}

type joinResponse struct {
	ConversationID string              `json:"conversationId"`
	ParticipantID  int32               `json:"participantId"`
	SubjectID      string              `json:"subjectId"`
	Created        bool                `json:"created"`
	Credential     *credentialResponse `json:"credential,omitempty"`
}

// Join handles POST /api/participants.
func (h *ParticipationHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req identityFields
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conversationID, err := uuid.Parse(req.ConversationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	res, err := h.resolve(r, conversationID, req)
	if err != nil {
		handleError(r.Context(), w, h.log, err)
		return
	}

	status := http.StatusOK
	if res.ParticipantCreated {
		status = http.StatusCreated
	}
	writeJSON(w, status, joinResponse{
		ConversationID: conversationID.String(),
		ParticipantID:  res.Participant.PID,
		SubjectID:      res.SubjectID.String(),
		Created:        res.ParticipantCreated,
		Credential:     newCredentialResponse(res),
	})
}

type voteRequest struct {
	identityFields
	CommentID int64   `json:"commentId"`
	Value     int16   `json:"value"`
	Weight    float64 `json:"weight,omitempty"`
}

type voteResponse struct {
	ParticipantID int32               `json:"participantId"`
	Credential    *credentialResponse `json:"credential,omitempty"`
}

// Vote handles POST /api/votes.
func (h *ParticipationHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conversationID, err := uuid.Parse(req.ConversationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	res, err := h.resolve(r, conversationID, req.identityFields)
	if err != nil {
		handleError(r.Context(), w, h.log, err)
		return
	}

	err = h.ingest.SubmitVote(r.Context(), ingest.VoteInput{
		ConversationID: conversationID,
		PID:            res.Participant.PID,
		CommentID:      req.CommentID,
		Value:          domain.VoteValue(req.Value),
		Weight:         req.Weight,
		ExternalID:     res.ExternalID,
	})
	if err != nil {
		handleError(r.Context(), w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, voteResponse{
		ParticipantID: res.Participant.PID,
		Credential:    newCredentialResponse(res),
	})
}

type commentRequest struct {
	identityFields
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
	IsSeed   bool   `json:"isSeed,omitempty"`
	AutoVote bool   `json:"autoVote,omitempty"`
}

type commentResponse struct {
	CommentID     int64               `json:"commentId"`
	ParticipantID int32               `json:"participantId"`
	Active        bool                `json:"active"`
	ModStatus     string              `json:"modStatus"`
	Credential    *credentialResponse `json:"credential,omitempty"`
}

// Comment handles POST /api/comments.
func (h *ParticipationHandler) Comment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conversationID, err := uuid.Parse(req.ConversationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	res, err := h.resolve(r, conversationID, req.identityFields)
	if err != nil {
		handleError(r.Context(), w, h.log, err)
		return
	}

	// Seed and moderator status both require owning the conversation.
	isModerator := false
	if accountID, ok := ctxutil.SubjectIDFromCtx(r.Context()); ok {
		conv, cerr := h.conversations.Get(r.Context(), conversationID)
		if cerr != nil {
			handleError(r.Context(), w, h.log, cerr)
			return
		}
		isModerator = conv.OwnerID == accountID
	}

	c, err := h.ingest.SubmitComment(r.Context(), ingest.CommentInput{
		ConversationID: conversationID,
		SubjectID:      res.SubjectID,
		PID:            res.Participant.PID,
		Text:           req.Text,
		Language:       req.Language,
		IsSeed:         req.IsSeed && isModerator,
		IsModerator:    isModerator,
		AutoVote:       req.AutoVote,
	})
	if err != nil {
		handleError(r.Context(), w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, commentResponse{
		CommentID:     c.ID,
		ParticipantID: res.Participant.PID,
		Active:        c.Active,
		ModStatus:     c.ModStatus.String(),
		Credential:    newCredentialResponse(res),
	})
}

type nextCommentResponse struct {
	CommentID     int64               `json:"commentId"`
	Text          string              `json:"text"`
	Language      string              `json:"language,omitempty"`
	Translation   string              `json:"translation,omitempty"`
	Remaining     int                 `json:"remaining"`
	ParticipantID int32               `json:"participantId"`
	Credential    *credentialResponse `json:"credential,omitempty"`
}

// NextComment handles GET /api/nextComment. Identity inputs travel in query
// parameters; 204 means no comment is left to show.
func (h *ParticipationHandler) NextComment(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	conversationID, err := uuid.Parse(q.Get("conversationId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	excluded, err := parseIDList(q.Get("without"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid without parameter")
		return
	}

	res, err := h.resolve(r, conversationID, identityFields{
		ExternalID:       q.Get("externalId"),
		LegacyCredential: q.Get("legacyCredential"),
	})
	if err != nil {
		handleError(r.Context(), w, h.log, err)
		return
	}

	item, err := h.scheduler.SelectNext(r.Context(), scheduler.NextInput{
		ConversationID: conversationID,
		PID:            res.Participant.PID,
		ExcludedIDs:    excluded,
		Language:       q.Get("lang"),
	})
	if err != nil {
		handleError(r.Context(), w, h.log, err)
		return
	}
	if item == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, nextCommentResponse{
		CommentID:     item.Comment.ID,
		Text:          item.Comment.Text,
		Language:      item.Comment.Language,
		Translation:   item.Translation,
		Remaining:     item.Remaining,
		ParticipantID: res.Participant.PID,
		Credential:    newCredentialResponse(res),
	})
}

type agendaRequest struct {
	identityFields
	TopicKeys []string `json:"topicKeys"`
}

// SetAgenda handles PUT /api/agenda.
func (h *ParticipationHandler) SetAgenda(w http.ResponseWriter, r *http.Request) {
	var req agendaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conversationID, err := uuid.Parse(req.ConversationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	res, err := h.resolve(r, conversationID, req.identityFields)
	if err != nil {
		handleError(r.Context(), w, h.log, err)
		return
	}

	if err := h.agendas.SetAgenda(r.Context(), conversationID, res.Participant.PID, req.TopicKeys); err != nil {
		handleError(r.Context(), w, h.log, err)
		return
	}

	if cred := newCredentialResponse(res); cred != nil {
		writeJSON(w, http.StatusOK, map[string]any{"credential": cred})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseIDList(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
