package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/openagora/agora/internal/service/account"
)

type accountService interface {
	Register(ctx context.Context, email, password string) (*account.Session, error)
	Login(ctx context.Context, email, password string) (*account.Session, error)
}

// AuthHandler serves account registration and login.
type AuthHandler struct {
	svc accountService
	log *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc accountService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: logger.With("handler", "auth")}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	SubjectID string `json:"subjectId"`
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

func toSessionResponse(s *account.Session) sessionResponse {
	return sessionResponse{
		SubjectID: s.SubjectID.String(),
		Token:     s.Token,
		TokenType: "Bearer",
		ExpiresIn: int64(s.ExpiresIn.Seconds()),
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		handleError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}
