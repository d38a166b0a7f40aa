// Package rest exposes the participation engine over HTTP.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/openagora/agora/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
	// Code distinguishes conditions clients treat as non-errors, like a
	// duplicate vote from a retried request.
	Code string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeErrorCode(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// handleError maps domain errors to HTTP responses. Anything unrecognized is
// logged and reported as a bare 500.
func handleError(ctx context.Context, w http.ResponseWriter, log *slog.Logger, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrNotAllowlisted):
		writeErrorCode(w, http.StatusForbidden, "external identifier is not allow-listed", "not_allowlisted")
	case errors.Is(err, domain.ErrConversationClosed):
		writeErrorCode(w, http.StatusForbidden, "conversation is closed", "conversation_closed")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrDuplicateVote):
		writeErrorCode(w, http.StatusConflict, "vote already recorded", "duplicate_vote")
	case errors.Is(err, domain.ErrDuplicateComment):
		writeErrorCode(w, http.StatusConflict, "comment text already submitted", "duplicate_comment")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	default:
		log.ErrorContext(ctx, "request failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
