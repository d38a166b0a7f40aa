package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrInternal      = errors.New("internal inconsistency")

	// ErrConversationClosed is returned when a write is attempted against a
	// conversation whose is_active flag is false.
	ErrConversationClosed = errors.New("conversation is closed")

	// ErrNotAllowlisted is returned when the conversation enforces an
	// external-identifier allow-list and the presented identifier is not on it.
	ErrNotAllowlisted = errors.New("external identifier not allow-listed")

	// ErrDuplicateVote is returned when a vote already exists for the same
	// (participant, item). Clients should treat it as a non-error: the first
	// vote stands and is never overwritten.
	ErrDuplicateVote = errors.New("duplicate vote")

	// ErrDuplicateComment is returned when identical comment text already
	// exists in the conversation.
	ErrDuplicateComment = errors.New("duplicate comment")

	// ErrParticipantMissing classifies a foreign-key failure against the
	// participants table. The ingest pipeline re-provisions and retries on it.
	ErrParticipantMissing = errors.New("participant row missing")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}
