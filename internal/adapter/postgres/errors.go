package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/openagora/agora/internal/domain"
)

// PostgreSQL error codes this engine cares about.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// MapError converts pgx/pgconn errors to domain errors.
// context.DeadlineExceeded and context.Canceled are NOT mapped; they pass
// through so cancellation is never mistaken for a store failure.
func MapError(err error, entity string, key any) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %v: %w", entity, key, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", entity, key, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s %v: %w", entity, key, domain.ErrAlreadyExists)
		case codeForeignKeyViolation:
			// Only the participants FKs carry the provisioning-race meaning;
			// any other missing referenced row is a plain not-found.
			if strings.HasSuffix(pgErr.ConstraintName, "_participant_fkey") {
				return fmt.Errorf("%s %v (fk %s): %w", entity, key, pgErr.ConstraintName, domain.ErrParticipantMissing)
			}
			return fmt.Errorf("%s %v (fk %s): %w", entity, key, pgErr.ConstraintName, domain.ErrNotFound)
		case codeCheckViolation:
			return fmt.Errorf("%s %v: %w", entity, key, domain.ErrValidation)
		}
	}

	return fmt.Errorf("%s %v: %w", entity, key, err)
}

// IsUniqueViolation reports whether err is (or wraps) a unique-constraint
// violation. Both the raw driver error and the mapped domain error match, so
// call sites can classify before or after MapError.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, domain.ErrAlreadyExists) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// IsForeignKeyViolation reports whether err is (or wraps) a foreign-key
// violation.
func IsForeignKeyViolation(err error) bool {
	if errors.Is(err, domain.ErrParticipantMissing) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation
}
