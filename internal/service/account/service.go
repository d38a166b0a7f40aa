// Package account implements owner account registration and password login.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/openagora/agora/internal/auth"
	"github.com/openagora/agora/internal/domain"
)

const minPasswordLength = 8

type subjectRepo interface {
	Create(ctx context.Context, s *domain.Subject) error
	GetByEmail(ctx context.Context, email string) (*domain.Subject, error)
}

type tokenIssuer interface {
	Issue(c auth.SessionClaims) (string, error)
	TTL() time.Duration
}

// Service implements account registration and login.
type Service struct {
	subjects subjectRepo
	tokens   tokenIssuer
	log      *slog.Logger
}

// New creates an account Service.
func New(subjects subjectRepo, tokens tokenIssuer, logger *slog.Logger) *Service {
	return &Service{
		subjects: subjects,
		tokens:   tokens,
		log:      logger.With("service", "account"),
	}
}

// Session is an authenticated account session.
type Session struct {
	SubjectID uuid.UUID
	Token     string
	ExpiresIn time.Duration
}

// Register creates an owner account and returns a logged-in session.
func (s *Service) Register(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.NewValidationError("email", "must be a valid address")
	}
	if len(password) < minPasswordLength {
		return nil, domain.NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	hashStr := string(hash)

	sub := &domain.Subject{
		ID:           uuid.New(),
		Email:        &email,
		PasswordHash: &hashStr,
		IsOwner:      true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.subjects.Create(ctx, sub); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, fmt.Errorf("email %s: %w", email, domain.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("register account: %w", err)
	}

	s.log.InfoContext(ctx, "account registered", slog.String("subject_id", sub.ID.String()))
	return s.session(sub)
}

// Login authenticates an owner by email and password. Unknown email and
// wrong password both return domain.ErrUnauthorized.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	sub, err := s.subjects.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if sub.PasswordHash == nil {
		return nil, domain.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*sub.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}

	return s.session(sub)
}

func (s *Service) session(sub *domain.Subject) (*Session, error) {
	token, err := s.tokens.Issue(auth.SessionClaims{
		Kind:      domain.SubjectAccount,
		SubjectID: sub.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("issue account token: %w", err)
	}
	return &Session{
		SubjectID: sub.ID,
		Token:     token,
		ExpiresIn: s.tokens.TTL(),
	}, nil
}
