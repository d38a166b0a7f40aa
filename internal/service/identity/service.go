// Package identity resolves who is making a participation request and binds
// that identity to a per-conversation participant record.
//
// The resolver never lets a credential bound to one conversation silently
// grant identity in another: a conversation mismatch runs through an explicit
// decision table before any other resolution step.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/openagora/agora/internal/auth"
	"github.com/openagora/agora/internal/domain"
)

const (
	provisionRetries = 3
	provisionBackoff = 25 * time.Millisecond
)

type subjectRepo interface {
	Create(ctx context.Context, s *domain.Subject) error
}

type participantRepo interface {
	GetBySubject(ctx context.Context, conversationID, subjectID uuid.UUID) (*domain.Participant, error)
	Insert(ctx context.Context, conversationID, subjectID uuid.UUID) (*domain.Participant, error)
}

type conversationGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
}

type credentialRepo interface {
	Get(ctx context.Context, conversationID uuid.UUID, externalID string) (*domain.ExternalIdentifier, error)
	Create(ctx context.Context, x *domain.ExternalIdentifier) error
	IsAllowed(ctx context.Context, ownerID uuid.UUID, externalID string) (bool, error)
	GetLegacy(ctx context.Context, conversationID uuid.UUID, credential string) (*domain.LegacyRecord, error)
}

type tokenManager interface {
	Issue(c auth.SessionClaims) (string, error)
	Parse(token string) (auth.SessionClaims, error)
	TTL() time.Duration
}

// Service implements identity resolution and participant provisioning.
type Service struct {
	subjects      subjectRepo
	participants  participantRepo
	conversations conversationGetter
	credentials   credentialRepo
	tokens        tokenManager
	log           *slog.Logger
}

// New creates an identity Service.
func New(
	subjects subjectRepo,
	participants participantRepo,
	conversations conversationGetter,
	credentials credentialRepo,
	tokens tokenManager,
	logger *slog.Logger,
) *Service {
	return &Service{
		subjects:      subjects,
		participants:  participants,
		conversations: conversations,
		credentials:   credentials,
		tokens:        tokens,
		log:           logger.With("service", "identity"),
	}
}

// Credentials are the identity inputs presented with a participation request.
// All fields are optional; Kind states which subject kind the caller claims.
type Credentials struct {
	Kind             domain.SubjectKind
	Token            string
	ExternalID       string
	LegacyCredential string

	// AccountSubjectID is set by the HTTP layer when the request carries a
	// verified account login.
	AccountSubjectID *uuid.UUID
}

// Resolution is the outcome of resolving and provisioning one request.
type Resolution struct {
	SubjectID   uuid.UUID
	Participant *domain.Participant

	// ExternalID is the external identifier the resolved identity is bound
	// to, empty when the identifier was discarded during mismatch handling.
	ExternalID string

	SubjectCreated     bool
	ParticipantCreated bool

	// Token is a freshly issued session credential. Empty when the caller
	// already presented a valid credential for this conversation.
	Token     string
	ExpiresIn time.Duration
}

// mismatchResolution enumerates the outcomes of the conversation-mismatch
// decision table. Keeping this an explicit enumeration over (caller kind,
// identifier match, identifier standing) keeps the table auditable.
type mismatchResolution int

const (
	// Discard every presented credential and start as a new anonymous visitor.
	mismatchStartAnonymous mismatchResolution = iota
	// Resolve purely from the request's external identifier.
	mismatchUseExternalID
	// Keep the token's subject, discard the external identifier.
	mismatchKeepTokenSubject
)

func classifyMismatch(kind domain.SubjectKind, xidMatchesToken, xidValidHere bool) mismatchResolution {
	switch {
	case kind != domain.SubjectExternal:
		return mismatchStartAnonymous
	case xidMatchesToken:
		// Token and identifier are self-consistent but bound to another
		// conversation. No identity evidence exists here.
		return mismatchStartAnonymous
	case xidValidHere:
		return mismatchUseExternalID
	default:
		return mismatchKeepTokenSubject
	}
}

// Resolve produces a single resolved subject for the conversation, provisions
// its participant row, and decides whether a fresh session credential must be
// returned to the caller.
func (s *Service) Resolve(ctx context.Context, conversationID uuid.UUID, creds Credentials) (*Resolution, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}

	res := &Resolution{ExternalID: creds.ExternalID}

	var (
		subjectID  uuid.UUID
		resolved   bool
		trusted    bool // a presented credential already matches this conversation
		discardXID bool
	)

	if creds.Kind == domain.SubjectAccount && creds.AccountSubjectID != nil {
		subjectID = *creds.AccountSubjectID
		resolved = true
	}

	if !resolved && creds.Token != "" {
		claims, perr := s.tokens.Parse(creds.Token)
		switch {
		case perr != nil:
			// Unusable credential. Resolution continues as if none was
			// presented; a fresh token is issued at the end.
			s.log.DebugContext(ctx, "discarding unparsable session token", slog.String("error", perr.Error()))
		case claims.ConversationID == conversationID:
			subjectID = claims.SubjectID
			resolved, trusted = true, true
			// The binding recorded at issuance wins over whatever the request
			// body claims, so allow-list checks downstream see the identifier
			// this subject actually joined with.
			if claims.ExternalID != "" {
				res.ExternalID = claims.ExternalID
			}
		default:
			outcome, xidSubject, merr := s.resolveMismatch(ctx, conversationID, creds, claims)
			if merr != nil {
				return nil, merr
			}
			switch outcome {
			case mismatchStartAnonymous:
				discardXID = true
			case mismatchUseExternalID:
				subjectID = xidSubject
				resolved = true
			case mismatchKeepTokenSubject:
				subjectID = claims.SubjectID
				resolved = true
				discardXID = true
			}
		}
	}

	if !resolved && creds.Token == "" && creds.LegacyCredential != "" {
		rec, lerr := s.credentials.GetLegacy(ctx, conversationID, creds.LegacyCredential)
		switch {
		case lerr == nil:
			subjectID = rec.SubjectID
			resolved = true
			discardXID = true // legacy hit short-circuits external-id resolution
		case !errors.Is(lerr, domain.ErrNotFound):
			return nil, fmt.Errorf("legacy credential lookup: %w", lerr)
		}
	}

	if !resolved && creds.ExternalID != "" && !discardXID {
		subjectID, res.SubjectCreated, err = s.resolveExternal(ctx, conv, creds.ExternalID)
		if err != nil {
			return nil, err
		}
		resolved = true
	}

	if !resolved {
		sub, cerr := s.newAnonymousSubject(ctx)
		if cerr != nil {
			return nil, cerr
		}
		subjectID = sub.ID
		res.SubjectCreated = true
	}

	if discardXID {
		res.ExternalID = ""
	}

	p, created, err := s.Provision(ctx, conversationID, subjectID)
	if err != nil {
		return nil, err
	}

	res.SubjectID = subjectID
	res.Participant = p
	res.ParticipantCreated = created

	if !trusted {
		kind := domain.SubjectAnonymous
		switch {
		case creds.Kind == domain.SubjectAccount && creds.AccountSubjectID != nil:
			kind = domain.SubjectAccount
		case res.ExternalID != "":
			kind = domain.SubjectExternal
		}

		token, terr := s.tokens.Issue(auth.SessionClaims{
			Kind:           kind,
			SubjectID:      subjectID,
			ConversationID: conversationID,
			PID:            p.PID,
			ExternalID:     res.ExternalID,
		})
		if terr != nil {
			return nil, fmt.Errorf("issue session token: %w", terr)
		}
		res.Token = token
		res.ExpiresIn = s.tokens.TTL()
	}

	return res, nil
}

// resolveMismatch evaluates the decision table for a token whose conversation
// claim differs from the requested conversation. The external identifier's
// standing in this conversation is only consulted when the table needs it.
func (s *Service) resolveMismatch(ctx context.Context, conversationID uuid.UUID, creds Credentials, claims auth.SessionClaims) (mismatchResolution, uuid.UUID, error) {
	kind := creds.Kind
	if creds.ExternalID == "" {
		// An external claim without an identifier carries no evidence.
		kind = domain.SubjectAnonymous
	}

	xidMatches := creds.ExternalID != "" && creds.ExternalID == claims.ExternalID

	var (
		xidValid   bool
		xidSubject uuid.UUID
	)
	if kind == domain.SubjectExternal && !xidMatches {
		rec, err := s.credentials.Get(ctx, conversationID, creds.ExternalID)
		switch {
		case err == nil:
			xidValid = true
			xidSubject = rec.SubjectID
		case !errors.Is(err, domain.ErrNotFound):
			return 0, uuid.Nil, fmt.Errorf("external identifier lookup: %w", err)
		}
	}

	outcome := classifyMismatch(kind, xidMatches, xidValid)

	s.log.DebugContext(ctx, "conversation mismatch",
		slog.String("claimed_conversation", claims.ConversationID.String()),
		slog.String("requested_conversation", conversationID.String()),
		slog.String("kind", kind.String()),
		slog.Int("outcome", int(outcome)),
	)

	return outcome, xidSubject, nil
}

// resolveExternal maps an external identifier to a subject for this
// conversation, provisioning a new subject when the identifier has no record
// yet and the owner's allow-list (when enforced) admits it.
func (s *Service) resolveExternal(ctx context.Context, conv *domain.Conversation, externalID string) (uuid.UUID, bool, error) {
	rec, err := s.credentials.Get(ctx, conv.ID, externalID)
	if err == nil {
		return rec.SubjectID, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return uuid.Nil, false, fmt.Errorf("external identifier lookup: %w", err)
	}

	if conv.UseXidAllowlist {
		allowed, aerr := s.credentials.IsAllowed(ctx, conv.OwnerID, externalID)
		if aerr != nil {
			return uuid.Nil, false, fmt.Errorf("allowlist check: %w", aerr)
		}
		if !allowed {
			return uuid.Nil, false, fmt.Errorf("external id %q: %w", externalID, domain.ErrNotAllowlisted)
		}
	}

	sub, cerr := s.newAnonymousSubject(ctx)
	if cerr != nil {
		return uuid.Nil, false, cerr
	}

	x := &domain.ExternalIdentifier{
		ExternalID:     externalID,
		ConversationID: conv.ID,
		SubjectID:      sub.ID,
		CreatedAt:      time.Now().UTC(),
	}
	if cerr := s.credentials.Create(ctx, x); cerr != nil {
		if errors.Is(cerr, domain.ErrAlreadyExists) {
			// A concurrent request bound this identifier first. The subject
			// created above stays orphaned; adopt the winner's binding.
			winner, rerr := s.credentials.Get(ctx, conv.ID, externalID)
			if rerr != nil {
				return uuid.Nil, false, fmt.Errorf("re-read external identifier: %w", rerr)
			}
			return winner.SubjectID, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("create external identifier: %w", cerr)
	}

	return sub.ID, true, nil
}

func (s *Service) newAnonymousSubject(ctx context.Context) (*domain.Subject, error) {
	sub := &domain.Subject{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.subjects.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subject: %w", err)
	}
	return sub, nil
}

// Provision maps (conversation, subject) to a durable participant, creating
// it at most once. Unique violations mean a concurrent request won either the
// (conversation, subject) race or the pid race; both are absorbed by a
// bounded lookup-then-insert retry. Exhausting the retries indicates a
// store-level invariant violation and surfaces as an internal error.
func (s *Service) Provision(ctx context.Context, conversationID, subjectID uuid.UUID) (*domain.Participant, bool, error) {
	var (
		p       *domain.Participant
		created bool
	)

	backoff := retry.WithMaxRetries(provisionRetries, retry.NewConstant(provisionBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		got, gerr := s.participants.GetBySubject(ctx, conversationID, subjectID)
		if gerr == nil {
			p, created = got, false
			return nil
		}
		if !errors.Is(gerr, domain.ErrNotFound) {
			return gerr
		}

		ins, ierr := s.participants.Insert(ctx, conversationID, subjectID)
		if ierr == nil {
			p, created = ins, true
			return nil
		}
		if errors.Is(ierr, domain.ErrAlreadyExists) {
			return retry.RetryableError(ierr)
		}
		return ierr
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, false, fmt.Errorf("provision participant for subject %s: retries exhausted: %w", subjectID, domain.ErrInternal)
		}
		return nil, false, fmt.Errorf("provision participant for subject %s: %w", subjectID, err)
	}

	return p, created, nil
}
