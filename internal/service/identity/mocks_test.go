package identity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/openagora/agora/internal/auth"
	"github.com/openagora/agora/internal/domain"
)

type subjectRepoMock struct {
	CreateFunc func(ctx context.Context, s *domain.Subject) error
}

func (m *subjectRepoMock) Create(ctx context.Context, s *domain.Subject) error {
	return m.CreateFunc(ctx, s)
}

type participantRepoMock struct {
	GetBySubjectFunc func(ctx context.Context, conversationID, subjectID uuid.UUID) (*domain.Participant, error)
	InsertFunc       func(ctx context.Context, conversationID, subjectID uuid.UUID) (*domain.Participant, error)
}

func (m *participantRepoMock) GetBySubject(ctx context.Context, conversationID, subjectID uuid.UUID) (*domain.Participant, error) {
	return m.GetBySubjectFunc(ctx, conversationID, subjectID)
}

func (m *participantRepoMock) Insert(ctx context.Context, conversationID, subjectID uuid.UUID) (*domain.Participant, error) {
	return m.InsertFunc(ctx, conversationID, subjectID)
}

type conversationGetterMock struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
}

func (m *conversationGetterMock) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	return m.GetByIDFunc(ctx, id)
}

type credentialRepoMock struct {
	GetFunc       func(ctx context.Context, conversationID uuid.UUID, externalID string) (*domain.ExternalIdentifier, error)
	CreateFunc    func(ctx context.Context, x *domain.ExternalIdentifier) error
	IsAllowedFunc func(ctx context.Context, ownerID uuid.UUID, externalID string) (bool, error)
	GetLegacyFunc func(ctx context.Context, conversationID uuid.UUID, credential string) (*domain.LegacyRecord, error)
}

func (m *credentialRepoMock) Get(ctx context.Context, conversationID uuid.UUID, externalID string) (*domain.ExternalIdentifier, error) {
	return m.GetFunc(ctx, conversationID, externalID)
}

func (m *credentialRepoMock) Create(ctx context.Context, x *domain.ExternalIdentifier) error {
	return m.CreateFunc(ctx, x)
}

func (m *credentialRepoMock) IsAllowed(ctx context.Context, ownerID uuid.UUID, externalID string) (bool, error) {
	return m.IsAllowedFunc(ctx, ownerID, externalID)
}

func (m *credentialRepoMock) GetLegacy(ctx context.Context, conversationID uuid.UUID, credential string) (*domain.LegacyRecord, error) {
	return m.GetLegacyFunc(ctx, conversationID, credential)
}

type tokenManagerMock struct {
	IssueFunc func(c auth.SessionClaims) (string, error)
	ParseFunc func(token string) (auth.SessionClaims, error)
	ttl       time.Duration
}

func (m *tokenManagerMock) Issue(c auth.SessionClaims) (string, error) {
	return m.IssueFunc(c)
}

func (m *tokenManagerMock) Parse(token string) (auth.SessionClaims, error) {
	return m.ParseFunc(token)
}

func (m *tokenManagerMock) TTL() time.Duration {
	if m.ttl == 0 {
		return time.Hour
	}
	return m.ttl
}
