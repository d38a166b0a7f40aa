package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/openagora/agora/internal/adapter/provider/moderation"
	"github.com/openagora/agora/internal/adapter/queue"
	"github.com/openagora/agora/internal/domain"
)

type conversationGetterMock struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
}

func (m *conversationGetterMock) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	return m.GetByIDFunc(ctx, id)
}

type voteRepoMock struct {
	InsertFunc func(ctx context.Context, v *domain.Vote) error
}

func (m *voteRepoMock) Insert(ctx context.Context, v *domain.Vote) error {
	return m.InsertFunc(ctx, v)
}

type commentRepoMock struct {
	InsertFunc     func(ctx context.Context, c *domain.Comment) error
	GetByIDFunc    func(ctx context.Context, conversationID uuid.UUID, id int64) (*domain.Comment, error)
	ExistsTextFunc func(ctx context.Context, conversationID uuid.UUID, text string) (bool, error)
}

func (m *commentRepoMock) Insert(ctx context.Context, c *domain.Comment) error {
	return m.InsertFunc(ctx, c)
}

func (m *commentRepoMock) GetByID(ctx context.Context, conversationID uuid.UUID, id int64) (*domain.Comment, error) {
	return m.GetByIDFunc(ctx, conversationID, id)
}

func (m *commentRepoMock) ExistsText(ctx context.Context, conversationID uuid.UUID, text string) (bool, error) {
	return m.ExistsTextFunc(ctx, conversationID, text)
}

type allowlistCheckerMock struct {
	IsAllowedFunc func(ctx context.Context, ownerID uuid.UUID, externalID string) (bool, error)
}

func (m *allowlistCheckerMock) IsAllowed(ctx context.Context, ownerID uuid.UUID, externalID string) (bool, error) {
	return m.IsAllowedFunc(ctx, ownerID, externalID)
}

type provisionerMock struct {
	ProvisionFunc func(ctx context.Context, conversationID, subjectID uuid.UUID) (*domain.Participant, bool, error)
}

func (m *provisionerMock) Provision(ctx context.Context, conversationID, subjectID uuid.UUID) (*domain.Participant, bool, error) {
	return m.ProvisionFunc(ctx, conversationID, subjectID)
}

type classifierMock struct {
	ClassifyFunc func(ctx context.Context, text, context_ string) (moderation.Verdict, error)
}

func (m *classifierMock) Classify(ctx context.Context, text, context_ string) (moderation.Verdict, error) {
	return m.ClassifyFunc(ctx, text, context_)
}

// txRunnerMock runs the callback without a real transaction and counts
// attempts.
type txRunnerMock struct {
	calls int
}

func (m *txRunnerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type taskClientMock struct {
	EnqueueFunc func(ctx context.Context, t queue.Task, delay time.Duration) error
	tasks       []queue.Task
}

func (m *taskClientMock) Enqueue(ctx context.Context, t queue.Task, delay time.Duration) error {
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(ctx, t, delay)
	}
	m.tasks = append(m.tasks, t)
	return nil
}

func (m *taskClientMock) Close() error { return nil }
