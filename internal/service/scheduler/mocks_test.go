package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/openagora/agora/internal/domain"
)

type commentListerMock struct {
	ListActiveFunc func(ctx context.Context, conversationID uuid.UUID) ([]*domain.Comment, error)
}

func (m *commentListerMock) ListActive(ctx context.Context, conversationID uuid.UUID) ([]*domain.Comment, error) {
	return m.ListActiveFunc(ctx, conversationID)
}

type voteListerMock struct {
	VotedCommentIDsFunc func(ctx context.Context, conversationID uuid.UUID, pid int32) ([]int64, error)
}

func (m *voteListerMock) VotedCommentIDs(ctx context.Context, conversationID uuid.UUID, pid int32) ([]int64, error) {
	return m.VotedCommentIDsFunc(ctx, conversationID, pid)
}

type agendaGetterMock struct {
	GetFunc func(ctx context.Context, conversationID uuid.UUID, pid int32) (*domain.AgendaSelection, error)
}

func (m *agendaGetterMock) Get(ctx context.Context, conversationID uuid.UUID, pid int32) (*domain.AgendaSelection, error) {
	return m.GetFunc(ctx, conversationID, pid)
}

// snapshotCacheMock is a stateful in-memory snapshot cache.
type snapshotCacheMock struct {
	snaps map[uuid.UUID]*domain.OpinionSnapshot
	puts  int
}

func newSnapshotCacheMock() *snapshotCacheMock {
	return &snapshotCacheMock{snaps: map[uuid.UUID]*domain.OpinionSnapshot{}}
}

func (m *snapshotCacheMock) Get(ctx context.Context, conversationID uuid.UUID) (*domain.OpinionSnapshot, error) {
	return m.snaps[conversationID], nil
}

func (m *snapshotCacheMock) Put(ctx context.Context, conversationID uuid.UUID, snap *domain.OpinionSnapshot) error {
	m.puts++
	m.snaps[conversationID] = snap
	return nil
}

type snapshotProviderMock struct {
	FetchSnapshotFunc func(ctx context.Context, conversationID uuid.UUID, sinceVersion int64) (*domain.OpinionSnapshot, error)
	calls             int
}

func (m *snapshotProviderMock) FetchSnapshot(ctx context.Context, conversationID uuid.UUID, sinceVersion int64) (*domain.OpinionSnapshot, error) {
	m.calls++
	return m.FetchSnapshotFunc(ctx, conversationID, sinceVersion)
}

type topicLookupMock struct {
	ItemsForTopicsFunc func(ctx context.Context, conversationID uuid.UUID, topicKeys []string) ([]int64, error)
}

func (m *topicLookupMock) ItemsForTopics(ctx context.Context, conversationID uuid.UUID, topicKeys []string) ([]int64, error) {
	return m.ItemsForTopicsFunc(ctx, conversationID, topicKeys)
}

// translationCacheMock is a stateful in-memory translation cache.
type translationCacheMock struct {
	entries map[string]string
}

func newTranslationCacheMock() *translationCacheMock {
	return &translationCacheMock{entries: map[string]string{}}
}

func (m *translationCacheMock) key(commentID int64, lang string) string {
	return fmt.Sprintf("%d:%s", commentID, lang)
}

func (m *translationCacheMock) Get(ctx context.Context, commentID int64, lang string) (string, bool, error) {
	text, ok := m.entries[m.key(commentID, lang)]
	return text, ok, nil
}

func (m *translationCacheMock) Put(ctx context.Context, commentID int64, lang, text string) error {
	m.entries[m.key(commentID, lang)] = text
	return nil
}

type translatorMock struct {
	TranslateFunc func(ctx context.Context, text, sourceLang, targetLang string) (string, error)
	calls         int
}

func (m *translatorMock) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	m.calls++
	return m.TranslateFunc(ctx, text, sourceLang, targetLang)
}
