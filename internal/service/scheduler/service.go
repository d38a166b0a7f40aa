// Package scheduler selects the next comment to show a participant. Priority
// weights come from the external clustering engine via a cached versioned
// snapshot; a missing snapshot degrades to uniform weights.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/openagora/agora/internal/domain"
)

type commentLister interface {
	ListActive(ctx context.Context, conversationID uuid.UUID) ([]*domain.Comment, error)
}

type voteLister interface {
	VotedCommentIDs(ctx context.Context, conversationID uuid.UUID, pid int32) ([]int64, error)
}

type agendaGetter interface {
	Get(ctx context.Context, conversationID uuid.UUID, pid int32) (*domain.AgendaSelection, error)
}

type snapshotCache interface {
	Get(ctx context.Context, conversationID uuid.UUID) (*domain.OpinionSnapshot, error)
	Put(ctx context.Context, conversationID uuid.UUID, snap *domain.OpinionSnapshot) error
}

type snapshotProvider interface {
	FetchSnapshot(ctx context.Context, conversationID uuid.UUID, sinceVersion int64) (*domain.OpinionSnapshot, error)
}

type topicLookup interface {
	ItemsForTopics(ctx context.Context, conversationID uuid.UUID, topicKeys []string) ([]int64, error)
}

type translationCache interface {
	Get(ctx context.Context, commentID int64, lang string) (string, bool, error)
	Put(ctx context.Context, commentID int64, lang, text string) error
}

type translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Service implements next-comment selection.
type Service struct {
	comments     commentLister
	votes        voteLister
	agendas      agendaGetter
	snapshots    snapshotCache
	engine       snapshotProvider
	topics       topicLookup
	translations translationCache
	translator   translator

	// topicPoolRatio is the per-call probability of trying the participant's
	// topic agenda before the priority pool. 0 disables the agenda pool.
	topicPoolRatio float64
	randFloat      func() float64
	log            *slog.Logger
}

// New creates a scheduler Service. randFloat may be nil, in which case the
// default PRNG is used; tests inject a deterministic source.
func New(
	comments commentLister,
	votes voteLister,
	agendas agendaGetter,
	snapshots snapshotCache,
	engine snapshotProvider,
	topics topicLookup,
	translations translationCache,
	trans translator,
	topicPoolRatio float64,
	randFloat func() float64,
	logger *slog.Logger,
) *Service {
	if randFloat == nil {
		randFloat = rand.Float64
	}
	return &Service{
		comments:       comments,
		votes:          votes,
		agendas:        agendas,
		snapshots:      snapshots,
		engine:         engine,
		topics:         topics,
		translations:   translations,
		translator:     trans,
		topicPoolRatio: topicPoolRatio,
		randFloat:      randFloat,
		log:            logger.With("service", "scheduler"),
	}
}

// NextInput identifies the participant asking for their next comment.
type NextInput struct {
	ConversationID uuid.UUID
	PID            int32
	ExcludedIDs    []int64
	// Language requests enrichment with a translation when it differs from
	// the comment's own language. Empty skips enrichment.
	Language string
}

// NextItem is one scheduled comment. Translation is set when the requested
// language differs from the comment's and a rendering was obtained.
type NextItem struct {
	Comment     *domain.Comment
	Translation string
	// Remaining counts the other comments still eligible for this
	// participant after this one.
	Remaining int
}

// SelectNext picks the participant's next comment, or returns (nil, nil)
// when every comment is already voted on, excluded, or carries zero weight
// with no alternative pool yielding a candidate.
func (s *Service) SelectNext(ctx context.Context, in NextInput) (*NextItem, error) {
	all, err := s.comments.ListActive(ctx, in.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("select next: %w", err)
	}
	if len(all) == 0 {
		return nil, nil
	}

	voted, err := s.votes.VotedCommentIDs(ctx, in.ConversationID, in.PID)
	if err != nil {
		return nil, fmt.Errorf("select next: %w", err)
	}

	skip := make(map[int64]struct{}, len(voted)+len(in.ExcludedIDs))
	for _, id := range voted {
		skip[id] = struct{}{}
	}
	for _, id := range in.ExcludedIDs {
		skip[id] = struct{}{}
	}

	eligible := all[:0:0]
	for _, c := range all {
		if _, excluded := skip[c.ID]; !excluded {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return nil, nil
	}

	picked := s.pickFromTopicPool(ctx, in, eligible)
	if picked == nil {
		snap := s.snapshot(ctx, in.ConversationID)
		picked = pickWeighted(eligible, snap, s.randFloat)
	}
	if picked == nil {
		return nil, nil
	}

	item := &NextItem{Comment: picked, Remaining: len(eligible) - 1}
	s.enrich(ctx, in.Language, item)
	return item, nil
}

// pickFromTopicPool draws from the participant's topic agenda with the
// configured probability. Any shortfall (feature disabled, no agenda, empty
// intersection, lookup failure) yields nil and the caller falls back to the
// priority pool unconditionally.
func (s *Service) pickFromTopicPool(ctx context.Context, in NextInput, eligible []*domain.Comment) *domain.Comment {
	if s.topicPoolRatio <= 0 || s.randFloat() >= s.topicPoolRatio {
		return nil
	}

	agenda, err := s.agendas.Get(ctx, in.ConversationID, in.PID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.WarnContext(ctx, "agenda lookup failed", slog.String("error", err.Error()))
		}
		return nil
	}
	if len(agenda.TopicKeys) == 0 {
		return nil
	}

	ids, err := s.topics.ItemsForTopics(ctx, in.ConversationID, agenda.TopicKeys)
	if err != nil {
		s.log.WarnContext(ctx, "topic lookup failed", slog.String("error", err.Error()))
		return nil
	}
	if len(ids) == 0 {
		return nil
	}

	inTopics := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		inTopics[id] = struct{}{}
	}

	var pool []*domain.Comment
	for _, c := range eligible {
		if _, ok := inTopics[c.ID]; ok {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		return nil
	}

	return pool[int(s.randFloat()*float64(len(pool)))]
}

// pickWeighted draws one comment by priority weight: cumulative sums in
// stable comment order, a uniform draw in [0, total), and the first comment
// whose cumulative sum strictly exceeds the draw. Zero-weight comments are
// never selected while any positive weight exists; total weight 0 means
// nothing to return.
func pickWeighted(eligible []*domain.Comment, snap *domain.OpinionSnapshot, randFloat func() float64) *domain.Comment {
	var total float64
	for _, c := range eligible {
		total += snap.PriorityFor(c.ID)
	}
	if total == 0 {
		return nil
	}

	draw := randFloat() * total

	var cum float64
	for _, c := range eligible {
		cum += snap.PriorityFor(c.ID)
		if cum > draw {
			return c
		}
	}
	// Unreachable for draw < total; guard against rounding at the boundary.
	return eligible[len(eligible)-1]
}

// snapshot returns the conversation's cached clustering snapshot, fetching
// from the engine on a miss. Absence degrades to uniform weights, so every
// failure path returns nil rather than an error.
func (s *Service) snapshot(ctx context.Context, conversationID uuid.UUID) *domain.OpinionSnapshot {
	snap, err := s.snapshots.Get(ctx, conversationID)
	if err != nil {
		s.log.WarnContext(ctx, "snapshot cache read failed", slog.String("error", err.Error()))
	}
	if snap != nil {
		return snap
	}

	snap, err = s.engine.FetchSnapshot(ctx, conversationID, 0)
	if err != nil {
		s.log.WarnContext(ctx, "snapshot fetch failed", slog.String("error", err.Error()))
		return nil
	}
	if snap == nil {
		return nil
	}

	if err := s.snapshots.Put(ctx, conversationID, snap); err != nil {
		s.log.WarnContext(ctx, "snapshot cache write failed", slog.String("error", err.Error()))
	}
	return snap
}

// enrich attaches a translation in the requested language. The translation
// service is only called on a cache miss; failures return the comment
// untranslated rather than blocking delivery.
func (s *Service) enrich(ctx context.Context, lang string, item *NextItem) {
	c := item.Comment
	if lang == "" || lang == c.Language {
		return
	}

	text, ok, err := s.translations.Get(ctx, c.ID, lang)
	if err != nil {
		s.log.WarnContext(ctx, "translation cache read failed", slog.String("error", err.Error()))
	}
	if ok {
		item.Translation = text
		return
	}

	translated, err := s.translator.Translate(ctx, c.Text, c.Language, lang)
	if err != nil {
		s.log.WarnContext(ctx, "translation failed, returning original",
			slog.Int64("comment_id", c.ID),
			slog.String("target", lang),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := s.translations.Put(ctx, c.ID, lang, translated); err != nil {
		s.log.WarnContext(ctx, "translation cache write failed", slog.String("error", err.Error()))
	}
	item.Translation = translated
}
