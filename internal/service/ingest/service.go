// Package ingest validates and persists votes and comments. Writes are
// idempotent under client retries: the store's uniqueness constraints
// linearize duplicates and the service reports them as typed conditions
// rather than generic failures.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/openagora/agora/internal/adapter/provider/moderation"
	"github.com/openagora/agora/internal/adapter/queue"
	"github.com/openagora/agora/internal/domain"
)

const (
	commentInsertRetries = 2
	commentInsertBackoff = 25 * time.Millisecond
)

type conversationGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
}

type voteRepo interface {
	Insert(ctx context.Context, v *domain.Vote) error
}

type commentRepo interface {
	Insert(ctx context.Context, c *domain.Comment) error
	GetByID(ctx context.Context, conversationID uuid.UUID, id int64) (*domain.Comment, error)
	ExistsText(ctx context.Context, conversationID uuid.UUID, text string) (bool, error)
}

type allowlistChecker interface {
	IsAllowed(ctx context.Context, ownerID uuid.UUID, externalID string) (bool, error)
}

type provisioner interface {
	Provision(ctx context.Context, conversationID, subjectID uuid.UUID) (*domain.Participant, bool, error)
}

type classifier interface {
	Classify(ctx context.Context, text, context_ string) (moderation.Verdict, error)
}

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements the ingest pipeline.
type Service struct {
	conversations conversationGetter
	votes         voteRepo
	comments      commentRepo
	allowlist     allowlistChecker
	provisioner   provisioner
	classifier    classifier
	tx            txRunner
	tasks         queue.Client
	taskDelay     time.Duration
	log           *slog.Logger
}

// New creates an ingest Service.
func New(
	conversations conversationGetter,
	votes voteRepo,
	comments commentRepo,
	allowlist allowlistChecker,
	prov provisioner,
	classifier classifier,
	tx txRunner,
	tasks queue.Client,
	taskDelay time.Duration,
	logger *slog.Logger,
) *Service {
	return &Service{
		conversations: conversations,
		votes:         votes,
		comments:      comments,
		allowlist:     allowlist,
		provisioner:   prov,
		classifier:    classifier,
		tx:            tx,
		tasks:         tasks,
		taskDelay:     taskDelay,
		log:           logger.With("service", "ingest"),
	}
}

// VoteInput carries one vote submission.
type VoteInput struct {
	ConversationID uuid.UUID
	PID            int32
	CommentID      int64
	Value          domain.VoteValue
	Weight         float64
	// ExternalID is the resolved external identifier, empty for anonymous
	// and account subjects.
	ExternalID string
}

// SubmitVote writes a vote. A repeated submission for the same (participant,
// comment) returns domain.ErrDuplicateVote and never changes the first vote.
func (s *Service) SubmitVote(ctx context.Context, in VoteInput) error {
	if !in.Value.Valid() {
		return domain.NewValidationError("value", "must be -1, 0 or 1")
	}

	conv, err := s.conversations.GetByID(ctx, in.ConversationID)
	if err != nil {
		return fmt.Errorf("submit vote: %w", err)
	}
	if !conv.IsActive {
		return fmt.Errorf("conversation %s: %w", conv.ID, domain.ErrConversationClosed)
	}

	if conv.UseXidAllowlist && in.ExternalID != "" {
		allowed, aerr := s.allowlist.IsAllowed(ctx, conv.OwnerID, in.ExternalID)
		if aerr != nil {
			return fmt.Errorf("submit vote: allowlist check: %w", aerr)
		}
		if !allowed {
			return fmt.Errorf("external id %q: %w", in.ExternalID, domain.ErrNotAllowlisted)
		}
	}

	// The FK on votes only covers the comment id, not its conversation, so
	// a scoped lookup is what keeps cross-conversation votes out.
	if _, err := s.comments.GetByID(ctx, in.ConversationID, in.CommentID); err != nil {
		return fmt.Errorf("submit vote: %w", err)
	}

	weight := in.Weight
	if weight == 0 {
		weight = 1
	}

	v := &domain.Vote{
		ConversationID: in.ConversationID,
		PID:            in.PID,
		CommentID:      in.CommentID,
		Value:          in.Value,
		Weight:         weight,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.votes.Insert(ctx, v); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return fmt.Errorf("vote on comment %d: %w", in.CommentID, domain.ErrDuplicateVote)
		}
		return fmt.Errorf("submit vote: %w", err)
	}

	s.scheduleBookkeeping(ctx, in.ConversationID, in.PID)
	return nil
}

// CommentInput carries one comment submission.
type CommentInput struct {
	ConversationID uuid.UUID
	SubjectID      uuid.UUID
	PID            int32
	Text           string
	Language       string

	// IsSeed marks owner-authored seed comments created during conversation
	// setup; IsModerator marks submissions by the conversation's moderators.
	// Both bypass the external classifiers.
	IsSeed      bool
	IsModerator bool

	// AutoVote casts an agree vote by the author on the new comment.
	AutoVote bool
}

// SubmitComment validates and stores a comment. Classifier failures never
// block insertion; the comment is stored unmoderated for later review.
func (s *Service) SubmitComment(ctx context.Context, in CommentInput) (*domain.Comment, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, domain.NewValidationError("text", "must not be empty")
	}

	conv, err := s.conversations.GetByID(ctx, in.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("submit comment: %w", err)
	}
	if !conv.IsActive {
		return nil, fmt.Errorf("conversation %s: %w", conv.ID, domain.ErrConversationClosed)
	}

	exists, err := s.comments.ExistsText(ctx, in.ConversationID, text)
	if err != nil {
		return nil, fmt.Errorf("submit comment: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("comment text: %w", domain.ErrDuplicateComment)
	}

	status, active := s.moderate(ctx, conv, in, text)

	c := &domain.Comment{
		ConversationID: in.ConversationID,
		PID:            in.PID,
		Text:           text,
		Language:       in.Language,
		Active:         active,
		ModStatus:      status,
		IsSeed:         in.IsSeed,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.insertWithReprovision(ctx, c, in.SubjectID, in.AutoVote); err != nil {
		return nil, err
	}

	// The auto vote counts toward the author's tally like any other vote.
	var votedPID int32
	if in.AutoVote {
		votedPID = c.PID
	}
	s.scheduleBookkeeping(ctx, in.ConversationID, votedPID)
	return c, nil
}

// moderate decides the initial moderation state. Seed and moderator
// submissions are auto-approved; everything else goes through the external
// classifiers, failing open to unmoderated when they are unreachable.
func (s *Service) moderate(ctx context.Context, conv *domain.Conversation, in CommentInput, text string) (domain.ModStatus, bool) {
	if in.IsSeed || in.IsModerator {
		return domain.ModApproved, true
	}

	verdict, err := s.classifier.Classify(ctx, text, conv.Topic)
	if err != nil {
		s.log.WarnContext(ctx, "classifier unavailable, storing unmoderated",
			slog.String("conversation_id", conv.ID.String()),
			slog.String("error", err.Error()),
		)
		return domain.ModPending, !conv.StrictModeration
	}

	if (verdict.Toxic && conv.ProfanityFilter) || (verdict.Spam && conv.SpamFilter) {
		// Stored inactive rather than discarded so moderators can review.
		return domain.ModRejected, false
	}

	if conv.StrictModeration {
		return domain.ModPending, false
	}
	return domain.ModApproved, true
}

// insertWithReprovision writes the comment and, when requested, the author's
// agree vote in one transaction, absorbing the one transparently retried
// failure: a foreign-key violation against the participants table, which
// means the participant row from a concurrent provision has not committed
// yet. Re-provisioning runs between attempts, outside the aborted
// transaction. Any other failure surfaces immediately.
func (s *Service) insertWithReprovision(ctx context.Context, c *domain.Comment, subjectID uuid.UUID, autoVote bool) error {
	backoff := retry.WithMaxRetries(commentInsertRetries, retry.NewConstant(commentInsertBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		ierr := s.tx.RunInTx(ctx, func(ctx context.Context) error {
			if err := s.comments.Insert(ctx, c); err != nil {
				return err
			}
			if !autoVote {
				return nil
			}
			return s.votes.Insert(ctx, &domain.Vote{
				ConversationID: c.ConversationID,
				PID:            c.PID,
				CommentID:      c.ID,
				Value:          domain.VoteAgree,
				Weight:         1,
				CreatedAt:      time.Now().UTC(),
			})
		})
		if ierr == nil {
			return nil
		}
		if errors.Is(ierr, domain.ErrParticipantMissing) {
			if _, _, perr := s.provisioner.Provision(ctx, c.ConversationID, subjectID); perr != nil {
				return perr
			}
			return retry.RetryableError(ierr)
		}
		return ierr
	})
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// scheduleBookkeeping enqueues the derived-state updates after a successful
// write. Losing these under process termination is acceptable, so enqueue
// failures are logged and swallowed. pid 0 skips the vote-count bump.
func (s *Service) scheduleBookkeeping(ctx context.Context, conversationID uuid.UUID, pid int32) {
	touch, err := queue.NewConversationTouchTask(conversationID, time.Now().UTC())
	if err == nil {
		err = s.tasks.Enqueue(ctx, touch, s.taskDelay)
	}
	if err != nil {
		s.log.WarnContext(ctx, "bookkeeping enqueue failed",
			slog.String("task", queue.TaskConversationTouch),
			slog.String("error", err.Error()),
		)
	}

	if pid == 0 {
		return
	}

	bump, err := queue.NewVoteCountBumpTask(conversationID, pid, 1)
	if err == nil {
		err = s.tasks.Enqueue(ctx, bump, s.taskDelay)
	}
	if err != nil {
		s.log.WarnContext(ctx, "bookkeeping enqueue failed",
			slog.String("task", queue.TaskVoteCountBump),
			slog.String("error", err.Error()),
		)
	}
}
