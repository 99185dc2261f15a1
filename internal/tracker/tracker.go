package tracker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/khrees2412/coldreach/internal/database"
	"github.com/khrees2412/coldreach/internal/logger"
	"github.com/khrees2412/coldreach/pkg/models"
)

var (
	ErrNotFound          = errors.New("draft not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// TransitionError reports a status change the workflow does not allow.
type TransitionError struct {
	From models.Status
	To   models.Status
}

func (e *TransitionError) Error() string {
	if IsTerminal(e.From) {
		return fmt.Sprintf("cannot move from %s: it is a final status", e.From)
	}
	return fmt.Sprintf("cannot move from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Repository persists drafts. *database.DraftRepository implements it.
type Repository interface {
	CreateDraft(ctx context.Context, draft *models.EmailDraft) error
	GetDraft(ctx context.Context, userID string, id int64) (*models.EmailDraft, error)
	ListDrafts(ctx context.Context, userID string, status models.Status) ([]*models.EmailDraft, error)
	UpdateDraftStatus(ctx context.Context, userID string, id int64, status models.Status, notes string) error
	DeleteDraft(ctx context.Context, userID string, id int64) error
	CountByStatus(ctx context.Context, userID string) (map[models.Status]int, error)
}

type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger.OrNop(log)}
}

// Record stores a generated email as a Draft.
func (s *Service) Record(ctx context.Context, userID, sourceURL string, job models.JobPosting, email string) (*models.EmailDraft, error) {
	draft := &models.EmailDraft{
		UserID:    userID,
		SourceURL: sourceURL,
		Job:       job,
		Email:     email,
		Status:    models.StatusDraft,
	}
	if err := s.repo.CreateDraft(ctx, draft); err != nil {
		return nil, fmt.Errorf("record draft: %w", err)
	}
	return draft, nil
}

// List returns userID's drafts in creation order, optionally filtered by status.
func (s *Service) List(ctx context.Context, userID string, status models.Status) ([]*models.EmailDraft, error) {
	return s.repo.ListDrafts(ctx, userID, status)
}

func (s *Service) Get(ctx context.Context, userID string, id int64) (*models.EmailDraft, error) {
	draft, err := s.repo.GetDraft(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, ErrNotFound
	}
	return draft, nil
}

// Move changes a draft's status. Moving to the current status only replaces
// the notes; an empty note keeps the existing one.
func (s *Service) Move(ctx context.Context, userID string, id int64, to models.Status, notes string) (*models.EmailDraft, error) {
	draft, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if draft.Status != to && !IsTransitionAllowed(draft.Status, to) {
		return nil, &TransitionError{From: draft.Status, To: to}
	}
	if notes == "" {
		notes = draft.Notes
	}

	if err := s.repo.UpdateDraftStatus(ctx, userID, id, to, notes); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.logger.Debug("draft moved",
		zap.String(logger.FieldOwner, userID),
		zap.Int64("draft_id", id),
		zap.String("from", string(draft.Status)),
		zap.String("to", string(to)))

	draft.Status = to
	draft.Notes = notes
	return draft, nil
}

func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	err := s.repo.DeleteDraft(ctx, userID, id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// Stats summarises a user's outreach pipeline.
type Stats struct {
	Total        int
	ByStatus     map[models.Status]int
	Sent         int
	ResponseRate float64
	OfferRate    float64
}

func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	counts, err := s.repo.CountByStatus(ctx, userID)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{ByStatus: counts}
	for _, n := range counts {
		stats.Total += n
	}
	stats.Sent = stats.Total - counts[models.StatusDraft]

	if stats.Sent > 0 {
		responded := counts[models.StatusInterview] + counts[models.StatusOffered] +
			counts[models.StatusAccepted] + counts[models.StatusRejected]
		offers := counts[models.StatusOffered] + counts[models.StatusAccepted]
		stats.ResponseRate = float64(responded) / float64(stats.Sent) * 100
		stats.OfferRate = float64(offers) / float64(stats.Sent) * 100
	}
	return stats, nil
}
