package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/hackforge-api/internal/dto"
	"github.com/noah-isme/hackforge-api/internal/models"
	"github.com/noah-isme/hackforge-api/internal/repository"
)

// LifecycleService owns submission status and the hackathon judging phase.
// It is the only writer of the status column.
type LifecycleService interface {
	Transition(ctx context.Context, submissionID uint, payload dto.TransitionRequest) (dto.SubmissionResponse, error)
	OpenJudging(ctx context.Context, hackathonID uint) error
	CloseJudging(ctx context.Context, hackathonID uint) (dto.LeaderboardResponse, error)
}

type lifecycleService struct {
	submissions repository.SubmissionRepository
	hackathons  repository.HackathonRepository
	ranking     RankingService
	progress    ProgressService
	publisher   EventPublisher
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewLifecycleService constructs the finalization state machine.
func NewLifecycleService(
	submissions repository.SubmissionRepository,
	hackathons repository.HackathonRepository,
	ranking RankingService,
	progress ProgressService,
	publisher EventPublisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) LifecycleService {
	return &lifecycleService{
		submissions: submissions,
		hackathons:  hackathons,
		ranking:     ranking,
		progress:    progress,
		publisher:   publisher,
		validator:   validate,
		logger:      logger.With().Str("component", "lifecycle_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/hackforge-api/internal/service/lifecycle"),
		now:         time.Now,
	}
}

// Transition moves a submission to the target status if the lifecycle
// permits the edge. Terminal statuses are absorbing: once reached, every
// further transition fails and the ledger stays closed.
func (s *lifecycleService) Transition(ctx context.Context, submissionID uint, payload dto.TransitionRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submissions.transition", trace.WithAttributes(
		attribute.Int64("submission.id", int64(submissionID)),
		attribute.String("submission.target", payload.TargetStatus),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	target := payload.TargetStatus
	if !submission.CanTransitionTo(target) {
		if submission.IsTerminal() {
			return dto.SubmissionResponse{}, ErrSubmissionFinalized
		}
		return dto.SubmissionResponse{}, ErrInvalidTransition
	}

	hackathon := submission.Hackathon
	if hackathon.ID == 0 {
		hackathon, err = s.hackathons.GetByID(ctx, submission.HackathonID)
		if err != nil {
			span.RecordError(err)
			return dto.SubmissionResponse{}, err
		}
	}

	var submittedAt *time.Time

	switch target {
	case models.SubmissionStatusSubmitted:
		at := s.now().UTC()
		if !hackathon.Deadline.IsZero() && at.After(hackathon.Deadline) {
			return dto.SubmissionResponse{}, ErrDeadlinePassed
		}
		submittedAt = &at
	case models.SubmissionStatusUnderReview:
		if !hackathon.JudgingOpen() {
			return dto.SubmissionResponse{}, ErrJudgingClosed
		}
	case models.SubmissionStatusWinner:
		if err := s.checkWinnerRank(ctx, submission, hackathon); err != nil {
			return dto.SubmissionResponse{}, err
		}
	}

	if err := s.submissions.UpdateStatus(ctx, submissionID, target, submittedAt); err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	submission.Status = target
	if submittedAt != nil {
		submission.SubmittedAt = submittedAt
	}

	if s.progress != nil {
		s.progress.Invalidate(ctx, submission.HackathonID)
	}
	// Disqualification pulls the entry out of the leaderboard; every other
	// terminal move leaves the ordering intact.
	if target == models.SubmissionStatusDisqualified && s.ranking != nil {
		s.ranking.Schedule(submission.HackathonID)
	}

	if submission.IsTerminal() && s.publisher != nil {
		s.publisher.Publish(ctx, DomainEvent{
			Type:     EventSubmissionFinalized,
			EntityID: submissionID,
			Version:  statusOrdinal(target),
			Payload: map[string]interface{}{
				"status":       target,
				"hackathon_id": submission.HackathonID,
			},
		})
	}

	s.logger.Info().
		Uint("submission_id", submissionID).
		Str("status", target).
		Msg("submission transitioned")

	return dto.NewSubmissionResponse(submission), nil
}

// OpenJudging moves the hackathon into its judging phase and promotes every
// submitted entry to under_review in one sweep.
func (s *lifecycleService) OpenJudging(ctx context.Context, hackathonID uint) error {
	hackathon, err := s.hackathons.GetByID(ctx, hackathonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrHackathonNotFound
		}
		return err
	}

	if hackathon.Status != models.HackathonStatusOpen {
		return ErrInvalidTransition
	}

	if err := s.hackathons.UpdateStatus(ctx, hackathonID, models.HackathonStatusJudging); err != nil {
		return err
	}

	promoted, err := s.submissions.BulkTransition(ctx, hackathonID,
		models.SubmissionStatusSubmitted, models.SubmissionStatusUnderReview)
	if err != nil {
		return err
	}

	if s.progress != nil {
		s.progress.Invalidate(ctx, hackathonID)
	}

	s.logger.Info().
		Uint("hackathon_id", hackathonID).
		Int64("promoted", promoted).
		Msg("judging opened")

	return nil
}

// CloseJudging ends the judging phase. Every countable submission must hold
// at least one active score, and the final ranking is recomputed
// synchronously before the status flips so the closing leaderboard is the
// authoritative one.
func (s *lifecycleService) CloseJudging(ctx context.Context, hackathonID uint) (dto.LeaderboardResponse, error) {
	hackathon, err := s.hackathons.GetByID(ctx, hackathonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LeaderboardResponse{}, ErrHackathonNotFound
		}
		return dto.LeaderboardResponse{}, err
	}

	if hackathon.Status != models.HackathonStatusJudging {
		return dto.LeaderboardResponse{}, ErrInvalidTransition
	}

	if s.progress != nil {
		coverage, err := s.progress.EventProgress(ctx, hackathonID)
		if err != nil {
			return dto.LeaderboardResponse{}, err
		}
		if coverage.Uncovered > 0 {
			return dto.LeaderboardResponse{}, ErrJudgingNotComplete
		}
	}

	leaderboard, err := s.ranking.Recompute(ctx, hackathonID)
	if err != nil {
		return dto.LeaderboardResponse{}, err
	}

	if err := s.hackathons.UpdateStatus(ctx, hackathonID, models.HackathonStatusClosed); err != nil {
		return dto.LeaderboardResponse{}, err
	}

	s.logger.Info().
		Uint("hackathon_id", hackathonID).
		Uint("ranking_version", leaderboard.Version).
		Msg("judging closed")

	return leaderboard, nil
}

// checkWinnerRank enforces that WINNER is granted only to entries inside the
// scope's winner slots. Track submissions are judged against the track
// leaderboard, the rest against the hackathon-wide one.
func (s *lifecycleService) checkWinnerRank(ctx context.Context, submission models.Submission, hackathon models.Hackathon) error {
	slots := hackathon.WinnerSlots
	if submission.TrackID != nil {
		track, err := s.hackathons.GetTrack(ctx, *submission.TrackID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		} else {
			slots = track.WinnerSlots
		}
	}

	leaderboard, err := s.ranking.Leaderboard(ctx, submission.HackathonID, submission.TrackID)
	if err != nil {
		return err
	}

	for _, entry := range leaderboard.Entries {
		if entry.SubmissionID == submission.ID {
			if entry.Rank <= slots {
				return nil
			}
			return ErrRankMismatch
		}
	}

	return ErrRankMismatch
}

// statusOrdinal gives terminal statuses a stable version for finalization
// events.
func statusOrdinal(status string) uint {
	switch status {
	case models.SubmissionStatusAccepted:
		return 1
	case models.SubmissionStatusRejected:
		return 2
	case models.SubmissionStatusWinner:
		return 3
	case models.SubmissionStatusDisqualified:
		return 4
	}
	return 0
}
