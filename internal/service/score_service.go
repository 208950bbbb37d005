package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/hackforge-api/internal/dto"
	"github.com/noah-isme/hackforge-api/internal/models"
	"github.com/noah-isme/hackforge-api/internal/observability"
	"github.com/noah-isme/hackforge-api/internal/repository"
)

// ScoreService is the single writer of the score ledger. Records are
// appended and superseded, never mutated, so the audit trail survives
// re-scores and disputes.
type ScoreService interface {
	RecordScore(ctx context.Context, payload dto.ScoreCreateRequest) (dto.AggregateResponse, error)
	History(ctx context.Context, judgeID, submissionID uint) ([]dto.ScoreResponse, error)
}

type scoreService struct {
	scores      repository.ScoreRepository
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	roster      repository.RosterRepository
	criteria    repository.CriterionRepository
	aggregation AggregationService
	ranking     RankingService
	progress    ProgressService
	publisher   EventPublisher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time

	keyMu sync.Mutex
	keys  map[string]*sync.Mutex
}

// NewScoreService constructs the ledger service.
func NewScoreService(
	scores repository.ScoreRepository,
	submissions repository.SubmissionRepository,
	assignments repository.AssignmentRepository,
	roster repository.RosterRepository,
	criteria repository.CriterionRepository,
	aggregation AggregationService,
	ranking RankingService,
	progress ProgressService,
	publisher EventPublisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) ScoreService {
	return &scoreService{
		scores:      scores,
		submissions: submissions,
		assignments: assignments,
		roster:      roster,
		criteria:    criteria,
		aggregation: aggregation,
		ranking:     ranking,
		progress:    progress,
		publisher:   publisher,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "score_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/hackforge-api/internal/service/score"),
		now:         time.Now,
		keys:        make(map[string]*sync.Mutex),
	}
}

// RecordScore validates, supersedes the judge's prior active record and
// appends the replacement, then recomputes the submission aggregate inline
// and schedules a debounced leaderboard recompute.
func (s *scoreService) RecordScore(ctx context.Context, payload dto.ScoreCreateRequest) (dto.AggregateResponse, error) {
	ctx, span := s.tracer.Start(ctx, "scores.record", trace.WithAttributes(
		attribute.Int64("score.judge_id", int64(payload.JudgeID)),
		attribute.Int64("score.submission_id", int64(payload.SubmissionID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AggregateResponse{}, err
	}

	// Concurrent double-submits from the same judge serialize here; writes
	// from different judges proceed independently.
	unlock := s.lockPair(payload.JudgeID, payload.SubmissionID)
	defer unlock()

	submission, err := s.submissions.GetByID(ctx, payload.SubmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AggregateResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.AggregateResponse{}, err
	}

	if submission.IsTerminal() {
		return dto.AggregateResponse{}, ErrSubmissionFinalized
	}
	if !submission.IsJudgeable() {
		return dto.AggregateResponse{}, ErrSubmissionNotJudgeable
	}
	if submission.Hackathon.ID != 0 && !submission.Hackathon.JudgingOpen() {
		return dto.AggregateResponse{}, ErrJudgingClosed
	}

	judge, err := s.roster.GetUser(ctx, payload.JudgeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AggregateResponse{}, ErrJudgeNotFound
		}
		span.RecordError(err)
		return dto.AggregateResponse{}, err
	}
	if !judge.CanJudge() {
		return dto.AggregateResponse{}, ErrNotAJudge
	}

	// Assignment-time exclusion is the primary guard; this re-check catches
	// team membership added after the assignment was created.
	conflicted, err := s.roster.IsTeamMember(ctx, payload.JudgeID, submission.TeamID)
	if err != nil {
		span.RecordError(err)
		return dto.AggregateResponse{}, err
	}
	if conflicted {
		return dto.AggregateResponse{}, ErrConflictOfInterest
	}

	assignments, err := s.assignments.ListByJudge(ctx, payload.JudgeID, submission.HackathonID)
	if err != nil {
		span.RecordError(err)
		return dto.AggregateResponse{}, err
	}
	covered := false
	for _, assignment := range assignments {
		if assignment.Covers(submission) {
			covered = true
			break
		}
	}
	if !covered {
		return dto.AggregateResponse{}, ErrJudgeNotAssigned
	}

	rubric, err := s.criteria.GetForScope(ctx, submission.HackathonID, submission.TrackID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AggregateResponse{}, ErrRubricNotFound
		}
		span.RecordError(err)
		return dto.AggregateResponse{}, err
	}

	if err := validateCriteria(rubric, payload.Criteria); err != nil {
		return dto.AggregateResponse{}, err
	}

	var previousID *uint
	revision := uint(1)
	previous, err := s.scores.ActiveByJudgeAndSubmission(ctx, payload.JudgeID, payload.SubmissionID)
	switch {
	case err == nil:
		if payload.ExpectedRevision != nil && *payload.ExpectedRevision != previous.Revision {
			return dto.AggregateResponse{}, ErrStaleRevision
		}
		previousID = &previous.ID
		revision = previous.Revision + 1
	case errors.Is(err, gorm.ErrRecordNotFound):
		if payload.ExpectedRevision != nil && *payload.ExpectedRevision != 0 {
			return dto.AggregateResponse{}, ErrStaleRevision
		}
	default:
		span.RecordError(err)
		return dto.AggregateResponse{}, err
	}

	values := make(datatypes.JSONMap, len(payload.Criteria))
	for name, value := range payload.Criteria {
		values[name] = value
	}

	record := models.ScoreRecord{
		JudgeID:        payload.JudgeID,
		SubmissionID:   payload.SubmissionID,
		CriterionSetID: rubric.ID,
		Values:         values,
		Feedback:       strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback)),
		Revision:       revision,
		CreatedAt:      s.now().UTC(),
	}

	if err := s.scores.SupersedeAndCreate(ctx, previousID, &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ledger_write_failed")
		return dto.AggregateResponse{}, err
	}

	// First score locks the rubric against further criteria changes.
	if !rubric.Locked() {
		if err := s.criteria.Lock(ctx, rubric.ID, record.CreatedAt); err != nil {
			s.logger.Warn().Err(err).Uint("criterion_set_id", rubric.ID).Msg("failed to lock criterion set")
			span.RecordError(err)
		}
	}

	aggregate, err := s.aggregation.Aggregate(ctx, payload.SubmissionID)
	if err != nil {
		span.RecordError(err)
		return dto.AggregateResponse{}, err
	}

	if s.progress != nil {
		s.progress.Invalidate(ctx, submission.HackathonID)
	}
	if s.ranking != nil {
		s.ranking.Schedule(submission.HackathonID)
	}

	kind := "initial"
	if revision > 1 {
		kind = "revision"
	}
	observability.ScoresRecorded().WithLabelValues(kind).Inc()

	if s.publisher != nil {
		s.publisher.Publish(ctx, DomainEvent{
			Type:     EventScoreRecorded,
			EntityID: payload.SubmissionID,
			Version:  revision,
			Payload: map[string]interface{}{
				"judge_id":  payload.JudgeID,
				"record_id": record.ID,
			},
		})
	}

	span.SetAttributes(attribute.Int64("score.revision", int64(revision)))

	s.logger.Info().
		Uint("judge_id", payload.JudgeID).
		Uint("submission_id", payload.SubmissionID).
		Uint("revision", revision).
		Msg("score recorded")

	return aggregate, nil
}

// History returns the judge's full revision chain for a submission, oldest
// first, including superseded records.
func (s *scoreService) History(ctx context.Context, judgeID, submissionID uint) ([]dto.ScoreResponse, error) {
	records, err := s.scores.HistoryByJudgeAndSubmission(ctx, judgeID, submissionID)
	if err != nil {
		return nil, err
	}

	return dto.NewScoreResponseSlice(records), nil
}

// validateCriteria checks the payload against the rubric's closed key set
// and bounds before anything touches the ledger.
func validateCriteria(rubric models.CriterionSet, criteria map[string]float64) error {
	for name, value := range criteria {
		criterion, declared := rubric.CriterionByName(name)
		if !declared {
			return fmt.Errorf("%w: %s", ErrInvalidCriterion, name)
		}
		if !criterion.InRange(value) {
			return fmt.Errorf("%w: %s=%g outside [%g,%g]", ErrOutOfRange, name, value, criterion.Min, criterion.Max)
		}
	}

	for _, criterion := range rubric.Criteria {
		if _, present := criteria[criterion.Name]; !present {
			return fmt.Errorf("%w: %s", ErrMissingCriterion, criterion.Name)
		}
	}

	return nil
}

func (s *scoreService) lockPair(judgeID, submissionID uint) func() {
	key := fmt.Sprintf("%d:%d", judgeID, submissionID)

	s.keyMu.Lock()
	mu, exists := s.keys[key]
	if !exists {
		mu = &sync.Mutex{}
		s.keys[key] = mu
	}
	s.keyMu.Unlock()

	mu.Lock()
	return mu.Unlock
}
