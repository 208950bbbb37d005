package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/hackforge-api/internal/dto"
	"github.com/noah-isme/hackforge-api/internal/models"
	"github.com/noah-isme/hackforge-api/internal/repository"
)

// ProgressService projects completion metrics from assignment and ledger
// state. It owns no storage of its own: reads always reflect the latest
// writes, with an optional cache busted by a per-hackathon generation
// counter that the write paths bump.
type ProgressService interface {
	JudgeProgress(ctx context.Context, judgeID, hackathonID uint) (dto.JudgeProgressResponse, error)
	EventProgress(ctx context.Context, hackathonID uint) (dto.EventProgressResponse, error)
	Invalidate(ctx context.Context, hackathonID uint)
}

type progressService struct {
	assignments repository.AssignmentRepository
	scores      repository.ScoreRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	minJudges   int
	logger      zerolog.Logger
}

// NewProgressService builds the progress tracker. The cache client may be
// nil, in which case every read recomputes.
func NewProgressService(assignments repository.AssignmentRepository, scores repository.ScoreRepository, submissions repository.SubmissionRepository, cache *redis.Client, ttl time.Duration, minJudges int, logger zerolog.Logger) ProgressService {
	if minJudges <= 0 {
		minJudges = 2
	}

	return &progressService{
		assignments: assignments,
		scores:      scores,
		submissions: submissions,
		cache:       cache,
		cacheTTL:    ttl,
		minJudges:   minJudges,
		logger:      logger.With().Str("component", "progress_service").Logger(),
	}
}

func (s *progressService) JudgeProgress(ctx context.Context, judgeID, hackathonID uint) (dto.JudgeProgressResponse, error) {
	key := s.cacheKey(ctx, hackathonID, fmt.Sprintf("judge:%d:%d", judgeID, hackathonID))

	var cached dto.JudgeProgressResponse
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}

	assignments, err := s.assignments.ListByJudge(ctx, judgeID, hackathonID)
	if err != nil {
		return dto.JudgeProgressResponse{}, err
	}

	submissions, err := s.listCountable(ctx, hackathonID)
	if err != nil {
		return dto.JudgeProgressResponse{}, err
	}

	assigned := 0
	for _, submission := range submissions {
		for _, assignment := range assignments {
			if assignment.Covers(submission) {
				assigned++
				break
			}
		}
	}

	records, err := s.scores.ActiveByJudgeAndHackathon(ctx, judgeID, hackathonID)
	if err != nil {
		return dto.JudgeProgressResponse{}, err
	}

	scored := len(records)
	pending := assigned - scored
	if pending < 0 {
		pending = 0
	}

	response := dto.JudgeProgressResponse{
		JudgeID:     judgeID,
		HackathonID: hackathonID,
		Assigned:    assigned,
		Scored:      scored,
		Pending:     pending,
	}

	s.writeCache(ctx, key, response)

	return response, nil
}

func (s *progressService) EventProgress(ctx context.Context, hackathonID uint) (dto.EventProgressResponse, error) {
	key := s.cacheKey(ctx, hackathonID, fmt.Sprintf("event:%d", hackathonID))

	var cached dto.EventProgressResponse
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}

	submissions, err := s.listCountable(ctx, hackathonID)
	if err != nil {
		return dto.EventProgressResponse{}, err
	}

	response := dto.EventProgressResponse{
		HackathonID:      hackathonID,
		TotalSubmissions: len(submissions),
		MinJudges:        s.minJudges,
	}

	for _, submission := range submissions {
		records, err := s.scores.ActiveBySubmission(ctx, submission.ID)
		if err != nil {
			return dto.EventProgressResponse{}, err
		}

		switch {
		case len(records) >= s.minJudges:
			response.FullyCovered++
		case len(records) > 0:
			response.PartiallyCovered++
		default:
			response.Uncovered++
		}
	}

	s.writeCache(ctx, key, response)

	return response, nil
}

// Invalidate bumps the hackathon's cache generation so every progress key
// derived from it misses on the next read.
func (s *progressService) Invalidate(ctx context.Context, hackathonID uint) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Incr(ctx, s.generationKey(hackathonID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("hackathon_id", hackathonID).Msg("failed to bump progress cache generation")
	}
}

// listCountable returns the submissions that participate in coverage
// accounting: drafts never entered judging and disqualified entries no
// longer require scores.
func (s *progressService) listCountable(ctx context.Context, hackathonID uint) ([]models.Submission, error) {
	all, err := s.submissions.List(ctx, repository.SubmissionFilter{HackathonID: &hackathonID})
	if err != nil {
		return nil, err
	}

	countable := make([]models.Submission, 0, len(all))
	for _, submission := range all {
		if submission.Status == models.SubmissionStatusDraft || submission.Status == models.SubmissionStatusDisqualified {
			continue
		}
		countable = append(countable, submission)
	}

	return countable, nil
}

func (s *progressService) generationKey(hackathonID uint) string {
	return fmt.Sprintf("progress:gen:%d", hackathonID)
}

func (s *progressService) cacheKey(ctx context.Context, hackathonID uint, suffix string) string {
	generation := "0"
	if s.cache != nil {
		if value, err := s.cache.Get(ctx, s.generationKey(hackathonID)).Result(); err == nil {
			generation = value
		} else if !errors.Is(err, redis.Nil) && !errors.Is(err, context.Canceled) {
			s.logger.Warn().Err(err).Msg("failed to read progress cache generation")
		}
	}

	return fmt.Sprintf("progress:%s:%s", generation, suffix)
}

func (s *progressService) readCache(ctx context.Context, key string, out interface{}) bool {
	if s.cache == nil {
		return false
	}

	payload, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && !errors.Is(err, context.Canceled) {
			s.logger.Warn().Err(err).Msg("failed to read progress cache")
		}
		return false
	}

	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return false
	}

	return true
}

func (s *progressService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store progress cache")
	}
}
