package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/hackforge-api/internal/dto"
	"github.com/noah-isme/hackforge-api/internal/repository"
	"github.com/noah-isme/hackforge-api/pkg/ai"
)

// ErrDigestUnavailable indicates no summarizer is configured or the
// submission carries no written feedback to digest.
var ErrDigestUnavailable = errors.New("feedback digest unavailable")

// DigestService condenses all judges' written feedback for a submission into
// one organizer-facing summary. Only active ledger records contribute.
type DigestService interface {
	FeedbackDigest(ctx context.Context, submissionID uint) (dto.FeedbackDigestResponse, error)
}

type digestService struct {
	scores      repository.ScoreRepository
	submissions repository.SubmissionRepository
	summarizer  ai.Summarizer
	logger      zerolog.Logger
	now         func() time.Time
}

// NewDigestService constructs the digest service. The summarizer may be nil
// when no AI provider is configured; requests then fail cleanly.
func NewDigestService(scores repository.ScoreRepository, submissions repository.SubmissionRepository, summarizer ai.Summarizer, logger zerolog.Logger) DigestService {
	return &digestService{
		scores:      scores,
		submissions: submissions,
		summarizer:  summarizer,
		logger:      logger.With().Str("component", "digest_service").Logger(),
		now:         time.Now,
	}
}

func (s *digestService) FeedbackDigest(ctx context.Context, submissionID uint) (dto.FeedbackDigestResponse, error) {
	if s.summarizer == nil {
		return dto.FeedbackDigestResponse{}, ErrDigestUnavailable
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FeedbackDigestResponse{}, ErrSubmissionNotFound
		}
		return dto.FeedbackDigestResponse{}, err
	}

	records, err := s.scores.ActiveBySubmission(ctx, submissionID)
	if err != nil {
		return dto.FeedbackDigestResponse{}, err
	}

	comments := make([]ai.JudgeComment, 0, len(records))
	for _, record := range records {
		if strings.TrimSpace(record.Feedback) == "" {
			continue
		}
		comments = append(comments, ai.JudgeComment{
			JudgeID:  record.JudgeID,
			Feedback: record.Feedback,
		})
	}

	if len(comments) == 0 {
		return dto.FeedbackDigestResponse{}, ErrDigestUnavailable
	}

	result, err := s.summarizer.Summarize(ctx, ai.DigestInput{
		SubmissionTitle: submission.Title,
		HackathonName:   submission.Hackathon.Name,
		Comments:        comments,
	})
	if err != nil {
		s.logger.Error().Err(err).Uint("submission_id", submissionID).Msg("feedback digest failed")
		return dto.FeedbackDigestResponse{}, err
	}

	return dto.FeedbackDigestResponse{
		SubmissionID: submissionID,
		Summary:      result.Summary,
		Model:        result.Model,
		JudgeCount:   len(comments),
		GeneratedAt:  s.now().UTC(),
	}, nil
}
