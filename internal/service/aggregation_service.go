package service

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/hackforge-api/internal/dto"
	"github.com/noah-isme/hackforge-api/internal/repository"
)

// AggregationService derives a submission's comparable aggregate from the
// score ledger. It is a pure reader of the ledger and the rubric; the only
// submission fields it writes are aggregate_score and judge_count.
type AggregationService interface {
	Aggregate(ctx context.Context, submissionID uint) (dto.AggregateResponse, error)
}

type aggregationService struct {
	scores      repository.ScoreRepository
	submissions repository.SubmissionRepository
	criteria    repository.CriterionRepository
	logger      zerolog.Logger
}

// NewAggregationService constructs the aggregation engine.
func NewAggregationService(scores repository.ScoreRepository, submissions repository.SubmissionRepository, criteria repository.CriterionRepository, logger zerolog.Logger) AggregationService {
	return &aggregationService{
		scores:      scores,
		submissions: submissions,
		criteria:    criteria,
		logger:      logger.With().Str("component", "aggregation_service").Logger(),
	}
}

// Aggregate recomputes the submission's aggregate from all active ledger
// records. Each judge contributes Σ(value·weight)/Σ(weight) over the rubric,
// and the aggregate is the arithmetic mean of the per-judge scores. Criteria
// are summed in lexical name order so repeated calls over the same records
// are bit-identical.
func (s *aggregationService) Aggregate(ctx context.Context, submissionID uint) (dto.AggregateResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AggregateResponse{}, ErrSubmissionNotFound
		}
		return dto.AggregateResponse{}, err
	}

	records, err := s.scores.ActiveBySubmission(ctx, submissionID)
	if err != nil {
		return dto.AggregateResponse{}, err
	}

	if len(records) == 0 {
		if err := s.submissions.UpdateAggregate(ctx, submissionID, nil, 0); err != nil {
			return dto.AggregateResponse{}, err
		}
		return dto.AggregateResponse{SubmissionID: submissionID}, nil
	}

	rubric, err := s.criteria.GetForScope(ctx, submission.HackathonID, submission.TrackID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AggregateResponse{}, ErrRubricNotFound
		}
		return dto.AggregateResponse{}, err
	}

	names := make([]string, 0, len(rubric.Criteria))
	weights := make(map[string]float64, len(rubric.Criteria))
	for _, criterion := range rubric.Criteria {
		names = append(names, criterion.Name)
		weights[criterion.Name] = criterion.Weight
	}
	sort.Strings(names)

	totalWeight := rubric.TotalWeight()

	var judgeTotal float64
	criterionTotals := make(map[string]float64, len(names))

	for _, record := range records {
		values := record.CriterionValues()

		var weighted float64
		for _, name := range names {
			value := values[name]
			criterionTotals[name] += value
			if totalWeight > 0 {
				weighted += value * weights[name]
			} else {
				// All-zero weights degrade to an unweighted mean rather
				// than dividing by zero.
				weighted += value
			}
		}

		divisor := totalWeight
		if divisor <= 0 {
			divisor = float64(len(names))
		}
		judgeTotal += weighted / divisor
	}

	judgeCount := len(records)
	aggregate := judgeTotal / float64(judgeCount)

	perCriterionMean := make(map[string]float64, len(names))
	for _, name := range names {
		perCriterionMean[name] = criterionTotals[name] / float64(judgeCount)
	}

	if err := s.submissions.UpdateAggregate(ctx, submissionID, &aggregate, judgeCount); err != nil {
		return dto.AggregateResponse{}, err
	}

	s.logger.Debug().
		Uint("submission_id", submissionID).
		Float64("aggregate", aggregate).
		Int("judge_count", judgeCount).
		Msg("aggregate recomputed")

	return dto.AggregateResponse{
		SubmissionID:     submissionID,
		AggregateScore:   &aggregate,
		JudgeCount:       judgeCount,
		PerCriterionMean: perCriterionMean,
	}, nil
}
