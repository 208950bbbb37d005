package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/hackforge-api/internal/models"
	"github.com/noah-isme/hackforge-api/internal/repository"
)

func newAggregationForTest(fx *judgingFixture) AggregationService {
	return NewAggregationService(
		repository.NewScoreRepository(fx.db),
		repository.NewSubmissionRepository(fx.db),
		repository.NewCriterionRepository(fx.db),
		testLogger(),
	)
}

func seedActiveScore(t *testing.T, fx *judgingFixture, judgeID, submissionID uint, values map[string]interface{}) {
	t.Helper()
	require.NoError(t, fx.db.Create(&models.ScoreRecord{
		JudgeID:        judgeID,
		SubmissionID:   submissionID,
		CriterionSetID: fx.rubric.ID,
		Values:         datatypes.JSONMap(values),
		Revision:       1,
	}).Error)
}

func TestAggregateEqualWeightsAcrossJudges(t *testing.T) {
	fx := newJudgingFixture(t)
	svc := newAggregationForTest(fx)

	seedActiveScore(t, fx, fx.judgeA.ID, fx.subAlpha.ID, map[string]interface{}{"innovation": 8.0, "technical": 6.0})
	seedActiveScore(t, fx, fx.judgeB.ID, fx.subAlpha.ID, map[string]interface{}{"innovation": 10.0, "technical": 10.0})

	result, err := svc.Aggregate(context.Background(), fx.subAlpha.ID)
	require.NoError(t, err)
	require.NotNil(t, result.AggregateScore)
	require.InDelta(t, 8.5, *result.AggregateScore, 1e-9)
	require.Equal(t, 2, result.JudgeCount)
	require.InDelta(t, 9.0, result.PerCriterionMean["innovation"], 1e-9)
	require.InDelta(t, 8.0, result.PerCriterionMean["technical"], 1e-9)

	var persisted models.Submission
	require.NoError(t, fx.db.First(&persisted, fx.subAlpha.ID).Error)
	require.NotNil(t, persisted.AggregateScore)
	require.InDelta(t, 8.5, *persisted.AggregateScore, 1e-9)
	require.Equal(t, 2, persisted.JudgeCount)
}

func TestAggregateWeightedMean(t *testing.T) {
	fx := newJudgingFixture(t)

	require.NoError(t, fx.db.Model(&models.Criterion{}).
		Where("criterion_set_id = ?", fx.rubric.ID).
		Where("name = ?", "innovation").
		Update("weight", 3).Error)

	svc := newAggregationForTest(fx)

	seedActiveScore(t, fx, fx.judgeA.ID, fx.subAlpha.ID, map[string]interface{}{"innovation": 10.0, "technical": 2.0})

	result, err := svc.Aggregate(context.Background(), fx.subAlpha.ID)
	require.NoError(t, err)
	require.NotNil(t, result.AggregateScore)
	// (10*3 + 2*1) / 4
	require.InDelta(t, 8.0, *result.AggregateScore, 1e-9)
}

func TestAggregateDeterministicAcrossCalls(t *testing.T) {
	fx := newJudgingFixture(t)
	svc := newAggregationForTest(fx)

	seedActiveScore(t, fx, fx.judgeB.ID, fx.subAlpha.ID, map[string]interface{}{"innovation": 7.3, "technical": 4.1})
	seedActiveScore(t, fx, fx.judgeA.ID, fx.subAlpha.ID, map[string]interface{}{"innovation": 2.9, "technical": 9.7})

	first, err := svc.Aggregate(context.Background(), fx.subAlpha.ID)
	require.NoError(t, err)
	second, err := svc.Aggregate(context.Background(), fx.subAlpha.ID)
	require.NoError(t, err)

	require.Equal(t, *first.AggregateScore, *second.AggregateScore)
	require.Equal(t, first.PerCriterionMean, second.PerCriterionMean)
}

func TestAggregateMinimumBoundStillCounts(t *testing.T) {
	fx := newJudgingFixture(t)
	svc := newAggregationForTest(fx)

	seedActiveScore(t, fx, fx.judgeA.ID, fx.subAlpha.ID, map[string]interface{}{"innovation": 0.0, "technical": 0.0})

	result, err := svc.Aggregate(context.Background(), fx.subAlpha.ID)
	require.NoError(t, err)
	require.NotNil(t, result.AggregateScore)
	require.Equal(t, 0.0, *result.AggregateScore)
	require.Equal(t, 1, result.JudgeCount)
}

func TestAggregateIgnoresSupersededRecords(t *testing.T) {
	fx := newJudgingFixture(t)
	svc := newAggregationForTest(fx)

	superseded := models.ScoreRecord{
		JudgeID:        fx.judgeA.ID,
		SubmissionID:   fx.subAlpha.ID,
		CriterionSetID: fx.rubric.ID,
		Values:         datatypes.JSONMap{"innovation": 10.0, "technical": 10.0},
		Revision:       1,
	}
	require.NoError(t, fx.db.Create(&superseded).Error)
	require.NoError(t, fx.db.Model(&superseded).Update("superseded_at", superseded.CreatedAt).Error)

	seedActiveScore(t, fx, fx.judgeA.ID, fx.subAlpha.ID, map[string]interface{}{"innovation": 4.0, "technical": 6.0})

	result, err := svc.Aggregate(context.Background(), fx.subAlpha.ID)
	require.NoError(t, err)
	require.Equal(t, 1, result.JudgeCount)
	require.InDelta(t, 5.0, *result.AggregateScore, 1e-9)
}

func TestAggregateNoActiveScoresClearsAggregate(t *testing.T) {
	fx := newJudgingFixture(t)
	svc := newAggregationForTest(fx)

	require.NoError(t, fx.db.Model(&models.Submission{}).
		Where("id = ?", fx.subAlpha.ID).
		Updates(map[string]interface{}{"aggregate_score": 9.9, "judge_count": 3}).Error)

	result, err := svc.Aggregate(context.Background(), fx.subAlpha.ID)
	require.NoError(t, err)
	require.Nil(t, result.AggregateScore)
	require.Equal(t, 0, result.JudgeCount)

	var persisted models.Submission
	require.NoError(t, fx.db.First(&persisted, fx.subAlpha.ID).Error)
	require.Nil(t, persisted.AggregateScore)
	require.Equal(t, 0, persisted.JudgeCount)
}
