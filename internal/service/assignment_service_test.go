package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/hackforge-api/internal/dto"
	"github.com/noah-isme/hackforge-api/internal/models"
	"github.com/noah-isme/hackforge-api/internal/repository"
)

func newAssignmentForTest(fx *judgingFixture) AssignmentService {
	progress := NewProgressService(
		repository.NewAssignmentRepository(fx.db),
		repository.NewScoreRepository(fx.db),
		repository.NewSubmissionRepository(fx.db),
		nil,
		time.Minute,
		2,
		testLogger(),
	)

	return NewAssignmentService(
		repository.NewAssignmentRepository(fx.db),
		repository.NewSubmissionRepository(fx.db),
		repository.NewRosterRepository(fx.db),
		repository.NewHackathonRepository(fx.db),
		repository.NewScoreRepository(fx.db),
		newAggregationForTest(fx),
		nil,
		progress,
		testValidator(),
		3,
		2,
		testLogger(),
	)
}

func TestAssignRejectsConflictOfInterest(t *testing.T) {
	fx := newJudgingFixture(t)
	svc := newAssignmentForTest(fx)

	// Hackathon-wide scope includes team alpha's submission; owner is on
	// team alpha.
	_, err := svc.Assign(context.Background(), dto.AssignmentCreateRequest{
		JudgeID:     fx.owner.ID,
		HackathonID: fx.hackathon.ID,
	})
	require.ErrorIs(t, err, ErrConflictOfInterest)

	// Narrowed to the other team's submission the same judge is fine.
	response, err := svc.Assign(context.Background(), dto.AssignmentCreateRequest{
		JudgeID:      fx.owner.ID,
		HackathonID:  fx.hackathon.ID,
		SubmissionID: uintPtr(fx.subBeta.ID),
	})
	require.NoError(t, err)
	require.Equal(t, fx.owner.ID, response.JudgeID)
	require.Equal(t, 1, response.Assigned)
	require.Equal(t, 1, response.Pending)
}

func TestAssignRejectsDuplicate(t *testing.T) {
	fx := newJudgingFixture(t)
	svc := newAssignmentForTest(fx)

	_, err := svc.Assign(context.Background(), dto.AssignmentCreateRequest{
		JudgeID:     fx.judgeA.ID,
		HackathonID: fx.hackathon.ID,
	})
	require.ErrorIs(t, err, ErrDuplicateAssignment)
}

func TestAssignRejectsNonJudge(t *testing.T) {
	fx := newJudgingFixture(t)
	svc := newAssignmentForTest(fx)

	participant := models.User{Name: "Part", Email: "part@example.com", Role: models.RoleParticipant}
	require.NoError(t, fx.db.Create(&participant).Error)

	_, err := svc.Assign(context.Background(), dto.AssignmentCreateRequest{
		JudgeID:     participant.ID,
		HackathonID: fx.hackathon.ID,
	})
	require.ErrorIs(t, err, ErrNotAJudge)
}

func TestUnassignBlockedByActiveScores(t *testing.T) {
	fx := newJudgingFixture(t)
	svc := newAssignmentForTest(fx)
	ctx := context.Background()

	seedActiveScore(t, fx, fx.judgeA.ID, fx.subBeta.ID, map[string]interface{}{"innovation": 8.0, "technical": 6.0})

	var assignment models.JudgeAssignment
	require.NoError(t, fx.db.Where("judge_id = ?", fx.judgeA.ID).First(&assignment).Error)

	err := svc.Unassign(ctx, assignment.ID, false)
	require.ErrorIs(t, err, ErrHasActiveScores)

	// Forcing supersedes the records and recomputes the aggregate.
	require.NoError(t, svc.Unassign(ctx, assignment.ID, true))

	var record models.ScoreRecord
	require.NoError(t, fx.db.Where("judge_id = ?", fx.judgeA.ID).First(&record).Error)
	require.NotNil(t, record.SupersededAt)

	var submission models.Submission
	require.NoError(t, fx.db.First(&submission, fx.subBeta.ID).Error)
	require.Nil(t, submission.AggregateScore)
	require.Equal(t, 0, submission.JudgeCount)

	var remaining int64
	require.NoError(t, fx.db.Model(&models.JudgeAssignment{}).
		Where("id = ?", assignment.ID).Count(&remaining).Error)
	require.Equal(t, int64(0), remaining)
}

func TestUnassignUnknownAssignment(t *testing.T) {
	fx := newJudgingFixture(t)
	svc := newAssignmentForTest(fx)

	err := svc.Unassign(context.Background(), 9999, false)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestAutoAssignBalancesLoad(t *testing.T) {
	fx := newJudgingFixture(t)
	svc := newAssignmentForTest(fx)

	// Start from a clean slate so only the auto-assigner creates coverage.
	require.NoError(t, fx.db.Where("1 = 1").Delete(&models.JudgeAssignment{}).Error)

	judgeC := models.User{Name: "Judge C", Email: "judge.c@example.com", Role: models.RoleJudge}
	require.NoError(t, fx.db.Create(&judgeC).Error)

	result, err := svc.AutoAssign(context.Background(), dto.AutoAssignRequest{
		HackathonID: fx.hackathon.ID,
		JudgeIDs:    []uint{fx.judgeA.ID, fx.judgeB.ID, judgeC.ID},
		MinJudges:   2,
	})
	require.NoError(t, err)
	require.Empty(t, result.UnderAssigned)
	require.Len(t, result.Created, 4)

	// Every submission reaches the minimum and no judge is overloaded.
	load := make(map[uint]int)
	coverage := make(map[uint]int)
	for _, created := range result.Created {
		load[created.JudgeID]++
		require.NotNil(t, created.SubmissionID)
		coverage[*created.SubmissionID]++
	}
	require.Equal(t, 2, coverage[fx.subAlpha.ID])
	require.Equal(t, 2, coverage[fx.subBeta.ID])
	for judgeID, count := range load {
		require.LessOrEqual(t, count, 2, "judge %d overloaded", judgeID)
	}
}

func TestAutoAssignSkipsConflictedJudgesAndFlagsGaps(t *testing.T) {
	fx := newJudgingFixture(t)
	svc := newAssignmentForTest(fx)

	require.NoError(t, fx.db.Where("1 = 1").Delete(&models.JudgeAssignment{}).Error)

	// Owner conflicts with team alpha; with only two candidate judges team
	// alpha's submission can never reach two eligible judges.
	result, err := svc.AutoAssign(context.Background(), dto.AutoAssignRequest{
		HackathonID: fx.hackathon.ID,
		JudgeIDs:    []uint{fx.judgeA.ID, fx.owner.ID},
		MinJudges:   2,
	})
	require.NoError(t, err)

	require.Len(t, result.UnderAssigned, 1)
	require.Equal(t, fx.subAlpha.ID, result.UnderAssigned[0].SubmissionID)
	require.Equal(t, 1, result.UnderAssigned[0].EligibleJudges)
	require.Equal(t, 2, result.UnderAssigned[0].RequiredJudges)

	for _, created := range result.Created {
		if created.JudgeID == fx.owner.ID {
			require.NotNil(t, created.SubmissionID)
			require.NotEqual(t, fx.subAlpha.ID, *created.SubmissionID)
		}
	}
}

func TestAutoAssignRespectsExistingCoverage(t *testing.T) {
	fx := newJudgingFixture(t)
	svc := newAssignmentForTest(fx)

	// judgeA and judgeB already cover everything hackathon-wide, so there
	// is nothing to add.
	result, err := svc.AutoAssign(context.Background(), dto.AutoAssignRequest{
		HackathonID: fx.hackathon.ID,
		JudgeIDs:    []uint{fx.judgeA.ID, fx.judgeB.ID},
		MinJudges:   2,
	})
	require.NoError(t, err)
	require.Empty(t, result.Created)
	require.Empty(t, result.UnderAssigned)
}

func TestListIncludesProgressCounts(t *testing.T) {
	fx := newJudgingFixture(t)
	svc := newAssignmentForTest(fx)

	require.NoError(t, fx.db.Create(&models.ScoreRecord{
		JudgeID:        fx.judgeA.ID,
		SubmissionID:   fx.subAlpha.ID,
		CriterionSetID: fx.rubric.ID,
		Values:         datatypes.JSONMap{"innovation": 8.0, "technical": 6.0},
		Revision:       1,
	}).Error)

	assignments, err := svc.List(context.Background(), fx.hackathon.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 2)

	for _, assignment := range assignments {
		require.Equal(t, 2, assignment.Assigned)
		if assignment.JudgeID == fx.judgeA.ID {
			require.Equal(t, 1, assignment.Scored)
			require.Equal(t, 1, assignment.Pending)
		} else {
			require.Equal(t, 0, assignment.Scored)
			require.Equal(t, 2, assignment.Pending)
		}
	}
}
