package service

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/hackforge-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Team{}, &models.TeamMember{},
		&models.Hackathon{}, &models.Track{},
		&models.Submission{}, &models.CriterionSet{}, &models.Criterion{},
		&models.JudgeAssignment{}, &models.ScoreRecord{},
	))

	return db
}

// judgingFixture seeds a hackathon in its judging phase with two teams, two
// hackathon-wide judges and two submissions under review. Judge "owner" sits
// on team alpha and exists to exercise conflict checks.
type judgingFixture struct {
	db        *gorm.DB
	hackathon models.Hackathon
	rubric    models.CriterionSet
	teamAlpha models.Team
	teamBeta  models.Team
	judgeA    models.User
	judgeB    models.User
	owner     models.User
	subAlpha  models.Submission
	subBeta   models.Submission
}

func newJudgingFixture(t *testing.T) *judgingFixture {
	t.Helper()

	db := openTestDB(t)
	now := time.Now().UTC()

	fx := &judgingFixture{db: db}

	fx.hackathon = models.Hackathon{
		Name:        "HackForge 2026",
		Status:      models.HackathonStatusJudging,
		WinnerSlots: 1,
		Deadline:    now.Add(24 * time.Hour),
	}
	require.NoError(t, db.Create(&fx.hackathon).Error)

	fx.rubric = models.CriterionSet{
		HackathonID: fx.hackathon.ID,
		Criteria: []models.Criterion{
			{Name: "innovation", Weight: 1, Min: 0, Max: 10},
			{Name: "technical", Weight: 1, Min: 0, Max: 10},
		},
	}
	require.NoError(t, db.Create(&fx.rubric).Error)

	fx.teamAlpha = models.Team{Name: "Team Alpha"}
	fx.teamBeta = models.Team{Name: "Team Beta"}
	require.NoError(t, db.Create(&fx.teamAlpha).Error)
	require.NoError(t, db.Create(&fx.teamBeta).Error)

	fx.judgeA = models.User{Name: "Judge A", Email: "judge.a@example.com", Role: models.RoleJudge}
	fx.judgeB = models.User{Name: "Judge B", Email: "judge.b@example.com", Role: models.RoleJudge}
	fx.owner = models.User{Name: "Alpha Owner", Email: "owner@example.com", Role: models.RoleJudge}
	require.NoError(t, db.Create(&fx.judgeA).Error)
	require.NoError(t, db.Create(&fx.judgeB).Error)
	require.NoError(t, db.Create(&fx.owner).Error)

	require.NoError(t, db.Create(&models.TeamMember{TeamID: fx.teamAlpha.ID, UserID: fx.owner.ID}).Error)

	submittedAlpha := now.Add(-2 * time.Hour)
	submittedBeta := now.Add(-1 * time.Hour)
	fx.subAlpha = models.Submission{
		TeamID:      fx.teamAlpha.ID,
		HackathonID: fx.hackathon.ID,
		Title:       "Alpha Project",
		Status:      models.SubmissionStatusUnderReview,
		SubmittedAt: &submittedAlpha,
	}
	fx.subBeta = models.Submission{
		TeamID:      fx.teamBeta.ID,
		HackathonID: fx.hackathon.ID,
		Title:       "Beta Project",
		Status:      models.SubmissionStatusUnderReview,
		SubmittedAt: &submittedBeta,
	}
	require.NoError(t, db.Create(&fx.subAlpha).Error)
	require.NoError(t, db.Create(&fx.subBeta).Error)

	for _, judge := range []models.User{fx.judgeA, fx.judgeB} {
		require.NoError(t, db.Create(&models.JudgeAssignment{
			JudgeID:     judge.ID,
			HackathonID: fx.hackathon.ID,
		}).Error)
	}

	return fx
}

func uintPtr(v uint) *uint {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}
