package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hackforge-api/internal/models"
	"github.com/noah-isme/hackforge-api/internal/repository"
)

func newRankingForTest(fx *judgingFixture) RankingService {
	return NewRankingService(
		repository.NewSubmissionRepository(fx.db),
		repository.NewHackathonRepository(fx.db),
		nil,
		time.Millisecond,
		testLogger(),
	)
}

func (fx *judgingFixture) seedRankedSubmission(t *testing.T, team uint, title string, aggregate float64, judgeCount int, submittedAt time.Time) models.Submission {
	t.Helper()
	submission := models.Submission{
		TeamID:         team,
		HackathonID:    fx.hackathon.ID,
		Title:          title,
		Status:         models.SubmissionStatusUnderReview,
		AggregateScore: floatPtr(aggregate),
		JudgeCount:     judgeCount,
		SubmittedAt:    &submittedAt,
	}
	require.NoError(t, fx.db.Create(&submission).Error)
	return submission
}

func TestRecomputeAssignsDenseRanks(t *testing.T) {
	fx := newJudgingFixture(t)
	svc := newRankingForTest(fx)
	now := time.Now().UTC()

	first := fx.seedRankedSubmission(t, fx.teamAlpha.ID, "First", 9.2, 2, now.Add(-3*time.Hour))
	second := fx.seedRankedSubmission(t, fx.teamBeta.ID, "Second", 8.5, 2, now.Add(-2*time.Hour))
	third := fx.seedRankedSubmission(t, fx.teamBeta.ID, "Third", 7.1, 2, now.Add(-1*time.Hour))

	leaderboard, err := svc.Recompute(context.Background(), fx.hackathon.ID)
	require.NoError(t, err)
	require.Len(t, leaderboard.Entries, 3)

	for index, entry := range leaderboard.Entries {
		require.Equal(t, index+1, entry.Rank)
	}
	require.Equal(t, first.ID, leaderboard.Entries[0].SubmissionID)
	require.Equal(t, second.ID, leaderboard.Entries[1].SubmissionID)
	require.Equal(t, third.ID, leaderboard.Entries[2].SubmissionID)

	var persisted models.Submission
	require.NoError(t, fx.db.First(&persisted, second.ID).Error)
	require.NotNil(t, persisted.Rank)
	require.Equal(t, 2, *persisted.Rank)
}

func TestRecomputeTieBreakPrefersMoreJudges(t *testing.T) {
	fx := newJudgingFixture(t)
	svc := newRankingForTest(fx)
	now := time.Now().UTC()

	// Y submitted earlier, but X has more corroborating judges.
	y := fx.seedRankedSubmission(t, fx.teamBeta.ID, "Y", 8.5, 1, now.Add(-5*time.Hour))
	x := fx.seedRankedSubmission(t, fx.teamAlpha.ID, "X", 8.5, 3, now.Add(-1*time.Hour))

	leaderboard, err := svc.Recompute(context.Background(), fx.hackathon.ID)
	require.NoError(t, err)
	require.Equal(t, x.ID, leaderboard.Entries[0].SubmissionID)
	require.Equal(t, y.ID, leaderboard.Entries[1].SubmissionID)
}

func TestRecomputeTieBreakPrefersEarlierSubmission(t *testing.T) {
	fx := newJudgingFixture(t)
	svc := newRankingForTest(fx)
	now := time.Now().UTC()

	late := fx.seedRankedSubmission(t, fx.teamBeta.ID, "Late", 8.5, 2, now.Add(-1*time.Hour))
	early := fx.seedRankedSubmission(t, fx.teamAlpha.ID, "Early", 8.5, 2, now.Add(-6*time.Hour))

	leaderboard, err := svc.Recompute(context.Background(), fx.hackathon.ID)
	require.NoError(t, err)
	require.Equal(t, early.ID, leaderboard.Entries[0].SubmissionID)
	require.Equal(t, late.ID, leaderboard.Entries[1].SubmissionID)
}

func TestRecomputeExcludesDisqualifiedAndUnscored(t *testing.T) {
	fx := newJudgingFixture(t)
	svc := newRankingForTest(fx)
	now := time.Now().UTC()

	ranked := fx.seedRankedSubmission(t, fx.teamAlpha.ID, "Ranked", 6.0, 1, now.Add(-1*time.Hour))
	disqualified := fx.seedRankedSubmission(t, fx.teamBeta.ID, "Cheater", 9.9, 2, now.Add(-2*time.Hour))
	require.NoError(t, fx.db.Model(&models.Submission{}).
		Where("id = ?", disqualified.ID).
		Update("status", models.SubmissionStatusDisqualified).Error)

	leaderboard, err := svc.Recompute(context.Background(), fx.hackathon.ID)
	require.NoError(t, err)
	require.Len(t, leaderboard.Entries, 1)
	require.Equal(t, ranked.ID, leaderboard.Entries[0].SubmissionID)

	var persisted models.Submission
	require.NoError(t, fx.db.First(&persisted, disqualified.ID).Error)
	require.Nil(t, persisted.Rank)
}

func TestRecomputeBumpsVersion(t *testing.T) {
	fx := newJudgingFixture(t)
	svc := newRankingForTest(fx)
	now := time.Now().UTC()

	fx.seedRankedSubmission(t, fx.teamAlpha.ID, "Only", 5.0, 1, now)

	first, err := svc.Recompute(context.Background(), fx.hackathon.ID)
	require.NoError(t, err)
	second, err := svc.Recompute(context.Background(), fx.hackathon.ID)
	require.NoError(t, err)
	require.Greater(t, second.Version, first.Version)
}

func TestLeaderboardPercentiles(t *testing.T) {
	fx := newJudgingFixture(t)
	svc := newRankingForTest(fx)
	now := time.Now().UTC()

	fx.seedRankedSubmission(t, fx.teamAlpha.ID, "A", 9.0, 1, now.Add(-3*time.Hour))
	fx.seedRankedSubmission(t, fx.teamBeta.ID, "B", 8.0, 1, now.Add(-2*time.Hour))
	fx.seedRankedSubmission(t, fx.teamBeta.ID, "C", 7.0, 1, now.Add(-1*time.Hour))

	leaderboard, err := svc.Leaderboard(context.Background(), fx.hackathon.ID, nil)
	require.NoError(t, err)
	require.Len(t, leaderboard.Entries, 3)

	require.InDelta(t, 1.0, *leaderboard.Entries[0].Percentile, 1e-9)
	require.InDelta(t, 0.5, *leaderboard.Entries[1].Percentile, 1e-9)
	require.InDelta(t, 0.0, *leaderboard.Entries[2].Percentile, 1e-9)
}

func TestLeaderboardTrackScope(t *testing.T) {
	fx := newJudgingFixture(t)
	svc := newRankingForTest(fx)
	now := time.Now().UTC()

	track := models.Track{HackathonID: fx.hackathon.ID, Name: "AI Track", WinnerSlots: 1}
	require.NoError(t, fx.db.Create(&track).Error)

	inTrack := fx.seedRankedSubmission(t, fx.teamAlpha.ID, "Tracked", 5.0, 1, now.Add(-1*time.Hour))
	require.NoError(t, fx.db.Model(&models.Submission{}).
		Where("id = ?", inTrack.ID).
		Update("track_id", track.ID).Error)
	fx.seedRankedSubmission(t, fx.teamBeta.ID, "Untracked", 9.0, 1, now.Add(-2*time.Hour))

	leaderboard, err := svc.Leaderboard(context.Background(), fx.hackathon.ID, uintPtr(track.ID))
	require.NoError(t, err)
	require.Len(t, leaderboard.Entries, 1)
	require.Equal(t, inTrack.ID, leaderboard.Entries[0].SubmissionID)
	require.Equal(t, 1, leaderboard.Entries[0].Rank)
}

func TestLeaderboardUnknownHackathon(t *testing.T) {
	fx := newJudgingFixture(t)
	svc := newRankingForTest(fx)

	_, err := svc.Leaderboard(context.Background(), 9999, nil)
	require.ErrorIs(t, err, ErrHackathonNotFound)
}
