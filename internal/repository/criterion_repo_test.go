package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/hackforge-api/internal/models"
)

func seedRubric(t *testing.T, db *gorm.DB, hackathonID uint, trackID *uint) models.CriterionSet {
	t.Helper()
	set := models.CriterionSet{
		HackathonID: hackathonID,
		TrackID:     trackID,
		Criteria:    []models.Criterion{{Name: "overall", Weight: 1, Min: 0, Max: 10}},
	}
	require.NoError(t, db.Create(&set).Error)
	return set
}

func TestGetForScopePrefersTrackRubric(t *testing.T) {
	db := openRepoDB(t)
	repo := NewCriterionRepository(db)
	ctx := context.Background()

	hackathon := models.Hackathon{Name: "Scoped", Status: models.HackathonStatusJudging, WinnerSlots: 1}
	require.NoError(t, db.Create(&hackathon).Error)
	track := models.Track{HackathonID: hackathon.ID, Name: "Track", WinnerSlots: 1}
	require.NoError(t, db.Create(&track).Error)

	wide := seedRubric(t, db, hackathon.ID, nil)
	scoped := seedRubric(t, db, hackathon.ID, &track.ID)

	set, err := repo.GetForScope(ctx, hackathon.ID, &track.ID)
	require.NoError(t, err)
	require.Equal(t, scoped.ID, set.ID)
	require.Len(t, set.Criteria, 1)

	set, err = repo.GetForScope(ctx, hackathon.ID, nil)
	require.NoError(t, err)
	require.Equal(t, wide.ID, set.ID)
}

func TestGetForScopeFallsBackWhenTrackHasNoRubric(t *testing.T) {
	db := openRepoDB(t)
	repo := NewCriterionRepository(db)

	hackathon := models.Hackathon{Name: "Fallback", Status: models.HackathonStatusJudging, WinnerSlots: 1}
	require.NoError(t, db.Create(&hackathon).Error)
	track := models.Track{HackathonID: hackathon.ID, Name: "Bare", WinnerSlots: 1}
	require.NoError(t, db.Create(&track).Error)

	wide := seedRubric(t, db, hackathon.ID, nil)

	set, err := repo.GetForScope(context.Background(), hackathon.ID, &track.ID)
	require.NoError(t, err)
	require.Equal(t, wide.ID, set.ID)
}

func TestDeleteUnlockedRefusesLockedSet(t *testing.T) {
	db := openRepoDB(t)
	repo := NewCriterionRepository(db)
	ctx := context.Background()

	hackathon := models.Hackathon{Name: "Locked", Status: models.HackathonStatusJudging, WinnerSlots: 1}
	require.NoError(t, db.Create(&hackathon).Error)
	set := seedRubric(t, db, hackathon.ID, nil)

	require.NoError(t, repo.Lock(ctx, set.ID, time.Now().UTC()))

	err := repo.DeleteUnlocked(ctx, set.ID)
	require.ErrorIs(t, err, ErrCriterionSetInUse)

	// The rubric and its criteria survive.
	survivor, err := repo.GetByID(ctx, set.ID)
	require.NoError(t, err)
	require.Len(t, survivor.Criteria, 1)
}

func TestDeleteUnlockedRemovesSetAndCriteria(t *testing.T) {
	db := openRepoDB(t)
	repo := NewCriterionRepository(db)
	ctx := context.Background()

	hackathon := models.Hackathon{Name: "Free", Status: models.HackathonStatusJudging, WinnerSlots: 1}
	require.NoError(t, db.Create(&hackathon).Error)
	set := seedRubric(t, db, hackathon.ID, nil)

	require.NoError(t, repo.DeleteUnlocked(ctx, set.ID))

	_, err := repo.GetByID(ctx, set.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var orphans int64
	require.NoError(t, db.Model(&models.Criterion{}).
		Where("criterion_set_id = ?", set.ID).Count(&orphans).Error)
	require.Equal(t, int64(0), orphans)
}

func TestLockIsIdempotent(t *testing.T) {
	db := openRepoDB(t)
	repo := NewCriterionRepository(db)
	ctx := context.Background()

	hackathon := models.Hackathon{Name: "Stamp", Status: models.HackathonStatusJudging, WinnerSlots: 1}
	require.NoError(t, db.Create(&hackathon).Error)
	set := seedRubric(t, db, hackathon.ID, nil)

	first := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.Lock(ctx, set.ID, first))
	require.NoError(t, repo.Lock(ctx, set.ID, time.Now().UTC()))

	locked, err := repo.GetByID(ctx, set.ID)
	require.NoError(t, err)
	require.NotNil(t, locked.LockedAt)
	require.WithinDuration(t, first, *locked.LockedAt, time.Second)
}
