package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/hackforge-api/internal/models"
)

// ErrCriterionSetInUse indicates a lock or mutation raced with the first
// score write and lost.
var ErrCriterionSetInUse = errors.New("criterion set already locked")

// CriterionRepository defines persistence operations for scoring rubrics.
type CriterionRepository interface {
	GetByID(ctx context.Context, id uint) (models.CriterionSet, error)
	GetForScope(ctx context.Context, hackathonID uint, trackID *uint) (models.CriterionSet, error)
	Create(ctx context.Context, set *models.CriterionSet) error
	Lock(ctx context.Context, id uint, at time.Time) error
	DeleteUnlocked(ctx context.Context, id uint) error
}

type criterionRepository struct {
	db *gorm.DB
}

// NewCriterionRepository instantiates a GORM-backed repository.
func NewCriterionRepository(db *gorm.DB) CriterionRepository {
	return &criterionRepository{db: db}
}

func (r *criterionRepository) GetByID(ctx context.Context, id uint) (models.CriterionSet, error) {
	var set models.CriterionSet
	if err := r.db.WithContext(ctx).Preload("Criteria").First(&set, id).Error; err != nil {
		return models.CriterionSet{}, err
	}

	return set, nil
}

// GetForScope resolves the rubric for a submission's scope: a track-specific
// set wins over the hackathon-wide one.
func (r *criterionRepository) GetForScope(ctx context.Context, hackathonID uint, trackID *uint) (models.CriterionSet, error) {
	var set models.CriterionSet

	if trackID != nil {
		err := r.db.WithContext(ctx).Preload("Criteria").
			Where("hackathon_id = ?", hackathonID).
			Where("track_id = ?", *trackID).
			First(&set).Error
		if err == nil {
			return set, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return models.CriterionSet{}, err
		}
	}

	err := r.db.WithContext(ctx).Preload("Criteria").
		Where("hackathon_id = ?", hackathonID).
		Where("track_id IS NULL").
		First(&set).Error
	if err != nil {
		return models.CriterionSet{}, err
	}

	return set, nil
}

func (r *criterionRepository) Create(ctx context.Context, set *models.CriterionSet) error {
	return r.db.WithContext(ctx).Create(set).Error
}

// DeleteUnlocked removes a rubric that no score references yet. Locked sets
// are immutable and the call fails with ErrCriterionSetInUse.
func (r *criterionRepository) DeleteUnlocked(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).
			Where("locked_at IS NULL").
			Delete(&models.CriterionSet{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCriterionSetInUse
		}

		return tx.Where("criterion_set_id = ?", id).Delete(&models.Criterion{}).Error
	})
}

// Lock stamps locked_at on first use. A no-op when already locked: the lock
// only ever moves from nil to a timestamp.
func (r *criterionRepository) Lock(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.CriterionSet{}).
		Where("id = ?", id).
		Where("locked_at IS NULL").
		Update("locked_at", at).Error
}
