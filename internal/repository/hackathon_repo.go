package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/hackforge-api/internal/models"
)

// HackathonRepository defines persistence operations for events and tracks.
type HackathonRepository interface {
	GetByID(ctx context.Context, id uint) (models.Hackathon, error)
	GetTrack(ctx context.Context, id uint) (models.Track, error)
	ListTracks(ctx context.Context, hackathonID uint) ([]models.Track, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	BumpRankingVersion(ctx context.Context, id uint) (uint, error)
}

type hackathonRepository struct {
	db *gorm.DB
}

// NewHackathonRepository instantiates a GORM-backed repository.
func NewHackathonRepository(db *gorm.DB) HackathonRepository {
	return &hackathonRepository{db: db}
}

func (r *hackathonRepository) GetByID(ctx context.Context, id uint) (models.Hackathon, error) {
	var hackathon models.Hackathon
	if err := r.db.WithContext(ctx).First(&hackathon, id).Error; err != nil {
		return models.Hackathon{}, err
	}

	return hackathon, nil
}

func (r *hackathonRepository) GetTrack(ctx context.Context, id uint) (models.Track, error) {
	var track models.Track
	if err := r.db.WithContext(ctx).First(&track, id).Error; err != nil {
		return models.Track{}, err
	}

	return track, nil
}

func (r *hackathonRepository) ListTracks(ctx context.Context, hackathonID uint) ([]models.Track, error) {
	var tracks []models.Track
	err := r.db.WithContext(ctx).
		Where("hackathon_id = ?", hackathonID).
		Order("id ASC").
		Find(&tracks).Error
	if err != nil {
		return nil, err
	}

	return tracks, nil
}

func (r *hackathonRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	result := r.db.WithContext(ctx).Model(&models.Hackathon{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// BumpRankingVersion atomically increments the per-hackathon ranking version
// and returns the new value. Consumers use it to deduplicate RankingUpdated
// events.
func (r *hackathonRepository) BumpRankingVersion(ctx context.Context, id uint) (uint, error) {
	var version uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Hackathon{}).
			Where("id = ?", id).
			UpdateColumn("ranking_version", gorm.Expr("ranking_version + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var hackathon models.Hackathon
		if err := tx.First(&hackathon, id).Error; err != nil {
			return err
		}
		version = hackathon.RankingVersion
		return nil
	})
	if err != nil {
		return 0, err
	}

	return version, nil
}
