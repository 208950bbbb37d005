package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/hackforge-api/internal/models"
)

// SubmissionFilter narrows submission queries.
type SubmissionFilter struct {
	HackathonID *uint
	TrackID     *uint
	TeamID      *uint
	Status      *string
}

// SubmissionRepository defines data operations for submissions. Mutations
// are field-scoped so that only the owning component can touch its column:
// lifecycle writes status, aggregation writes aggregate/judge count, ranking
// writes rank.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	UpdateStatus(ctx context.Context, id uint, status string, submittedAt *time.Time) error
	BulkTransition(ctx context.Context, hackathonID uint, from, to string) (int64, error)
	UpdateAggregate(ctx context.Context, id uint, aggregate *float64, judgeCount int) error
	UpdateRank(ctx context.Context, id uint, rank *int) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Team").
		Preload("Hackathon")
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.baseQuery(ctx)

	if filter.HackathonID != nil {
		query = query.Where("hackathon_id = ?", *filter.HackathonID)
	}

	if filter.TrackID != nil {
		query = query.Where("track_id = ?", *filter.TrackID)
	}

	if filter.TeamID != nil {
		query = query.Where("team_id = ?", *filter.TeamID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var submissions []models.Submission
	if err := query.Order("id ASC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) UpdateStatus(ctx context.Context, id uint, status string, submittedAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if submittedAt != nil {
		updates["submitted_at"] = submittedAt
	}

	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// BulkTransition moves every submission of the hackathon from one status to
// another and returns the number of rows affected. Used when the event's
// judging phase starts.
func (r *submissionRepository) BulkTransition(ctx context.Context, hackathonID uint, from, to string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("hackathon_id = ?", hackathonID).
		Where("status = ?", from).
		Update("status", to)
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

func (r *submissionRepository) UpdateAggregate(ctx context.Context, id uint, aggregate *float64, judgeCount int) error {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"aggregate_score": aggregate,
			"judge_count":     judgeCount,
		}).Error
}

func (r *submissionRepository) UpdateRank(ctx context.Context, id uint, rank *int) error {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", id).
		Update("rank", rank).Error
}
