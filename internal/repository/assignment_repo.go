package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/hackforge-api/internal/models"
)

// AssignmentRepository defines persistence operations for judge assignments.
type AssignmentRepository interface {
	GetByID(ctx context.Context, id uint) (models.JudgeAssignment, error)
	Exists(ctx context.Context, judgeID, hackathonID uint, trackID, submissionID *uint) (bool, error)
	ListByHackathon(ctx context.Context, hackathonID uint) ([]models.JudgeAssignment, error)
	ListByJudge(ctx context.Context, judgeID, hackathonID uint) ([]models.JudgeAssignment, error)
	Create(ctx context.Context, assignment *models.JudgeAssignment) error
	CreateBatch(ctx context.Context, assignments []models.JudgeAssignment) error
	Delete(ctx context.Context, id uint) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (models.JudgeAssignment, error) {
	var assignment models.JudgeAssignment
	if err := r.db.WithContext(ctx).Preload("Judge").First(&assignment, id).Error; err != nil {
		return models.JudgeAssignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) Exists(ctx context.Context, judgeID, hackathonID uint, trackID, submissionID *uint) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.JudgeAssignment{}).
		Where("judge_id = ?", judgeID).
		Where("hackathon_id = ?", hackathonID)

	if trackID != nil {
		query = query.Where("track_id = ?", *trackID)
	} else {
		query = query.Where("track_id IS NULL")
	}

	if submissionID != nil {
		query = query.Where("submission_id = ?", *submissionID)
	} else {
		query = query.Where("submission_id IS NULL")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *assignmentRepository) ListByHackathon(ctx context.Context, hackathonID uint) ([]models.JudgeAssignment, error) {
	var assignments []models.JudgeAssignment
	err := r.db.WithContext(ctx).Preload("Judge").
		Where("hackathon_id = ?", hackathonID).
		Order("id ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) ListByJudge(ctx context.Context, judgeID, hackathonID uint) ([]models.JudgeAssignment, error) {
	var assignments []models.JudgeAssignment
	err := r.db.WithContext(ctx).
		Where("judge_id = ?", judgeID).
		Where("hackathon_id = ?", hackathonID).
		Order("id ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.JudgeAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) CreateBatch(ctx context.Context, assignments []models.JudgeAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&assignments).Error
}

func (r *assignmentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.JudgeAssignment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
