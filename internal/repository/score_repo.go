package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/hackforge-api/internal/models"
)

// ScoreRepository defines persistence operations for the score ledger.
// Records are never updated in place beyond setting superseded_at.
type ScoreRepository interface {
	ActiveByJudgeAndSubmission(ctx context.Context, judgeID, submissionID uint) (models.ScoreRecord, error)
	ActiveBySubmission(ctx context.Context, submissionID uint) ([]models.ScoreRecord, error)
	ActiveByJudgeAndHackathon(ctx context.Context, judgeID, hackathonID uint) ([]models.ScoreRecord, error)
	HistoryByJudgeAndSubmission(ctx context.Context, judgeID, submissionID uint) ([]models.ScoreRecord, error)
	SupersedeAndCreate(ctx context.Context, previousID *uint, record *models.ScoreRecord) error
	SupersedeByIDs(ctx context.Context, recordIDs []uint, at time.Time) (int64, error)
}

type scoreRepository struct {
	db *gorm.DB
}

// NewScoreRepository instantiates a GORM-backed ledger repository.
func NewScoreRepository(db *gorm.DB) ScoreRepository {
	return &scoreRepository{db: db}
}

func (r *scoreRepository) ActiveByJudgeAndSubmission(ctx context.Context, judgeID, submissionID uint) (models.ScoreRecord, error) {
	var record models.ScoreRecord
	err := r.db.WithContext(ctx).
		Where("judge_id = ?", judgeID).
		Where("submission_id = ?", submissionID).
		Where("superseded_at IS NULL").
		First(&record).Error
	if err != nil {
		return models.ScoreRecord{}, err
	}

	return record, nil
}

func (r *scoreRepository) ActiveBySubmission(ctx context.Context, submissionID uint) ([]models.ScoreRecord, error) {
	var records []models.ScoreRecord
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Where("superseded_at IS NULL").
		Order("judge_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *scoreRepository) ActiveByJudgeAndHackathon(ctx context.Context, judgeID, hackathonID uint) ([]models.ScoreRecord, error) {
	var records []models.ScoreRecord
	err := r.db.WithContext(ctx).
		Joins("JOIN submissions ON submissions.id = score_records.submission_id").
		Where("score_records.judge_id = ?", judgeID).
		Where("submissions.hackathon_id = ?", hackathonID).
		Where("score_records.superseded_at IS NULL").
		Order("score_records.submission_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *scoreRepository) HistoryByJudgeAndSubmission(ctx context.Context, judgeID, submissionID uint) ([]models.ScoreRecord, error) {
	var records []models.ScoreRecord
	err := r.db.WithContext(ctx).
		Where("judge_id = ?", judgeID).
		Where("submission_id = ?", submissionID).
		Order("revision ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

// SupersedeAndCreate marks the previous active record as superseded and
// inserts the replacement in one transaction, so concurrent readers never
// observe zero or two active records for the pair.
func (r *scoreRepository) SupersedeAndCreate(ctx context.Context, previousID *uint, record *models.ScoreRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if previousID != nil {
			result := tx.Model(&models.ScoreRecord{}).
				Where("id = ?", *previousID).
				Where("superseded_at IS NULL").
				Update("superseded_at", record.CreatedAt)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}

		return tx.Create(record).Error
	})
}

// SupersedeByIDs retires the given records. Used by forced unassignment;
// history is preserved, not deleted.
func (r *scoreRepository) SupersedeByIDs(ctx context.Context, recordIDs []uint, at time.Time) (int64, error) {
	if len(recordIDs) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).Model(&models.ScoreRecord{}).
		Where("id IN ?", recordIDs).
		Where("superseded_at IS NULL").
		Update("superseded_at", at)
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
