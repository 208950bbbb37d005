package dto

import (
	"time"

	"github.com/noah-isme/hackforge-api/internal/models"
)

// ScoreCreateRequest records or revises one judge's score for a submission.
// Criteria is validated against the submission's rubric at the boundary so
// the rest of the core works with a closed, typed structure.
type ScoreCreateRequest struct {
	JudgeID          uint               `json:"judge_id" validate:"required,gt=0"`
	SubmissionID     uint               `json:"submission_id" validate:"required,gt=0"`
	Criteria         map[string]float64 `json:"criteria" validate:"required,min=1"`
	Feedback         string             `json:"feedback" validate:"omitempty,max=4000"`
	ExpectedRevision *uint              `json:"expected_revision" validate:"omitempty"`
}

// ScoreResponse serializes one ledger record.
type ScoreResponse struct {
	ID           uint               `json:"id"`
	JudgeID      uint               `json:"judge_id"`
	SubmissionID uint               `json:"submission_id"`
	Criteria     map[string]float64 `json:"criteria"`
	Feedback     string             `json:"feedback"`
	Revision     uint               `json:"revision"`
	SupersededAt *time.Time         `json:"superseded_at"`
	CreatedAt    time.Time          `json:"created_at"`
}

// AggregateResponse is the derived per-submission aggregate returned after a
// score write.
type AggregateResponse struct {
	SubmissionID     uint               `json:"submission_id"`
	AggregateScore   *float64           `json:"aggregate_score"`
	JudgeCount       int                `json:"judge_count"`
	PerCriterionMean map[string]float64 `json:"per_criterion_mean,omitempty"`
}

// NewScoreResponse converts a ScoreRecord model into a DTO.
func NewScoreResponse(model models.ScoreRecord) ScoreResponse {
	return ScoreResponse{
		ID:           model.ID,
		JudgeID:      model.JudgeID,
		SubmissionID: model.SubmissionID,
		Criteria:     model.CriterionValues(),
		Feedback:     model.Feedback,
		Revision:     model.Revision,
		SupersededAt: model.SupersededAt,
		CreatedAt:    model.CreatedAt,
	}
}

// NewScoreResponseSlice converts ledger records into DTOs.
func NewScoreResponseSlice(records []models.ScoreRecord) []ScoreResponse {
	responses := make([]ScoreResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, NewScoreResponse(record))
	}

	return responses
}
