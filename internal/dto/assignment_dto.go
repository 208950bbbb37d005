package dto

import (
	"time"

	"github.com/noah-isme/hackforge-api/internal/models"
)

// AssignmentCreateRequest describes a manual judge assignment.
type AssignmentCreateRequest struct {
	JudgeID      uint  `json:"judge_id" validate:"required,gt=0"`
	HackathonID  uint  `json:"hackathon_id" validate:"required,gt=0"`
	TrackID      *uint `json:"track_id" validate:"omitempty,gt=0"`
	SubmissionID *uint `json:"submission_id" validate:"omitempty,gt=0"`
}

// AutoAssignRequest triggers balanced distribution of judges over a
// hackathon's submissions. Zero values fall back to configured defaults.
type AutoAssignRequest struct {
	HackathonID   uint    `json:"hackathon_id" validate:"required,gt=0"`
	JudgeIDs      []uint  `json:"judge_ids" validate:"required,min=1,dive,gt=0"`
	OverlapFactor float64 `json:"overlap_factor" validate:"omitempty,gt=0,lte=10"`
	MinJudges     int     `json:"min_judges" validate:"omitempty,gt=0"`
}

// AssignmentResponse is returned when viewing assignments. Completion counts
// are denormalized from the progress tracker, not stored.
type AssignmentResponse struct {
	ID           uint      `json:"id"`
	JudgeID      uint      `json:"judge_id"`
	JudgeName    string    `json:"judge_name,omitempty"`
	HackathonID  uint      `json:"hackathon_id"`
	TrackID      *uint     `json:"track_id"`
	SubmissionID *uint     `json:"submission_id"`
	Assigned     int       `json:"assigned"`
	Scored       int       `json:"scored"`
	Pending      int       `json:"pending"`
	CreatedAt    time.Time `json:"created_at"`
}

// UnderAssignedSubmission flags a submission that could not reach the
// minimum judge coverage during auto-assignment.
type UnderAssignedSubmission struct {
	SubmissionID   uint `json:"submission_id"`
	EligibleJudges int  `json:"eligible_judges"`
	RequiredJudges int  `json:"required_judges"`
}

// AutoAssignResponse summarizes the outcome of an auto-assignment run.
type AutoAssignResponse struct {
	HackathonID   uint                      `json:"hackathon_id"`
	Created       []AssignmentResponse      `json:"created"`
	UnderAssigned []UnderAssignedSubmission `json:"under_assigned"`
}

// NewAssignmentResponse converts a JudgeAssignment model into a DTO.
func NewAssignmentResponse(model models.JudgeAssignment) AssignmentResponse {
	response := AssignmentResponse{
		ID:           model.ID,
		JudgeID:      model.JudgeID,
		HackathonID:  model.HackathonID,
		TrackID:      model.TrackID,
		SubmissionID: model.SubmissionID,
		CreatedAt:    model.CreatedAt,
	}

	if model.Judge.ID != 0 {
		response.JudgeName = model.Judge.Name
	}

	return response
}
