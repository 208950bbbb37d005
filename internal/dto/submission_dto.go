package dto

import (
	"time"

	"github.com/noah-isme/hackforge-api/internal/models"
)

// TransitionRequest moves a submission through its lifecycle.
type TransitionRequest struct {
	TargetStatus string `json:"target_status" validate:"required,oneof=draft submitted under_review accepted rejected winner disqualified"`
}

// TeamLite summarizes a team in submission responses.
type TeamLite struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID             uint       `json:"id"`
	TeamID         uint       `json:"team_id"`
	HackathonID    uint       `json:"hackathon_id"`
	TrackID        *uint      `json:"track_id"`
	Title          string     `json:"title"`
	Status         string     `json:"status"`
	AggregateScore *float64   `json:"aggregate_score"`
	JudgeCount     int        `json:"judge_count"`
	Rank           *int       `json:"rank"`
	SubmittedAt    *time.Time `json:"submitted_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Team           TeamLite   `json:"team"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:             model.ID,
		TeamID:         model.TeamID,
		HackathonID:    model.HackathonID,
		TrackID:        model.TrackID,
		Title:          model.Title,
		Status:         model.Status,
		AggregateScore: model.AggregateScore,
		JudgeCount:     model.JudgeCount,
		Rank:           model.Rank,
		SubmittedAt:    model.SubmittedAt,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}

	if model.Team.ID != 0 {
		response.Team = TeamLite{ID: model.Team.ID, Name: model.Team.Name}
	}

	return response
}
