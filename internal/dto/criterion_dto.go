package dto

import (
	"time"

	"github.com/noah-isme/hackforge-api/internal/models"
)

// CriterionInput declares one scoring dimension when configuring an event.
type CriterionInput struct {
	Name   string  `json:"name" validate:"required,min=1,max=128"`
	Weight float64 `json:"weight" validate:"gte=0"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max" validate:"gtfield=Min"`
}

// CriterionSetCreateRequest configures the rubric for a hackathon or track.
type CriterionSetCreateRequest struct {
	TrackID  *uint            `json:"track_id" validate:"omitempty,gt=0"`
	Criteria []CriterionInput `json:"criteria" validate:"required,min=1,dive"`
}

// CriterionResponse serializes one declared criterion.
type CriterionResponse struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// CriterionSetResponse serializes a rubric.
type CriterionSetResponse struct {
	ID          uint                `json:"id"`
	HackathonID uint                `json:"hackathon_id"`
	TrackID     *uint               `json:"track_id"`
	LockedAt    *time.Time          `json:"locked_at"`
	Criteria    []CriterionResponse `json:"criteria"`
	CreatedAt   time.Time           `json:"created_at"`
}

// NewCriterionSetResponse converts a CriterionSet model into a DTO.
func NewCriterionSetResponse(model models.CriterionSet) CriterionSetResponse {
	criteria := make([]CriterionResponse, 0, len(model.Criteria))
	for _, criterion := range model.Criteria {
		criteria = append(criteria, CriterionResponse{
			Name:   criterion.Name,
			Weight: criterion.Weight,
			Min:    criterion.Min,
			Max:    criterion.Max,
		})
	}

	return CriterionSetResponse{
		ID:          model.ID,
		HackathonID: model.HackathonID,
		TrackID:     model.TrackID,
		LockedAt:    model.LockedAt,
		Criteria:    criteria,
		CreatedAt:   model.CreatedAt,
	}
}
