package models

import "time"

// CriterionSet defines the scoring rubric for a hackathon or a single track.
// Once any score references the set it is locked: criteria changes after
// scoring has begun would silently re-weight existing records.
type CriterionSet struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	HackathonID uint        `gorm:"not null;index" json:"hackathon_id"`
	TrackID     *uint       `gorm:"index" json:"track_id"`
	LockedAt    *time.Time  `json:"locked_at"`
	Criteria    []Criterion `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"criteria"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Locked reports whether the set is referenced by at least one score record.
func (s CriterionSet) Locked() bool {
	return s.LockedAt != nil
}

// CriterionByName returns the named criterion, if declared.
func (s CriterionSet) CriterionByName(name string) (Criterion, bool) {
	for _, criterion := range s.Criteria {
		if criterion.Name == name {
			return criterion, true
		}
	}
	return Criterion{}, false
}

// TotalWeight sums the declared criterion weights. Weights need not sum to
// one; aggregation normalizes by this total.
func (s CriterionSet) TotalWeight() float64 {
	var total float64
	for _, criterion := range s.Criteria {
		total += criterion.Weight
	}
	return total
}

// Criterion is a named, weighted, bounded scoring dimension.
type Criterion struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	CriterionSetID uint    `gorm:"not null;index" json:"criterion_set_id"`
	Name           string  `gorm:"size:128;not null" json:"name"`
	Weight         float64 `gorm:"not null" json:"weight"`
	Min            float64 `gorm:"not null" json:"min"`
	Max            float64 `gorm:"not null" json:"max"`
}

// InRange reports whether a submitted value lies within the declared bounds.
func (c Criterion) InRange(value float64) bool {
	return value >= c.Min && value <= c.Max
}
