package models

import (
	"time"

	"gorm.io/datatypes"
)

// ScoreRecord is one judge's scoring of one submission at one point in time.
// Records are append-only: re-scoring supersedes the judge's prior active
// record and inserts a new one with the next revision, so the full audit
// trail survives disputes. At most one active (superseded_at IS NULL) record
// exists per (judge, submission).
type ScoreRecord struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	JudgeID        uint              `gorm:"not null;index:idx_score_records_judge_submission" json:"judge_id"`
	SubmissionID   uint              `gorm:"not null;index:idx_score_records_judge_submission" json:"submission_id"`
	CriterionSetID uint              `gorm:"not null" json:"criterion_set_id"`
	Values         datatypes.JSONMap `gorm:"type:json;not null" json:"values"`
	Feedback       string            `gorm:"type:text" json:"feedback"`
	Revision       uint              `gorm:"not null;default:1" json:"revision"`
	SupersededAt   *time.Time        `json:"superseded_at"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Active reports whether the record is the judge's current score for the
// submission.
func (r ScoreRecord) Active() bool {
	return r.SupersededAt == nil
}

// CriterionValues converts the stored JSON map into typed float values.
// Values were validated against the criterion set on write, so non-numeric
// entries indicate corruption and are skipped.
func (r ScoreRecord) CriterionValues() map[string]float64 {
	values := make(map[string]float64, len(r.Values))
	for name, raw := range r.Values {
		switch v := raw.(type) {
		case float64:
			values[name] = v
		case int:
			values[name] = float64(v)
		case int64:
			values[name] = float64(v)
		}
	}
	return values
}
