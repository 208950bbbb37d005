package models

import "time"

// JudgeAssignment binds a judge to a hackathon, optionally narrowed to a
// track or a single submission. A nil SubmissionID means the judge covers
// every submission in the hackathon (or track, when TrackID is set).
type JudgeAssignment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	JudgeID      uint      `gorm:"not null;index" json:"judge_id"`
	HackathonID  uint      `gorm:"not null;index" json:"hackathon_id"`
	TrackID      *uint     `gorm:"index" json:"track_id"`
	SubmissionID *uint     `gorm:"index" json:"submission_id"`
	CreatedAt    time.Time `json:"created_at"`
	Judge        User      `gorm:"foreignKey:JudgeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"judge"`
}

// Covers reports whether the assignment entitles the judge to score the
// given submission.
func (a JudgeAssignment) Covers(submission Submission) bool {
	if a.HackathonID != submission.HackathonID {
		return false
	}
	if a.SubmissionID != nil {
		return *a.SubmissionID == submission.ID
	}
	if a.TrackID != nil {
		return submission.TrackID != nil && *a.TrackID == *submission.TrackID
	}
	return true
}
