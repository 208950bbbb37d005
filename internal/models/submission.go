package models

import "time"

// Submission represents one team's entry to a hackathon, optionally within a
// track. Status is written only by the lifecycle service, AggregateScore and
// JudgeCount only by the aggregation service, Rank only by the ranking
// service.
type Submission struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	TeamID         uint       `gorm:"not null;index" json:"team_id"`
	HackathonID    uint       `gorm:"not null;index" json:"hackathon_id"`
	TrackID        *uint      `gorm:"index" json:"track_id"`
	Title          string     `gorm:"size:255;not null" json:"title"`
	Status         string     `gorm:"size:32;not null;default:draft" json:"status"`
	AggregateScore *float64   `json:"aggregate_score"`
	JudgeCount     int        `gorm:"not null;default:0" json:"judge_count"`
	Rank           *int       `json:"rank"`
	SubmittedAt    *time.Time `json:"submitted_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Team           Team       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"team"`
	Hackathon      Hackathon  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"hackathon"`
}

const (
	// SubmissionStatusDraft indicates the entry is still being prepared by its team.
	SubmissionStatusDraft = "draft"
	// SubmissionStatusSubmitted indicates the entry was handed in before the deadline.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusUnderReview indicates judging is open for the entry.
	SubmissionStatusUnderReview = "under_review"
	// SubmissionStatusAccepted is a terminal non-winning outcome.
	SubmissionStatusAccepted = "accepted"
	// SubmissionStatusRejected is a terminal outcome for entries that did not qualify.
	SubmissionStatusRejected = "rejected"
	// SubmissionStatusWinner is a terminal outcome reserved for top-ranked entries.
	SubmissionStatusWinner = "winner"
	// SubmissionStatusDisqualified is a terminal outcome reachable from any non-terminal state.
	SubmissionStatusDisqualified = "disqualified"
)

// submissionTransitions lists the permitted forward edges of the lifecycle.
// Disqualification is handled separately since it is reachable from every
// non-terminal state.
var submissionTransitions = map[string][]string{
	SubmissionStatusDraft:       {SubmissionStatusSubmitted},
	SubmissionStatusSubmitted:   {SubmissionStatusUnderReview},
	SubmissionStatusUnderReview: {SubmissionStatusAccepted, SubmissionStatusRejected, SubmissionStatusWinner},
}

// IsTerminal reports whether the status closes the submission to scoring.
func (s Submission) IsTerminal() bool {
	switch s.Status {
	case SubmissionStatusAccepted, SubmissionStatusRejected, SubmissionStatusWinner, SubmissionStatusDisqualified:
		return true
	}
	return false
}

// IsJudgeable reports whether score records may be created for the submission.
func (s Submission) IsJudgeable() bool {
	return s.Status == SubmissionStatusUnderReview
}

// Rankable reports whether the submission participates in leaderboards.
// Disqualified entries are excluded entirely; drafts never reached judging.
func (s Submission) Rankable() bool {
	switch s.Status {
	case SubmissionStatusDraft, SubmissionStatusDisqualified:
		return false
	}
	return true
}

// CanTransitionTo reports whether the lifecycle permits moving to target.
func (s Submission) CanTransitionTo(target string) bool {
	if target == SubmissionStatusDisqualified {
		return !s.IsTerminal()
	}
	for _, allowed := range submissionTransitions[s.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// KnownSubmissionStatus reports whether the value is a declared status.
func KnownSubmissionStatus(status string) bool {
	switch status {
	case SubmissionStatusDraft, SubmissionStatusSubmitted, SubmissionStatusUnderReview,
		SubmissionStatusAccepted, SubmissionStatusRejected, SubmissionStatusWinner,
		SubmissionStatusDisqualified:
		return true
	}
	return false
}
