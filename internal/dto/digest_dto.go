package dto

import "time"

// FeedbackDigestResponse is the organizer-facing AI summary of all judges'
// written feedback for one submission.
type FeedbackDigestResponse struct {
	SubmissionID uint      `json:"submission_id"`
	Summary      string    `json:"summary"`
	Model        string    `json:"model"`
	JudgeCount   int       `json:"judge_count"`
	GeneratedAt  time.Time `json:"generated_at"`
}
