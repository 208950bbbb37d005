package ai

import "context"

// JudgeComment is one judge's written feedback for a submission.
type JudgeComment struct {
	JudgeID  uint
	Feedback string
}

// DigestInput contains everything the summarizer needs to condense the
// judges' feedback for one submission.
type DigestInput struct {
	SubmissionTitle string
	HackathonName   string
	Comments        []JudgeComment
}

// DigestResult is the structured summary returned by the summarizer.
type DigestResult struct {
	Summary string                 `json:"summary"`
	Model   string                 `json:"model"`
	Raw     map[string]interface{} `json:"raw,omitempty"`
}

// Summarizer describes an AI model capable of digesting judge feedback.
type Summarizer interface {
	Summarize(ctx context.Context, input DigestInput) (DigestResult, error)
}
