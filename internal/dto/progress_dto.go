package dto

// JudgeProgressResponse reports a single judge's completion inside an event.
type JudgeProgressResponse struct {
	JudgeID     uint `json:"judge_id"`
	HackathonID uint `json:"hackathon_id"`
	Assigned    int  `json:"assigned"`
	Scored      int  `json:"scored"`
	Pending     int  `json:"pending"`
}

// EventProgressResponse reports submission coverage for a whole event.
// A submission is fully covered once it holds at least the configured
// minimum of active scores, partially covered with at least one, and
// uncovered with none.
type EventProgressResponse struct {
	HackathonID      uint `json:"hackathon_id"`
	TotalSubmissions int  `json:"total_submissions"`
	FullyCovered     int  `json:"fully_covered"`
	PartiallyCovered int  `json:"partially_covered"`
	Uncovered        int  `json:"uncovered"`
	MinJudges        int  `json:"min_judges"`
}
