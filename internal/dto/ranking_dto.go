package dto

import "time"

// LeaderboardEntry is one ranked submission within a comparison scope.
type LeaderboardEntry struct {
	SubmissionID   uint     `json:"submission_id"`
	Title          string   `json:"title,omitempty"`
	TeamID         uint     `json:"team_id"`
	Rank           int      `json:"rank"`
	AggregateScore float64  `json:"aggregate_score"`
	JudgeCount     int      `json:"judge_count"`
	Percentile     *float64 `json:"percentile"`
}

// LeaderboardResponse is the ordered ranking for a hackathon or track.
// Version increases monotonically per hackathon so stream consumers can
// drop stale frames.
type LeaderboardResponse struct {
	HackathonID uint               `json:"hackathon_id"`
	TrackID     *uint              `json:"track_id"`
	Version     uint               `json:"version"`
	GeneratedAt time.Time          `json:"generated_at"`
	Entries     []LeaderboardEntry `json:"entries"`
}
