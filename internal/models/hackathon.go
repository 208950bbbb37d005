package models

import "time"

// Hackathon represents one competitive event.
type Hackathon struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Status         string    `gorm:"size:32;not null;default:draft" json:"status"`
	WinnerSlots    int       `gorm:"not null;default:1" json:"winner_slots"`
	RankingVersion uint      `gorm:"not null;default:0" json:"ranking_version"`
	Deadline       time.Time `json:"deadline"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

const (
	// HackathonStatusDraft indicates the event is being configured.
	HackathonStatusDraft = "draft"
	// HackathonStatusOpen indicates teams may create and submit entries.
	HackathonStatusOpen = "open"
	// HackathonStatusJudging indicates scoring is in progress.
	HackathonStatusJudging = "judging"
	// HackathonStatusClosed indicates judging has finished and scores are locked.
	HackathonStatusClosed = "closed"
)

// JudgingOpen reports whether score records may currently be created.
func (h Hackathon) JudgingOpen() bool {
	return h.Status == HackathonStatusJudging
}

// Track is an optional sub-competition within a hackathon with its own
// leaderboard and winner slots.
type Track struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	HackathonID uint      `gorm:"not null;index" json:"hackathon_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	WinnerSlots int       `gorm:"not null;default:1" json:"winner_slots"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
