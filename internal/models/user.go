package models

import "time"

// User represents a platform account referenced by the judging core. Accounts
// are owned by the identity service; this table is read-only reference data.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"size:32;not null;default:participant" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	// RoleParticipant is the default role for registered users.
	RoleParticipant = "participant"
	// RoleJudge marks users that may be assigned to score submissions.
	RoleJudge = "judge"
	// RoleOrganizer marks users that configure and administer events.
	RoleOrganizer = "organizer"
)

// CanJudge reports whether the user may receive judge assignments.
func (u User) CanJudge() bool {
	return u.Role == RoleJudge || u.Role == RoleOrganizer
}

// Team groups participants that submit together.
type Team struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TeamMember links a user to a team. Membership drives the conflict of
// interest check: a judge who belongs to a submission's team may never be
// assigned to it.
type TeamMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TeamID    uint      `gorm:"not null;uniqueIndex:idx_team_members_team_user" json:"team_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_team_members_team_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
