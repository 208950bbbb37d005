package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/hackforge-api/internal/models"
)

// RosterRepository exposes read-only identity data owned by the platform's
// registration service. The judging core never mutates users or teams.
type RosterRepository interface {
	GetUser(ctx context.Context, id uint) (models.User, error)
	IsTeamMember(ctx context.Context, userID, teamID uint) (bool, error)
	TeamIDsForUser(ctx context.Context, userID uint) ([]uint, error)
}

type rosterRepository struct {
	db *gorm.DB
}

// NewRosterRepository instantiates a GORM-backed roster reader.
func NewRosterRepository(db *gorm.DB) RosterRepository {
	return &rosterRepository{db: db}
}

func (r *rosterRepository) GetUser(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *rosterRepository) IsTeamMember(ctx context.Context, userID, teamID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TeamMember{}).
		Where("user_id = ?", userID).
		Where("team_id = ?", teamID).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *rosterRepository) TeamIDsForUser(ctx context.Context, userID uint) ([]uint, error) {
	var teamIDs []uint
	err := r.db.WithContext(ctx).Model(&models.TeamMember{}).
		Where("user_id = ?", userID).
		Pluck("team_id", &teamIDs).Error
	if err != nil {
		return nil, err
	}

	return teamIDs, nil
}
