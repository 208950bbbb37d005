package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/hackforge-api/internal/dto"
	"github.com/noah-isme/hackforge-api/internal/models"
	"github.com/noah-isme/hackforge-api/internal/repository"
)

// CriterionService manages rubric configuration. A rubric may be replaced
// freely until the first score references it; after that it is immutable.
type CriterionService interface {
	Configure(ctx context.Context, hackathonID uint, payload dto.CriterionSetCreateRequest) (dto.CriterionSetResponse, error)
	GetForScope(ctx context.Context, hackathonID uint, trackID *uint) (dto.CriterionSetResponse, error)
}

type criterionService struct {
	criteria   repository.CriterionRepository
	hackathons repository.HackathonRepository
	validator  *validator.Validate
	logger     zerolog.Logger
	now        func() time.Time
}

// NewCriterionService constructs the rubric configuration service.
func NewCriterionService(criteria repository.CriterionRepository, hackathons repository.HackathonRepository, validate *validator.Validate, logger zerolog.Logger) CriterionService {
	return &criterionService{
		criteria:   criteria,
		hackathons: hackathons,
		validator:  validate,
		logger:     logger.With().Str("component", "criterion_service").Logger(),
		now:        time.Now,
	}
}

func (s *criterionService) Configure(ctx context.Context, hackathonID uint, payload dto.CriterionSetCreateRequest) (dto.CriterionSetResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CriterionSetResponse{}, err
	}

	if _, err := s.hackathons.GetByID(ctx, hackathonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CriterionSetResponse{}, ErrHackathonNotFound
		}
		return dto.CriterionSetResponse{}, err
	}

	if payload.TrackID != nil {
		track, err := s.hackathons.GetTrack(ctx, *payload.TrackID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.CriterionSetResponse{}, ErrHackathonNotFound
			}
			return dto.CriterionSetResponse{}, err
		}
		if track.HackathonID != hackathonID {
			return dto.CriterionSetResponse{}, ErrHackathonNotFound
		}
	}

	seen := make(map[string]struct{}, len(payload.Criteria))
	for _, criterion := range payload.Criteria {
		if _, duplicate := seen[criterion.Name]; duplicate {
			return dto.CriterionSetResponse{}, fmt.Errorf("%w: duplicate %s", ErrInvalidCriterion, criterion.Name)
		}
		seen[criterion.Name] = struct{}{}
	}

	// Replace only the exact-scope rubric; a track request must not retire
	// the hackathon-wide fallback.
	existing, err := s.criteria.GetForScope(ctx, hackathonID, payload.TrackID)
	switch {
	case err == nil && sameScope(existing, payload.TrackID):
		if existing.Locked() {
			return dto.CriterionSetResponse{}, ErrCriterionSetLocked
		}
		if err := s.criteria.DeleteUnlocked(ctx, existing.ID); err != nil {
			if errors.Is(err, repository.ErrCriterionSetInUse) {
				return dto.CriterionSetResponse{}, ErrCriterionSetLocked
			}
			return dto.CriterionSetResponse{}, err
		}
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return dto.CriterionSetResponse{}, err
	}

	set := models.CriterionSet{
		HackathonID: hackathonID,
		TrackID:     payload.TrackID,
		CreatedAt:   s.now().UTC(),
		Criteria:    make([]models.Criterion, 0, len(payload.Criteria)),
	}
	for _, criterion := range payload.Criteria {
		set.Criteria = append(set.Criteria, models.Criterion{
			Name:   criterion.Name,
			Weight: criterion.Weight,
			Min:    criterion.Min,
			Max:    criterion.Max,
		})
	}

	if err := s.criteria.Create(ctx, &set); err != nil {
		return dto.CriterionSetResponse{}, err
	}

	s.logger.Info().
		Uint("hackathon_id", hackathonID).
		Uint("criterion_set_id", set.ID).
		Int("criteria", len(set.Criteria)).
		Msg("rubric configured")

	return dto.NewCriterionSetResponse(set), nil
}

func (s *criterionService) GetForScope(ctx context.Context, hackathonID uint, trackID *uint) (dto.CriterionSetResponse, error) {
	set, err := s.criteria.GetForScope(ctx, hackathonID, trackID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CriterionSetResponse{}, ErrRubricNotFound
		}
		return dto.CriterionSetResponse{}, err
	}

	return dto.NewCriterionSetResponse(set), nil
}

func sameScope(set models.CriterionSet, trackID *uint) bool {
	if set.TrackID == nil || trackID == nil {
		return set.TrackID == nil && trackID == nil
	}
	return *set.TrackID == *trackID
}
