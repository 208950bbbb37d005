package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/hackforge-api/internal/dto"
	"github.com/noah-isme/hackforge-api/internal/service"
	"github.com/noah-isme/hackforge-api/internal/utils"
)

// HackathonHandler wires event-level judging controls: the judging phase
// switch and rubric configuration.
type HackathonHandler struct {
	lifecycle service.LifecycleService
	criteria  service.CriterionService
	logger    zerolog.Logger
}

// NewHackathonHandler constructs the handler.
func NewHackathonHandler(lifecycle service.LifecycleService, criteria service.CriterionService, logger zerolog.Logger) *HackathonHandler {
	return &HackathonHandler{
		lifecycle: lifecycle,
		criteria:  criteria,
		logger:    logger.With().Str("component", "hackathon_handler").Logger(),
	}
}

// Register attaches hackathon judging endpoints to the router group.
func (h *HackathonHandler) Register(router fiber.Router) {
	router.Post("/:id/judging/open", h.openJudging)
	router.Post("/:id/judging/close", h.closeJudging)
	router.Post("/:id/criteria", h.configureCriteria)
	router.Get("/:id/criteria", h.getCriteria)
}

func (h *HackathonHandler) openJudging(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.lifecycle.OpenJudging(c.UserContext(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "judging opened", fiber.Map{"hackathon_id": id})
}

func (h *HackathonHandler) closeJudging(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	leaderboard, err := h.lifecycle.CloseJudging(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "judging closed", leaderboard)
}

func (h *HackathonHandler) configureCriteria(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CriterionSetCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	rubric, err := h.criteria.Configure(c.UserContext(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "rubric configured", rubric)
}

func (h *HackathonHandler) getCriteria(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	trackID, err := parseOptionalUintQuery(c, "track_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	rubric, err := h.criteria.GetForScope(c.UserContext(), id, trackID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "rubric retrieved", rubric)
}

func (h *HackathonHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err),
		errors.Is(err, service.ErrInvalidCriterion):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrHackathonNotFound),
		errors.Is(err, service.ErrRubricNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrCriterionSetLocked):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrJudgingNotComplete):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
