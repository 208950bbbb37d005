package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/hackforge-api/internal/dto"
	"github.com/noah-isme/hackforge-api/internal/service"
	"github.com/noah-isme/hackforge-api/internal/utils"
)

// ScoreHandler wires the score ledger HTTP routes.
type ScoreHandler struct {
	service service.ScoreService
	logger  zerolog.Logger
}

// NewScoreHandler constructs the handler.
func NewScoreHandler(service service.ScoreService, logger zerolog.Logger) *ScoreHandler {
	return &ScoreHandler{
		service: service,
		logger:  logger.With().Str("component", "score_handler").Logger(),
	}
}

// Register attaches score endpoints to the router group.
func (h *ScoreHandler) Register(router fiber.Router) {
	router.Post("", h.record)
	router.Get("/history", h.history)
}

func (h *ScoreHandler) record(c *fiber.Ctx) error {
	var payload dto.ScoreCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	aggregate, err := h.service.RecordScore(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "score recorded", aggregate)
}

func (h *ScoreHandler) history(c *fiber.Ctx) error {
	judgeID, err := parseUintQuery(c, "judge_id")
	if err != nil || judgeID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "judge_id required")
	}
	submissionID, err := parseUintQuery(c, "submission_id")
	if err != nil || submissionID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "submission_id required")
	}

	history, err := h.service.History(c.UserContext(), judgeID, submissionID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "score history retrieved", history)
}

func (h *ScoreHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err),
		errors.Is(err, service.ErrInvalidCriterion),
		errors.Is(err, service.ErrOutOfRange),
		errors.Is(err, service.ErrMissingCriterion):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSubmissionNotFound),
		errors.Is(err, service.ErrJudgeNotFound),
		errors.Is(err, service.ErrRubricNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflictOfInterest),
		errors.Is(err, service.ErrStaleRevision),
		errors.Is(err, service.ErrSubmissionFinalized):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrSubmissionNotJudgeable),
		errors.Is(err, service.ErrJudgeNotAssigned),
		errors.Is(err, service.ErrJudgingClosed),
		errors.Is(err, service.ErrNotAJudge):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
