package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/hackforge-api/internal/service"
	"github.com/noah-isme/hackforge-api/internal/utils"
)

// ProgressHandler wires judging progress endpoints.
type ProgressHandler struct {
	service service.ProgressService
	logger  zerolog.Logger
}

// NewProgressHandler constructs the handler.
func NewProgressHandler(service service.ProgressService, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		service: service,
		logger:  logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register attaches progress endpoints to the router group.
func (h *ProgressHandler) Register(router fiber.Router) {
	router.Get("/judge/:id", h.judge)
	router.Get("/event/:id", h.event)
}

func (h *ProgressHandler) judge(c *fiber.Ctx) error {
	judgeID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	hackathonID, err := parseUintQuery(c, "hackathon_id")
	if err != nil || hackathonID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "hackathon_id required")
	}

	progress, err := h.service.JudgeProgress(c.UserContext(), judgeID, hackathonID)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "judge progress retrieved", progress)
}

func (h *ProgressHandler) event(c *fiber.Ctx) error {
	hackathonID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	progress, err := h.service.EventProgress(c.UserContext(), hackathonID)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "event progress retrieved", progress)
}

func (h *ProgressHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
