package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/hackforge-api/internal/dto"
	"github.com/noah-isme/hackforge-api/internal/service"
	"github.com/noah-isme/hackforge-api/internal/utils"
)

// SubmissionHandler wires submission lifecycle HTTP routes.
type SubmissionHandler struct {
	lifecycle service.LifecycleService
	digest    service.DigestService
	logger    zerolog.Logger
}

// NewSubmissionHandler constructs the handler. The digest service may be nil
// when no AI provider is configured.
func NewSubmissionHandler(lifecycle service.LifecycleService, digest service.DigestService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		lifecycle: lifecycle,
		digest:    digest,
		logger:    logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches submission endpoints to the router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Post("/:id/transition", h.transition)
	router.Get("/:id/feedback-digest", h.feedbackDigest)
}

func (h *SubmissionHandler) transition(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.TransitionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.lifecycle.Transition(c.UserContext(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission transitioned", submission)
}

func (h *SubmissionHandler) feedbackDigest(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if h.digest == nil {
		return utils.SendError(c, fiber.StatusServiceUnavailable, "feedback digest unavailable")
	}

	digest, err := h.digest.FeedbackDigest(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrDigestUnavailable) {
			return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
		}
		if errors.Is(err, service.ErrSubmissionNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "feedback digest generated", digest)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSubmissionNotFound),
		errors.Is(err, service.ErrHackathonNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSubmissionFinalized):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrRankMismatch),
		errors.Is(err, service.ErrJudgingClosed),
		errors.Is(err, service.ErrDeadlinePassed):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
