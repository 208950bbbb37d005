package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/hackforge-api/internal/middleware"
	"github.com/noah-isme/hackforge-api/internal/service"
	"github.com/noah-isme/hackforge-api/internal/utils"
)

// RankingHandler wires leaderboard endpoints including the websocket stream.
type RankingHandler struct {
	service service.RankingService
	logger  zerolog.Logger
}

// NewRankingHandler constructs the handler.
func NewRankingHandler(service service.RankingService, logger zerolog.Logger) *RankingHandler {
	return &RankingHandler{
		service: service,
		logger:  logger.With().Str("component", "ranking_handler").Logger(),
	}
}

// Register binds leaderboard routes under the provided router group.
func (h *RankingHandler) Register(router fiber.Router) {
	router.Use("/stream", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
			c.Locals("request_ctx", ctx)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/stream", websocket.New(h.stream))
	router.Get("", h.leaderboard)
}

func (h *RankingHandler) leaderboard(c *fiber.Ctx) error {
	hackathonID, err := parseUintQuery(c, "hackathon_id")
	if err != nil || hackathonID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "hackathon_id required")
	}

	trackID, err := parseOptionalUintQuery(c, "track_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	leaderboard, err := h.service.Leaderboard(c.UserContext(), hackathonID, trackID)
	if err != nil {
		if errors.Is(err, service.ErrHackathonNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "leaderboard retrieved", leaderboard)
}

// stream pushes leaderboard frames to the client whenever the ranking
// changes. The first frame is the current snapshot.
func (h *RankingHandler) stream(conn *websocket.Conn) {
	defer conn.Close()

	raw := strings.TrimSpace(conn.Query("hackathon_id"))
	hackathonID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || hackathonID == 0 {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "hackathon_id required"))
		return
	}

	baseCtx, _ := conn.Locals("request_ctx").(context.Context)
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	snapshotCtx, cancelSnapshot := context.WithTimeout(baseCtx, 10*time.Second)
	snapshot, err := h.service.Leaderboard(snapshotCtx, uint(hackathonID), nil)
	cancelSnapshot()
	if err != nil {
		h.logger.Warn().Err(err).Uint64("hackathon_id", hackathonID).Msg("leaderboard snapshot failed")
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "leaderboard unavailable"))
		return
	}
	if err := conn.WriteJSON(snapshot); err != nil {
		return
	}

	frames, unsubscribe := h.service.Subscribe(uint(hackathonID))
	defer unsubscribe()

	// Reads only serve to detect the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Info().Uint64("hackathon_id", hackathonID).Msg("leaderboard stream connected")

	for {
		select {
		case frame, open := <-frames:
			if !open {
				return
			}
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
