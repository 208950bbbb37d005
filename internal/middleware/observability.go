package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/hackforge-api/internal/observability"
)

// Observability attaches Prometheus metrics and structured latency/error
// logging for the judging and leaderboard endpoints.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		if instrumentedPath(c.Path()) {
			route := routeTemplate(c)
			method := c.Method()
			status := c.Response().StatusCode()
			statusLabel := fmt.Sprintf("%d", status)

			observability.JudgingRequests().WithLabelValues(method, route, statusLabel).Inc()
			observability.JudgingLatency().WithLabelValues(method, route).Observe(duration.Seconds())
			if status >= fiber.StatusBadRequest {
				observability.JudgingErrors().WithLabelValues(method, route, statusLabel).Inc()
			}

			latencyMs := float64(duration) / float64(time.Millisecond)
			requestLogger := logger.With().
				Str("correlation_id", GetCorrelationID(c)).
				Str("route", route).
				Str("method", method).
				Int("status", status).
				Float64("latency_ms", latencyMs).
				Logger()

			switch {
			case status >= fiber.StatusInternalServerError:
				requestLogger.Error().Msg("judging request failed")
			case status >= fiber.StatusBadRequest:
				requestLogger.Warn().Msg("judging request completed with client error")
			default:
				requestLogger.Info().Msg("judging request completed")
			}
		}

		return err
	}
}

func instrumentedPath(path string) bool {
	return strings.HasPrefix(path, "/api/v2/judging") ||
		strings.HasPrefix(path, "/api/v2/leaderboard") ||
		strings.HasPrefix(path, "/api/v2/submissions") ||
		strings.HasPrefix(path, "/api/v2/hackathons")
}

func routeTemplate(c *fiber.Ctx) string {
	if c.Route() != nil && c.Route().Path != "" {
		return c.Route().Path
	}
	return c.Path()
}
