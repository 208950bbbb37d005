package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/hackforge-api/internal/config"
	"github.com/noah-isme/hackforge-api/internal/handler"
	"github.com/noah-isme/hackforge-api/internal/models"
	"github.com/noah-isme/hackforge-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler *handler.AssignmentHandler
	ScoreHandler      *handler.ScoreHandler
	RankingHandler    *handler.RankingHandler
	ProgressHandler   *handler.ProgressHandler
	SubmissionHandler *handler.SubmissionHandler
	HackathonHandler  *handler.HackathonHandler
	JWTMiddleware     fiber.Handler
	RequireOrganizer  fiber.Handler
	RequireJudge      fiber.Handler
	ScoreWriteLimiter fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	requireOrganizer := deps.RequireOrganizer
	if requireOrganizer == nil {
		requireOrganizer = func(c *fiber.Ctx) error { return c.Next() }
	}
	requireJudge := deps.RequireJudge
	if requireJudge == nil {
		requireJudge = func(c *fiber.Ctx) error { return c.Next() }
	}
	scoreWriteLimiter := deps.ScoreWriteLimiter
	if scoreWriteLimiter == nil {
		scoreWriteLimiter = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Judging (assignments, scores, progress)
	judging := app.Group("/api/v2/judging", jwtMiddleware)

	if deps.AssignmentHandler != nil {
		assignmentGroup := judging.Group("/assignments", requireOrganizer)
		deps.AssignmentHandler.Register(assignmentGroup)
	}

	if deps.ScoreHandler != nil {
		scoreGroup := judging.Group("/scores", requireJudge, scoreWriteLimiter)
		deps.ScoreHandler.Register(scoreGroup)
	}

	if deps.ProgressHandler != nil {
		progressGroup := judging.Group("/progress")
		deps.ProgressHandler.Register(progressGroup)
	}

	// Leaderboard (read + stream)
	if deps.RankingHandler != nil {
		leaderboard := app.Group("/api/v2/leaderboard", jwtMiddleware)
		deps.RankingHandler.Register(leaderboard)
	}

	// Submission lifecycle
	if deps.SubmissionHandler != nil {
		submissions := app.Group("/api/v2/submissions", jwtMiddleware, requireOrganizer)
		deps.SubmissionHandler.Register(submissions)
	}

	// Event judging controls
	if deps.HackathonHandler != nil {
		hackathons := app.Group("/api/v2/hackathons", jwtMiddleware, requireOrganizer)
		deps.HackathonHandler.Register(hackathons)
	}
}

// OrganizerRoles lists the roles allowed to manage assignments, lifecycle
// and event controls.
func OrganizerRoles() []string {
	return []string{models.RoleOrganizer}
}

// JudgeRoles lists the roles allowed on the score ledger surface.
func JudgeRoles() []string {
	return []string{models.RoleJudge}
}
