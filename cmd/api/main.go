package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/hackforge-api/internal/config"
	"github.com/noah-isme/hackforge-api/internal/database"
	"github.com/noah-isme/hackforge-api/internal/handler"
	"github.com/noah-isme/hackforge-api/internal/middleware"
	"github.com/noah-isme/hackforge-api/internal/models"
	"github.com/noah-isme/hackforge-api/internal/repository"
	"github.com/noah-isme/hackforge-api/internal/router"
	"github.com/noah-isme/hackforge-api/internal/service"
	"github.com/noah-isme/hackforge-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{}, &models.Team{}, &models.TeamMember{},
		&models.Hackathon{}, &models.Track{},
		&models.Submission{}, &models.CriterionSet{}, &models.Criterion{},
		&models.JudgeAssignment{}, &models.ScoreRecord{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New(validator.WithRequiredStructEnabled())

	rosterRepo := repository.NewRosterRepository(db)
	hackathonRepo := repository.NewHackathonRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	criterionRepo := repository.NewCriterionRepository(db)

	publisher := service.NewEventPublisher(redisClient, natsConn, cfg.EventChannelBase, logger)
	publisher.Start(runCtx)

	aggregationService := service.NewAggregationService(scoreRepo, submissionRepo, criterionRepo, logger)
	progressService := service.NewProgressService(assignmentRepo, scoreRepo, submissionRepo, redisClient, cfg.ProgressCacheTTL, cfg.MinJudgesPerSubmission, logger)
	rankingService := service.NewRankingService(submissionRepo, hackathonRepo, publisher, cfg.RankingDebounce, logger)
	rankingService.Start(runCtx)

	scoreService := service.NewScoreService(scoreRepo, submissionRepo, assignmentRepo, rosterRepo, criterionRepo,
		aggregationService, rankingService, progressService, publisher, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, submissionRepo, rosterRepo, hackathonRepo, scoreRepo,
		aggregationService, rankingService, progressService, validate, cfg.OverlapFactor, cfg.MinJudgesPerSubmission, logger)
	lifecycleService := service.NewLifecycleService(submissionRepo, hackathonRepo, rankingService, progressService, publisher, validate, logger)
	criterionService := service.NewCriterionService(criterionRepo, hackathonRepo, validate, logger)

	var summarizer ai.Summarizer
	if cfg.AIProvider == "openai" && cfg.OpenAIAPIKey != "" {
		openaiSummarizer, err := ai.NewOpenAISummarizer(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Logger: logger,
		})
		if err != nil {
			log.Fatalf("failed to create openai summarizer: %v", err)
		}
		summarizer = openaiSummarizer
	}
	digestService := service.NewDigestService(scoreRepo, submissionRepo, summarizer, logger)

	assignmentHandler := handler.NewAssignmentHandler(assignmentService, logger)
	scoreHandler := handler.NewScoreHandler(scoreService, logger)
	rankingHandler := handler.NewRankingHandler(rankingService, logger)
	progressHandler := handler.NewProgressHandler(progressService, logger)
	submissionHandler := handler.NewSubmissionHandler(lifecycleService, digestService, logger)
	hackathonHandler := handler.NewHackathonHandler(lifecycleService, criterionService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler: assignmentHandler,
		ScoreHandler:      scoreHandler,
		RankingHandler:    rankingHandler,
		ProgressHandler:   progressHandler,
		SubmissionHandler: submissionHandler,
		HackathonHandler:  hackathonHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		RequireOrganizer:  middleware.RequireRole(router.OrganizerRoles()...),
		RequireJudge:      middleware.RequireRole(router.JudgeRoles()...),
		ScoreWriteLimiter: middleware.RateLimit("scores", cfg.ScoreRateLimit, cfg.ScoreRateWindow),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(runCtx, app)
}

func waitForShutdown(runCtx context.Context, app *fiber.App) {
	<-runCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
