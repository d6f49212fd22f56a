package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/steamcup/tournament-engine/brackets"
	"github.com/steamcup/tournament-engine/config"
	"github.com/steamcup/tournament-engine/db"
	"github.com/steamcup/tournament-engine/handlers"
	"github.com/steamcup/tournament-engine/middleware"
	"github.com/steamcup/tournament-engine/models"
	"github.com/steamcup/tournament-engine/repositories"
	"github.com/steamcup/tournament-engine/routes"
	"github.com/steamcup/tournament-engine/services"
	"github.com/steamcup/tournament-engine/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("competition_mode", cfg.CompetitionMode))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(dbConn, cfg.MigrationsPath); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migrations applied")

	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize snapshot uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("snapshot uploader initialized", slog.String("bucket", cfg.R2BucketName))
	} else {
		logger.Warn("snapshot archiving disabled: R2 credentials not configured")
	}

	wsHub := brackets.NewHub(logger)
	go wsHub.Run()

	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	seedingRepo := repositories.NewPostgresSeedingRepository(dbConn)
	roundRepo := repositories.NewPostgresRoundRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	standingRepo := repositories.NewPostgresStandingRepository(dbConn)
	phaseRepo := repositories.NewPostgresPhaseRepository(dbConn)
	progressionRepo := repositories.NewPostgresProgressionRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	slotRepo := repositories.NewPostgresTimeSlotRepository(dbConn)
	conflictRepo := repositories.NewPostgresConflictRepository(dbConn)

	seedingService := services.NewSeedingService(dbConn, tournamentRepo, teamRepo, seedingRepo, logger)
	bracketService := services.NewBracketService(dbConn, tournamentRepo, seedingRepo, roundRepo, matchRepo, standingRepo, wsHub, logger)

	var snapshotService services.SnapshotService
	if uploader != nil {
		snapshotService = services.NewSnapshotService(bracketService, uploader, logger)
	}

	matchService := services.NewMatchService(dbConn, tournamentRepo, matchRepo, standingRepo, snapshotService, wsHub, logger)
	progressionService := services.NewProgressionService(dbConn, phaseRepo, progressionRepo, teamRepo,
		models.CompetitionMode(cfg.CompetitionMode), wsHub, logger)
	scheduleService := services.NewScheduleService(dbConn, eventRepo, slotRepo, conflictRepo, teamRepo, wsHub, logger)
	logger.Info("services initialized")

	if cfg.ConflictSweepSpec != "" {
		sweeper := cron.New()
		_, err := sweeper.AddFunc(cfg.ConflictSweepSpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if err := scheduleService.SweepConflicts(ctx); err != nil {
				logger.Error("conflict sweep failed", slog.Any("error", err))
			}
		})
		if err != nil {
			logger.Error("invalid conflict sweep cron spec", slog.Any("error", err))
			os.Exit(1)
		}
		sweeper.Start()
		defer sweeper.Stop()
		logger.Info("conflict sweep scheduled", slog.String("spec", cfg.ConflictSweepSpec))
	}

	h := routes.Handlers{
		Tournament:  handlers.NewTournamentHandler(seedingService, bracketService),
		Match:       handlers.NewMatchHandler(matchService),
		Progression: handlers.NewProgressionHandler(progressionService),
		Schedule:    handlers.NewScheduleHandler(scheduleService),
		WebSocket:   handlers.NewWebSocketHandler(wsHub, logger),
	}
	auth := middleware.NewAuthenticator(cfg.JWTSecretKey)
	router := routes.InitRoutes(h, auth)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shut down")
	}
}
