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

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/lanhub/partyhub/config"
	"github.com/lanhub/partyhub/db"
	"github.com/lanhub/partyhub/events"
	"github.com/lanhub/partyhub/handlers"
	"github.com/lanhub/partyhub/repositories"
	api "github.com/lanhub/partyhub/routes"
	"github.com/lanhub/partyhub/services"
	"github.com/lanhub/partyhub/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

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
			logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("R2 uploader initialized", slog.String("bucket", cfg.R2BucketName))
	} else {
		logger.Warn("R2 object storage not configured, image uploads disabled")
	}

	hub := events.NewHub(logger)
	go hub.Run()
	logger.Info("websocket hub started")

	txBeginner := repositories.NewTxBeginner(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	contestantRepo := repositories.NewPostgresContestantRepository(dbConn)
	commentRepo := repositories.NewPostgresCommentRepository(dbConn)
	ticketRepo := repositories.NewPostgresTicketRepository(dbConn)
	logger.Info("repositories initialized")

	tournamentService := services.NewTournamentService(
		txBeginner, tournamentRepo, participantRepo, teamRepo,
		matchRepo, contestantRepo, commentRepo, uploader, hub,
	)
	bracketService := services.NewBracketService(
		txBeginner, tournamentRepo, participantRepo, teamRepo,
		matchRepo, contestantRepo, commentRepo, hub,
	)
	matchService := services.NewMatchService(
		txBeginner, tournamentRepo, participantRepo, teamRepo,
		matchRepo, contestantRepo, commentRepo, hub,
	)
	participantService := services.NewParticipantService(
		txBeginner, tournamentRepo, participantRepo, teamRepo,
		matchRepo, contestantRepo, ticketRepo, hub,
	)
	teamService := services.NewTeamService(
		txBeginner, tournamentRepo, teamRepo, participantRepo,
		matchRepo, contestantRepo, uploader, hub,
	)
	logger.Info("services initialized")

	tournamentHandler := handlers.NewTournamentHandler(tournamentService, bracketService, matchService)
	participantHandler := handlers.NewParticipantHandler(participantService)
	teamHandler := handlers.NewTeamHandler(teamService)
	matchHandler := handlers.NewMatchHandler(matchService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, logger)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		[]byte(cfg.JWTSecretKey),
		tournamentHandler,
		participantHandler,
		teamHandler,
		matchHandler,
		webSocketHandler,
	)
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
		logger.Info("server stopped")
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
		logger.Info("server shutdown complete")
	}
}
