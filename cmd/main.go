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

	"github.com/courtside-dev/scoreboard-system/config"
	"github.com/courtside-dev/scoreboard-system/db"
	"github.com/courtside-dev/scoreboard-system/handlers"
	"github.com/courtside-dev/scoreboard-system/live"
	"github.com/courtside-dev/scoreboard-system/middleware"
	"github.com/courtside-dev/scoreboard-system/repositories"
	api "github.com/courtside-dev/scoreboard-system/routes"
	"github.com/courtside-dev/scoreboard-system/services"
	"github.com/courtside-dev/scoreboard-system/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

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
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if cfg.MigrationsDir != "" {
		if err := db.Migrate(dbConn, cfg.MigrationsDir); err != nil {
			logger.Error("failed to apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("migrations applied", slog.String("dir", cfg.MigrationsDir))
	}

	// The blob store is optional: without it, scoreboard exports answer 503
	// while the rest of the API keeps working.
	var uploader storage.FileUploader
	if cfg.BlobStoreConfigured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("blob store not configured, scoreboard export disabled")
	}

	wsHub := live.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	bracketRepo := repositories.NewPostgresBracketRepository(dbConn)
	leagueRepo := repositories.NewPostgresLeagueConfigRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	logger.Info("Repositories initialized")

	notifier := services.NewEmailNotifier(cfg, logger)
	generatorService := services.NewGeneratorService(repositories.NewTxBeginner(dbConn), matchRepo, bracketRepo, leagueRepo, wsHub)
	scoreService := services.NewScoreService(repositories.NewTxBeginner(dbConn), matchRepo, eventRepo, wsHub, notifier)
	scoreboardService := services.NewScoreboardService(matchRepo, bracketRepo, eventRepo)

	var exportService services.ExportService
	if uploader != nil {
		exportService = services.NewExportService(scoreboardService, uploader)
	}
	logger.Info("Services initialized")

	matchHandler := handlers.NewMatchHandler(generatorService, scoreService, scoreboardService)
	scoreboardHandler := handlers.NewScoreboardHandler(scoreboardService, exportService)
	eventHandler := handlers.NewEventHandler(eventRepo)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	auth := middleware.NewAuthenticator(cfg.JWTSecretKey)

	router := chi.NewRouter()
	api.SetupRoutes(router, auth, matchHandler, scoreboardHandler, eventHandler, webSocketHandler)
	logger.Info("Routes configured")

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
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
