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
	"github.com/playgrid/arena/browse"
	"github.com/playgrid/arena/cache"
	"github.com/playgrid/arena/config"
	"github.com/playgrid/arena/db"
	"github.com/playgrid/arena/handlers"
	"github.com/playgrid/arena/middleware"
	"github.com/playgrid/arena/realtime"
	"github.com/playgrid/arena/repositories"
	api "github.com/playgrid/arena/routes"
	"github.com/playgrid/arena/services"
	"github.com/playgrid/arena/storage"
)

const schedulerInterval = 30 * time.Second

// snapshotSource собирает источник префетч-кэша из двух сервисов.
type snapshotSource struct {
	services.TournamentService
	services.ParticipantService
}

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

	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
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

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	wsHub := realtime.NewHub(logger)
	go wsHub.Run()

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)

	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo, uploader)
	emailService := services.NewEmailService(cfg, logger)
	tournamentService := services.NewTournamentService(tournamentRepo, wsHub, uploader, logger)
	participantService := services.NewParticipantService(dbConn, participantRepo, tournamentRepo, wsHub)
	matchService := services.NewMatchService(matchRepo, tournamentRepo, wsHub)
	logger.Info("services initialized")

	detailCache := cache.NewTournamentCache(snapshotSource{tournamentService, participantService}, logger)
	go detailCache.Run(rootCtx)

	feed := browse.NewFeed(tournamentService, logger)

	blocklist := middleware.NewTokenBlocklist(24 * time.Hour)
	go blocklist.Run(rootCtx)

	// Планировщик автоматической смены статусов по датам.
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("tournament status scheduler started", slog.Duration("interval", schedulerInterval))

		if err := tournamentService.AutoUpdateTournamentStatusesByDates(rootCtx); err != nil {
			logger.Error("scheduler: initial run failed", slog.Any("error", err))
		}
		for {
			select {
			case <-rootCtx.Done():
				return
			case <-ticker.C:
				if err := tournamentService.AutoUpdateTournamentStatusesByDates(rootCtx); err != nil {
					logger.Error("scheduler: periodic run failed", slog.Any("error", err))
				}
			}
		}
	}()

	authenticator := middleware.NewAuthenticator(cfg.JWTSecretKey, blocklist)
	rateLimiter := middleware.NewRateLimiter(20, 40)

	authHandler := handlers.NewAuthHandler(authService, userService, emailService, blocklist, cfg.JWTSecretKey)
	userHandler := handlers.NewUserHandler(userService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, detailCache, feed)
	participantHandler := handlers.NewParticipantHandler(participantService, detailCache)
	matchHandler := handlers.NewMatchHandler(matchService, tournamentService, detailCache)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, tournamentService)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authenticator,
		rateLimiter,
		authHandler,
		userHandler,
		tournamentHandler,
		participantHandler,
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
	logger.Info("application exited")
}
