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

	"github.com/Dosada05/killrace-tournament/brackets"
	"github.com/Dosada05/killrace-tournament/config"
	"github.com/Dosada05/killrace-tournament/db"
	"github.com/Dosada05/killrace-tournament/handlers"
	"github.com/Dosada05/killrace-tournament/middleware"
	"github.com/Dosada05/killrace-tournament/repositories"
	api "github.com/Dosada05/killrace-tournament/routes"
	"github.com/Dosada05/killrace-tournament/services"
	"github.com/Dosada05/killrace-tournament/storage"
	"github.com/Dosada05/killrace-tournament/utils"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
)

const (
	loginRateEvery = 12 * time.Second // 5 попыток в минуту с одного IP
	loginRateBurst = 5
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("log_level", cfg.LogLevel.String()))

	// Подключение к базе данных
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

	if err := db.RunMigrations(dbConn); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	// Инициализация загрузчика файлов (Cloudflare R2), если он настроен
	var uploader storage.FileUploader
	if cfg.R2.Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(context.Background(), storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized", slog.String("bucket", cfg.R2.BucketName))
	} else {
		logger.Warn("R2 storage is not configured, logo uploads and reset archives are disabled")
	}

	adminHash := cfg.AdminPasswordHash
	if adminHash == "" {
		adminHash, err = utils.HashPassword(cfg.AdminPassword)
		if err != nil {
			logger.Error("failed to hash admin password", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	txRunner := repositories.NewPostgresTxRunner(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	finalsRepo := repositories.NewPostgresFinalsRepository(dbConn)
	phaseRepo := repositories.NewPostgresPhaseRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	statsRepo := repositories.NewPostgresStatsRepository(sqlx.NewDb(dbConn, "postgres"))
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	authService := services.NewAuthService(services.AdminCredentials{
		Username:     cfg.AdminUsername,
		PasswordHash: adminHash,
	}, cfg.JWTSecretKey, logger)
	playerService := services.NewPlayerService(playerRepo, wsHub, logger)
	teamService := services.NewTeamService(txRunner, teamRepo, playerRepo, phaseRepo, uploader, wsHub, logger)
	matchService := services.NewMatchService(txRunner, matchRepo, finalsRepo, teamRepo, playerRepo, phaseRepo, uploader, wsHub, logger)
	phaseService := services.NewPhaseService(txRunner, phaseRepo, teamRepo, matchRepo, finalsRepo, statsRepo, wsHub, logger)
	tournamentService := services.NewTournamentService(
		txRunner,
		tournamentRepo,
		teamRepo,
		playerRepo,
		matchRepo,
		finalsRepo,
		phaseRepo,
		statsRepo,
		uploader,
		wsHub,
		logger,
	)
	logger.Info("Services initialized")

	// Инициализация обработчиков HTTP
	h := api.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		Players:    handlers.NewPlayerHandler(playerService),
		Teams:      handlers.NewTeamHandler(teamService),
		Matches:    handlers.NewMatchHandler(matchService),
		Tournament: handlers.NewTournamentHandler(tournamentService),
		Phases:     handlers.NewPhaseHandler(phaseService),
		WebSocket:  handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins, logger),
		Health:     handlers.NewHealthHandler(dbConn),
	}

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, h, api.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Authenticator:  middleware.NewAuthenticator(cfg.JWTSecretKey, logger),
		LoginLimiter:   middleware.NewIPRateLimiter(loginRateEvery, loginRateBurst),
	})
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			wsHub.Stop()
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
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
		} else {
			logger.Info("server shutdown complete")
		}
	}

	wsHub.Stop()
	logger.Info("application exited")
}
