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

	"github.com/urjafest/sportsfest-backend/config"
	"github.com/urjafest/sportsfest-backend/db"
	"github.com/urjafest/sportsfest-backend/handlers"
	"github.com/urjafest/sportsfest-backend/live"
	"github.com/urjafest/sportsfest-backend/repositories"
	api "github.com/urjafest/sportsfest-backend/routes"
	"github.com/urjafest/sportsfest-backend/services"
	"github.com/urjafest/sportsfest-backend/storage"
)

const schedulerInterval = 30 * time.Second // Период автоперевода матчей в live

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

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

	// Инициализация загрузчика файлов (Cloudflare R2)
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
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 storage not configured, file uploads disabled")
	}

	// Инициализация WebSocket Hub
	wsHub := live.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	sportRepo := repositories.NewPostgresSportRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	membershipRepo := repositories.NewPostgresMembershipRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	leaderboardRepo := repositories.NewPostgresLeaderboardRepository(dbConn)
	logger.Info("Repositories initialized")

	txManager := services.NewTxManager(dbConn)

	// Почта опциональна: без SMTP уведомления просто не отправляются.
	var mailer services.Mailer
	if cfg.SMTPConfigured() {
		mailer = services.NewEmailService(cfg)
		logger.Info("SMTP mailer initialized")
	} else {
		logger.Warn("SMTP not configured, email notifications disabled")
	}

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo, mailer, logger)
	userService := services.NewUserService(userRepo, uploader)
	sportService := services.NewSportService(sportRepo, uploader)
	registrationService := services.NewRegistrationService(registrationRepo, sportRepo, userRepo)
	teamService := services.NewTeamService(txManager, teamRepo, membershipRepo, registrationRepo, sportRepo, userRepo, uploader, mailer, logger)
	membershipService := services.NewMembershipService(txManager, membershipRepo, teamRepo, sportRepo, registrationRepo, userRepo, mailer, logger)
	matchService := services.NewMatchService(matchRepo, sportRepo, teamRepo, userRepo, wsHub, logger)
	leaderboardService := services.NewLeaderboardService(leaderboardRepo, wsHub, logger)
	dashboardService := services.NewDashboardService(userRepo, registrationRepo, teamRepo, matchRepo)
	exportService := services.NewExportService(sportRepo, registrationRepo)
	logger.Info("Services initialized")

	// Планировщик: переводит матчи в live по расписанию
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("Match auto-start scheduler started", slog.Duration("interval", schedulerInterval))

		for {
			started, err := matchService.AutoStartDueMatches(context.Background(), time.Now())
			if err != nil {
				logger.Error("Scheduler: auto-start run failed", slog.Any("error", err))
			} else if started > 0 {
				logger.Info("Scheduler: matches moved to live", slog.Int("count", started))
			}
			<-ticker.C
		}
	}()

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	userHandler := handlers.NewUserHandler(userService, registrationService, teamService)
	sportHandler := handlers.NewSportHandler(sportService)
	registrationHandler := handlers.NewRegistrationHandler(registrationService)
	teamHandler := handlers.NewTeamHandler(teamService)
	membershipHandler := handlers.NewMembershipHandler(membershipService)
	matchHandler := handlers.NewMatchHandler(matchService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, exportService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, matchService, logger)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.AllowedOrigins,
		cfg.JWTSecretKey,
		authHandler,
		userHandler,
		sportHandler,
		registrationHandler,
		teamHandler,
		membershipHandler,
		matchHandler,
		leaderboardHandler,
		dashboardHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
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

	// Ожидание сигнала завершения
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
