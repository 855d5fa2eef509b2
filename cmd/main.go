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

	"github.com/Dosada05/esports-tournament-engine/config"
	"github.com/Dosada05/esports-tournament-engine/db"
	"github.com/Dosada05/esports-tournament-engine/handlers"
	"github.com/Dosada05/esports-tournament-engine/metrics"
	"github.com/Dosada05/esports-tournament-engine/notify"
	"github.com/Dosada05/esports-tournament-engine/realtime"
	"github.com/Dosada05/esports-tournament-engine/repositories"
	api "github.com/Dosada05/esports-tournament-engine/routes"
	"github.com/Dosada05/esports-tournament-engine/services"
	"github.com/Dosada05/esports-tournament-engine/storage"
	"github.com/Dosada05/esports-tournament-engine/tracing"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	if err := cfg.RequireServerSecrets(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.Duration("advance_timeout", cfg.AdvanceTimeout),
		slog.Bool("archive_enabled", cfg.ArchiveEnabled()),
		slog.Bool("nats_enabled", cfg.NATSURL != ""),
		slog.Bool("tracing_enabled", cfg.OTLPEndpoint != ""),
	)

	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	shutdownTracing, err := tracing.Setup(appCtx, cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to initialize tracing", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("failed to flush traces", slog.Any("error", err))
		}
	}()

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
	if err := db.EnsureSchema(appCtx, dbConn); err != nil {
		logger.Error("failed to prepare database schema", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database connection established")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	progressionMetrics, err := metrics.NewPrometheusMetrics(registry)
	if err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	// Инициализация WebSocket Hub
	wsHub := realtime.NewHub(logger.With(slog.String("component", "websocket")))
	go wsHub.Run(appCtx)
	logger.Info("WebSocket Hub started")

	publishers := []services.EventPublisher{wsHub}
	if cfg.NATSURL != "" {
		natsPublisher, err := notify.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject, logger.With(slog.String("component", "nats")))
		if err != nil {
			logger.Error("failed to connect to NATS", slog.Any("error", err))
			os.Exit(1)
		}
		defer natsPublisher.Close()
		publishers = append(publishers, natsPublisher)
		logger.Info("NATS publisher initialized", slog.String("subject", cfg.NATSSubject))
	}

	// Архив итоговых таблиц (Cloudflare R2)
	var archiver services.StandingsArchiver
	if cfg.ArchiveEnabled() {
		uploader, err := storage.NewCloudflareR2Uploader(appCtx, storage.CloudflareR2UploaderConfig{
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
		archiver = storage.NewFinalStandingsArchiver(uploader, "")
		logger.Info("Cloudflare R2 standings archive initialized")
	}

	// Инициализация репозиториев и сервисов
	txManager := repositories.NewPostgresTxManager(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)

	progressionService := services.NewProgressionService(
		txManager,
		tournamentRepo,
		matchRepo,
		publishers,
		archiver,
		progressionMetrics,
		otel.Tracer(tracing.ServiceName),
		logger.With(slog.String("component", "progression")),
		cfg.AdvanceTimeout,
	)
	logger.Info("Services initialized")

	progressionHandler := handlers.NewProgressionHandler(progressionService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, progressionService, cfg.CORSAllowedOrigins)

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		api.Options{
			JWTSecret:      []byte(cfg.JWTSecretKey),
			AllowedOrigins: cfg.CORSAllowedOrigins,
			MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		},
		progressionHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.AdvanceTimeout + 5*time.Second,
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
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	stopApp()
	logger.Info("application exited")
}
