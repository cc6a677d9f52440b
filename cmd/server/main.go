package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/auth"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/config"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/repository"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/handler"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/middleware"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/mq"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/service"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/ws"
	"github.com/vidshelf/youtube-list-ingestion-go/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, dbConfig(&cfg.Database))
	if err != nil {
		logger.Log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	logger.Log.Info("Database connection established",
		zap.String("host", cfg.Database.Host),
		zap.Int("max_conns", cfg.Database.MaxConnections))

	publisher, err := mq.NewPublisher(&cfg.RabbitMQ)
	if err != nil {
		logger.Log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer func() { _ = publisher.Close() }()

	consumer, err := mq.NewConsumer(&cfg.RabbitMQ)
	if err != nil {
		logger.Log.Fatal("Failed to create progress consumer", zap.Error(err))
	}
	defer func() { _ = consumer.Close() }()

	tokens, err := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Log.Fatal("Failed to initialize token manager (set APP_AUTH_JWTSECRET)", zap.Error(err))
	}

	listRepo := repository.NewListRepository(pool)
	videoRepo := repository.NewVideoRepository(pool)
	enrichRepo := repository.NewEnrichmentRepository(pool)
	jobRepo := repository.NewIngestionJobRepository(pool)
	progressRepo := repository.NewProgressRepository(pool, cfg.Enrichment.HistoryRing)
	fieldRepo := repository.NewCustomFieldRepository(pool)
	schemaRepo := repository.NewFieldSchemaRepository(pool)
	valueRepo := repository.NewFieldValueRepository(pool)
	tagRepo := repository.NewTagRepository(pool)
	backupRepo := repository.NewBackupRepository(pool)

	listService := service.NewListService(listRepo, schemaRepo, jobRepo)
	ingestService := service.NewIngestService(listRepo, videoRepo, enrichRepo, jobRepo, publisher)
	videoService := service.NewVideoService(listRepo, videoRepo, enrichRepo, valueRepo, tagRepo, schemaRepo, jobRepo)
	fieldService := service.NewFieldService(listRepo, fieldRepo)
	schemaService := service.NewSchemaService(listRepo, schemaRepo, fieldRepo)
	valueService := service.NewValueService(listRepo, videoRepo, fieldRepo, valueRepo)
	tagService := service.NewTagService(listRepo, videoRepo, tagRepo, schemaRepo, backupRepo)
	backupService := service.NewBackupService(listRepo, videoRepo, backupRepo, valueRepo)
	progressService := service.NewProgressService(progressRepo, jobRepo, publisher)

	hub := ws.NewHub(tokens, progressService, cfg.WS)
	go hub.Run(ctx)

	// Fan progress events published by the enricher into the hub. Live
	// delivery is best-effort: if the consumer dies, clients fall back to the
	// history endpoint until the process is restarted.
	go func() {
		if err := consumer.ConsumeProgress(ctx, hub.Publish); err != nil && !errors.Is(err, context.Canceled) {
			logger.Log.Error("Progress consumer stopped", zap.Error(err))
		}
	}()

	router := handler.NewRouter(handler.RouterConfig{
		Auth:     middleware.NewAuth(tokens),
		Health:   handler.NewHealthHandler(pool, publisher),
		Lists:    handler.NewListHandler(listService),
		Ingest:   handler.NewIngestHandler(ingestService),
		Videos:   handler.NewVideoHandler(videoService),
		Values:   handler.NewValueHandler(valueService),
		Fields:   handler.NewFieldHandler(fieldService),
		Schemas:  handler.NewSchemaHandler(schemaService),
		Tags:     handler.NewTagHandler(tagService),
		Backups:  handler.NewBackupHandler(backupService),
		Progress: handler.NewProgressHandler(progressService),
		ServeWS:  hub.ServeWS,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Log.Info("Server starting", zap.Int("port", cfg.Server.Port))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Log.Error("Server error", zap.Error(err))
		os.Exit(1)
	case sig := <-shutdown:
		logger.Log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Graceful shutdown failed", zap.Error(err))
			if err := server.Close(); err != nil {
				logger.Log.Error("Failed to close server", zap.Error(err))
			}
		}

		// Shutdown does not touch hijacked websocket connections; canceling the
		// hub context closes them with a going-away frame.
		cancel()

		logger.Log.Info("Server stopped gracefully")
	}
}

// dbConfig maps the application database settings onto the pool config.
func dbConfig(cfg *config.DatabaseConfig) *db.Config {
	return &db.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Name,
		SSLMode:         cfg.SSLMode,
		MaxConns:        int32(cfg.MaxConnections),
		MinConns:        int32(cfg.MinConnections),
		MaxConnLifetime: cfg.MaxLifetime,
		MaxConnIdleTime: cfg.MaxIdleTime,
	}
}
