package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/config"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/repository"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/mq"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/service"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/service/captions"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/service/stt"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/service/youtube"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/worker"
	"github.com/vidshelf/youtube-list-ingestion-go/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, dbConfig(&cfg.Database))
	if err != nil {
		logger.Log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	publisher, err := mq.NewPublisher(&cfg.RabbitMQ)
	if err != nil {
		logger.Log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer func() { _ = publisher.Close() }()

	consumer, err := mq.NewConsumer(&cfg.RabbitMQ)
	if err != nil {
		logger.Log.Fatal("Failed to create ingest consumer", zap.Error(err))
	}
	defer func() { _ = consumer.Close() }()

	youtubeClient, err := youtube.NewClient(ctx, cfg.YouTube.APIKey)
	if err != nil {
		logger.Log.Fatal("Failed to initialize YouTube client (set APP_YOUTUBE_APIKEY)", zap.Error(err))
	}
	metadata := youtube.NewBreakerClient(youtubeClient)

	captionSource := captions.NewClient(cfg.Captions)

	var transcriber worker.Transcriber
	if cfg.STT.Enabled && cfg.STT.BaseURL != "" {
		transcriber = stt.NewClient(stt.Config{
			BaseURL: cfg.STT.BaseURL,
			Model:   cfg.STT.Model,
			APIKey:  cfg.STT.APIKey,
			Timeout: cfg.STT.Timeout,
		})
		logger.Log.Info("Speech-to-text fallback enabled", zap.String("model", cfg.STT.Model))
	}

	language := ""
	if len(cfg.Captions.Languages) > 0 {
		language = cfg.Captions.Languages[0]
	}

	videoRepo := repository.NewVideoRepository(pool)
	enrichRepo := repository.NewEnrichmentRepository(pool)
	jobRepo := repository.NewIngestionJobRepository(pool)
	progressRepo := repository.NewProgressRepository(pool, cfg.Enrichment.HistoryRing)

	progress := service.NewProgressService(progressRepo, jobRepo, publisher)

	pipeline := worker.NewPipeline(jobRepo, videoRepo, enrichRepo, metadata, captionSource, transcriber, progress, cfg.Enrichment, language)
	workers := worker.NewPool(jobRepo, pipeline, cfg.Enrichment)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return workers.Run(ctx)
	})

	// The database is the queue; submissions on the MQ only wake the
	// supervisor early so freshly submitted videos don't wait out a poll tick.
	g.Go(func() error {
		return consumer.ConsumeIngest(ctx, func(_ context.Context, msg *mq.IngestMessage) error {
			logger.Log.Debug("Ingest submission received",
				zap.String("jobId", msg.JobID.String()),
				zap.Int("videos", msg.Videos))
			workers.Nudge()
			return nil
		})
	})

	logger.Log.Info("Enricher started")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Log.Error("Enricher stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Log.Info("Enricher stopped gracefully")
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
