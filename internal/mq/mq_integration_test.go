//go:build integration
// +build integration

package mq

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/config"
	"github.com/vidshelf/youtube-list-ingestion-go/pkg/logger"
)

var (
	loggerInitOnce sync.Once
	loggerInitErr  error
)

func initTestLogger() error {
	loggerInitOnce.Do(func() {
		loggerInitErr = logger.Init("debug", "")
	})
	return loggerInitErr
}

func setupTestRabbitMQ(t *testing.T) (*config.RabbitMQConfig, func()) {
	if err := initTestLogger(); err != nil {
		t.Fatalf("Failed to initialize test logger: %v", err)
	}

	ctx := context.Background()

	rabbitmqContainer, err := rabbitmq.Run(ctx,
		"rabbitmq:3.13-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start rabbitmq container: %v", err)
	}

	host, err := rabbitmqContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get host: %v", err)
	}

	port, err := rabbitmqContainer.MappedPort(ctx, "5672/tcp")
	if err != nil {
		t.Fatalf("Failed to get port: %v", err)
	}

	cfg := &config.RabbitMQConfig{
		Host:             host,
		Port:             port.Int(),
		User:             "guest",
		Password:         "guest",
		IngestQueue:      "test.ingest",
		ProgressExchange: "test.progress",
		Prefetch:         4,
		MessageTTL:       time.Hour,
	}

	cleanup := func() {
		if err := rabbitmqContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return cfg, cleanup
}

func TestPublisher_PublishIngest_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	cfg, cleanup := setupTestRabbitMQ(t)
	defer cleanup()

	pub, err := NewPublisher(cfg)
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	defer pub.Close()

	cons, err := NewConsumer(cfg)
	if err != nil {
		t.Fatalf("NewConsumer() error = %v", err)
	}
	defer cons.Close()

	sent := &IngestMessage{
		JobID:  uuid.New(),
		ListID: uuid.New(),
		UserID: uuid.New(),
		Videos: 3,
	}
	if err := pub.PublishIngest(context.Background(), sent); err != nil {
		t.Fatalf("PublishIngest() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *IngestMessage, 1)
	go func() {
		_ = cons.ConsumeIngest(ctx, func(_ context.Context, msg *IngestMessage) error {
			received <- msg
			return nil
		})
	}()

	select {
	case got := <-received:
		if got.JobID != sent.JobID {
			t.Errorf("JobID = %s, want %s", got.JobID, sent.JobID)
		}
		if got.Videos != sent.Videos {
			t.Errorf("Videos = %d, want %d", got.Videos, sent.Videos)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for ingest message")
	}
}

func TestPublisher_PublishProgress_FanOut(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	cfg, cleanup := setupTestRabbitMQ(t)
	defer cleanup()

	pub, err := NewPublisher(cfg)
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	defer pub.Close()

	cons, err := NewConsumer(cfg)
	if err != nil {
		t.Fatalf("NewConsumer() error = %v", err)
	}
	defer cons.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *ProgressMessage, 1)
	go func() {
		_ = cons.ConsumeProgress(ctx, func(msg *ProgressMessage) {
			received <- msg
		})
	}()

	// The private queue is bound asynchronously; give it a moment.
	time.Sleep(2 * time.Second)

	sent := &ProgressMessage{
		UserID:    uuid.New(),
		JobID:     uuid.New(),
		VideoID:   uuid.New(),
		Stage:     "metadata",
		Progress:  40,
		Timestamp: time.Now().UTC(),
	}
	if err := pub.PublishProgress(context.Background(), sent); err != nil {
		t.Fatalf("PublishProgress() error = %v", err)
	}

	select {
	case got := <-received:
		if got.UserID != sent.UserID {
			t.Errorf("UserID = %s, want %s", got.UserID, sent.UserID)
		}
		if got.Stage != sent.Stage {
			t.Errorf("Stage = %s, want %s", got.Stage, sent.Stage)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for progress message")
	}
}

func TestPublisher_IsHealthy(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	cfg, cleanup := setupTestRabbitMQ(t)
	defer cleanup()

	pub, err := NewPublisher(cfg)
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	defer pub.Close()

	if !pub.IsHealthy() {
		t.Error("IsHealthy() = false, want true")
	}

	pub.Close()
	if pub.IsHealthy() {
		t.Error("IsHealthy() after Close() = true, want false")
	}
}
