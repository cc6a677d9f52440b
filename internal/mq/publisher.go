package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/config"
	"github.com/vidshelf/youtube-list-ingestion-go/pkg/logger"
)

// Publisher publishes ingest work and progress events over a single
// confirm-mode channel.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  *config.RabbitMQConfig
	mu      sync.RWMutex
}

// NewPublisher connects to RabbitMQ and declares the topology.
func NewPublisher(cfg *config.RabbitMQConfig) (*Publisher, error) {
	p := &Publisher{
		config: cfg,
	}

	if err := p.connect(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Publisher) connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	connURL := fmt.Sprintf("amqp://%s:%s@%s:%d/",
		p.config.User, p.config.Password, p.config.Host, p.config.Port)

	conn, err := amqp.Dial(connURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	// Enable publisher confirms
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	if err := declareTopology(ch, p.config); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	p.conn = conn
	p.channel = ch

	logger.Log.Info("Connected to RabbitMQ",
		zap.String("queue", p.config.IngestQueue),
		zap.String("exchange", p.config.ProgressExchange),
	)

	return nil
}

// declareTopology declares the durable ingest queue and the progress topic
// exchange. Declarations are idempotent; publisher and consumers both call
// this so startup order does not matter.
func declareTopology(ch *amqp.Channel, cfg *config.RabbitMQConfig) error {
	if _, err := ch.QueueDeclare(
		cfg.IngestQueue, // name
		true,            // durable
		false,           // delete when unused
		false,           // exclusive
		false,           // no-wait
		amqp.Table{
			"x-message-ttl": cfg.MessageTTL.Milliseconds(),
			"x-max-length":  100000,
		},
	); err != nil {
		return fmt.Errorf("failed to declare ingest queue: %w", err)
	}

	if err := ch.ExchangeDeclare(
		cfg.ProgressExchange, // name
		"topic",              // type
		true,                 // durable
		false,                // auto-deleted
		false,                // internal
		false,                // no-wait
		nil,                  // arguments
	); err != nil {
		return fmt.Errorf("failed to declare progress exchange: %w", err)
	}

	return nil
}

// PublishIngest enqueues an accepted job for the enricher. The publish is
// persistent and waits for broker confirmation.
func (p *Publisher) PublishIngest(ctx context.Context, msg *IngestMessage) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.channel == nil {
		return fmt.Errorf("channel is not initialized")
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal ingest message: %w", err)
	}

	// Publish to the default exchange; routing key is the queue name.
	confirm, err := p.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		"",                   // exchange
		p.config.IngestQueue, // routing key
		true,                 // mandatory
		false,                // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			MessageId:    msg.JobID.String(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish ingest message: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	acked, err := confirm.WaitContext(waitCtx)
	if err != nil {
		return fmt.Errorf("timeout waiting for publish confirmation: %w", err)
	}
	if !acked {
		return fmt.Errorf("message was not acknowledged by broker")
	}

	logger.Log.Debug("Published ingest message",
		zap.String("jobId", msg.JobID.String()),
		zap.Int("videos", msg.Videos),
	)

	return nil
}

// PublishProgress fans a progress event out to the owning user's sockets.
// Events are transient and unconfirmed: history already persisted them, and a
// live event that outlives its moment has no value.
func (p *Publisher) PublishProgress(ctx context.Context, msg *ProgressMessage) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.channel == nil {
		return fmt.Errorf("channel is not initialized")
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal progress message: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.config.ProgressExchange,
		ProgressRoutingKey(msg.UserID),
		false, // mandatory: no binding means nobody is watching
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Transient,
			Timestamp:    msg.Timestamp,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish progress message: %w", err)
	}

	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing publisher: %v", errs)
	}

	logger.Log.Info("RabbitMQ publisher closed")
	return nil
}

func (p *Publisher) IsHealthy() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.conn != nil && !p.conn.IsClosed() && p.channel != nil
}
