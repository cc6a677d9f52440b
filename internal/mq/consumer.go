package mq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/config"
	"github.com/vidshelf/youtube-list-ingestion-go/pkg/logger"
)

// Consumer consumes ingest work (manual ack) or a progress stream (auto ack)
// on its own connection, so a blocked consumer cannot stall publishes.
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  *config.RabbitMQConfig
}

// NewConsumer connects to RabbitMQ, declares the topology, and applies the
// configured prefetch.
func NewConsumer(cfg *config.RabbitMQConfig) (*Consumer, error) {
	connURL := fmt.Sprintf("amqp://%s:%s@%s:%d/",
		cfg.User, cfg.Password, cfg.Host, cfg.Port)

	conn, err := amqp.Dial(connURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(ch, cfg); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set prefetch: %w", err)
	}

	return &Consumer{conn: conn, channel: ch, config: cfg}, nil
}

// ConsumeIngest delivers ingest messages to handle until ctx is canceled or
// the channel closes. A handler error nacks the delivery back onto the queue;
// undecodable payloads are dropped.
func (c *Consumer) ConsumeIngest(ctx context.Context, handle func(context.Context, *IngestMessage) error) error {
	deliveries, err := c.channel.Consume(
		c.config.IngestQueue, // queue
		"",                   // consumer tag
		false,                // auto-ack
		false,                // exclusive
		false,                // no-local
		false,                // no-wait
		nil,                  // args
	)
	if err != nil {
		return fmt.Errorf("failed to consume ingest queue: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("ingest channel closed")
			}

			var msg IngestMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				logger.Log.Warn("Dropping undecodable ingest message",
					zap.Error(err),
					zap.String("messageId", d.MessageId),
				)
				_ = d.Nack(false, false)
				continue
			}

			if err := handle(ctx, &msg); err != nil {
				logger.Log.Error("Ingest handler failed, requeueing",
					zap.Error(err),
					zap.String("jobId", msg.JobID.String()),
				)
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// ConsumeProgress binds a private auto-delete queue to the progress exchange
// and streams every user's events to handle. Auto-ack: a missed live event is
// recovered from history, not redelivery.
func (c *Consumer) ConsumeProgress(ctx context.Context, handle func(*ProgressMessage)) error {
	q, err := c.channel.QueueDeclare(
		"",    // broker-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare progress queue: %w", err)
	}

	if err := c.channel.QueueBind(q.Name, progressBindingKey, c.config.ProgressExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind progress queue: %w", err)
	}

	deliveries, err := c.channel.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume progress queue: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("progress channel closed")
			}

			var msg ProgressMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				logger.Log.Warn("Dropping undecodable progress message", zap.Error(err))
				continue
			}
			handle(&msg)
		}
	}
}

func (c *Consumer) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing consumer: %v", errs)
	}
	return nil
}

func (c *Consumer) IsHealthy() bool {
	return c.conn != nil && !c.conn.IsClosed() && c.channel != nil
}
