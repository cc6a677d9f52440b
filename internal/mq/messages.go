// Package mq owns the RabbitMQ topology: the durable ingest work queue that
// wakes the enricher, and the user.progress topic exchange that fans per-video
// progress events out to API instances for WebSocket delivery.
package mq

import (
	"time"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"

	"github.com/google/uuid"
)

// IngestMessage announces an accepted ingestion job. The database is the
// source of truth for claimable work; this message only prompts the enricher
// to claim without waiting for its next poll.
type IngestMessage struct {
	JobID  uuid.UUID `json:"job_id"`
	ListID uuid.UUID `json:"list_id"`
	UserID uuid.UUID `json:"user_id"`
	Videos int       `json:"videos"`
}

// ProgressMessage is one per-video progress event routed to the owning user.
// History is persisted separately; delivery here is best effort.
type ProgressMessage struct {
	UserID    uuid.UUID `json:"user_id"`
	JobID     uuid.UUID `json:"job_id"`
	VideoID   uuid.UUID `json:"video_id"`
	Stage     string    `json:"stage"`
	Progress  int       `json:"progress"`
	Message   *string   `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Terminal reports whether this message ends processing for its video.
// Terminal messages are never dropped by slow-consumer backpressure.
func (m *ProgressMessage) Terminal() bool {
	return m.Stage == models.StageComplete || m.Stage == models.StageError
}

// ProgressRoutingKey returns the routing key progress events for a user are
// published under.
func ProgressRoutingKey(userID uuid.UUID) string {
	return "progress." + userID.String()
}

// progressBindingKey matches every user's progress stream. Each API instance
// binds its own queue with it and filters by connected users locally.
const progressBindingKey = "progress.*"
