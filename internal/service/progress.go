package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/db"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/repository"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/metrics"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/mq"
	"github.com/vidshelf/youtube-list-ingestion-go/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultHistoryLimit bounds how many events one replay query returns.
const DefaultHistoryLimit = 500

// ProgressPublisher is the live side of progress delivery.
type ProgressPublisher interface {
	PublishProgress(ctx context.Context, msg *mq.ProgressMessage) error
}

// ProgressService is the dual-write path for progress events: every event is
// appended to the durable per-video history ring first and only then pushed
// to the live transport. Live delivery is best effort; the ring is what
// reconnecting clients replay from.
type ProgressService struct {
	events repository.ProgressRepository
	jobs   repository.IngestionJobRepository
	pub    ProgressPublisher
	limit  int
}

// NewProgressService creates a new ProgressService.
func NewProgressService(events repository.ProgressRepository, jobs repository.IngestionJobRepository, pub ProgressPublisher) *ProgressService {
	return &ProgressService{events: events, jobs: jobs, pub: pub, limit: DefaultHistoryLimit}
}

// Record persists the event and then publishes it. The append must succeed
// before anything reaches the live transport, so history never misses an
// event that a client saw live. Publish failures are logged and dropped.
func (s *ProgressService) Record(ctx context.Context, event *models.ProgressEvent) error {
	if err := s.events.AppendEvent(ctx, event); err != nil {
		return fmt.Errorf("append progress event: %w", err)
	}
	metrics.ProgressEventsTotal.WithLabelValues(event.Stage).Inc()

	if s.pub == nil {
		return nil
	}

	msg := &mq.ProgressMessage{
		UserID:    event.UserID,
		JobID:     event.JobID,
		VideoID:   event.VideoID,
		Stage:     event.Stage,
		Progress:  event.Progress,
		Message:   event.Message,
		Timestamp: event.Timestamp,
	}
	if err := s.pub.PublishProgress(ctx, msg); err != nil {
		metrics.ProgressEventsDroppedTotal.WithLabelValues("publish_error").Inc()
		logger.Log.Warn("Progress publish failed, clients will catch up from history",
			zap.String("videoId", event.VideoID.String()),
			zap.String("stage", event.Stage),
			zap.Error(err))
	}
	return nil
}

// JobProgress returns the job and its events strictly newer than since,
// oldest first.
func (s *ProgressService) JobProgress(ctx context.Context, userID, jobID uuid.UUID, since time.Time, limit int) (*models.IngestionJob, []*models.ProgressEvent, error) {
	job, err := s.jobs.GetJobByID(ctx, jobID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil, NewNotFoundError("job")
		}
		return nil, nil, &ProcessingError{Message: "load job", Cause: err}
	}
	if job.UserID != userID {
		return nil, nil, NewNotFoundError("job")
	}

	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}

	events, err := s.events.GetEventsByJobSince(ctx, jobID, since, limit)
	if err != nil {
		return nil, nil, &ProcessingError{Message: "get job events", Cause: err}
	}
	return job, events, nil
}

// EventsSince returns the user's events strictly newer than since, oldest
// first, optionally narrowed to specific videos. WebSocket clients call this
// through the history frame after reconnecting.
func (s *ProgressService) EventsSince(ctx context.Context, userID uuid.UUID, since time.Time, videoIDs []uuid.UUID) ([]*models.ProgressEvent, error) {
	events, err := s.events.GetEventsByUserSince(ctx, userID, since, videoIDs, s.limit)
	if err != nil {
		return nil, &ProcessingError{Message: "get user events", Cause: err}
	}
	return events, nil
}
