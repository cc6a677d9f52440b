package service

import (
	"context"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/canonical"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/repository"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/metrics"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/mq"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/parser"
	"github.com/vidshelf/youtube-list-ingestion-go/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Import formats accepted by SubmitImport.
const (
	ImportFormatText   = "text"
	ImportFormatCSV    = "csv"
	ImportFormatWebloc = "webloc"
)

// IngestPublisher prompts the enricher to claim newly queued work.
type IngestPublisher interface {
	PublishIngest(ctx context.Context, msg *mq.IngestMessage) error
}

// IngestService accepts bulk video submissions: canonicalize, dedupe, upsert
// videos, create the ingestion job with its per-video sub-jobs, and nudge
// the enricher over MQ. The database is the source of truth for queued work,
// so a lost nudge only delays pickup until the enricher's next poll.
type IngestService struct {
	lists  repository.ListRepository
	videos repository.VideoRepository
	enrich repository.EnrichmentRepository
	jobs   repository.IngestionJobRepository
	pub    IngestPublisher
}

// NewIngestService creates a new IngestService.
func NewIngestService(lists repository.ListRepository, videos repository.VideoRepository, enrich repository.EnrichmentRepository, jobs repository.IngestionJobRepository, pub IngestPublisher) *IngestService {
	return &IngestService{lists: lists, videos: videos, enrich: enrich, jobs: jobs, pub: pub}
}

// BulkResult summarizes an accepted submission. Rejected entries never fail
// the request; they are only counted.
type BulkResult struct {
	JobID         uuid.UUID `json:"job_id"`
	Accepted      int       `json:"accepted"`
	RejectedCount int       `json:"rejected_count"`
}

// SubmitBulk ingests a list of URL strings.
func (s *IngestService) SubmitBulk(ctx context.Context, userID, listID uuid.UUID, urls []string) (*BulkResult, error) {
	if len(urls) == 0 {
		metrics.IngestRequestsTotal.WithLabelValues("invalid").Inc()
		return nil, NewValidationError("urls must not be empty")
	}
	return s.submit(ctx, userID, listID, parser.ParseStrings(urls))
}

// SubmitImport ingests a raw uploaded document: pasted text, a CSV export
// with a url column, or a .webloc file.
func (s *IngestService) SubmitImport(ctx context.Context, userID, listID uuid.UUID, format string, data []byte) (*BulkResult, error) {
	if len(data) == 0 {
		metrics.IngestRequestsTotal.WithLabelValues("invalid").Inc()
		return nil, NewValidationError("import body must not be empty")
	}

	var parsed parser.Result
	switch format {
	case ImportFormatText:
		parsed = parser.ParseText(string(data))
	case ImportFormatCSV:
		parsed = parser.ParseCSV(data)
	case ImportFormatWebloc:
		parsed = parser.ParseWebloc(data)
	default:
		metrics.IngestRequestsTotal.WithLabelValues("invalid").Inc()
		return nil, NewValidationError("unknown import format %q", format)
	}

	return s.submit(ctx, userID, listID, parsed)
}

func (s *IngestService) submit(ctx context.Context, userID, listID uuid.UUID, parsed parser.Result) (*BulkResult, error) {
	if _, err := requireOwnedList(ctx, s.lists, userID, listID); err != nil {
		metrics.IngestRequestsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	job := models.NewIngestionJob(listID, userID, 0, parsed.Rejected)
	var videoJobs []*models.VideoJob

	for _, entry := range parsed.Entries {
		video := models.NewVideo(listID, entry.ID, canonical.CanonicalURL(entry.ID))
		created, err := s.videos.EnsureVideo(ctx, video)
		if err != nil {
			metrics.IngestRequestsTotal.WithLabelValues("error").Inc()
			return nil, &ProcessingError{Message: "ensure video", Cause: err}
		}
		if err := s.enrich.EnsureEnrichment(ctx, video.ID); err != nil {
			metrics.IngestRequestsTotal.WithLabelValues("error").Inc()
			return nil, &ProcessingError{Message: "ensure enrichment", Cause: err}
		}

		if created {
			metrics.IngestEntriesTotal.WithLabelValues("new").Inc()
			videoJobs = append(videoJobs, models.NewVideoJob(job.ID, video.ID))
			continue
		}

		metrics.IngestEntriesTotal.WithLabelValues("duplicate").Inc()

		// Completed videos are done; pending or processing ones already have
		// an open sub-job. Only failed videos are re-queued.
		if video.ProcessingStatus != models.ProcessingStatusFailed {
			continue
		}
		if err := s.videos.UpdateProcessingStatus(ctx, video.ID, models.ProcessingStatusPending); err != nil {
			metrics.IngestRequestsTotal.WithLabelValues("error").Inc()
			return nil, &ProcessingError{Message: "reset video status", Cause: err}
		}
		videoJobs = append(videoJobs, models.NewVideoJob(job.ID, video.ID))
	}
	metrics.IngestEntriesTotal.WithLabelValues("rejected").Add(float64(parsed.Rejected))

	job.Total = len(videoJobs)
	if job.Total == 0 {
		// Nothing left to process: every entry was rejected or already done.
		job.Status = models.JobStatusCompleted
	}

	if err := s.jobs.CreateJobWithVideoJobs(ctx, job, videoJobs); err != nil {
		metrics.IngestRequestsTotal.WithLabelValues("error").Inc()
		return nil, &ProcessingError{Message: "create ingestion job", Cause: err}
	}
	metrics.IngestRequestsTotal.WithLabelValues("accepted").Inc()

	if job.Total > 0 && s.pub != nil {
		msg := &mq.IngestMessage{JobID: job.ID, ListID: listID, UserID: userID, Videos: job.Total}
		if err := s.pub.PublishIngest(ctx, msg); err != nil {
			logger.Log.Warn("Ingest nudge failed, enricher will pick the job up on its next poll",
				zap.String("jobId", job.ID.String()),
				zap.Error(err))
		}
	}

	logger.Log.Info("Ingestion job accepted",
		zap.String("jobId", job.ID.String()),
		zap.String("listId", listID.String()),
		zap.Int("accepted", len(parsed.Entries)),
		zap.Int("queued", job.Total),
		zap.Int("rejected", parsed.Rejected))

	return &BulkResult{
		JobID:         job.ID,
		Accepted:      len(parsed.Entries),
		RejectedCount: parsed.Rejected,
	}, nil
}

// RetryVideo re-queues a failed or canceled video from its earliest failed
// stage. Stages whose artifacts already exist are skipped by the pipeline.
func (s *IngestService) RetryVideo(ctx context.Context, userID, videoID uuid.UUID) (*models.VideoJob, error) {
	video, _, err := requireOwnedVideo(ctx, s.videos, s.lists, userID, videoID)
	if err != nil {
		return nil, err
	}

	if video.ProcessingStatus == models.ProcessingStatusProcessing {
		return nil, NewValidationError("video is already being processed")
	}

	videoJob, err := s.jobs.ResetVideoJobForRetry(ctx, videoID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, NewNotFoundError("video job")
		}
		return nil, &ProcessingError{Message: "reset video job", Cause: err}
	}

	if err := s.videos.UpdateProcessingStatus(ctx, videoID, models.ProcessingStatusPending); err != nil {
		return nil, &ProcessingError{Message: "reset video status", Cause: err}
	}
	if err := s.enrich.SetStatus(ctx, videoID, models.EnrichmentStatusPending, nil); err != nil {
		return nil, &ProcessingError{Message: "reset enrichment status", Cause: err}
	}

	if s.pub != nil {
		msg := &mq.IngestMessage{JobID: videoJob.JobID, ListID: video.ListID, UserID: userID, Videos: 1}
		if err := s.pub.PublishIngest(ctx, msg); err != nil {
			logger.Log.Warn("Retry nudge failed, enricher will pick the job up on its next poll",
				zap.String("videoId", videoID.String()),
				zap.Error(err))
		}
	}

	logger.Log.Info("Video retry queued",
		zap.String("videoId", videoID.String()),
		zap.String("videoJobId", videoJob.ID.String()))

	return videoJob, nil
}
