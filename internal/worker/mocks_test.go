package worker

import (
	"context"
	"sync"
	"time"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/service/captions"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/service/youtube"
	"github.com/vidshelf/youtube-list-ingestion-go/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func init() {
	_ = logger.Init("error", "")
}

type mockJobRepo struct {
	mock.Mock
}

func (m *mockJobRepo) CreateJobWithVideoJobs(ctx context.Context, job *models.IngestionJob, videoJobs []*models.VideoJob) error {
	args := m.Called(ctx, job, videoJobs)
	return args.Error(0)
}

func (m *mockJobRepo) GetJobByID(ctx context.Context, id uuid.UUID) (*models.IngestionJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.IngestionJob), args.Error(1)
}

func (m *mockJobRepo) GetVideoJobByID(ctx context.Context, id uuid.UUID) (*models.VideoJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VideoJob), args.Error(1)
}

func (m *mockJobRepo) GetVideoJobByVideoID(ctx context.Context, videoID uuid.UUID) (*models.VideoJob, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VideoJob), args.Error(1)
}

func (m *mockJobRepo) ClaimPendingVideoJobs(ctx context.Context, limit int) ([]*models.VideoJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.VideoJob), args.Error(1)
}

func (m *mockJobRepo) UpdateVideoJobStage(ctx context.Context, id uuid.UUID, stage string) error {
	args := m.Called(ctx, id, stage)
	return args.Error(0)
}

func (m *mockJobRepo) RecordVideoJobAttempt(ctx context.Context, id uuid.UUID, lastError string) error {
	args := m.Called(ctx, id, lastError)
	return args.Error(0)
}

func (m *mockJobRepo) FinishVideoJob(ctx context.Context, id uuid.UUID, status, stage string, lastError *string) error {
	args := m.Called(ctx, id, status, stage, lastError)
	return args.Error(0)
}

func (m *mockJobRepo) GetVideoJobStatus(ctx context.Context, id uuid.UUID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *mockJobRepo) CancelVideoJobsForVideo(ctx context.Context, videoID uuid.UUID) error {
	args := m.Called(ctx, videoID)
	return args.Error(0)
}

func (m *mockJobRepo) CancelVideoJobsForList(ctx context.Context, listID uuid.UUID) error {
	args := m.Called(ctx, listID)
	return args.Error(0)
}

func (m *mockJobRepo) IncrementJobProgress(ctx context.Context, jobID uuid.UUID, completedDelta, failedDelta int) (*models.IngestionJob, error) {
	args := m.Called(ctx, jobID, completedDelta, failedDelta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.IngestionJob), args.Error(1)
}

func (m *mockJobRepo) ResetVideoJobForRetry(ctx context.Context, videoID uuid.UUID) (*models.VideoJob, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VideoJob), args.Error(1)
}

func (m *mockJobRepo) ReclaimStalledVideoJobs(ctx context.Context, olderThan time.Duration) (int, error) {
	args := m.Called(ctx, olderThan)
	return args.Int(0), args.Error(1)
}

type mockVideoRepo struct {
	mock.Mock
}

func (m *mockVideoRepo) EnsureVideo(ctx context.Context, video *models.Video) (bool, error) {
	args := m.Called(ctx, video)
	return args.Bool(0), args.Error(1)
}

func (m *mockVideoRepo) GetVideoByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Video), args.Error(1)
}

func (m *mockVideoRepo) GetVideosByList(ctx context.Context, listID uuid.UUID, limit, offset int) ([]*models.Video, error) {
	args := m.Called(ctx, listID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Video), args.Error(1)
}

func (m *mockVideoRepo) CountVideosByList(ctx context.Context, listID uuid.UUID) (int, error) {
	args := m.Called(ctx, listID)
	return args.Int(0), args.Error(1)
}

func (m *mockVideoRepo) UpdateVideoMetadata(ctx context.Context, video *models.Video) error {
	args := m.Called(ctx, video)
	return args.Error(0)
}

func (m *mockVideoRepo) UpdateProcessingStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockVideoRepo) UpdateWatchPosition(ctx context.Context, id uuid.UUID, seconds int) error {
	args := m.Called(ctx, id, seconds)
	return args.Error(0)
}

func (m *mockVideoRepo) DeleteVideo(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockEnrichmentRepo struct {
	mock.Mock
}

func (m *mockEnrichmentRepo) EnsureEnrichment(ctx context.Context, videoID uuid.UUID) error {
	args := m.Called(ctx, videoID)
	return args.Error(0)
}

func (m *mockEnrichmentRepo) GetEnrichmentByVideoID(ctx context.Context, videoID uuid.UUID) (*models.Enrichment, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Enrichment), args.Error(1)
}

func (m *mockEnrichmentRepo) SetCaptions(ctx context.Context, videoID uuid.UUID, vtt, transcript *string, source string) error {
	args := m.Called(ctx, videoID, vtt, transcript, source)
	return args.Error(0)
}

func (m *mockEnrichmentRepo) SetChapters(ctx context.Context, videoID uuid.UUID, chapters []models.Chapter, source string) error {
	args := m.Called(ctx, videoID, chapters, source)
	return args.Error(0)
}

func (m *mockEnrichmentRepo) SetDescription(ctx context.Context, videoID uuid.UUID, description *string) error {
	args := m.Called(ctx, videoID, description)
	return args.Error(0)
}

func (m *mockEnrichmentRepo) SetProgressMessage(ctx context.Context, videoID uuid.UUID, message *string) error {
	args := m.Called(ctx, videoID, message)
	return args.Error(0)
}

func (m *mockEnrichmentRepo) SetStatus(ctx context.Context, videoID uuid.UUID, status string, errorMessage *string) error {
	args := m.Called(ctx, videoID, status, errorMessage)
	return args.Error(0)
}

func (m *mockEnrichmentRepo) IncrementRetryCount(ctx context.Context, videoID uuid.UUID) error {
	args := m.Called(ctx, videoID)
	return args.Error(0)
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchVideo(ctx context.Context, videoID string) (*youtube.Metadata, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*youtube.Metadata), args.Error(1)
}

type mockCaptionSource struct {
	mock.Mock
}

func (m *mockCaptionSource) Probe(ctx context.Context, youtubeID string) (*captions.Probe, error) {
	args := m.Called(ctx, youtubeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*captions.Probe), args.Error(1)
}

func (m *mockCaptionSource) FetchTrack(ctx context.Context, url string) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}

type mockTranscriber struct {
	mock.Mock
}

func (m *mockTranscriber) TranscribeURL(ctx context.Context, audioURL, language string) (string, error) {
	args := m.Called(ctx, audioURL, language)
	return args.String(0), args.Error(1)
}

// sinkRecorder collects emitted events in order so tests can assert on the
// progress stream a client would see.
type sinkRecorder struct {
	mu     sync.Mutex
	events []*models.ProgressEvent
}

func (s *sinkRecorder) Record(_ context.Context, event *models.ProgressEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *sinkRecorder) stages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	stages := make([]string, len(s.events))
	for i, e := range s.events {
		stages[i] = e.Stage
	}
	return stages
}

func (s *sinkRecorder) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var msgs []string
	for _, e := range s.events {
		if e.Message != nil {
			msgs = append(msgs, *e.Message)
		}
	}
	return msgs
}

func (s *sinkRecorder) last() *models.ProgressEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return nil
	}
	return s.events[len(s.events)-1]
}
