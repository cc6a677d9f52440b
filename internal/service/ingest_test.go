package service

import (
	"context"
	"errors"
	"testing"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/db"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/mq"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newIngestService() (*IngestService, *mockListRepo, *mockVideoRepo, *mockEnrichmentRepo, *mockJobRepo, *mockIngestPublisher) {
	lists := new(mockListRepo)
	videos := new(mockVideoRepo)
	enrich := new(mockEnrichmentRepo)
	jobs := new(mockJobRepo)
	pub := new(mockIngestPublisher)
	return NewIngestService(lists, videos, enrich, jobs, pub), lists, videos, enrich, jobs, pub
}

func TestIngestService_SubmitBulk(t *testing.T) {
	t.Parallel()

	svc, lists, videos, enrich, jobs, pub := newIngestService()

	userID := uuid.New()
	listID := ownedList(lists, userID)

	videos.On("EnsureVideo", mock.Anything, mock.MatchedBy(func(v *models.Video) bool {
		return v.ListID == listID && v.YouTubeID == "dQw4w9WgXcQ"
	})).Return(true, nil).Once()
	videos.On("EnsureVideo", mock.Anything, mock.MatchedBy(func(v *models.Video) bool {
		return v.YouTubeID == "jNQXAC9IVRw"
	})).Return(true, nil).Once()
	enrich.On("EnsureEnrichment", mock.Anything, mock.Anything).Return(nil)

	jobs.On("CreateJobWithVideoJobs", mock.Anything, mock.MatchedBy(func(job *models.IngestionJob) bool {
		return job.Total == 2 && job.RejectedCount == 1 && job.Status == models.JobStatusPending
	}), mock.MatchedBy(func(videoJobs []*models.VideoJob) bool {
		return len(videoJobs) == 2 && videoJobs[0].Stage == models.StageCreated
	})).Return(nil)
	pub.On("PublishIngest", mock.Anything, mock.MatchedBy(func(msg *mq.IngestMessage) bool {
		return msg.ListID == listID && msg.UserID == userID && msg.Videos == 2
	})).Return(nil)

	result, err := svc.SubmitBulk(context.Background(), userID, listID, []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/jNQXAC9IVRw",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ", // dedup
		"not a url", // rejected
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Accepted)
	assert.Equal(t, 1, result.RejectedCount)

	jobs.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestIngestService_SubmitBulk_Empty(t *testing.T) {
	t.Parallel()

	svc, lists, _, _, jobs, _ := newIngestService()

	_, err := svc.SubmitBulk(context.Background(), uuid.New(), uuid.New(), nil)
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeValidation, se.Code)

	lists.AssertNotCalled(t, "GetListByID")
	jobs.AssertNotCalled(t, "CreateJobWithVideoJobs")
}

func TestIngestService_SubmitBulk_AllRejected(t *testing.T) {
	t.Parallel()

	svc, lists, videos, _, jobs, pub := newIngestService()

	userID := uuid.New()
	listID := ownedList(lists, userID)

	jobs.On("CreateJobWithVideoJobs", mock.Anything, mock.MatchedBy(func(job *models.IngestionJob) bool {
		return job.Total == 0 && job.RejectedCount == 2 && job.Status == models.JobStatusCompleted
	}), mock.Anything).Return(nil)

	result, err := svc.SubmitBulk(context.Background(), userID, listID, []string{"nope", "https://example.com/x"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Accepted)
	assert.Equal(t, 2, result.RejectedCount)

	// Nothing queued, so no nudge.
	pub.AssertNotCalled(t, "PublishIngest")
	videos.AssertNotCalled(t, "EnsureVideo")
}

func TestIngestService_SubmitBulk_DuplicateCompletedSkipped(t *testing.T) {
	t.Parallel()

	svc, lists, videos, enrich, jobs, pub := newIngestService()

	userID := uuid.New()
	listID := ownedList(lists, userID)

	videos.On("EnsureVideo", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		video := args.Get(1).(*models.Video)
		video.ProcessingStatus = models.ProcessingStatusCompleted
	}).Return(false, nil)
	enrich.On("EnsureEnrichment", mock.Anything, mock.Anything).Return(nil)

	jobs.On("CreateJobWithVideoJobs", mock.Anything, mock.MatchedBy(func(job *models.IngestionJob) bool {
		return job.Total == 0 && job.Status == models.JobStatusCompleted
	}), mock.Anything).Return(nil)

	result, err := svc.SubmitBulk(context.Background(), userID, listID, []string{"https://youtu.be/dQw4w9WgXcQ"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Accepted)

	videos.AssertNotCalled(t, "UpdateProcessingStatus")
	pub.AssertNotCalled(t, "PublishIngest")
}

func TestIngestService_SubmitBulk_FailedVideoRequeued(t *testing.T) {
	t.Parallel()

	svc, lists, videos, enrich, jobs, pub := newIngestService()

	userID := uuid.New()
	listID := ownedList(lists, userID)

	videos.On("EnsureVideo", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		video := args.Get(1).(*models.Video)
		video.ProcessingStatus = models.ProcessingStatusFailed
	}).Return(false, nil)
	enrich.On("EnsureEnrichment", mock.Anything, mock.Anything).Return(nil)
	videos.On("UpdateProcessingStatus", mock.Anything, mock.Anything, models.ProcessingStatusPending).Return(nil)

	jobs.On("CreateJobWithVideoJobs", mock.Anything, mock.MatchedBy(func(job *models.IngestionJob) bool {
		return job.Total == 1 && job.Status == models.JobStatusPending
	}), mock.MatchedBy(func(videoJobs []*models.VideoJob) bool {
		return len(videoJobs) == 1
	})).Return(nil)
	pub.On("PublishIngest", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.SubmitBulk(context.Background(), userID, listID, []string{"https://youtu.be/dQw4w9WgXcQ"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Accepted)

	videos.AssertExpectations(t)
	jobs.AssertExpectations(t)
}

func TestIngestService_SubmitBulk_PublishFailureTolerated(t *testing.T) {
	t.Parallel()

	svc, lists, videos, enrich, jobs, pub := newIngestService()

	userID := uuid.New()
	listID := ownedList(lists, userID)

	videos.On("EnsureVideo", mock.Anything, mock.Anything).Return(true, nil)
	enrich.On("EnsureEnrichment", mock.Anything, mock.Anything).Return(nil)
	jobs.On("CreateJobWithVideoJobs", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	pub.On("PublishIngest", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	// The nudge is best effort; the enricher polls the database anyway.
	result, err := svc.SubmitBulk(context.Background(), userID, listID, []string{"https://youtu.be/dQw4w9WgXcQ"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Accepted)
}

func TestIngestService_SubmitImport_Formats(t *testing.T) {
	t.Parallel()

	svc, lists, videos, enrich, jobs, pub := newIngestService()

	userID := uuid.New()
	listID := ownedList(lists, userID)

	videos.On("EnsureVideo", mock.Anything, mock.Anything).Return(true, nil)
	enrich.On("EnsureEnrichment", mock.Anything, mock.Anything).Return(nil)
	jobs.On("CreateJobWithVideoJobs", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	pub.On("PublishIngest", mock.Anything, mock.Anything).Return(nil)

	text := "https://youtu.be/dQw4w9WgXcQ\nhttps://youtu.be/jNQXAC9IVRw\n"
	result, err := svc.SubmitImport(context.Background(), userID, listID, ImportFormatText, []byte(text))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Accepted)

	csv := "title,url\nFirst,https://youtu.be/9bZkp7q19f0\n"
	result, err = svc.SubmitImport(context.Background(), userID, listID, ImportFormatCSV, []byte(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Accepted)

	webloc := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>URL</key>
	<string>https://www.youtube.com/watch?v=kJQP7kiw5Fk</string>
</dict>
</plist>`
	result, err = svc.SubmitImport(context.Background(), userID, listID, ImportFormatWebloc, []byte(webloc))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Accepted)
}

func TestIngestService_SubmitImport_UnknownFormat(t *testing.T) {
	t.Parallel()

	svc, lists, _, _, _, _ := newIngestService()

	_, err := svc.SubmitImport(context.Background(), uuid.New(), uuid.New(), "xml", []byte("data"))
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeValidation, se.Code)
	assert.Contains(t, se.Message, `"xml"`)

	lists.AssertNotCalled(t, "GetListByID")
}

func TestIngestService_RetryVideo(t *testing.T) {
	t.Parallel()

	svc, lists, videos, enrich, jobs, pub := newIngestService()

	userID := uuid.New()
	video := ownedVideo(videos, lists, userID)
	video.ProcessingStatus = models.ProcessingStatusFailed

	videoJob := &models.VideoJob{ID: uuid.New(), JobID: uuid.New(), VideoID: video.ID, Status: models.VideoJobStatusPending}

	jobs.On("ResetVideoJobForRetry", mock.Anything, video.ID).Return(videoJob, nil)
	videos.On("UpdateProcessingStatus", mock.Anything, video.ID, models.ProcessingStatusPending).Return(nil)
	enrich.On("SetStatus", mock.Anything, video.ID, models.EnrichmentStatusPending, (*string)(nil)).Return(nil)
	pub.On("PublishIngest", mock.Anything, mock.MatchedBy(func(msg *mq.IngestMessage) bool {
		return msg.JobID == videoJob.JobID && msg.Videos == 1
	})).Return(nil)

	got, err := svc.RetryVideo(context.Background(), userID, video.ID)
	require.NoError(t, err)
	assert.Equal(t, videoJob.ID, got.ID)

	jobs.AssertExpectations(t)
	enrich.AssertExpectations(t)
}

func TestIngestService_RetryVideo_AlreadyProcessing(t *testing.T) {
	t.Parallel()

	svc, lists, videos, _, jobs, _ := newIngestService()

	userID := uuid.New()
	video := ownedVideo(videos, lists, userID)
	video.ProcessingStatus = models.ProcessingStatusProcessing

	_, err := svc.RetryVideo(context.Background(), userID, video.ID)
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeValidation, se.Code)

	jobs.AssertNotCalled(t, "ResetVideoJobForRetry")
}

func TestIngestService_RetryVideo_NoJob(t *testing.T) {
	t.Parallel()

	svc, lists, videos, _, jobs, _ := newIngestService()

	userID := uuid.New()
	video := ownedVideo(videos, lists, userID)
	video.ProcessingStatus = models.ProcessingStatusFailed

	jobs.On("ResetVideoJobForRetry", mock.Anything, video.ID).Return(nil, db.ErrNotFound)

	_, err := svc.RetryVideo(context.Background(), userID, video.ID)
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, se.Code)
}
