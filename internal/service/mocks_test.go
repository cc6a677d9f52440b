package service

import (
	"context"
	"time"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/repository"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/mq"
	"github.com/vidshelf/youtube-list-ingestion-go/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func init() {
	_ = logger.Init("error", "")
}

type mockListRepo struct {
	mock.Mock
}

func (m *mockListRepo) CreateList(ctx context.Context, list *models.List) error {
	args := m.Called(ctx, list)
	return args.Error(0)
}

func (m *mockListRepo) GetListByID(ctx context.Context, id uuid.UUID) (*models.List, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.List), args.Error(1)
}

func (m *mockListRepo) GetListsByUser(ctx context.Context, userID uuid.UUID) ([]*models.List, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.List), args.Error(1)
}

func (m *mockListRepo) UpdateListName(ctx context.Context, id uuid.UUID, name string) error {
	args := m.Called(ctx, id, name)
	return args.Error(0)
}

func (m *mockListRepo) SetWorkspaceSchema(ctx context.Context, id uuid.UUID, schemaID *uuid.UUID) error {
	args := m.Called(ctx, id, schemaID)
	return args.Error(0)
}

func (m *mockListRepo) DeleteList(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockFieldRepo struct {
	mock.Mock
}

func (m *mockFieldRepo) CreateField(ctx context.Context, field *models.CustomField) error {
	args := m.Called(ctx, field)
	return args.Error(0)
}

func (m *mockFieldRepo) GetFieldByID(ctx context.Context, id uuid.UUID) (*models.CustomField, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CustomField), args.Error(1)
}

func (m *mockFieldRepo) GetFieldByName(ctx context.Context, listID uuid.UUID, name string) (*models.CustomField, error) {
	args := m.Called(ctx, listID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CustomField), args.Error(1)
}

func (m *mockFieldRepo) GetFieldsByList(ctx context.Context, listID uuid.UUID) ([]*models.CustomField, error) {
	args := m.Called(ctx, listID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CustomField), args.Error(1)
}

func (m *mockFieldRepo) GetFieldsByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.CustomField, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CustomField), args.Error(1)
}

func (m *mockFieldRepo) UpdateField(ctx context.Context, field *models.CustomField) error {
	args := m.Called(ctx, field)
	return args.Error(0)
}

func (m *mockFieldRepo) UpdateFieldWithValues(ctx context.Context, field *models.CustomField, adj repository.ValueAdjustment) error {
	args := m.Called(ctx, field, adj)
	return args.Error(0)
}

func (m *mockFieldRepo) DeleteField(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockFieldRepo) GetFieldReferences(ctx context.Context, id uuid.UUID) (*repository.FieldReferences, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.FieldReferences), args.Error(1)
}

func (m *mockFieldRepo) CountValuesAboveNumeric(ctx context.Context, fieldID uuid.UUID, max int) (int, error) {
	args := m.Called(ctx, fieldID, max)
	return args.Int(0), args.Error(1)
}

func (m *mockFieldRepo) CountValuesMatchingText(ctx context.Context, fieldID uuid.UUID, options []string) (int, error) {
	args := m.Called(ctx, fieldID, options)
	return args.Int(0), args.Error(1)
}

func (m *mockFieldRepo) CountValuesLongerThan(ctx context.Context, fieldID uuid.UUID, length int) (int, error) {
	args := m.Called(ctx, fieldID, length)
	return args.Int(0), args.Error(1)
}

type mockSchemaRepo struct {
	mock.Mock
}

func (m *mockSchemaRepo) CreateSchema(ctx context.Context, schema *models.FieldSchema) error {
	args := m.Called(ctx, schema)
	return args.Error(0)
}

func (m *mockSchemaRepo) GetSchemaByID(ctx context.Context, id uuid.UUID) (*models.FieldSchema, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FieldSchema), args.Error(1)
}

func (m *mockSchemaRepo) GetSchemasByList(ctx context.Context, listID uuid.UUID) ([]*models.FieldSchema, error) {
	args := m.Called(ctx, listID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.FieldSchema), args.Error(1)
}

func (m *mockSchemaRepo) UpdateSchemaName(ctx context.Context, id uuid.UUID, name string) error {
	args := m.Called(ctx, id, name)
	return args.Error(0)
}

func (m *mockSchemaRepo) DeleteSchema(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockSchemaRepo) ReplaceSchemaFields(ctx context.Context, schemaID uuid.UUID, fields []models.SchemaField) error {
	args := m.Called(ctx, schemaID, fields)
	return args.Error(0)
}

func (m *mockSchemaRepo) ReorderSchemaFields(ctx context.Context, schemaID uuid.UUID, orders []repository.FieldOrder) error {
	args := m.Called(ctx, schemaID, orders)
	return args.Error(0)
}

func (m *mockSchemaRepo) GetSchemaFields(ctx context.Context, schemaID uuid.UUID) ([]*models.SchemaFieldDetail, error) {
	args := m.Called(ctx, schemaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SchemaFieldDetail), args.Error(1)
}

func (m *mockSchemaRepo) GetSchemaFieldsForSchemas(ctx context.Context, schemaIDs []uuid.UUID) (map[uuid.UUID][]*models.SchemaFieldDetail, error) {
	args := m.Called(ctx, schemaIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID][]*models.SchemaFieldDetail), args.Error(1)
}

type mockValueRepo struct {
	mock.Mock
}

func (m *mockValueRepo) GetValuesByVideo(ctx context.Context, videoID uuid.UUID) ([]*models.FieldValueDetail, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.FieldValueDetail), args.Error(1)
}

func (m *mockValueRepo) GetValuesByVideos(ctx context.Context, videoIDs []uuid.UUID) (map[uuid.UUID][]*models.FieldValueDetail, error) {
	args := m.Called(ctx, videoIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID][]*models.FieldValueDetail), args.Error(1)
}

func (m *mockValueRepo) UpsertValuesBatch(ctx context.Context, videoID uuid.UUID, values []models.VideoFieldValue) error {
	args := m.Called(ctx, videoID, values)
	return args.Error(0)
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

type mockTagRepo struct {
	mock.Mock
}

func (m *mockTagRepo) CreateTag(ctx context.Context, tag *models.Tag) error {
	args := m.Called(ctx, tag)
	return args.Error(0)
}

func (m *mockTagRepo) GetTagByID(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tag), args.Error(1)
}

func (m *mockTagRepo) GetTagsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Tag, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tag), args.Error(1)
}

func (m *mockTagRepo) UpdateTag(ctx context.Context, tag *models.Tag) error {
	args := m.Called(ctx, tag)
	return args.Error(0)
}

func (m *mockTagRepo) DeleteTag(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockTagRepo) AttachTag(ctx context.Context, videoID uuid.UUID, tag *models.Tag) error {
	args := m.Called(ctx, videoID, tag)
	return args.Error(0)
}

func (m *mockTagRepo) DetachTag(ctx context.Context, videoID, tagID uuid.UUID) error {
	args := m.Called(ctx, videoID, tagID)
	return args.Error(0)
}

func (m *mockTagRepo) GetTagsByVideo(ctx context.Context, videoID uuid.UUID) ([]*models.Tag, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tag), args.Error(1)
}

func (m *mockTagRepo) GetCategoryTag(ctx context.Context, videoID uuid.UUID) (*models.Tag, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tag), args.Error(1)
}

func (m *mockTagRepo) SwitchCategory(ctx context.Context, videoID uuid.UUID, from, to *models.Tag, workspaceSchemaID *uuid.UUID) error {
	args := m.Called(ctx, videoID, from, to, workspaceSchemaID)
	return args.Error(0)
}

type mockBackupRepo struct {
	mock.Mock
}

func (m *mockBackupRepo) GetBackup(ctx context.Context, videoID, categoryTagID uuid.UUID) (*models.FieldValueBackup, error) {
	args := m.Called(ctx, videoID, categoryTagID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FieldValueBackup), args.Error(1)
}

func (m *mockBackupRepo) GetBackupsByVideo(ctx context.Context, videoID uuid.UUID) ([]*models.FieldValueBackup, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.FieldValueBackup), args.Error(1)
}

func (m *mockBackupRepo) RestoreBackup(ctx context.Context, videoID, categoryTagID uuid.UUID) (*models.FieldValueBackup, error) {
	args := m.Called(ctx, videoID, categoryTagID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FieldValueBackup), args.Error(1)
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

type mockProgressRepo struct {
	mock.Mock
}

func (m *mockProgressRepo) AppendEvent(ctx context.Context, event *models.ProgressEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockProgressRepo) GetEventsByJobSince(ctx context.Context, jobID uuid.UUID, since time.Time, limit int) ([]*models.ProgressEvent, error) {
	args := m.Called(ctx, jobID, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ProgressEvent), args.Error(1)
}

func (m *mockProgressRepo) GetEventsByUserSince(ctx context.Context, userID uuid.UUID, since time.Time, videoIDs []uuid.UUID, limit int) ([]*models.ProgressEvent, error) {
	args := m.Called(ctx, userID, since, videoIDs, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ProgressEvent), args.Error(1)
}

type mockIngestPublisher struct {
	mock.Mock
}

func (m *mockIngestPublisher) PublishIngest(ctx context.Context, msg *mq.IngestMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type mockProgressPublisher struct {
	mock.Mock
}

func (m *mockProgressPublisher) PublishProgress(ctx context.Context, msg *mq.ProgressMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
