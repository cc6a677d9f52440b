package service

import (
	"context"
	"testing"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/db"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newVideoService() (*VideoService, *mockListRepo, *mockVideoRepo, *mockEnrichmentRepo, *mockValueRepo, *mockTagRepo, *mockSchemaRepo, *mockJobRepo) {
	lists := new(mockListRepo)
	videos := new(mockVideoRepo)
	enrich := new(mockEnrichmentRepo)
	values := new(mockValueRepo)
	tags := new(mockTagRepo)
	schemas := new(mockSchemaRepo)
	jobs := new(mockJobRepo)
	svc := NewVideoService(lists, videos, enrich, values, tags, schemas, jobs)
	return svc, lists, videos, enrich, values, tags, schemas, jobs
}

func TestVideoService_ListVideos(t *testing.T) {
	t.Parallel()

	svc, lists, videos, _, values, _, _, _ := newVideoService()

	userID := uuid.New()
	listID := ownedList(lists, userID)

	v1 := &models.Video{ID: uuid.New(), ListID: listID}
	v2 := &models.Video{ID: uuid.New(), ListID: listID}

	videos.On("GetVideosByList", mock.Anything, listID, DefaultPageSize, 0).
		Return([]*models.Video{v1, v2}, nil)
	videos.On("CountVideosByList", mock.Anything, listID).Return(12, nil)
	values.On("GetValuesByVideos", mock.Anything, []uuid.UUID{v1.ID, v2.ID}).
		Return(map[uuid.UUID][]*models.FieldValueDetail{v1.ID: {{}}}, nil)

	page, err := svc.ListVideos(context.Background(), userID, listID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, DefaultPageSize, page.Limit)
	require.Len(t, page.Videos, 2)
	assert.Len(t, page.Videos[0].FieldValues, 1)
	assert.Empty(t, page.Videos[1].FieldValues)
}

func TestVideoService_ListVideos_ClampsPagination(t *testing.T) {
	t.Parallel()

	svc, lists, videos, _, values, _, _, _ := newVideoService()

	userID := uuid.New()
	listID := ownedList(lists, userID)

	videos.On("GetVideosByList", mock.Anything, listID, MaxPageSize, 0).
		Return([]*models.Video{}, nil)
	videos.On("CountVideosByList", mock.Anything, listID).Return(0, nil)
	values.On("GetValuesByVideos", mock.Anything, mock.Anything).
		Return(map[uuid.UUID][]*models.FieldValueDetail{}, nil)

	page, err := svc.ListVideos(context.Background(), userID, listID, 500, -3)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.Limit)
	assert.Equal(t, 0, page.Offset)

	videos.AssertExpectations(t)
}

func TestVideoService_GetVideo(t *testing.T) {
	t.Parallel()

	svc, lists, videos, enrich, values, tags, schemas, _ := newVideoService()

	userID := uuid.New()
	video := ownedVideo(videos, lists, userID)

	enrichment := &models.Enrichment{VideoID: video.ID, Status: models.EnrichmentStatusCompleted}
	enrich.On("GetEnrichmentByVideoID", mock.Anything, video.ID).Return(enrichment, nil)
	tags.On("GetTagsByVideo", mock.Anything, video.ID).Return([]*models.Tag{}, nil)
	values.On("GetValuesByVideo", mock.Anything, video.ID).
		Return([]*models.FieldValueDetail{}, nil)
	schemas.On("GetSchemasByList", mock.Anything, video.ListID).
		Return([]*models.FieldSchema{}, nil)

	detail, err := svc.GetVideo(context.Background(), userID, video.ID)
	require.NoError(t, err)
	assert.Same(t, enrichment, detail.Enrichment)
	assert.Empty(t, detail.AvailableFields)
}

func TestVideoService_GetVideo_NoEnrichmentYet(t *testing.T) {
	t.Parallel()

	svc, lists, videos, enrich, values, tags, schemas, _ := newVideoService()

	userID := uuid.New()
	video := ownedVideo(videos, lists, userID)

	enrich.On("GetEnrichmentByVideoID", mock.Anything, video.ID).Return(nil, db.ErrNotFound)
	tags.On("GetTagsByVideo", mock.Anything, video.ID).Return([]*models.Tag{}, nil)
	values.On("GetValuesByVideo", mock.Anything, video.ID).
		Return([]*models.FieldValueDetail{}, nil)
	schemas.On("GetSchemasByList", mock.Anything, video.ListID).
		Return([]*models.FieldSchema{}, nil)

	detail, err := svc.GetVideo(context.Background(), userID, video.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.Enrichment)
}

func TestVideoService_GetVideo_AvailableFieldsOrder(t *testing.T) {
	t.Parallel()

	svc, lists, videos, enrich, values, tags, schemas, _ := newVideoService()

	userID := uuid.New()
	listID := uuid.New()
	workspaceSchema := &models.FieldSchema{ID: uuid.New(), ListID: listID, Name: "Workspace"}
	tagSchema := &models.FieldSchema{ID: uuid.New(), ListID: listID, Name: "Tutorials"}
	video := &models.Video{ID: uuid.New(), ListID: listID}

	videos.On("GetVideoByID", mock.Anything, video.ID).Return(video, nil)
	lists.On("GetListByID", mock.Anything, listID).
		Return(&models.List{ID: listID, UserID: userID, WorkspaceSchemaID: &workspaceSchema.ID}, nil)

	category := &models.Tag{ID: uuid.New(), UserID: userID, Name: "Tutorial", IsVideoType: true, SchemaID: &tagSchema.ID}
	plain := &models.Tag{ID: uuid.New(), UserID: userID, Name: "Cooking"}

	enrich.On("GetEnrichmentByVideoID", mock.Anything, video.ID).Return(nil, db.ErrNotFound)
	tags.On("GetTagsByVideo", mock.Anything, video.ID).Return([]*models.Tag{category, plain}, nil)
	values.On("GetValuesByVideo", mock.Anything, video.ID).
		Return([]*models.FieldValueDetail{}, nil)
	schemas.On("GetSchemasByList", mock.Anything, listID).
		Return([]*models.FieldSchema{workspaceSchema, tagSchema}, nil)

	tagField := schemaField("Difficulty", models.FieldTypeRating, true)
	wsField := schemaField("Watched", models.FieldTypeBoolean, false)
	schemas.On("GetSchemaFieldsForSchemas", mock.Anything, []uuid.UUID{tagSchema.ID, workspaceSchema.ID}).
		Return(map[uuid.UUID][]*models.SchemaFieldDetail{
			tagSchema.ID:       {tagField},
			workspaceSchema.ID: {wsField},
		}, nil)

	detail, err := svc.GetVideo(context.Background(), userID, video.ID)
	require.NoError(t, err)

	// Tag schemas come first, the workspace schema last.
	require.Len(t, detail.AvailableFields, 2)
	assert.Equal(t, "Difficulty", detail.AvailableFields[0].DisplayName)
	assert.Equal(t, "Tutorials", detail.AvailableFields[0].SchemaName)
	assert.Equal(t, "Watched", detail.AvailableFields[1].DisplayName)
	assert.Equal(t, "Workspace", detail.AvailableFields[1].SchemaName)
}

func TestVideoService_GetVideo_SkipsForeignTagSchemas(t *testing.T) {
	t.Parallel()

	svc, lists, videos, enrich, values, tags, schemas, _ := newVideoService()

	userID := uuid.New()
	video := ownedVideo(videos, lists, userID)

	// The tag's schema belongs to some other list; it contributes nothing.
	foreignSchema := uuid.New()
	tagged := &models.Tag{ID: uuid.New(), UserID: userID, Name: "Tutorial", SchemaID: &foreignSchema}

	enrich.On("GetEnrichmentByVideoID", mock.Anything, video.ID).Return(nil, db.ErrNotFound)
	tags.On("GetTagsByVideo", mock.Anything, video.ID).Return([]*models.Tag{tagged}, nil)
	values.On("GetValuesByVideo", mock.Anything, video.ID).
		Return([]*models.FieldValueDetail{}, nil)
	schemas.On("GetSchemasByList", mock.Anything, video.ListID).
		Return([]*models.FieldSchema{}, nil)

	detail, err := svc.GetVideo(context.Background(), userID, video.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.AvailableFields)

	schemas.AssertNotCalled(t, "GetSchemaFieldsForSchemas")
}

func TestVideoService_UpdateWatchPosition(t *testing.T) {
	t.Parallel()

	svc, lists, videos, _, _, _, _, _ := newVideoService()

	userID := uuid.New()
	video := ownedVideo(videos, lists, userID)

	videos.On("UpdateWatchPosition", mock.Anything, video.ID, 93).Return(nil)

	require.NoError(t, svc.UpdateWatchPosition(context.Background(), userID, video.ID, 93))
	videos.AssertExpectations(t)
}

func TestVideoService_UpdateWatchPosition_Negative(t *testing.T) {
	t.Parallel()

	svc, lists, videos, _, _, _, _, _ := newVideoService()

	userID := uuid.New()
	video := ownedVideo(videos, lists, userID)

	err := svc.UpdateWatchPosition(context.Background(), userID, video.ID, -1)
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeValidation, se.Code)

	videos.AssertNotCalled(t, "UpdateWatchPosition")
}

func TestVideoService_DeleteVideo_CancelsJobsFirst(t *testing.T) {
	t.Parallel()

	svc, lists, videos, _, _, _, _, jobs := newVideoService()

	userID := uuid.New()
	video := ownedVideo(videos, lists, userID)

	jobs.On("CancelVideoJobsForVideo", mock.Anything, video.ID).Return(nil)
	videos.On("DeleteVideo", mock.Anything, video.ID).Return(nil)

	require.NoError(t, svc.DeleteVideo(context.Background(), userID, video.ID))
	jobs.AssertExpectations(t)
	videos.AssertExpectations(t)
}

func TestVideoService_GetVideo_OtherUser(t *testing.T) {
	t.Parallel()

	svc, lists, videos, enrich, _, _, _, _ := newVideoService()

	video := ownedVideo(videos, lists, uuid.New())

	_, err := svc.GetVideo(context.Background(), uuid.New(), video.ID)
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, se.Code)

	enrich.AssertNotCalled(t, "GetEnrichmentByVideoID")
}
