package repository

import (
	"context"
	"testing"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldValueRepository_UpsertValuesBatch(t *testing.T) {
	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	listRepo := NewListRepository(td.Pool)
	videoRepo := NewVideoRepository(td.Pool)
	fieldRepo := NewCustomFieldRepository(td.Pool)
	valueRepo := NewFieldValueRepository(td.Pool)
	ctx := context.Background()

	setup := func(t *testing.T) (*models.Video, *models.CustomField) {
		t.Helper()
		td.TruncateTables(t)

		list := models.NewList(uuid.New(), "Watch Later")
		require.NoError(t, listRepo.CreateList(ctx, list))

		video := models.NewVideo(list.ID, "dQw4w9WgXcQ", "https://youtu.be/dQw4w9WgXcQ")
		_, err := videoRepo.EnsureVideo(ctx, video)
		require.NoError(t, err)

		config, err := models.NewRatingConfig(5)
		require.NoError(t, err)
		field, err := models.NewCustomField(list.ID, "Rating", models.FieldTypeRating, config)
		require.NoError(t, err)
		require.NoError(t, fieldRepo.CreateField(ctx, field))

		return video, field
	}

	t.Run("writes and overwrites a value", func(t *testing.T) {
		video, field := setup(t)

		five := float64(5)
		err := valueRepo.UpsertValuesBatch(ctx, video.ID, []models.VideoFieldValue{
			{VideoID: video.ID, FieldID: field.ID, Value: models.TypedValue{Numeric: &five}},
		})
		require.NoError(t, err)

		details, err := valueRepo.GetValuesByVideo(ctx, video.ID)
		require.NoError(t, err)
		require.Len(t, details, 1)
		require.NotNil(t, details[0].Value.Numeric)
		assert.Equal(t, float64(5), *details[0].Value.Numeric)
		assert.Equal(t, field.ID, details[0].Field.ID)

		three := float64(3)
		err = valueRepo.UpsertValuesBatch(ctx, video.ID, []models.VideoFieldValue{
			{VideoID: video.ID, FieldID: field.ID, Value: models.TypedValue{Numeric: &three}},
		})
		require.NoError(t, err)

		details, err = valueRepo.GetValuesByVideo(ctx, video.ID)
		require.NoError(t, err)
		require.Len(t, details, 1)
		assert.Equal(t, float64(3), *details[0].Value.Numeric)
	})

	t.Run("null clears the value", func(t *testing.T) {
		video, field := setup(t)

		five := float64(5)
		err := valueRepo.UpsertValuesBatch(ctx, video.ID, []models.VideoFieldValue{
			{VideoID: video.ID, FieldID: field.ID, Value: models.TypedValue{Numeric: &five}},
		})
		require.NoError(t, err)

		err = valueRepo.UpsertValuesBatch(ctx, video.ID, []models.VideoFieldValue{
			{VideoID: video.ID, FieldID: field.ID, Value: models.TypedValue{}},
		})
		require.NoError(t, err)

		details, err := valueRepo.GetValuesByVideo(ctx, video.ID)
		require.NoError(t, err)
		assert.Empty(t, details)
	})

	t.Run("failed batch writes nothing", func(t *testing.T) {
		video, field := setup(t)

		five := float64(5)
		err := valueRepo.UpsertValuesBatch(ctx, video.ID, []models.VideoFieldValue{
			{VideoID: video.ID, FieldID: field.ID, Value: models.TypedValue{Numeric: &five}},
			// Unknown field id fails the whole batch.
			{VideoID: video.ID, FieldID: uuid.New(), Value: models.TypedValue{Numeric: &five}},
		})
		require.Error(t, err)

		details, err := valueRepo.GetValuesByVideo(ctx, video.ID)
		require.NoError(t, err)
		assert.Empty(t, details)
	})

	t.Run("groups values by video", func(t *testing.T) {
		video, field := setup(t)

		other := models.NewVideo(video.ListID, "BBBBBBBBBBB", "https://youtu.be/BBBBBBBBBBB")
		_, err := videoRepo.EnsureVideo(ctx, other)
		require.NoError(t, err)

		five := float64(5)
		require.NoError(t, valueRepo.UpsertValuesBatch(ctx, video.ID, []models.VideoFieldValue{
			{VideoID: video.ID, FieldID: field.ID, Value: models.TypedValue{Numeric: &five}},
		}))

		grouped, err := valueRepo.GetValuesByVideos(ctx, []uuid.UUID{video.ID, other.ID})
		require.NoError(t, err)
		assert.Len(t, grouped[video.ID], 1)
		assert.Empty(t, grouped[other.ID])
	})
}
