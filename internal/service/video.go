package service

import (
	"context"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/db"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/repository"
	"github.com/vidshelf/youtube-list-ingestion-go/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Pagination bounds for video listing.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// VideoService reads videos with their enrichment artifacts, stored values,
// and the resolved set of fields their tags make available.
type VideoService struct {
	lists   repository.ListRepository
	videos  repository.VideoRepository
	enrich  repository.EnrichmentRepository
	values  repository.FieldValueRepository
	tags    repository.TagRepository
	schemas repository.FieldSchemaRepository
	jobs    repository.IngestionJobRepository
}

// NewVideoService creates a new VideoService.
func NewVideoService(lists repository.ListRepository, videos repository.VideoRepository, enrich repository.EnrichmentRepository, values repository.FieldValueRepository, tags repository.TagRepository, schemas repository.FieldSchemaRepository, jobs repository.IngestionJobRepository) *VideoService {
	return &VideoService{lists: lists, videos: videos, enrich: enrich, values: values, tags: tags, schemas: schemas, jobs: jobs}
}

// VideoWithValues is a list row: the video plus only its filled fields.
type VideoWithValues struct {
	*models.Video
	FieldValues []*models.FieldValueDetail `json:"field_values"`
}

// VideoPage is one page of a list's videos, newest first.
type VideoPage struct {
	Videos []*VideoWithValues `json:"videos"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// VideoDetail is the full read model of one video.
type VideoDetail struct {
	*models.Video
	Enrichment      *models.Enrichment         `json:"enrichment,omitempty"`
	Tags            []*models.Tag              `json:"tags"`
	FieldValues     []*models.FieldValueDetail `json:"field_values"`
	AvailableFields []EffectiveField           `json:"available_fields"`
}

// ListVideos returns one page of a list's videos with their stored values.
func (s *VideoService) ListVideos(ctx context.Context, userID, listID uuid.UUID, limit, offset int) (*VideoPage, error) {
	if _, err := requireOwnedList(ctx, s.lists, userID, listID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	videos, err := s.videos.GetVideosByList(ctx, listID, limit, offset)
	if err != nil {
		return nil, &ProcessingError{Message: "get videos", Cause: err}
	}
	total, err := s.videos.CountVideosByList(ctx, listID)
	if err != nil {
		return nil, &ProcessingError{Message: "count videos", Cause: err}
	}

	ids := make([]uuid.UUID, len(videos))
	for i, video := range videos {
		ids[i] = video.ID
	}
	valuesByVideo, err := s.values.GetValuesByVideos(ctx, ids)
	if err != nil {
		return nil, &ProcessingError{Message: "get field values", Cause: err}
	}

	page := &VideoPage{
		Videos: make([]*VideoWithValues, len(videos)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for i, video := range videos {
		page.Videos[i] = &VideoWithValues{Video: video, FieldValues: valuesByVideo[video.ID]}
	}
	return page, nil
}

// GetVideo returns a video with its enrichment, tags, stored values, and the
// resolved available fields.
func (s *VideoService) GetVideo(ctx context.Context, userID, videoID uuid.UUID) (*VideoDetail, error) {
	video, list, err := requireOwnedVideo(ctx, s.videos, s.lists, userID, videoID)
	if err != nil {
		return nil, err
	}

	detail := &VideoDetail{Video: video}

	enrichment, err := s.enrich.GetEnrichmentByVideoID(ctx, videoID)
	if err != nil && !db.IsNotFound(err) {
		return nil, &ProcessingError{Message: "get enrichment", Cause: err}
	}
	detail.Enrichment = enrichment

	tags, err := s.tags.GetTagsByVideo(ctx, videoID)
	if err != nil {
		return nil, &ProcessingError{Message: "get video tags", Cause: err}
	}
	detail.Tags = tags

	values, err := s.values.GetValuesByVideo(ctx, videoID)
	if err != nil {
		return nil, &ProcessingError{Message: "get field values", Cause: err}
	}
	detail.FieldValues = values

	available, err := s.resolveAvailableFields(ctx, list, tags)
	if err != nil {
		return nil, err
	}
	detail.AvailableFields = available

	return detail, nil
}

// UpdateWatchPosition records the player position, in seconds.
func (s *VideoService) UpdateWatchPosition(ctx context.Context, userID, videoID uuid.UUID, seconds int) error {
	if _, _, err := requireOwnedVideo(ctx, s.videos, s.lists, userID, videoID); err != nil {
		return err
	}

	if seconds < 0 {
		return NewValidationError("watch position must not be negative")
	}

	if err := s.videos.UpdateWatchPosition(ctx, videoID, seconds); err != nil {
		return &ProcessingError{Message: "update watch position", Cause: err}
	}
	return nil
}

// DeleteVideo cancels outstanding enrichment work and deletes the video.
// Enrichment, values, tags, and the progress ring cascade.
func (s *VideoService) DeleteVideo(ctx context.Context, userID, videoID uuid.UUID) error {
	if _, _, err := requireOwnedVideo(ctx, s.videos, s.lists, userID, videoID); err != nil {
		return err
	}

	if err := s.jobs.CancelVideoJobsForVideo(ctx, videoID); err != nil {
		return &ProcessingError{Message: "cancel video jobs", Cause: err}
	}

	if err := s.videos.DeleteVideo(ctx, videoID); err != nil {
		if db.IsNotFound(err) {
			return NewNotFoundError("video")
		}
		return &ProcessingError{Message: "delete video", Cause: err}
	}

	logger.Log.Info("Video deleted", zap.String("videoId", videoID.String()))
	return nil
}

// resolveAvailableFields assembles the union resolver input: each tag's
// schema in attachment order, then the list's workspace schema. Schemas from
// other lists (a tag can outlive the list its schema came from) contribute
// nothing, since their fields could never hold values here.
func (s *VideoService) resolveAvailableFields(ctx context.Context, list *models.List, tags []*models.Tag) ([]EffectiveField, error) {
	listSchemas, err := s.schemas.GetSchemasByList(ctx, list.ID)
	if err != nil {
		return nil, &ProcessingError{Message: "get schemas", Cause: err}
	}
	byID := make(map[uuid.UUID]*models.FieldSchema, len(listSchemas))
	for _, schema := range listSchemas {
		byID[schema.ID] = schema
	}

	var ordered []*models.FieldSchema
	for _, tag := range tags {
		if tag.SchemaID == nil {
			continue
		}
		if schema, ok := byID[*tag.SchemaID]; ok {
			ordered = append(ordered, schema)
		}
	}
	if list.WorkspaceSchemaID != nil {
		if schema, ok := byID[*list.WorkspaceSchemaID]; ok {
			ordered = append(ordered, schema)
		}
	}

	if len(ordered) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(ordered))
	for i, schema := range ordered {
		ids[i] = schema.ID
	}
	fieldsBySchema, err := s.schemas.GetSchemaFieldsForSchemas(ctx, ids)
	if err != nil {
		return nil, &ProcessingError{Message: "get schema fields", Cause: err}
	}

	sets := make([]SchemaFieldSet, len(ordered))
	for i, schema := range ordered {
		sets[i] = SchemaFieldSet{SchemaName: schema.Name, Fields: fieldsBySchema[schema.ID]}
	}
	return ResolveFieldUnion(sets), nil
}

// requireOwnedVideo loads a video and its list and verifies ownership. A
// video in another user's list reads as not found.
func requireOwnedVideo(ctx context.Context, videos repository.VideoRepository, lists repository.ListRepository, userID, videoID uuid.UUID) (*models.Video, *models.List, error) {
	video, err := videos.GetVideoByID(ctx, videoID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil, NewNotFoundError("video")
		}
		return nil, nil, &ProcessingError{Message: "load video", Cause: err}
	}

	list, err := lists.GetListByID(ctx, video.ListID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil, NewNotFoundError("video")
		}
		return nil, nil, &ProcessingError{Message: "load list", Cause: err}
	}
	if list.UserID != userID {
		return nil, nil, NewNotFoundError("video")
	}
	return video, list, nil
}
