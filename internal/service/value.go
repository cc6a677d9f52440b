package service

import (
	"context"
	"time"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/repository"

	"github.com/google/uuid"
)

// ValueService writes typed field values on videos. A batch is applied
// all-or-nothing: every entry is validated against its field definition
// before anything is written.
type ValueService struct {
	lists  repository.ListRepository
	videos repository.VideoRepository
	fields repository.CustomFieldRepository
	values repository.FieldValueRepository
}

// NewValueService creates a new ValueService.
func NewValueService(lists repository.ListRepository, videos repository.VideoRepository, fields repository.CustomFieldRepository, values repository.FieldValueRepository) *ValueService {
	return &ValueService{lists: lists, videos: videos, fields: fields, values: values}
}

// ValueUpdate sets one field on a video. A nil value clears the field.
type ValueUpdate struct {
	FieldID uuid.UUID
	Value   any
}

// UpdateValues validates and applies a batch of value updates to a video in
// one transaction. Any invalid entry rejects the whole batch with every
// failure listed.
func (s *ValueService) UpdateValues(ctx context.Context, userID, videoID uuid.UUID, updates []ValueUpdate) ([]*models.FieldValueDetail, error) {
	video, _, err := requireOwnedVideo(ctx, s.videos, s.lists, userID, videoID)
	if err != nil {
		return nil, err
	}

	if len(updates) == 0 {
		return nil, NewValidationError("at least one field update is required")
	}

	ids := make([]uuid.UUID, 0, len(updates))
	seen := make(map[uuid.UUID]struct{}, len(updates))
	for _, update := range updates {
		if _, dup := seen[update.FieldID]; dup {
			return nil, NewValidationError("field %s appears more than once", update.FieldID)
		}
		seen[update.FieldID] = struct{}{}
		ids = append(ids, update.FieldID)
	}

	fields, err := s.fields.GetFieldsByIDs(ctx, ids)
	if err != nil {
		return nil, &ProcessingError{Message: "load fields", Cause: err}
	}
	byID := make(map[uuid.UUID]*models.CustomField, len(fields))
	for _, field := range fields {
		byID[field.ID] = field
	}

	now := time.Now()
	values := make([]models.VideoFieldValue, 0, len(updates))
	var invalid []map[string]any

	for _, update := range updates {
		field, ok := byID[update.FieldID]
		if !ok || field.ListID != video.ListID {
			invalid = append(invalid, map[string]any{
				"field_id": update.FieldID,
				"message":  "field not found in this list",
			})
			continue
		}

		value, err := field.CoerceValue(update.Value)
		if err != nil {
			invalid = append(invalid, map[string]any{
				"field_id": update.FieldID,
				"message":  err.Error(),
			})
			continue
		}

		values = append(values, models.VideoFieldValue{
			VideoID:   videoID,
			FieldID:   update.FieldID,
			Value:     value,
			UpdatedAt: now,
		})
	}

	if len(invalid) > 0 {
		return nil, NewValidationError("%d of %d field updates are invalid", len(invalid), len(updates)).
			WithDetail("invalid", invalid)
	}

	if err := s.values.UpsertValuesBatch(ctx, videoID, values); err != nil {
		return nil, &ProcessingError{Message: "write field values", Cause: err}
	}

	details, err := s.values.GetValuesByVideo(ctx, videoID)
	if err != nil {
		return nil, &ProcessingError{Message: "reload field values", Cause: err}
	}
	return details, nil
}

// GetValues returns the video's stored values with their field definitions.
func (s *ValueService) GetValues(ctx context.Context, userID, videoID uuid.UUID) ([]*models.FieldValueDetail, error) {
	if _, _, err := requireOwnedVideo(ctx, s.videos, s.lists, userID, videoID); err != nil {
		return nil, err
	}

	details, err := s.values.GetValuesByVideo(ctx, videoID)
	if err != nil {
		return nil, &ProcessingError{Message: "get field values", Cause: err}
	}
	return details, nil
}
