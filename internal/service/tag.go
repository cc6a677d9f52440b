package service

import (
	"context"
	"regexp"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/db"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/repository"
	"github.com/vidshelf/youtube-list-ingestion-go/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var tagColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// TagService manages per-user tags and their video attachments. Attaching or
// detaching a category tag runs the backup flow: values of fields exclusive
// to the outgoing category are snapshotted before they leave the live store.
type TagService struct {
	lists   repository.ListRepository
	videos  repository.VideoRepository
	tags    repository.TagRepository
	schemas repository.FieldSchemaRepository
	backups repository.BackupRepository
}

// NewTagService creates a new TagService.
func NewTagService(lists repository.ListRepository, videos repository.VideoRepository, tags repository.TagRepository, schemas repository.FieldSchemaRepository, backups repository.BackupRepository) *TagService {
	return &TagService{lists: lists, videos: videos, tags: tags, schemas: schemas, backups: backups}
}

// AttachResult reports what an attach did. BackupAvailable tells the client
// a backup exists for the newly attached category, so it can offer restore.
type AttachResult struct {
	Attached         bool `json:"attached"`
	CategorySwitched bool `json:"category_switched"`
	BackupAvailable  bool `json:"backup_available"`
}

// CreateTag creates a tag. IsVideoType marks it as a category; SchemaID
// optionally binds it to a field schema.
func (s *TagService) CreateTag(ctx context.Context, userID uuid.UUID, name, color string, isVideoType bool, schemaID *uuid.UUID) (*models.Tag, error) {
	name, err := validateName(name, MaxTagNameLength, "tag")
	if err != nil {
		return nil, err
	}
	if !tagColorPattern.MatchString(color) {
		return nil, NewValidationError("color must be a hex value like #1a2b3c")
	}
	if schemaID != nil {
		if err := s.requireOwnedSchema(ctx, userID, *schemaID); err != nil {
			return nil, err
		}
	}

	tag := models.NewTag(userID, name, color, isVideoType, schemaID)
	if err := s.tags.CreateTag(ctx, tag); err != nil {
		if db.IsDuplicateKey(err) {
			return nil, &Error{Code: CodeDuplicateName, Message: "a tag with this name already exists"}
		}
		return nil, &ProcessingError{Message: "create tag", Cause: err}
	}

	logger.Log.Info("Tag created",
		zap.String("tagId", tag.ID.String()),
		zap.String("userId", userID.String()),
		zap.Bool("isVideoType", isVideoType))

	return tag, nil
}

// GetTags returns all tags owned by the user.
func (s *TagService) GetTags(ctx context.Context, userID uuid.UUID) ([]*models.Tag, error) {
	tags, err := s.tags.GetTagsByUser(ctx, userID)
	if err != nil {
		return nil, &ProcessingError{Message: "get tags", Cause: err}
	}
	return tags, nil
}

// UpdateTag replaces the tag's name, color, and schema binding. Whether a
// tag is a category is fixed at creation.
func (s *TagService) UpdateTag(ctx context.Context, userID, tagID uuid.UUID, name, color string, schemaID *uuid.UUID) (*models.Tag, error) {
	tag, err := s.requireOwnedTag(ctx, userID, tagID)
	if err != nil {
		return nil, err
	}

	name, err = validateName(name, MaxTagNameLength, "tag")
	if err != nil {
		return nil, err
	}
	if !tagColorPattern.MatchString(color) {
		return nil, NewValidationError("color must be a hex value like #1a2b3c")
	}
	if schemaID != nil {
		if err := s.requireOwnedSchema(ctx, userID, *schemaID); err != nil {
			return nil, err
		}
	}

	tag.Name = name
	tag.Color = color
	tag.SchemaID = schemaID

	if err := s.tags.UpdateTag(ctx, tag); err != nil {
		if db.IsDuplicateKey(err) {
			return nil, &Error{Code: CodeDuplicateName, Message: "a tag with this name already exists"}
		}
		return nil, &ProcessingError{Message: "update tag", Cause: err}
	}
	return tag, nil
}

// DeleteTag removes a tag and detaches it from every video. Backups made
// under the tag as a category go with it.
func (s *TagService) DeleteTag(ctx context.Context, userID, tagID uuid.UUID) error {
	if _, err := s.requireOwnedTag(ctx, userID, tagID); err != nil {
		return err
	}

	if err := s.tags.DeleteTag(ctx, tagID); err != nil {
		if db.IsNotFound(err) {
			return NewNotFoundError("tag")
		}
		return &ProcessingError{Message: "delete tag", Cause: err}
	}

	logger.Log.Info("Tag deleted", zap.String("tagId", tagID.String()))
	return nil
}

// GetVideoTags returns the video's tags in attachment order.
func (s *TagService) GetVideoTags(ctx context.Context, userID, videoID uuid.UUID) ([]*models.Tag, error) {
	if _, _, err := requireOwnedVideo(ctx, s.videos, s.lists, userID, videoID); err != nil {
		return nil, err
	}

	tags, err := s.tags.GetTagsByVideo(ctx, videoID)
	if err != nil {
		return nil, &ProcessingError{Message: "get video tags", Cause: err}
	}
	return tags, nil
}

// AttachTag attaches a tag to a video. Attaching a category while another is
// active switches categories: values exclusive to the outgoing category are
// backed up and scrubbed in the same transaction as the swap. Re-attaching
// the current tag is a no-op.
func (s *TagService) AttachTag(ctx context.Context, userID, videoID, tagID uuid.UUID) (*AttachResult, error) {
	_, list, err := requireOwnedVideo(ctx, s.videos, s.lists, userID, videoID)
	if err != nil {
		return nil, err
	}

	tag, err := s.requireOwnedTag(ctx, userID, tagID)
	if err != nil {
		return nil, err
	}

	if !tag.IsVideoType {
		if err := s.tags.AttachTag(ctx, videoID, tag); err != nil {
			return nil, &ProcessingError{Message: "attach tag", Cause: err}
		}
		return &AttachResult{Attached: true}, nil
	}

	current, err := s.currentCategory(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if current != nil && current.ID == tag.ID {
		return &AttachResult{Attached: true, BackupAvailable: s.hasBackup(ctx, videoID, tag.ID)}, nil
	}

	if err := s.tags.SwitchCategory(ctx, videoID, current, tag, list.WorkspaceSchemaID); err != nil {
		if db.IsDuplicateKey(err) {
			// The single-category index fired: a concurrent request already
			// attached a different category.
			return nil, NewCategoryInvariantError("video already has a category tag")
		}
		return nil, &ProcessingError{Message: "switch category", Cause: err}
	}

	logger.Log.Info("Category switched",
		zap.String("videoId", videoID.String()),
		zap.String("toTagId", tag.ID.String()),
		zap.Bool("hadPrevious", current != nil))

	return &AttachResult{
		Attached:         true,
		CategorySwitched: current != nil,
		BackupAvailable:  s.hasBackup(ctx, videoID, tag.ID),
	}, nil
}

// DetachTag removes a tag from a video. Detaching the active category runs
// the same backup flow as a switch, leaving the video uncategorized.
func (s *TagService) DetachTag(ctx context.Context, userID, videoID, tagID uuid.UUID) error {
	_, list, err := requireOwnedVideo(ctx, s.videos, s.lists, userID, videoID)
	if err != nil {
		return err
	}

	tag, err := s.requireOwnedTag(ctx, userID, tagID)
	if err != nil {
		return err
	}

	if tag.IsVideoType {
		current, err := s.currentCategory(ctx, videoID)
		if err != nil {
			return err
		}
		if current != nil && current.ID == tag.ID {
			if err := s.tags.SwitchCategory(ctx, videoID, current, nil, list.WorkspaceSchemaID); err != nil {
				return &ProcessingError{Message: "detach category", Cause: err}
			}
			return nil
		}
	}

	if err := s.tags.DetachTag(ctx, videoID, tagID); err != nil && !db.IsNotFound(err) {
		return &ProcessingError{Message: "detach tag", Cause: err}
	}
	return nil
}

// currentCategory returns the video's active category tag, or nil.
func (s *TagService) currentCategory(ctx context.Context, videoID uuid.UUID) (*models.Tag, error) {
	current, err := s.tags.GetCategoryTag(ctx, videoID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, &ProcessingError{Message: "get category tag", Cause: err}
	}
	return current, nil
}

func (s *TagService) hasBackup(ctx context.Context, videoID, tagID uuid.UUID) bool {
	_, err := s.backups.GetBackup(ctx, videoID, tagID)
	return err == nil
}

func (s *TagService) requireOwnedTag(ctx context.Context, userID, tagID uuid.UUID) (*models.Tag, error) {
	tag, err := s.tags.GetTagByID(ctx, tagID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, NewNotFoundError("tag")
		}
		return nil, &ProcessingError{Message: "load tag", Cause: err}
	}
	if tag.UserID != userID {
		return nil, NewNotFoundError("tag")
	}
	return tag, nil
}

// requireOwnedSchema verifies the schema belongs to a list the user owns.
func (s *TagService) requireOwnedSchema(ctx context.Context, userID uuid.UUID, schemaID uuid.UUID) error {
	schema, err := s.schemas.GetSchemaByID(ctx, schemaID)
	if err != nil {
		if db.IsNotFound(err) {
			return NewNotFoundError("schema")
		}
		return &ProcessingError{Message: "load schema", Cause: err}
	}
	if _, err := requireOwnedList(ctx, s.lists, userID, schema.ListID); err != nil {
		return err
	}
	return nil
}
