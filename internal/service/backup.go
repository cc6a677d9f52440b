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

// BackupService reads and restores the value snapshots written by category
// switches. Backups are keyed (video, category tag), latest switch wins.
type BackupService struct {
	lists   repository.ListRepository
	videos  repository.VideoRepository
	backups repository.BackupRepository
	values  repository.FieldValueRepository
}

// NewBackupService creates a new BackupService.
func NewBackupService(lists repository.ListRepository, videos repository.VideoRepository, backups repository.BackupRepository, values repository.FieldValueRepository) *BackupService {
	return &BackupService{lists: lists, videos: videos, backups: backups, values: values}
}

// GetBackups returns all of a video's category backups, newest first.
func (s *BackupService) GetBackups(ctx context.Context, userID, videoID uuid.UUID) ([]*models.FieldValueBackup, error) {
	if _, _, err := requireOwnedVideo(ctx, s.videos, s.lists, userID, videoID); err != nil {
		return nil, err
	}

	backups, err := s.backups.GetBackupsByVideo(ctx, videoID)
	if err != nil {
		return nil, &ProcessingError{Message: "get backups", Cause: err}
	}
	return backups, nil
}

// Restore re-materializes the backup for the given category into the live
// value store, overwriting colliding values, and returns the video's values
// afterwards.
func (s *BackupService) Restore(ctx context.Context, userID, videoID, categoryTagID uuid.UUID) ([]*models.FieldValueDetail, error) {
	if _, _, err := requireOwnedVideo(ctx, s.videos, s.lists, userID, videoID); err != nil {
		return nil, err
	}

	backup, err := s.backups.RestoreBackup(ctx, videoID, categoryTagID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, NewNotFoundError("backup")
		}
		return nil, &ProcessingError{Message: "restore backup", Cause: err}
	}

	logger.Log.Info("Backup restored",
		zap.String("videoId", videoID.String()),
		zap.String("categoryTagId", categoryTagID.String()),
		zap.Int("values", len(backup.Values)))

	details, err := s.values.GetValuesByVideo(ctx, videoID)
	if err != nil {
		return nil, &ProcessingError{Message: "reload field values", Cause: err}
	}
	return details, nil
}
