package handler

import (
	"context"
	"net/http"

	dbmodels "github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/models"
	"github.com/vidshelf/youtube-list-ingestion-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BackupService is the value backup surface the handler depends on.
type BackupService interface {
	GetBackups(ctx context.Context, userID, videoID uuid.UUID) ([]*dbmodels.FieldValueBackup, error)
	Restore(ctx context.Context, userID, videoID, categoryTagID uuid.UUID) ([]*dbmodels.FieldValueDetail, error)
}

// BackupHandler handles category-switch backup endpoints.
type BackupHandler struct {
	backups BackupService
}

// NewBackupHandler creates a new BackupHandler instance.
func NewBackupHandler(backups BackupService) *BackupHandler {
	return &BackupHandler{backups: backups}
}

// GetBackups handles GET /videos/:id/backups.
func (h *BackupHandler) GetBackups(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := parseID(c, "id")
	if !ok {
		return
	}

	backups, err := h.backups.GetBackups(c.Request.Context(), userID, videoID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"backups": backups})
}

// Restore handles POST /videos/:id/fields/restore. Values backed up when the
// video left the named category are written back, and the backup is consumed.
func (h *BackupHandler) Restore(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.RestoreBackupDTO
	if !bindJSON(c, &req) {
		return
	}

	values, err := h.backups.Restore(c.Request.Context(), userID, videoID, req.CategoryTagID)
	if err != nil {
		handleError(c, err)
		return
	}

	logger.Log.Info("Field values restored from backup",
		zap.String("video_id", videoID.String()),
		zap.String("category_tag_id", req.CategoryTagID.String()),
		zap.Int("restored", len(values)))
	c.JSON(http.StatusOK, gin.H{"field_values": values})
}
