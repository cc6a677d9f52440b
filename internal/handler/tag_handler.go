package handler

import (
	"context"
	"net/http"

	dbmodels "github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/service"
	"github.com/vidshelf/youtube-list-ingestion-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TagService is the tag and category surface the handler depends on.
type TagService interface {
	CreateTag(ctx context.Context, userID uuid.UUID, name, color string, isVideoType bool, schemaID *uuid.UUID) (*dbmodels.Tag, error)
	GetTags(ctx context.Context, userID uuid.UUID) ([]*dbmodels.Tag, error)
	UpdateTag(ctx context.Context, userID, tagID uuid.UUID, name, color string, schemaID *uuid.UUID) (*dbmodels.Tag, error)
	DeleteTag(ctx context.Context, userID, tagID uuid.UUID) error
	GetVideoTags(ctx context.Context, userID, videoID uuid.UUID) ([]*dbmodels.Tag, error)
	AttachTag(ctx context.Context, userID, videoID, tagID uuid.UUID) (*service.AttachResult, error)
	DetachTag(ctx context.Context, userID, videoID, tagID uuid.UUID) error
}

// TagHandler handles tag CRUD and video tag assignment endpoints.
type TagHandler struct {
	tags TagService
}

// NewTagHandler creates a new TagHandler instance.
func NewTagHandler(tags TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

// CreateTag handles POST /tags.
func (h *TagHandler) CreateTag(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CreateTagDTO
	if !bindJSON(c, &req) {
		return
	}

	tag, err := h.tags.CreateTag(c.Request.Context(), userID, req.Name, req.Color, req.IsVideoType, req.SchemaID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

// GetTags handles GET /tags.
func (h *TagHandler) GetTags(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	tags, err := h.tags.GetTags(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// UpdateTag handles PUT /tags/:tag_id.
func (h *TagHandler) UpdateTag(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	tagID, ok := parseID(c, "tag_id")
	if !ok {
		return
	}

	var req models.UpdateTagDTO
	if !bindJSON(c, &req) {
		return
	}

	tag, err := h.tags.UpdateTag(c.Request.Context(), userID, tagID, req.Name, req.Color, req.SchemaID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

// DeleteTag handles DELETE /tags/:tag_id.
func (h *TagHandler) DeleteTag(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	tagID, ok := parseID(c, "tag_id")
	if !ok {
		return
	}

	if err := h.tags.DeleteTag(c.Request.Context(), userID, tagID); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetVideoTags handles GET /videos/:id/tags.
func (h *TagHandler) GetVideoTags(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := parseID(c, "id")
	if !ok {
		return
	}

	tags, err := h.tags.GetVideoTags(c.Request.Context(), userID, videoID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// AttachTag handles PUT /videos/:id/tags/:tag_id. Attaching a category tag
// replaces the current category; the response reports whether a switch
// happened and whether backed-up values exist for the new category.
func (h *TagHandler) AttachTag(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := parseID(c, "id")
	if !ok {
		return
	}
	tagID, ok := parseID(c, "tag_id")
	if !ok {
		return
	}

	result, err := h.tags.AttachTag(c.Request.Context(), userID, videoID, tagID)
	if err != nil {
		handleError(c, err)
		return
	}

	if result.CategorySwitched {
		logger.Log.Info("Category switched",
			zap.String("video_id", videoID.String()),
			zap.String("tag_id", tagID.String()),
			zap.Bool("backup_available", result.BackupAvailable))
	}
	c.JSON(http.StatusOK, result)
}

// DetachTag handles DELETE /videos/:id/tags/:tag_id.
func (h *TagHandler) DetachTag(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := parseID(c, "id")
	if !ok {
		return
	}
	tagID, ok := parseID(c, "tag_id")
	if !ok {
		return
	}

	if err := h.tags.DetachTag(c.Request.Context(), userID, videoID, tagID); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
