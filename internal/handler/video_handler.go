package handler

import (
	"context"
	"net/http"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// VideoService is the video read/update surface the handler depends on.
type VideoService interface {
	ListVideos(ctx context.Context, userID, listID uuid.UUID, limit, offset int) (*service.VideoPage, error)
	GetVideo(ctx context.Context, userID, videoID uuid.UUID) (*service.VideoDetail, error)
	UpdateWatchPosition(ctx context.Context, userID, videoID uuid.UUID, seconds int) error
	DeleteVideo(ctx context.Context, userID, videoID uuid.UUID) error
}

// VideoHandler handles video read, watch-position and delete endpoints.
type VideoHandler struct {
	videos VideoService
}

// NewVideoHandler creates a new VideoHandler instance.
func NewVideoHandler(videos VideoService) *VideoHandler {
	return &VideoHandler{videos: videos}
}

// ListVideos handles GET /lists/:list_id/videos with limit/offset paging.
func (h *VideoHandler) ListVideos(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := parseID(c, "list_id")
	if !ok {
		return
	}

	page, err := h.videos.ListVideos(c.Request.Context(), userID, listID, parseLimit(c), parseOffset(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetVideo handles GET /videos/:id. The detail includes enrichment, tags,
// stored field values and the effective field set for the video's category.
func (h *VideoHandler) GetVideo(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := parseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.videos.GetVideo(c.Request.Context(), userID, videoID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateWatchPosition handles PATCH /videos/:id/progress.
func (h *VideoHandler) UpdateWatchPosition(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.WatchPositionDTO
	if !bindJSON(c, &req) {
		return
	}

	if err := h.videos.UpdateWatchPosition(c.Request.Context(), userID, videoID, *req.WatchPosition); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"video_id":       videoID,
		"watch_position": *req.WatchPosition,
	})
}

// DeleteVideo handles DELETE /videos/:id.
func (h *VideoHandler) DeleteVideo(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.videos.DeleteVideo(c.Request.Context(), userID, videoID); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
