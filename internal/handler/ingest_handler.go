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

// IngestService is the ingestion surface the handler depends on.
type IngestService interface {
	SubmitBulk(ctx context.Context, userID, listID uuid.UUID, urls []string) (*service.BulkResult, error)
	SubmitImport(ctx context.Context, userID, listID uuid.UUID, format string, data []byte) (*service.BulkResult, error)
	RetryVideo(ctx context.Context, userID, videoID uuid.UUID) (*dbmodels.VideoJob, error)
}

// IngestHandler handles bulk URL submission, file import and retry endpoints.
type IngestHandler struct {
	ingest IngestService
}

// NewIngestHandler creates a new IngestHandler instance.
func NewIngestHandler(ingest IngestService) *IngestHandler {
	return &IngestHandler{ingest: ingest}
}

// SubmitBulk handles POST /lists/:list_id/videos/bulk. Accepted URLs are
// queued for background processing; the response reports the job id and the
// accept/reject split.
func (h *IngestHandler) SubmitBulk(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := parseID(c, "list_id")
	if !ok {
		return
	}

	var req models.BulkIngestDTO
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.ingest.SubmitBulk(c.Request.Context(), userID, listID, req.URLs)
	if err != nil {
		handleError(c, err)
		return
	}

	logger.Log.Info("Bulk ingestion accepted",
		zap.String("list_id", listID.String()),
		zap.String("job_id", result.JobID.String()),
		zap.Int("accepted", result.Accepted),
		zap.Int("rejected", result.RejectedCount))
	c.JSON(http.StatusAccepted, result)
}

// SubmitImport handles POST /lists/:list_id/videos/import. The body carries
// the raw file content plus its declared format (text, csv or webloc).
func (h *IngestHandler) SubmitImport(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := parseID(c, "list_id")
	if !ok {
		return
	}

	var req models.ImportDTO
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.ingest.SubmitImport(c.Request.Context(), userID, listID, req.Format, []byte(req.Content))
	if err != nil {
		handleError(c, err)
		return
	}

	logger.Log.Info("Import accepted",
		zap.String("list_id", listID.String()),
		zap.String("job_id", result.JobID.String()),
		zap.String("format", req.Format),
		zap.Int("accepted", result.Accepted),
		zap.Int("rejected", result.RejectedCount))
	c.JSON(http.StatusAccepted, result)
}

// RetryVideo handles POST /videos/:id/retry. Only videos in a failed stage
// can be requeued.
func (h *IngestHandler) RetryVideo(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := parseID(c, "id")
	if !ok {
		return
	}

	job, err := h.ingest.RetryVideo(c.Request.Context(), userID, videoID)
	if err != nil {
		handleError(c, err)
		return
	}

	logger.Log.Info("Video requeued for enrichment",
		zap.String("video_id", videoID.String()))
	c.JSON(http.StatusAccepted, job)
}
