package handler

import (
	"context"
	"net/http"
	"time"

	dbmodels "github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProgressService is the job progress surface the handler depends on.
type ProgressService interface {
	JobProgress(ctx context.Context, userID, jobID uuid.UUID, since time.Time, limit int) (*dbmodels.IngestionJob, []*dbmodels.ProgressEvent, error)
}

// ProgressHandler handles the polling fallback for job progress. Live
// delivery goes over the websocket; reconnecting clients replay here.
type ProgressHandler struct {
	progress ProgressService
}

// NewProgressHandler creates a new ProgressHandler instance.
func NewProgressHandler(progress ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// JobProgress handles /jobs/:job_id/progress?since=<ts>. Events come back
// oldest first so clients can apply them in order; the since bound is
// exclusive, letting a client pass its last seen timestamp unchanged.
func (h *ProgressHandler) JobProgress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	jobID, ok := parseID(c, "job_id")
	if !ok {
		return
	}
	since, ok := parseSince(c)
	if !ok {
		return
	}

	job, events, err := h.progress.JobProgress(c.Request.Context(), userID, jobID, since, parseLimit(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.JobProgressResponseDTO{
		Job:    job,
		Events: events,
	})
}
