package handler

import (
	"context"
	"net/http"

	dbmodels "github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ValueService is the field-value surface the handler depends on.
type ValueService interface {
	UpdateValues(ctx context.Context, userID, videoID uuid.UUID, updates []service.ValueUpdate) ([]*dbmodels.FieldValueDetail, error)
	GetValues(ctx context.Context, userID, videoID uuid.UUID) ([]*dbmodels.FieldValueDetail, error)
}

// ValueHandler handles per-video custom field value endpoints.
type ValueHandler struct {
	values ValueService
}

// NewValueHandler creates a new ValueHandler instance.
func NewValueHandler(values ValueService) *ValueHandler {
	return &ValueHandler{values: values}
}

// GetValues handles GET /videos/:id/fields.
func (h *ValueHandler) GetValues(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := parseID(c, "id")
	if !ok {
		return
	}

	values, err := h.values.GetValues(c.Request.Context(), userID, videoID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"field_values": values})
}

// UpdateValues handles PUT /videos/:id/fields. The batch is atomic: one
// invalid value rejects every update in the request.
func (h *ValueHandler) UpdateValues(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateValuesDTO
	if !bindJSON(c, &req) {
		return
	}

	updates := make([]service.ValueUpdate, len(req.Updates))
	for i, u := range req.Updates {
		updates[i] = service.ValueUpdate{FieldID: u.FieldID, Value: u.Value}
	}

	values, err := h.values.UpdateValues(c.Request.Context(), userID, videoID, updates)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"field_values": values})
}
