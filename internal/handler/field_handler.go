package handler

import (
	"context"
	"encoding/json"
	"net/http"

	dbmodels "github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FieldService is the custom field surface the handler depends on.
type FieldService interface {
	CreateField(ctx context.Context, userID, listID uuid.UUID, name string, fieldType dbmodels.FieldType, rawConfig json.RawMessage) (*dbmodels.CustomField, error)
	CheckDuplicateName(ctx context.Context, userID, listID uuid.UUID, name string) (*dbmodels.CustomField, error)
	GetFields(ctx context.Context, userID, listID uuid.UUID) ([]*dbmodels.CustomField, error)
	GetField(ctx context.Context, userID, listID, fieldID uuid.UUID) (*dbmodels.CustomField, error)
	UpdateField(ctx context.Context, userID, listID, fieldID uuid.UUID, in service.UpdateFieldInput) (*dbmodels.CustomField, error)
	DeleteField(ctx context.Context, userID, listID, fieldID uuid.UUID) error
}

// FieldHandler handles custom field definition endpoints.
type FieldHandler struct {
	fields FieldService
}

// NewFieldHandler creates a new FieldHandler instance.
func NewFieldHandler(fields FieldService) *FieldHandler {
	return &FieldHandler{fields: fields}
}

// CreateField handles POST /lists/:list_id/custom-fields.
func (h *FieldHandler) CreateField(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := parseID(c, "list_id")
	if !ok {
		return
	}

	var req models.CreateFieldDTO
	if !bindJSON(c, &req) {
		return
	}

	field, err := h.fields.CreateField(c.Request.Context(), userID, listID, req.Name, dbmodels.FieldType(req.FieldType), req.Config)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, field)
}

// CheckDuplicate handles POST /lists/:list_id/custom-fields/check-duplicate.
// Matching is case-insensitive; the existing field rides along so the client
// can offer reuse.
func (h *FieldHandler) CheckDuplicate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := parseID(c, "list_id")
	if !ok {
		return
	}

	var req models.CheckDuplicateDTO
	if !bindJSON(c, &req) {
		return
	}

	existing, err := h.fields.CheckDuplicateName(c.Request.Context(), userID, listID, req.Name)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CheckDuplicateResponseDTO{
		Exists: existing != nil,
		Field:  existing,
	})
}

// GetFields handles GET /lists/:list_id/custom-fields.
func (h *FieldHandler) GetFields(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := parseID(c, "list_id")
	if !ok {
		return
	}

	fields, err := h.fields.GetFields(c.Request.Context(), userID, listID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fields": fields})
}

// GetField handles GET /lists/:list_id/custom-fields/:field_id.
func (h *FieldHandler) GetField(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := parseID(c, "list_id")
	if !ok {
		return
	}
	fieldID, ok := parseID(c, "field_id")
	if !ok {
		return
	}

	field, err := h.fields.GetField(c.Request.Context(), userID, listID, fieldID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, field)
}

// UpdateField handles PUT /lists/:list_id/custom-fields/:field_id. Lossy
// type conversions require confirm=true; without it the service rejects the
// update and reports what would be lost.
func (h *FieldHandler) UpdateField(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := parseID(c, "list_id")
	if !ok {
		return
	}
	fieldID, ok := parseID(c, "field_id")
	if !ok {
		return
	}

	var req models.UpdateFieldDTO
	if !bindJSON(c, &req) {
		return
	}

	in := service.UpdateFieldInput{
		Name:    req.Name,
		Config:  req.Config,
		Confirm: req.Confirm,
	}
	if req.FieldType != nil {
		ft := dbmodels.FieldType(*req.FieldType)
		in.FieldType = &ft
	}

	field, err := h.fields.UpdateField(c.Request.Context(), userID, listID, fieldID, in)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, field)
}

// DeleteField handles DELETE /lists/:list_id/custom-fields/:field_id.
func (h *FieldHandler) DeleteField(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := parseID(c, "list_id")
	if !ok {
		return
	}
	fieldID, ok := parseID(c, "field_id")
	if !ok {
		return
	}

	if err := h.fields.DeleteField(c.Request.Context(), userID, listID, fieldID); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
