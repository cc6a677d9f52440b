package handler

import (
	"context"
	"net/http"

	dbmodels "github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ListService is the list management surface the handler depends on.
type ListService interface {
	CreateList(ctx context.Context, userID uuid.UUID, name string) (*dbmodels.List, error)
	GetList(ctx context.Context, userID, listID uuid.UUID) (*dbmodels.List, error)
	GetLists(ctx context.Context, userID uuid.UUID) ([]*dbmodels.List, error)
	RenameList(ctx context.Context, userID, listID uuid.UUID, name string) (*dbmodels.List, error)
	SetWorkspaceSchema(ctx context.Context, userID, listID uuid.UUID, schemaID *uuid.UUID) error
	DeleteList(ctx context.Context, userID, listID uuid.UUID) error
}

// ListHandler handles video list CRUD endpoints.
type ListHandler struct {
	lists ListService
}

// NewListHandler creates a new ListHandler instance.
func NewListHandler(lists ListService) *ListHandler {
	return &ListHandler{lists: lists}
}

// CreateList handles POST /lists.
func (h *ListHandler) CreateList(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CreateListDTO
	if !bindJSON(c, &req) {
		return
	}

	list, err := h.lists.CreateList(c.Request.Context(), userID, req.Name)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

// GetLists handles GET /lists.
func (h *ListHandler) GetLists(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	lists, err := h.lists.GetLists(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lists": lists})
}

// GetList handles GET /lists/:list_id.
func (h *ListHandler) GetList(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := parseID(c, "list_id")
	if !ok {
		return
	}

	list, err := h.lists.GetList(c.Request.Context(), userID, listID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// RenameList handles PUT /lists/:list_id.
func (h *ListHandler) RenameList(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := parseID(c, "list_id")
	if !ok {
		return
	}

	var req models.RenameListDTO
	if !bindJSON(c, &req) {
		return
	}

	list, err := h.lists.RenameList(c.Request.Context(), userID, listID, req.Name)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// SetWorkspaceSchema handles PUT /lists/:list_id/schema. A null schema_id
// clears the workspace default.
func (h *ListHandler) SetWorkspaceSchema(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := parseID(c, "list_id")
	if !ok {
		return
	}

	var req models.SetWorkspaceSchemaDTO
	if !bindJSON(c, &req) {
		return
	}

	if err := h.lists.SetWorkspaceSchema(c.Request.Context(), userID, listID, req.SchemaID); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteList handles DELETE /lists/:list_id.
func (h *ListHandler) DeleteList(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := parseID(c, "list_id")
	if !ok {
		return
	}

	if err := h.lists.DeleteList(c.Request.Context(), userID, listID); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
