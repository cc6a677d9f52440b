package handler

import (
	"context"
	"net/http"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/repository"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SchemaService is the field schema surface the handler depends on.
type SchemaService interface {
	CreateSchema(ctx context.Context, userID, listID uuid.UUID, name string, inputs []service.SchemaFieldInput) (*service.SchemaDetail, error)
	GetSchema(ctx context.Context, userID, listID, schemaID uuid.UUID) (*service.SchemaDetail, error)
	GetSchemas(ctx context.Context, userID, listID uuid.UUID) ([]*service.SchemaDetail, error)
	UpdateSchema(ctx context.Context, userID, listID, schemaID uuid.UUID, name *string, fields []service.SchemaFieldInput, replaceFields bool) (*service.SchemaDetail, error)
	ReorderFields(ctx context.Context, userID, listID, schemaID uuid.UUID, orders []repository.FieldOrder) (*service.SchemaDetail, error)
	DeleteSchema(ctx context.Context, userID, listID, schemaID uuid.UUID) error
}

// SchemaHandler handles field schema endpoints.
type SchemaHandler struct {
	schemas SchemaService
}

// NewSchemaHandler creates a new SchemaHandler instance.
func NewSchemaHandler(schemas SchemaService) *SchemaHandler {
	return &SchemaHandler{schemas: schemas}
}

func schemaFieldInputs(dtos []models.SchemaFieldDTO) []service.SchemaFieldInput {
	inputs := make([]service.SchemaFieldInput, len(dtos))
	for i, f := range dtos {
		inputs[i] = service.SchemaFieldInput{
			FieldID:      f.FieldID,
			DisplayOrder: f.DisplayOrder,
			ShowOnCard:   f.ShowOnCard,
		}
	}
	return inputs
}

// CreateSchema handles POST /lists/:list_id/schemas.
func (h *SchemaHandler) CreateSchema(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := parseID(c, "list_id")
	if !ok {
		return
	}

	var req models.CreateSchemaDTO
	if !bindJSON(c, &req) {
		return
	}

	schema, err := h.schemas.CreateSchema(c.Request.Context(), userID, listID, req.Name, schemaFieldInputs(req.Fields))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, schema)
}

// GetSchemas handles GET /lists/:list_id/schemas.
func (h *SchemaHandler) GetSchemas(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := parseID(c, "list_id")
	if !ok {
		return
	}

	schemas, err := h.schemas.GetSchemas(c.Request.Context(), userID, listID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schemas": schemas})
}

// GetSchema handles GET /lists/:list_id/schemas/:schema_id.
func (h *SchemaHandler) GetSchema(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := parseID(c, "list_id")
	if !ok {
		return
	}
	schemaID, ok := parseID(c, "schema_id")
	if !ok {
		return
	}

	schema, err := h.schemas.GetSchema(c.Request.Context(), userID, listID, schemaID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, schema)
}

// UpdateSchema handles PUT /lists/:list_id/schemas/:schema_id. A present
// fields array replaces the schema's membership wholesale; an absent one
// leaves membership untouched.
func (h *SchemaHandler) UpdateSchema(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := parseID(c, "list_id")
	if !ok {
		return
	}
	schemaID, ok := parseID(c, "schema_id")
	if !ok {
		return
	}

	var req models.UpdateSchemaDTO
	if !bindJSON(c, &req) {
		return
	}

	var fields []service.SchemaFieldInput
	replace := req.Fields != nil
	if replace {
		fields = schemaFieldInputs(*req.Fields)
	}

	schema, err := h.schemas.UpdateSchema(c.Request.Context(), userID, listID, schemaID, req.Name, fields, replace)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, schema)
}

// ReorderFields handles PUT /lists/:list_id/schemas/:schema_id/reorder.
func (h *SchemaHandler) ReorderFields(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := parseID(c, "list_id")
	if !ok {
		return
	}
	schemaID, ok := parseID(c, "schema_id")
	if !ok {
		return
	}

	var req models.ReorderSchemaDTO
	if !bindJSON(c, &req) {
		return
	}

	orders := make([]repository.FieldOrder, len(req.Orders))
	for i, o := range req.Orders {
		orders[i] = repository.FieldOrder{FieldID: o.FieldID, DisplayOrder: o.DisplayOrder}
	}

	schema, err := h.schemas.ReorderFields(c.Request.Context(), userID, listID, schemaID, orders)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, schema)
}

// DeleteSchema handles DELETE /lists/:list_id/schemas/:schema_id.
func (h *SchemaHandler) DeleteSchema(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := parseID(c, "list_id")
	if !ok {
		return
	}
	schemaID, ok := parseID(c, "schema_id")
	if !ok {
		return
	}

	if err := h.schemas.DeleteSchema(c.Request.Context(), userID, listID, schemaID); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
