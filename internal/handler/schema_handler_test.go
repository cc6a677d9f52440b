package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/repository"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSchemaService struct {
	createFn  func(ctx context.Context, userID, listID uuid.UUID, name string, inputs []service.SchemaFieldInput) (*service.SchemaDetail, error)
	getFn     func(ctx context.Context, userID, listID, schemaID uuid.UUID) (*service.SchemaDetail, error)
	getAllFn  func(ctx context.Context, userID, listID uuid.UUID) ([]*service.SchemaDetail, error)
	updateFn  func(ctx context.Context, userID, listID, schemaID uuid.UUID, name *string, fields []service.SchemaFieldInput, replaceFields bool) (*service.SchemaDetail, error)
	reorderFn func(ctx context.Context, userID, listID, schemaID uuid.UUID, orders []repository.FieldOrder) (*service.SchemaDetail, error)
	deleteFn  func(ctx context.Context, userID, listID, schemaID uuid.UUID) error
}

func (s *stubSchemaService) CreateSchema(ctx context.Context, userID, listID uuid.UUID, name string, inputs []service.SchemaFieldInput) (*service.SchemaDetail, error) {
	return s.createFn(ctx, userID, listID, name, inputs)
}

func (s *stubSchemaService) GetSchema(ctx context.Context, userID, listID, schemaID uuid.UUID) (*service.SchemaDetail, error) {
	return s.getFn(ctx, userID, listID, schemaID)
}

func (s *stubSchemaService) GetSchemas(ctx context.Context, userID, listID uuid.UUID) ([]*service.SchemaDetail, error) {
	return s.getAllFn(ctx, userID, listID)
}

func (s *stubSchemaService) UpdateSchema(ctx context.Context, userID, listID, schemaID uuid.UUID, name *string, fields []service.SchemaFieldInput, replaceFields bool) (*service.SchemaDetail, error) {
	return s.updateFn(ctx, userID, listID, schemaID, name, fields, replaceFields)
}

func (s *stubSchemaService) ReorderFields(ctx context.Context, userID, listID, schemaID uuid.UUID, orders []repository.FieldOrder) (*service.SchemaDetail, error) {
	return s.reorderFn(ctx, userID, listID, schemaID, orders)
}

func (s *stubSchemaService) DeleteSchema(ctx context.Context, userID, listID, schemaID uuid.UUID) error {
	return s.deleteFn(ctx, userID, listID, schemaID)
}

func schemaRoutes(userID uuid.UUID, svc SchemaService) *gin.Engine {
	r := testRouter(userID)
	h := NewSchemaHandler(svc)
	r.POST("/lists/:list_id/schemas", h.CreateSchema)
	r.GET("/lists/:list_id/schemas", h.GetSchemas)
	r.GET("/lists/:list_id/schemas/:schema_id", h.GetSchema)
	r.PUT("/lists/:list_id/schemas/:schema_id", h.UpdateSchema)
	r.PUT("/lists/:list_id/schemas/:schema_id/reorder", h.ReorderFields)
	r.DELETE("/lists/:list_id/schemas/:schema_id", h.DeleteSchema)
	return r
}

func TestSchemaHandler_CreateSchema(t *testing.T) {
	fieldA := uuid.New()
	fieldB := uuid.New()
	svc := &stubSchemaService{
		createFn: func(_ context.Context, _, _ uuid.UUID, name string, inputs []service.SchemaFieldInput) (*service.SchemaDetail, error) {
			assert.Equal(t, "Review", name)
			require.Len(t, inputs, 2)
			assert.Equal(t, fieldA, inputs[0].FieldID)
			assert.Equal(t, 0, inputs[0].DisplayOrder)
			assert.True(t, inputs[0].ShowOnCard)
			assert.Equal(t, fieldB, inputs[1].FieldID)
			return &service.SchemaDetail{}, nil
		},
	}

	w := performJSON(schemaRoutes(uuid.New(), svc), http.MethodPost,
		"/lists/"+uuid.NewString()+"/schemas",
		gin.H{
			"name": "Review",
			"fields": []gin.H{
				{"field_id": fieldA, "display_order": 0, "show_on_card": true},
				{"field_id": fieldB, "display_order": 1},
			},
		})

	require.Equal(t, http.StatusCreated, w.Code)
}

func TestSchemaHandler_CreateSchema_InvariantViolated(t *testing.T) {
	svc := &stubSchemaService{
		createFn: func(context.Context, uuid.UUID, uuid.UUID, string, []service.SchemaFieldInput) (*service.SchemaDetail, error) {
			return nil, service.NewSchemaInvariantError("max_show_on_card", "at most 3 fields can be shown on the card")
		},
	}

	w := performJSON(schemaRoutes(uuid.New(), svc), http.MethodPost,
		"/lists/"+uuid.NewString()+"/schemas", gin.H{"name": "Review"})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, service.CodeSchemaInvariant, resp.Error)
	assert.Equal(t, "max_show_on_card", resp.Details["rule"])
}

func TestSchemaHandler_UpdateSchema_FieldsPresent(t *testing.T) {
	var gotReplace bool
	var gotFields []service.SchemaFieldInput
	svc := &stubSchemaService{
		updateFn: func(_ context.Context, _, _, _ uuid.UUID, name *string, fields []service.SchemaFieldInput, replace bool) (*service.SchemaDetail, error) {
			assert.Nil(t, name)
			gotReplace = replace
			gotFields = fields
			return &service.SchemaDetail{}, nil
		},
	}

	fieldID := uuid.New()
	w := performJSON(schemaRoutes(uuid.New(), svc), http.MethodPut,
		"/lists/"+uuid.NewString()+"/schemas/"+uuid.NewString(),
		gin.H{"fields": []gin.H{{"field_id": fieldID, "display_order": 0}}})

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gotReplace)
	require.Len(t, gotFields, 1)
	assert.Equal(t, fieldID, gotFields[0].FieldID)
}

func TestSchemaHandler_UpdateSchema_FieldsAbsent(t *testing.T) {
	var gotReplace bool
	var gotName *string
	svc := &stubSchemaService{
		updateFn: func(_ context.Context, _, _, _ uuid.UUID, name *string, fields []service.SchemaFieldInput, replace bool) (*service.SchemaDetail, error) {
			gotName = name
			gotReplace = replace
			assert.Nil(t, fields)
			return &service.SchemaDetail{}, nil
		},
	}

	w := performJSON(schemaRoutes(uuid.New(), svc), http.MethodPut,
		"/lists/"+uuid.NewString()+"/schemas/"+uuid.NewString(),
		gin.H{"name": "Renamed"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, gotReplace)
	require.NotNil(t, gotName)
	assert.Equal(t, "Renamed", *gotName)
}

func TestSchemaHandler_ReorderFields(t *testing.T) {
	fieldA := uuid.New()
	fieldB := uuid.New()
	var gotOrders []repository.FieldOrder
	svc := &stubSchemaService{
		reorderFn: func(_ context.Context, _, _, _ uuid.UUID, orders []repository.FieldOrder) (*service.SchemaDetail, error) {
			gotOrders = orders
			return &service.SchemaDetail{}, nil
		},
	}

	w := performJSON(schemaRoutes(uuid.New(), svc), http.MethodPut,
		"/lists/"+uuid.NewString()+"/schemas/"+uuid.NewString()+"/reorder",
		gin.H{"orders": []gin.H{
			{"field_id": fieldB, "display_order": 0},
			{"field_id": fieldA, "display_order": 1},
		}})

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, gotOrders, 2)
	assert.Equal(t, fieldB, gotOrders[0].FieldID)
	assert.Equal(t, 0, gotOrders[0].DisplayOrder)
}

func TestSchemaHandler_ReorderFields_EmptyOrders(t *testing.T) {
	svc := &stubSchemaService{}
	w := performJSON(schemaRoutes(uuid.New(), svc), http.MethodPut,
		"/lists/"+uuid.NewString()+"/schemas/"+uuid.NewString()+"/reorder",
		gin.H{"orders": []gin.H{}})

	require.Equal(t, http.StatusBadRequest, w.Code)
}
