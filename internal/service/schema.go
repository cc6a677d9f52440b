package service

import (
	"context"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/db"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/repository"
	"github.com/vidshelf/youtube-list-ingestion-go/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Rules reported with schema_invariant_violated errors.
const (
	RuleMaxShowOnCard      = "max_show_on_card=3"
	RuleUniqueDisplayOrder = "unique_display_order"
	RuleUniqueField        = "unique_field"
)

// SchemaService manages named, ordered field groupings. Schemas reference
// fields from the list catalog; tags and the list's workspace default bind
// to schemas to decide which fields a video exposes.
type SchemaService struct {
	lists   repository.ListRepository
	schemas repository.FieldSchemaRepository
	fields  repository.CustomFieldRepository
}

// NewSchemaService creates a new SchemaService.
func NewSchemaService(lists repository.ListRepository, schemas repository.FieldSchemaRepository, fields repository.CustomFieldRepository) *SchemaService {
	return &SchemaService{lists: lists, schemas: schemas, fields: fields}
}

// SchemaFieldInput is one field placement in a create or replace request.
type SchemaFieldInput struct {
	FieldID      uuid.UUID
	DisplayOrder int
	ShowOnCard   bool
}

// SchemaDetail is a schema with its ordered field memberships.
type SchemaDetail struct {
	*models.FieldSchema
	Fields []*models.SchemaFieldDetail `json:"fields"`
}

// CreateSchema creates a schema with its initial field set.
func (s *SchemaService) CreateSchema(ctx context.Context, userID, listID uuid.UUID, name string, inputs []SchemaFieldInput) (*SchemaDetail, error) {
	if _, err := requireOwnedList(ctx, s.lists, userID, listID); err != nil {
		return nil, err
	}

	name, err := validateName(name, MaxFieldNameLength, "schema")
	if err != nil {
		return nil, err
	}

	if err := s.validateFieldInputs(ctx, listID, inputs); err != nil {
		return nil, err
	}

	schema := models.NewFieldSchema(listID, name)
	if err := s.schemas.CreateSchema(ctx, schema); err != nil {
		return nil, &ProcessingError{Message: "create schema", Cause: err}
	}

	if len(inputs) > 0 {
		if err := s.schemas.ReplaceSchemaFields(ctx, schema.ID, buildSchemaFields(schema.ID, inputs)); err != nil {
			return nil, &ProcessingError{Message: "set schema fields", Cause: err}
		}
	}

	logger.Log.Info("Schema created",
		zap.String("schemaId", schema.ID.String()),
		zap.String("listId", listID.String()),
		zap.Int("fields", len(inputs)))

	return s.loadDetail(ctx, schema)
}

// GetSchema returns one schema with its fields.
func (s *SchemaService) GetSchema(ctx context.Context, userID, listID, schemaID uuid.UUID) (*SchemaDetail, error) {
	if _, err := requireOwnedList(ctx, s.lists, userID, listID); err != nil {
		return nil, err
	}

	schema, err := s.requireSchema(ctx, listID, schemaID)
	if err != nil {
		return nil, err
	}
	return s.loadDetail(ctx, schema)
}

// GetSchemas returns every schema in the list with its fields.
func (s *SchemaService) GetSchemas(ctx context.Context, userID, listID uuid.UUID) ([]*SchemaDetail, error) {
	if _, err := requireOwnedList(ctx, s.lists, userID, listID); err != nil {
		return nil, err
	}

	schemas, err := s.schemas.GetSchemasByList(ctx, listID)
	if err != nil {
		return nil, &ProcessingError{Message: "get schemas", Cause: err}
	}

	ids := make([]uuid.UUID, len(schemas))
	for i, schema := range schemas {
		ids[i] = schema.ID
	}

	fieldsBySchema, err := s.schemas.GetSchemaFieldsForSchemas(ctx, ids)
	if err != nil {
		return nil, &ProcessingError{Message: "get schema fields", Cause: err}
	}

	details := make([]*SchemaDetail, len(schemas))
	for i, schema := range schemas {
		details[i] = &SchemaDetail{FieldSchema: schema, Fields: fieldsBySchema[schema.ID]}
	}
	return details, nil
}

// UpdateSchema renames a schema and, when fields is non-nil, atomically
// replaces its memberships.
func (s *SchemaService) UpdateSchema(ctx context.Context, userID, listID, schemaID uuid.UUID, name *string, fields []SchemaFieldInput, replaceFields bool) (*SchemaDetail, error) {
	if _, err := requireOwnedList(ctx, s.lists, userID, listID); err != nil {
		return nil, err
	}

	schema, err := s.requireSchema(ctx, listID, schemaID)
	if err != nil {
		return nil, err
	}

	if name != nil {
		newName, err := validateName(*name, MaxFieldNameLength, "schema")
		if err != nil {
			return nil, err
		}
		if err := s.schemas.UpdateSchemaName(ctx, schemaID, newName); err != nil {
			return nil, &ProcessingError{Message: "rename schema", Cause: err}
		}
		schema.Name = newName
	}

	if replaceFields {
		if err := s.validateFieldInputs(ctx, listID, fields); err != nil {
			return nil, err
		}
		if err := s.schemas.ReplaceSchemaFields(ctx, schemaID, buildSchemaFields(schemaID, fields)); err != nil {
			return nil, &ProcessingError{Message: "replace schema fields", Cause: err}
		}
	}

	return s.loadDetail(ctx, schema)
}

// ReorderFields applies a complete new display order in one transaction.
// The request must cover exactly the schema's current membership.
func (s *SchemaService) ReorderFields(ctx context.Context, userID, listID, schemaID uuid.UUID, orders []repository.FieldOrder) (*SchemaDetail, error) {
	if _, err := requireOwnedList(ctx, s.lists, userID, listID); err != nil {
		return nil, err
	}

	schema, err := s.requireSchema(ctx, listID, schemaID)
	if err != nil {
		return nil, err
	}

	current, err := s.schemas.GetSchemaFields(ctx, schemaID)
	if err != nil {
		return nil, &ProcessingError{Message: "get schema fields", Cause: err}
	}

	if len(orders) != len(current) {
		return nil, NewValidationError("reorder must cover all %d schema fields", len(current))
	}

	member := make(map[uuid.UUID]struct{}, len(current))
	for _, detail := range current {
		member[detail.FieldID] = struct{}{}
	}

	seenField := make(map[uuid.UUID]struct{}, len(orders))
	seenOrder := make(map[int]struct{}, len(orders))
	for _, order := range orders {
		if _, ok := member[order.FieldID]; !ok {
			return nil, NewValidationError("field %s is not part of this schema", order.FieldID)
		}
		if _, dup := seenField[order.FieldID]; dup {
			return nil, NewSchemaInvariantError(RuleUniqueField, "field %s appears more than once", order.FieldID)
		}
		seenField[order.FieldID] = struct{}{}
		if order.DisplayOrder < 0 {
			return nil, NewValidationError("display_order must not be negative")
		}
		if _, dup := seenOrder[order.DisplayOrder]; dup {
			return nil, NewSchemaInvariantError(RuleUniqueDisplayOrder, "display_order %d appears more than once", order.DisplayOrder)
		}
		seenOrder[order.DisplayOrder] = struct{}{}
	}

	if err := s.schemas.ReorderSchemaFields(ctx, schemaID, orders); err != nil {
		return nil, &ProcessingError{Message: "reorder schema fields", Cause: err}
	}

	return s.loadDetail(ctx, schema)
}

// DeleteSchema removes a schema. Tags bound to it and the list's workspace
// assignment fall back to no schema.
func (s *SchemaService) DeleteSchema(ctx context.Context, userID, listID, schemaID uuid.UUID) error {
	if _, err := requireOwnedList(ctx, s.lists, userID, listID); err != nil {
		return err
	}

	if _, err := s.requireSchema(ctx, listID, schemaID); err != nil {
		return err
	}

	if err := s.schemas.DeleteSchema(ctx, schemaID); err != nil {
		if db.IsNotFound(err) {
			return NewNotFoundError("schema")
		}
		return &ProcessingError{Message: "delete schema", Cause: err}
	}

	logger.Log.Info("Schema deleted", zap.String("schemaId", schemaID.String()))
	return nil
}

// validateFieldInputs enforces the schema invariants: unique fields, unique
// non-negative display orders, the card display cap, and membership limited
// to fields of the same list.
func (s *SchemaService) validateFieldInputs(ctx context.Context, listID uuid.UUID, inputs []SchemaFieldInput) error {
	seenField := make(map[uuid.UUID]struct{}, len(inputs))
	seenOrder := make(map[int]struct{}, len(inputs))
	onCard := 0
	ids := make([]uuid.UUID, 0, len(inputs))

	for _, in := range inputs {
		if _, dup := seenField[in.FieldID]; dup {
			return NewSchemaInvariantError(RuleUniqueField, "field %s appears more than once", in.FieldID)
		}
		seenField[in.FieldID] = struct{}{}
		ids = append(ids, in.FieldID)

		if in.DisplayOrder < 0 {
			return NewValidationError("display_order must not be negative")
		}
		if _, dup := seenOrder[in.DisplayOrder]; dup {
			return NewSchemaInvariantError(RuleUniqueDisplayOrder, "display_order %d appears more than once", in.DisplayOrder)
		}
		seenOrder[in.DisplayOrder] = struct{}{}

		if in.ShowOnCard {
			onCard++
		}
	}

	if onCard > models.MaxShowOnCard {
		return NewSchemaInvariantError(RuleMaxShowOnCard, "at most %d fields may be shown on cards, got %d", models.MaxShowOnCard, onCard)
	}

	if len(ids) == 0 {
		return nil
	}

	fields, err := s.fields.GetFieldsByIDs(ctx, ids)
	if err != nil {
		return &ProcessingError{Message: "load schema fields", Cause: err}
	}
	byID := make(map[uuid.UUID]*models.CustomField, len(fields))
	for _, field := range fields {
		byID[field.ID] = field
	}
	for _, id := range ids {
		field, ok := byID[id]
		if !ok {
			return NewNotFoundError("field")
		}
		if field.ListID != listID {
			return NewValidationError("field %q belongs to a different list", field.Name)
		}
	}
	return nil
}

func (s *SchemaService) requireSchema(ctx context.Context, listID, schemaID uuid.UUID) (*models.FieldSchema, error) {
	schema, err := s.schemas.GetSchemaByID(ctx, schemaID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, NewNotFoundError("schema")
		}
		return nil, &ProcessingError{Message: "load schema", Cause: err}
	}
	if schema.ListID != listID {
		return nil, NewNotFoundError("schema")
	}
	return schema, nil
}

func (s *SchemaService) loadDetail(ctx context.Context, schema *models.FieldSchema) (*SchemaDetail, error) {
	fields, err := s.schemas.GetSchemaFields(ctx, schema.ID)
	if err != nil {
		return nil, &ProcessingError{Message: "get schema fields", Cause: err}
	}
	return &SchemaDetail{FieldSchema: schema, Fields: fields}, nil
}

func buildSchemaFields(schemaID uuid.UUID, inputs []SchemaFieldInput) []models.SchemaField {
	fields := make([]models.SchemaField, len(inputs))
	for i, in := range inputs {
		fields[i] = models.SchemaField{
			ID:           uuid.New(),
			SchemaID:     schemaID,
			FieldID:      in.FieldID,
			DisplayOrder: in.DisplayOrder,
			ShowOnCard:   in.ShowOnCard,
		}
	}
	return fields
}
