package service

import (
	"context"
	"encoding/json"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/db"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/repository"
	"github.com/vidshelf/youtube-list-ingestion-go/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FieldService manages the per-list catalog of custom field definitions.
// Edits that would lose stored values are gated behind an explicit
// confirmation flag so the API never destroys data silently.
type FieldService struct {
	lists  repository.ListRepository
	fields repository.CustomFieldRepository
}

// NewFieldService creates a new FieldService.
func NewFieldService(lists repository.ListRepository, fields repository.CustomFieldRepository) *FieldService {
	return &FieldService{lists: lists, fields: fields}
}

// UpdateFieldInput carries a partial field update. Config is applied only
// when provided; Confirm acknowledges destructive consequences.
type UpdateFieldInput struct {
	Name      *string
	FieldType *models.FieldType
	Config    json.RawMessage
	Confirm   bool
}

// CreateField adds a field definition to the list. A name collision returns
// a duplicate_name error carrying the existing field so the client can offer
// reuse instead.
func (s *FieldService) CreateField(ctx context.Context, userID, listID uuid.UUID, name string, fieldType models.FieldType, rawConfig json.RawMessage) (*models.CustomField, error) {
	if _, err := requireOwnedList(ctx, s.lists, userID, listID); err != nil {
		return nil, err
	}

	name, err := validateName(name, MaxFieldNameLength, "field")
	if err != nil {
		return nil, err
	}
	if !fieldType.Valid() {
		return nil, NewValidationError("unknown field type %q", fieldType)
	}

	config, err := models.ParseFieldConfig(fieldType, rawConfig)
	if err != nil {
		return nil, NewValidationError("invalid config: %v", err)
	}

	field, err := models.NewCustomField(listID, name, fieldType, config)
	if err != nil {
		return nil, NewValidationError("invalid field: %v", err)
	}

	if err := s.fields.CreateField(ctx, field); err != nil {
		if db.IsDuplicateKey(err) {
			return nil, s.duplicateNameError(ctx, listID, name)
		}
		return nil, &ProcessingError{Message: "create field", Cause: err}
	}

	logger.Log.Info("Custom field created",
		zap.String("fieldId", field.ID.String()),
		zap.String("listId", listID.String()),
		zap.String("fieldType", string(fieldType)))

	return field, nil
}

// CheckDuplicateName reports the existing field with the same name, if any.
// Clients call this before creation to offer reusing the existing field.
func (s *FieldService) CheckDuplicateName(ctx context.Context, userID, listID uuid.UUID, name string) (*models.CustomField, error) {
	if _, err := requireOwnedList(ctx, s.lists, userID, listID); err != nil {
		return nil, err
	}

	name, err := validateName(name, MaxFieldNameLength, "field")
	if err != nil {
		return nil, err
	}

	existing, err := s.fields.GetFieldByName(ctx, listID, name)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, &ProcessingError{Message: "check field name", Cause: err}
	}
	return existing, nil
}

// GetFields returns every field definition in the list, oldest first.
func (s *FieldService) GetFields(ctx context.Context, userID, listID uuid.UUID) ([]*models.CustomField, error) {
	if _, err := requireOwnedList(ctx, s.lists, userID, listID); err != nil {
		return nil, err
	}

	fields, err := s.fields.GetFieldsByList(ctx, listID)
	if err != nil {
		return nil, &ProcessingError{Message: "get fields", Cause: err}
	}
	return fields, nil
}

// GetField returns one field definition.
func (s *FieldService) GetField(ctx context.Context, userID, listID, fieldID uuid.UUID) (*models.CustomField, error) {
	if _, err := requireOwnedList(ctx, s.lists, userID, listID); err != nil {
		return nil, err
	}
	return s.requireField(ctx, listID, fieldID)
}

// UpdateField applies a partial update. Changing the type, removing a select
// option in use, lowering a rating maximum below stored values, or
// shortening a text maximum under stored lengths all require Confirm; the
// field row and the affected values then change in one transaction.
func (s *FieldService) UpdateField(ctx context.Context, userID, listID, fieldID uuid.UUID, in UpdateFieldInput) (*models.CustomField, error) {
	if _, err := requireOwnedList(ctx, s.lists, userID, listID); err != nil {
		return nil, err
	}

	field, err := s.requireField(ctx, listID, fieldID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name, err := validateName(*in.Name, MaxFieldNameLength, "field")
		if err != nil {
			return nil, err
		}
		field.Name = name
	}

	targetType := field.FieldType
	if in.FieldType != nil {
		if !in.FieldType.Valid() {
			return nil, NewValidationError("unknown field type %q", *in.FieldType)
		}
		targetType = *in.FieldType
	}
	typeChanged := targetType != field.FieldType

	targetConfig, err := s.resolveConfig(field, targetType, typeChanged, in.Config)
	if err != nil {
		return nil, err
	}

	adj, err := s.planAdjustment(ctx, field, targetType, targetConfig, typeChanged, in.Confirm)
	if err != nil {
		return nil, err
	}

	field.FieldType = targetType
	field.Config = targetConfig

	if err := s.fields.UpdateFieldWithValues(ctx, field, adj); err != nil {
		if db.IsDuplicateKey(err) {
			return nil, s.duplicateNameError(ctx, listID, field.Name)
		}
		if db.IsNotFound(err) {
			return nil, NewNotFoundError("field")
		}
		return nil, &ProcessingError{Message: "update field", Cause: err}
	}

	logger.Log.Info("Custom field updated",
		zap.String("fieldId", field.ID.String()),
		zap.Bool("typeChanged", typeChanged))

	return field, nil
}

// DeleteField removes a field definition. A field still referenced by a
// schema or holding stored values is rejected with the referents listed.
func (s *FieldService) DeleteField(ctx context.Context, userID, listID, fieldID uuid.UUID) error {
	if _, err := requireOwnedList(ctx, s.lists, userID, listID); err != nil {
		return err
	}

	if _, err := s.requireField(ctx, listID, fieldID); err != nil {
		return err
	}

	refs, err := s.fields.GetFieldReferences(ctx, fieldID)
	if err != nil {
		return &ProcessingError{Message: "check field references", Cause: err}
	}
	if refs.InUse() {
		return NewFieldInUseError(refs)
	}

	if err := s.fields.DeleteField(ctx, fieldID); err != nil {
		if db.IsForeignKeyViolation(err) {
			// A schema grabbed the field between the check and the delete.
			refs, rerr := s.fields.GetFieldReferences(ctx, fieldID)
			if rerr == nil {
				return NewFieldInUseError(refs)
			}
			return NewFieldInUseError(&repository.FieldReferences{})
		}
		if db.IsNotFound(err) {
			return NewNotFoundError("field")
		}
		return &ProcessingError{Message: "delete field", Cause: err}
	}

	logger.Log.Info("Custom field deleted", zap.String("fieldId", fieldID.String()))
	return nil
}

// resolveConfig picks the config for an update: the provided one when given,
// the current one when the type is unchanged, or a default for target types
// that work without settings.
func (s *FieldService) resolveConfig(field *models.CustomField, targetType models.FieldType, typeChanged bool, raw json.RawMessage) (models.FieldConfig, error) {
	if len(raw) > 0 {
		config, err := models.ParseFieldConfig(targetType, raw)
		if err != nil {
			return models.FieldConfig{}, NewValidationError("invalid config: %v", err)
		}
		return config, nil
	}

	if !typeChanged {
		return field.Config, nil
	}

	switch targetType {
	case models.FieldTypeBoolean:
		return models.NewBooleanConfig(), nil
	case models.FieldTypeText:
		return models.NewTextConfig(nil)
	default:
		return models.FieldConfig{}, NewValidationError("changing to type %q requires a config", targetType)
	}
}

// planAdjustment determines how stored values must change for the edit and
// enforces the confirmation gate when any would be lost or altered.
func (s *FieldService) planAdjustment(ctx context.Context, field *models.CustomField, targetType models.FieldType, targetConfig models.FieldConfig, typeChanged, confirm bool) (repository.ValueAdjustment, error) {
	var adj repository.ValueAdjustment

	if typeChanged {
		refs, err := s.fields.GetFieldReferences(ctx, field.ID)
		if err != nil {
			return adj, &ProcessingError{Message: "count field values", Cause: err}
		}
		if refs.ValueCount > 0 {
			if !confirm {
				return adj, NewValidationError("changing the field type clears %d stored values", refs.ValueCount).
					WithDetail("requires_confirmation", true).
					WithDetail("affected_values", refs.ValueCount)
			}
			adj.ClearAll = true
		}
		return adj, nil
	}

	switch targetType {
	case models.FieldTypeSelect:
		removed := removedOptions(field.Config.Options, targetConfig.Options)
		if len(removed) == 0 {
			return adj, nil
		}
		affected, err := s.fields.CountValuesMatchingText(ctx, field.ID, removed)
		if err != nil {
			return adj, &ProcessingError{Message: "count option values", Cause: err}
		}
		if affected > 0 {
			if !confirm {
				return adj, NewValidationError("removing options would clear %d stored values", affected).
					WithDetail("requires_confirmation", true).
					WithDetail("affected_values", affected).
					WithDetail("removed_options", removed)
			}
			adj.DropTextValues = removed
		}

	case models.FieldTypeRating:
		if targetConfig.MaxRating >= field.Config.MaxRating {
			return adj, nil
		}
		above, err := s.fields.CountValuesAboveNumeric(ctx, field.ID, targetConfig.MaxRating)
		if err != nil {
			return adj, &ProcessingError{Message: "count rating values", Cause: err}
		}
		if above > 0 {
			if !confirm {
				return adj, NewValidationError("lowering max_rating to %d clips %d stored values", targetConfig.MaxRating, above).
					WithDetail("requires_confirmation", true).
					WithDetail("affected_values", above)
			}
			max := targetConfig.MaxRating
			adj.ClipNumericMax = &max
		}

	case models.FieldTypeText:
		if targetConfig.MaxLength == nil {
			return adj, nil
		}
		if field.Config.MaxLength != nil && *targetConfig.MaxLength >= *field.Config.MaxLength {
			return adj, nil
		}
		longer, err := s.fields.CountValuesLongerThan(ctx, field.ID, *targetConfig.MaxLength)
		if err != nil {
			return adj, &ProcessingError{Message: "count text values", Cause: err}
		}
		if longer > 0 {
			if !confirm {
				return adj, NewValidationError("shortening max_length to %d truncates %d stored values", *targetConfig.MaxLength, longer).
					WithDetail("requires_confirmation", true).
					WithDetail("affected_values", longer)
			}
			adj.TruncateTextTo = targetConfig.MaxLength
		}
	}

	return adj, nil
}

func (s *FieldService) requireField(ctx context.Context, listID, fieldID uuid.UUID) (*models.CustomField, error) {
	field, err := s.fields.GetFieldByID(ctx, fieldID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, NewNotFoundError("field")
		}
		return nil, &ProcessingError{Message: "load field", Cause: err}
	}
	if field.ListID != listID {
		return nil, NewNotFoundError("field")
	}
	return field, nil
}

// duplicateNameError loads the colliding field to attach to the error. When
// the lookup itself fails the code still stands, just without the field.
func (s *FieldService) duplicateNameError(ctx context.Context, listID uuid.UUID, name string) error {
	existing, err := s.fields.GetFieldByName(ctx, listID, name)
	if err != nil {
		return &Error{Code: CodeDuplicateName, Message: "a field with this name already exists in this list"}
	}
	return NewDuplicateNameError(existing)
}

func removedOptions(current, next []string) []string {
	keep := make(map[string]struct{}, len(next))
	for _, opt := range next {
		keep[opt] = struct{}{}
	}
	var removed []string
	for _, opt := range current {
		if _, ok := keep[opt]; !ok {
			removed = append(removed, opt)
		}
	}
	return removed
}
