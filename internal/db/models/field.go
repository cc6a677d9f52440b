package models

import (
	"time"

	"github.com/google/uuid"
)

// FieldType discriminates the typed config and value column of a CustomField.
type FieldType string

// Supported field types.
const (
	FieldTypeSelect  FieldType = "select"
	FieldTypeRating  FieldType = "rating"
	FieldTypeText    FieldType = "text"
	FieldTypeBoolean FieldType = "boolean"
)

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeSelect, FieldTypeRating, FieldTypeText, FieldTypeBoolean:
		return true
	}
	return false
}

// CustomField is a typed field definition scoped to a list. Names are unique
// case-insensitively within the list. Config carries the type-specific
// settings and is only ever built through the constructors in fieldconfig.go.
type CustomField struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	ListID    uuid.UUID   `db:"list_id" json:"list_id"`
	Name      string      `db:"name" json:"name"`
	FieldType FieldType   `db:"field_type" json:"field_type"`
	Config    FieldConfig `db:"config" json:"config"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// NewCustomField creates a CustomField after validating the config against
// the field type.
func NewCustomField(listID uuid.UUID, name string, fieldType FieldType, config FieldConfig) (*CustomField, error) {
	if err := config.Validate(fieldType); err != nil {
		return nil, err
	}
	now := time.Now()
	return &CustomField{
		ID:        uuid.New(),
		ListID:    listID,
		Name:      name,
		FieldType: fieldType,
		Config:    config,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
