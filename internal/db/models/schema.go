package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxShowOnCard caps how many schema fields may be displayed on list cards.
const MaxShowOnCard = 3

// FieldSchema is a named, ordered set of fields scoped to a list. Tags bind
// to schemas; the list's workspace schema applies to every video.
type FieldSchema struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ListID    uuid.UUID `db:"list_id" json:"list_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewFieldSchema creates a new FieldSchema.
func NewFieldSchema(listID uuid.UUID, name string) *FieldSchema {
	now := time.Now()
	return &FieldSchema{
		ID:        uuid.New(),
		ListID:    listID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SchemaField places a field inside a schema at a display position. The
// field reference is shared, not owned: deleting a referenced CustomField
// is blocked.
type SchemaField struct {
	ID           uuid.UUID `db:"id" json:"id"`
	SchemaID     uuid.UUID `db:"schema_id" json:"schema_id"`
	FieldID      uuid.UUID `db:"field_id" json:"field_id"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	ShowOnCard   bool      `db:"show_on_card" json:"show_on_card"`
}

// SchemaFieldDetail joins a SchemaField with its field definition, ordered
// by display_order when loaded.
type SchemaFieldDetail struct {
	SchemaField
	Field CustomField `json:"field"`
}
