package models

import (
	"time"

	"github.com/google/uuid"
)

// List is a per-user collection of videos. It owns the videos, custom fields,
// and field schemas created under it. WorkspaceSchemaID points at the schema
// whose fields apply to every video in the list regardless of tags.
type List struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	UserID            uuid.UUID  `db:"user_id" json:"user_id"`
	Name              string     `db:"name" json:"name"`
	WorkspaceSchemaID *uuid.UUID `db:"workspace_schema_id" json:"workspace_schema_id,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// NewList creates a new List owned by the given user.
func NewList(userID uuid.UUID, name string) *List {
	now := time.Now()
	return &List{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
