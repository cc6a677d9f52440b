// Package models contains the request and response DTOs for the video list
// ingestion API. Domain entities live in internal/db/models; everything here
// exists to bind and shape HTTP bodies.
package models

import (
	"encoding/json"
	"time"

	dbmodels "github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"

	"github.com/google/uuid"
)

// ErrorResponse represents an error response. Error carries one of the
// stable machine codes from internal/service; clients branch on it.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ErrorResponse struct {
	Timestamp time.Time      `json:"timestamp"`
	Status    int            `json:"status"`
	Error     string         `json:"error"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Path      string         `json:"path"`
}

// CreateListDTO represents a list creation request.
type CreateListDTO struct {
	Name string `json:"name" binding:"required,max=200"`
}

// RenameListDTO represents a list rename request.
type RenameListDTO struct {
	Name string `json:"name" binding:"required,max=200"`
}

// SetWorkspaceSchemaDTO assigns or clears a list's workspace schema. A null
// schema_id clears the assignment.
type SetWorkspaceSchemaDTO struct {
	SchemaID *uuid.UUID `json:"schema_id"`
}

// BulkIngestDTO represents a bulk URL submission.
type BulkIngestDTO struct {
	URLs []string `json:"urls" binding:"required,min=1"`
}

// ImportDTO represents an uploaded document to parse for video URLs.
type ImportDTO struct {
	Format  string `json:"format" binding:"required,oneof=text csv webloc"`
	Content string `json:"content" binding:"required"`
}

// WatchPositionDTO represents a playback position update.
type WatchPositionDTO struct {
	WatchPosition *int `json:"watch_position" binding:"required"`
}

// CreateFieldDTO represents a custom field creation request. Config is
// validated against the field type by the service.
type CreateFieldDTO struct {
	Name      string          `json:"name" binding:"required,max=100"`
	FieldType string          `json:"field_type" binding:"required,oneof=select rating text boolean"`
	Config    json.RawMessage `json:"config"`
}

// UpdateFieldDTO represents a custom field update. Absent fields keep their
// current value; Confirm acknowledges a destructive type or config change.
type UpdateFieldDTO struct {
	Name      *string         `json:"name,omitempty" binding:"omitempty,max=100"`
	FieldType *string         `json:"field_type,omitempty" binding:"omitempty,oneof=select rating text boolean"`
	Config    json.RawMessage `json:"config,omitempty"`
	Confirm   bool            `json:"confirm"`
}

// CheckDuplicateDTO represents a duplicate-name probe.
type CheckDuplicateDTO struct {
	Name string `json:"name" binding:"required,max=100"`
}

// CheckDuplicateResponseDTO is the probe result, carrying the existing field
// when the name is taken.
type CheckDuplicateResponseDTO struct {
	Exists bool                  `json:"exists"`
	Field  *dbmodels.CustomField `json:"field,omitempty"`
}

// SchemaFieldDTO is one field membership inside a schema write.
type SchemaFieldDTO struct {
	FieldID      uuid.UUID `json:"field_id" binding:"required"`
	DisplayOrder int       `json:"display_order" binding:"min=0"`
	ShowOnCard   bool      `json:"show_on_card"`
}

// CreateSchemaDTO represents a schema creation request.
type CreateSchemaDTO struct {
	Name   string           `json:"name" binding:"required,max=200"`
	Fields []SchemaFieldDTO `json:"fields"`
}

// UpdateSchemaDTO represents a schema update. A present Fields array replaces
// the entire membership; a null one leaves it untouched.
type UpdateSchemaDTO struct {
	Name   *string           `json:"name,omitempty" binding:"omitempty,max=200"`
	Fields *[]SchemaFieldDTO `json:"fields,omitempty"`
}

// FieldOrderDTO is one entry of a full reorder.
type FieldOrderDTO struct {
	FieldID      uuid.UUID `json:"field_id" binding:"required"`
	DisplayOrder int       `json:"display_order" binding:"min=0"`
}

// ReorderSchemaDTO represents a schema reorder request. Orders must cover
// every field in the schema.
type ReorderSchemaDTO struct {
	Orders []FieldOrderDTO `json:"orders" binding:"required,min=1"`
}

// FieldValueUpdateDTO is one typed value write. A null value clears the
// stored value.
type FieldValueUpdateDTO struct {
	FieldID uuid.UUID `json:"field_id" binding:"required"`
	Value   any       `json:"value"`
}

// UpdateValuesDTO represents a batch field-value write. The batch is atomic;
// one invalid entry rejects all of it.
type UpdateValuesDTO struct {
	Updates []FieldValueUpdateDTO `json:"updates" binding:"required,min=1"`
}

// CreateTagDTO represents a tag creation request. Color is a #RRGGBB hex
// string; is_video_type marks the tag as a category.
type CreateTagDTO struct {
	Name        string     `json:"name" binding:"required,max=100"`
	Color       string     `json:"color" binding:"required,len=7"`
	IsVideoType bool       `json:"is_video_type"`
	SchemaID    *uuid.UUID `json:"schema_id,omitempty"`
}

// UpdateTagDTO represents a tag update.
type UpdateTagDTO struct {
	Name     string     `json:"name" binding:"required,max=100"`
	Color    string     `json:"color" binding:"required,len=7"`
	SchemaID *uuid.UUID `json:"schema_id,omitempty"`
}

// RestoreBackupDTO names the category whose backed-up values to restore.
type RestoreBackupDTO struct {
	CategoryTagID uuid.UUID `json:"category_tag_id" binding:"required"`
}

// JobProgressResponseDTO is a job's state with its progress events newer
// than the requested since timestamp, oldest first.
type JobProgressResponseDTO struct {
	Job    *dbmodels.IngestionJob    `json:"job"`
	Events []*dbmodels.ProgressEvent `json:"events"`
}
