package models

import (
	"time"

	"github.com/google/uuid"
)

// Tag is a per-user label. A tag with IsVideoType=true is a category: a video
// can carry at most one of those. SchemaID optionally binds the tag to a
// field schema whose fields apply to videos carrying the tag.
type Tag struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	UserID      uuid.UUID  `db:"user_id" json:"user_id"`
	Name        string     `db:"name" json:"name"`
	Color       string     `db:"color" json:"color"`
	IsVideoType bool       `db:"is_video_type" json:"is_video_type"`
	SchemaID    *uuid.UUID `db:"schema_id" json:"schema_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// NewTag creates a new Tag.
func NewTag(userID uuid.UUID, name, color string, isVideoType bool, schemaID *uuid.UUID) *Tag {
	return &Tag{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		Color:       color,
		IsVideoType: isVideoType,
		SchemaID:    schemaID,
		CreatedAt:   time.Now(),
	}
}

// VideoTag attaches a tag to a video. IsCategory mirrors the tag's
// IsVideoType at attach time so the single-category rule can be enforced
// with a partial unique index.
type VideoTag struct {
	VideoID    uuid.UUID `db:"video_id" json:"video_id"`
	TagID      uuid.UUID `db:"tag_id" json:"tag_id"`
	IsCategory bool      `db:"is_category" json:"is_category"`
	AttachedAt time.Time `db:"attached_at" json:"attached_at"`
}
