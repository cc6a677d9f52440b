package models

import (
	"time"

	"github.com/google/uuid"
)

// BackupValue is one snapshotted field value inside a backup payload.
type BackupValue struct {
	FieldID uuid.UUID  `json:"field_id"`
	Value   TypedValue `json:"value"`
}

// FieldValueBackup snapshots the category-specific field values of a video
// at the moment its category tag changed away. Keyed by
// (video_id, category_tag_id); a later snapshot for the same key overwrites
// the earlier one.
type FieldValueBackup struct {
	VideoID       uuid.UUID     `db:"video_id" json:"video_id"`
	CategoryTagID uuid.UUID     `db:"category_tag_id" json:"category_tag_id"`
	CategoryName  string        `db:"category_name" json:"category_name"`
	Values        []BackupValue `db:"payload" json:"values"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}
