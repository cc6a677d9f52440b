package models

import (
	"time"

	"github.com/google/uuid"
)

// TypedValue is the typed column content of a field value. At most one
// member is non-nil; all nil means "cleared".
type TypedValue struct {
	Text    *string  `json:"text,omitempty"`
	Numeric *float64 `json:"numeric,omitempty"`
	Boolean *bool    `json:"boolean,omitempty"`
}

// IsNull reports whether no member is set.
func (v TypedValue) IsNull() bool {
	return v.Text == nil && v.Numeric == nil && v.Boolean == nil
}

// AsAny returns the populated member as an untyped JSON value, or nil.
func (v TypedValue) AsAny() any {
	switch {
	case v.Text != nil:
		return *v.Text
	case v.Numeric != nil:
		return *v.Numeric
	case v.Boolean != nil:
		return *v.Boolean
	}
	return nil
}

// VideoFieldValue is the stored value of one field on one video. Exactly one
// typed column is non-null, matching the field's type. Only updated_at is
// tracked.
type VideoFieldValue struct {
	VideoID   uuid.UUID  `db:"video_id" json:"video_id"`
	FieldID   uuid.UUID  `db:"field_id" json:"field_id"`
	Value     TypedValue `db:"-" json:"value"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// FieldValueDetail joins a value with its field definition for API reads.
type FieldValueDetail struct {
	Field     CustomField `json:"field"`
	Value     TypedValue  `json:"value"`
	UpdatedAt time.Time   `json:"updated_at"`
}
