package models

import (
	"time"

	"github.com/google/uuid"
)

// ProgressEvent is one progress observation for a video. Events are appended
// to a per-video capped ring for replay and published to the owning user's
// pub/sub topic for live delivery.
type ProgressEvent struct {
	ID        int64     `db:"id" json:"-"`
	JobID     uuid.UUID `db:"job_id" json:"job_id"`
	VideoID   uuid.UUID `db:"video_id" json:"video_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Stage     string    `db:"stage" json:"stage"`
	Progress  int       `db:"progress" json:"progress"`
	Message   *string   `db:"message" json:"message,omitempty"`
	Timestamp time.Time `db:"created_at" json:"timestamp"`
}

// Terminal reports whether this event ends processing for its video.
func (e *ProgressEvent) Terminal() bool {
	return e.Stage == StageComplete || e.Stage == StageError
}
