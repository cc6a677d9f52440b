package models

import (
	"time"

	"github.com/google/uuid"
)

// Video processing statuses.
const (
	ProcessingStatusPending    = "pending"
	ProcessingStatusProcessing = "processing"
	ProcessingStatusCompleted  = "completed"
	ProcessingStatusFailed     = "failed"
)

// Video is one YouTube video inside a list, unique per (list_id, youtube_id).
// Metadata columns stay null until the enrichment worker fills them.
type Video struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	ListID           uuid.UUID  `db:"list_id" json:"list_id"`
	YouTubeID        string     `db:"youtube_id" json:"youtube_id"`
	URL              string     `db:"url" json:"url"`
	Title            *string    `db:"title" json:"title,omitempty"`
	Channel          *string    `db:"channel" json:"channel,omitempty"`
	ThumbnailURL     *string    `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	DurationSeconds  *int       `db:"duration_seconds" json:"duration_seconds,omitempty"`
	PublishedAt      *time.Time `db:"published_at" json:"published_at,omitempty"`
	ProcessingStatus string     `db:"processing_status" json:"processing_status"`
	WatchPosition    *int       `db:"watch_position" json:"watch_position,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// NewVideo creates a pending Video for a canonical YouTube id.
func NewVideo(listID uuid.UUID, youtubeID, url string) *Video {
	now := time.Now()
	return &Video{
		ID:               uuid.New(),
		ListID:           listID,
		YouTubeID:        youtubeID,
		URL:              url,
		ProcessingStatus: ProcessingStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
