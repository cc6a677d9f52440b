package models

import (
	"time"

	"github.com/google/uuid"
)

// Enrichment statuses.
const (
	EnrichmentStatusPending    = "pending"
	EnrichmentStatusProcessing = "processing"
	EnrichmentStatusCompleted  = "completed"
	EnrichmentStatusPartial    = "partial"
	EnrichmentStatusFailed     = "failed"
)

// Caption sources, in the order the pipeline attempts them.
const (
	CaptionSourceManual = "manual"
	CaptionSourceAuto   = "auto"
	CaptionSourceSTT    = "stt"
)

// Chapter sources.
const (
	ChapterSourcePlatform    = "platform"
	ChapterSourceDescription = "description"
)

// Chapter is one chapter marker stored on an enrichment.
type Chapter struct {
	Title        string `json:"title"`
	StartSeconds int    `json:"start_seconds"`
	EndSeconds   int    `json:"end_seconds"`
}

// Enrichment holds everything the pipeline fetched for a video. One-to-one
// with Video. CaptionsVTT is authoritative when present; Transcript is
// derived from it (or produced directly by the speech-to-text fallback, in
// which case CaptionsVTT stays null).
type Enrichment struct {
	VideoID         uuid.UUID `db:"video_id" json:"video_id"`
	CaptionsVTT     *string   `db:"captions_vtt" json:"captions_vtt,omitempty"`
	Transcript      *string   `db:"transcript" json:"transcript,omitempty"`
	CaptionSource   *string   `db:"caption_source" json:"caption_source,omitempty"`
	Description     *string   `db:"description" json:"description,omitempty"`
	Chapters        []Chapter `db:"chapters" json:"chapters,omitempty"`
	ChapterSource   *string   `db:"chapter_source" json:"chapter_source,omitempty"`
	ProgressMessage *string   `db:"progress_message" json:"progress_message,omitempty"`
	RetryCount      int       `db:"retry_count" json:"retry_count"`
	ErrorMessage    *string   `db:"error_message" json:"error_message,omitempty"`
	Status          string    `db:"status" json:"status"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// NewEnrichment creates a pending Enrichment for a video.
func NewEnrichment(videoID uuid.UUID) *Enrichment {
	return &Enrichment{
		VideoID:   videoID,
		Status:    EnrichmentStatusPending,
		UpdatedAt: time.Now(),
	}
}

// Degraded reports whether a completed enrichment is missing captions or
// chapters, which downgrades its status to partial.
func (e *Enrichment) Degraded() bool {
	return e.CaptionSource == nil || len(e.Chapters) == 0
}
