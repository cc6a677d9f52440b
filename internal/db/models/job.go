package models

import (
	"time"

	"github.com/google/uuid"
)

// Ingestion job statuses.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusCanceled  = "canceled"
)

// Video job statuses.
const (
	VideoJobStatusPending  = "pending"
	VideoJobStatusRunning  = "running"
	VideoJobStatusDone     = "done"
	VideoJobStatusError    = "error"
	VideoJobStatusCanceled = "canceled"
)

// Enrichment stages, the unit of retry and progress.
const (
	StageCreated  = "created"
	StageMetadata = "metadata"
	StageCaptions = "captions"
	StageChapters = "chapters"
	StageComplete = "complete"
	StageError    = "error"
)

var stageRank = map[string]int{
	StageCreated:  0,
	StageMetadata: 1,
	StageCaptions: 2,
	StageChapters: 3,
	StageComplete: 4,
}

// StageRank returns the position of a non-error stage in the pipeline order,
// or -1 for error/unknown stages.
func StageRank(stage string) int {
	if r, ok := stageRank[stage]; ok {
		return r
	}
	return -1
}

// IngestionJob is the parent record of one bulk submission.
type IngestionJob struct {
	ID            uuid.UUID `db:"id" json:"id"`
	ListID        uuid.UUID `db:"list_id" json:"list_id"`
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	Status        string    `db:"status" json:"status"`
	Total         int       `db:"total" json:"total"`
	Completed     int       `db:"completed" json:"completed"`
	Failed        int       `db:"failed" json:"failed"`
	RejectedCount int       `db:"rejected_count" json:"rejected_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// NewIngestionJob creates a pending IngestionJob.
func NewIngestionJob(listID, userID uuid.UUID, total, rejected int) *IngestionJob {
	now := time.Now()
	return &IngestionJob{
		ID:            uuid.New(),
		ListID:        listID,
		UserID:        userID,
		Status:        JobStatusPending,
		Total:         total,
		RejectedCount: rejected,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// VideoJob is the per-video child of an ingestion job. Stage advances
// monotonically except on retry, which resets to the earliest failed stage.
type VideoJob struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	JobID     uuid.UUID  `db:"job_id" json:"job_id"`
	VideoID   uuid.UUID  `db:"video_id" json:"video_id"`
	Status    string     `db:"status" json:"status"`
	Stage     string     `db:"stage" json:"stage"`
	Attempts  int        `db:"attempts" json:"attempts"`
	LastError *string    `db:"last_error" json:"last_error,omitempty"`
	ClaimedAt *time.Time `db:"claimed_at" json:"claimed_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// NewVideoJob creates a pending VideoJob at the created stage.
func NewVideoJob(jobID, videoID uuid.UUID) *VideoJob {
	now := time.Now()
	return &VideoJob{
		ID:        uuid.New(),
		JobID:     jobID,
		VideoID:   videoID,
		Status:    VideoJobStatusPending,
		Stage:     StageCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
