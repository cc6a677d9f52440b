package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/db"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultRingSize is how many progress events are kept per video.
const DefaultRingSize = 200

// ProgressRepository defines operations for the durable progress history.
// History is at-least-once: replay may return events a client already saw.
type ProgressRepository interface {
	// AppendEvent appends an event to the video's history ring, trimming the
	// oldest entries beyond the ring size.
	AppendEvent(ctx context.Context, event *models.ProgressEvent) error

	// GetEventsByJobSince returns a job's events strictly newer than since,
	// oldest first, bounded by limit.
	GetEventsByJobSince(ctx context.Context, jobID uuid.UUID, since time.Time, limit int) ([]*models.ProgressEvent, error)

	// GetEventsByUserSince returns a user's events strictly newer than
	// since, oldest first, bounded by limit. A non-empty videoIDs narrows
	// the result to those videos.
	GetEventsByUserSince(ctx context.Context, userID uuid.UUID, since time.Time, videoIDs []uuid.UUID, limit int) ([]*models.ProgressEvent, error)
}

type progressRepository struct {
	pool     *pgxpool.Pool
	ringSize int
}

// NewProgressRepository creates a new ProgressRepository keeping ringSize
// events per video.
func NewProgressRepository(pool *pgxpool.Pool, ringSize int) ProgressRepository {
	if ringSize <= 0 {
		ringSize = DefaultRingSize
	}
	return &progressRepository{pool: pool, ringSize: ringSize}
}

func (r *progressRepository) AppendEvent(ctx context.Context, event *models.ProgressEvent) error {
	insert := `
		INSERT INTO job_progress_events (job_id, video_id, user_id, stage, progress, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	err := r.pool.QueryRow(ctx, insert,
		event.JobID,
		event.VideoID,
		event.UserID,
		event.Stage,
		event.Progress,
		event.Message,
		event.Timestamp,
	).Scan(&event.ID, &event.Timestamp)

	if err != nil {
		return db.WrapError(err, "append progress event")
	}

	// Trim is best-effort; a failure leaves extra history, never a gap.
	trim := `
		DELETE FROM job_progress_events
		WHERE video_id = $1
		  AND id NOT IN (
			SELECT id FROM job_progress_events
			WHERE video_id = $1
			ORDER BY id DESC
			LIMIT $2
		  )
	`
	if _, err := r.pool.Exec(ctx, trim, event.VideoID, r.ringSize); err != nil {
		return db.WrapError(err, "trim progress ring")
	}

	return nil
}

func (r *progressRepository) GetEventsByJobSince(ctx context.Context, jobID uuid.UUID, since time.Time, limit int) ([]*models.ProgressEvent, error) {
	if limit <= 0 {
		limit = DefaultRingSize
	}

	query := `
		SELECT id, job_id, video_id, user_id, stage, progress, message, created_at
		FROM job_progress_events
		WHERE job_id = $1 AND created_at > $2
		ORDER BY created_at, id
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, jobID, since, limit)
	if err != nil {
		return nil, db.WrapError(err, "get events by job")
	}
	defer rows.Close()

	return scanProgressEvents(rows)
}

func (r *progressRepository) GetEventsByUserSince(ctx context.Context, userID uuid.UUID, since time.Time, videoIDs []uuid.UUID, limit int) ([]*models.ProgressEvent, error) {
	if limit <= 0 {
		limit = DefaultRingSize
	}

	query := `
		SELECT id, job_id, video_id, user_id, stage, progress, message, created_at
		FROM job_progress_events
		WHERE user_id = $1 AND created_at > $2
	`
	args := []any{userID, since}

	if len(videoIDs) > 0 {
		query += ` AND video_id = ANY($3)`
		args = append(args, videoIDs)
	}

	query += fmt.Sprintf(" ORDER BY created_at, id LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, db.WrapError(err, "get events by user")
	}
	defer rows.Close()

	return scanProgressEvents(rows)
}

func scanProgressEvents(rows pgx.Rows) ([]*models.ProgressEvent, error) {
	var events []*models.ProgressEvent

	for rows.Next() {
		e := &models.ProgressEvent{}
		err := rows.Scan(
			&e.ID,
			&e.JobID,
			&e.VideoID,
			&e.UserID,
			&e.Stage,
			&e.Progress,
			&e.Message,
			&e.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan progress event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress events: %w", err)
	}

	return events, nil
}
