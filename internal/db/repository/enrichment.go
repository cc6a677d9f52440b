package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/db"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnrichmentRepository defines operations for managing per-video enrichments.
type EnrichmentRepository interface {
	// EnsureEnrichment creates a pending enrichment row for the video if one
	// does not exist yet.
	EnsureEnrichment(ctx context.Context, videoID uuid.UUID) error

	// GetEnrichmentByVideoID retrieves the enrichment for a video.
	GetEnrichmentByVideoID(ctx context.Context, videoID uuid.UUID) (*models.Enrichment, error)

	// SetCaptions stores the fetched captions. VTT may be nil when the
	// speech-to-text fallback produced only a transcript.
	SetCaptions(ctx context.Context, videoID uuid.UUID, vtt, transcript *string, source string) error

	// SetChapters stores the resolved chapter list and its source.
	SetChapters(ctx context.Context, videoID uuid.UUID, chapters []models.Chapter, source string) error

	// SetDescription stores the video description fetched with metadata.
	SetDescription(ctx context.Context, videoID uuid.UUID, description *string) error

	// SetProgressMessage updates the human-readable progress note.
	SetProgressMessage(ctx context.Context, videoID uuid.UUID, message *string) error

	// SetStatus transitions the enrichment status, recording an error
	// message for failed runs.
	SetStatus(ctx context.Context, videoID uuid.UUID, status string, errorMessage *string) error

	// IncrementRetryCount bumps the retry counter after a failed attempt.
	IncrementRetryCount(ctx context.Context, videoID uuid.UUID) error
}

type enrichmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrichmentRepository creates a new EnrichmentRepository.
func NewEnrichmentRepository(pool *pgxpool.Pool) EnrichmentRepository {
	return &enrichmentRepository{pool: pool}
}

func (r *enrichmentRepository) EnsureEnrichment(ctx context.Context, videoID uuid.UUID) error {
	query := `
		INSERT INTO enrichments (video_id, status, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (video_id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, videoID, models.EnrichmentStatusPending)
	if err != nil {
		return db.WrapError(err, "ensure enrichment")
	}

	return nil
}

func (r *enrichmentRepository) GetEnrichmentByVideoID(ctx context.Context, videoID uuid.UUID) (*models.Enrichment, error) {
	query := `
		SELECT video_id, captions_vtt, transcript, caption_source, description,
		       chapters, chapter_source, progress_message, retry_count,
		       error_message, status, updated_at
		FROM enrichments
		WHERE video_id = $1
	`

	e := &models.Enrichment{}
	var chaptersJSON []byte

	err := r.pool.QueryRow(ctx, query, videoID).Scan(
		&e.VideoID,
		&e.CaptionsVTT,
		&e.Transcript,
		&e.CaptionSource,
		&e.Description,
		&chaptersJSON,
		&e.ChapterSource,
		&e.ProgressMessage,
		&e.RetryCount,
		&e.ErrorMessage,
		&e.Status,
		&e.UpdatedAt,
	)

	if err != nil {
		return nil, db.WrapError(err, "get enrichment by video id")
	}

	if len(chaptersJSON) > 0 {
		if err := json.Unmarshal(chaptersJSON, &e.Chapters); err != nil {
			return nil, fmt.Errorf("unmarshal chapters: %w", err)
		}
	}

	return e, nil
}

func (r *enrichmentRepository) SetCaptions(ctx context.Context, videoID uuid.UUID, vtt, transcript *string, source string) error {
	query := `
		UPDATE enrichments
		SET captions_vtt = $2, transcript = $3, caption_source = $4, updated_at = NOW()
		WHERE video_id = $1
	`

	tag, err := r.pool.Exec(ctx, query, videoID, vtt, transcript, source)
	if err != nil {
		return db.WrapError(err, "set captions")
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}

	return nil
}

func (r *enrichmentRepository) SetChapters(ctx context.Context, videoID uuid.UUID, chapters []models.Chapter, source string) error {
	query := `
		UPDATE enrichments
		SET chapters = $2, chapter_source = $3, updated_at = NOW()
		WHERE video_id = $1
	`

	chaptersJSON, err := json.Marshal(chapters)
	if err != nil {
		return fmt.Errorf("marshal chapters: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, videoID, chaptersJSON, source)
	if err != nil {
		return db.WrapError(err, "set chapters")
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}

	return nil
}

func (r *enrichmentRepository) SetDescription(ctx context.Context, videoID uuid.UUID, description *string) error {
	query := `
		UPDATE enrichments
		SET description = $2, updated_at = NOW()
		WHERE video_id = $1
	`

	tag, err := r.pool.Exec(ctx, query, videoID, description)
	if err != nil {
		return db.WrapError(err, "set description")
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}

	return nil
}

func (r *enrichmentRepository) SetProgressMessage(ctx context.Context, videoID uuid.UUID, message *string) error {
	query := `
		UPDATE enrichments
		SET progress_message = $2, updated_at = NOW()
		WHERE video_id = $1
	`

	_, err := r.pool.Exec(ctx, query, videoID, message)
	if err != nil {
		return db.WrapError(err, "set progress message")
	}

	return nil
}

func (r *enrichmentRepository) SetStatus(ctx context.Context, videoID uuid.UUID, status string, errorMessage *string) error {
	query := `
		UPDATE enrichments
		SET status = $2, error_message = $3, updated_at = NOW()
		WHERE video_id = $1
	`

	tag, err := r.pool.Exec(ctx, query, videoID, status, errorMessage)
	if err != nil {
		return db.WrapError(err, "set enrichment status")
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}

	return nil
}

func (r *enrichmentRepository) IncrementRetryCount(ctx context.Context, videoID uuid.UUID) error {
	query := `
		UPDATE enrichments
		SET retry_count = retry_count + 1, updated_at = NOW()
		WHERE video_id = $1
	`

	_, err := r.pool.Exec(ctx, query, videoID)
	if err != nil {
		return db.WrapError(err, "increment retry count")
	}

	return nil
}
