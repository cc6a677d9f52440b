package repository

import (
	"context"
	"fmt"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/db"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VideoRepository defines operations for managing videos.
type VideoRepository interface {
	// EnsureVideo inserts the video unless one with the same canonical id
	// already exists in the list. On conflict the existing row is loaded
	// into video and created is false.
	EnsureVideo(ctx context.Context, video *models.Video) (created bool, err error)

	// GetVideoByID retrieves a single video by ID.
	GetVideoByID(ctx context.Context, id uuid.UUID) (*models.Video, error)

	// GetVideosByList retrieves videos in a list with pagination, newest first.
	GetVideosByList(ctx context.Context, listID uuid.UUID, limit, offset int) ([]*models.Video, error)

	// CountVideosByList returns the number of videos in a list.
	CountVideosByList(ctx context.Context, listID uuid.UUID) (int, error)

	// UpdateVideoMetadata writes the enriched metadata columns.
	UpdateVideoMetadata(ctx context.Context, video *models.Video) error

	// UpdateProcessingStatus transitions the video's processing status.
	UpdateProcessingStatus(ctx context.Context, id uuid.UUID, status string) error

	// UpdateWatchPosition records the player position in seconds.
	UpdateWatchPosition(ctx context.Context, id uuid.UUID, seconds int) error

	// DeleteVideo deletes a video and cascades to its enrichment, values,
	// tags, and progress ring.
	DeleteVideo(ctx context.Context, id uuid.UUID) error
}

type videoRepository struct {
	pool *pgxpool.Pool
}

// NewVideoRepository creates a new VideoRepository.
func NewVideoRepository(pool *pgxpool.Pool) VideoRepository {
	return &videoRepository{pool: pool}
}

func (r *videoRepository) EnsureVideo(ctx context.Context, video *models.Video) (bool, error) {
	query := `
		INSERT INTO videos (id, list_id, youtube_id, url, processing_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (list_id, youtube_id) DO NOTHING
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		video.ID,
		video.ListID,
		video.YouTubeID,
		video.URL,
		video.ProcessingStatus,
		video.CreatedAt,
		video.UpdatedAt,
	).Scan(&video.CreatedAt, &video.UpdatedAt)

	if err == nil {
		return true, nil
	}
	if err != pgx.ErrNoRows {
		return false, db.WrapError(err, "ensure video")
	}

	// Conflict: load the existing row so the caller sees its id and status.
	existing, err := r.getByListAndYouTubeID(ctx, video.ListID, video.YouTubeID)
	if err != nil {
		return false, err
	}
	*video = *existing

	return false, nil
}

func (r *videoRepository) getByListAndYouTubeID(ctx context.Context, listID uuid.UUID, youtubeID string) (*models.Video, error) {
	query := `
		SELECT id, list_id, youtube_id, url, title, channel, thumbnail_url,
		       duration_seconds, published_at, processing_status, watch_position,
		       created_at, updated_at
		FROM videos
		WHERE list_id = $1 AND youtube_id = $2
	`

	video := &models.Video{}
	err := r.pool.QueryRow(ctx, query, listID, youtubeID).Scan(
		&video.ID,
		&video.ListID,
		&video.YouTubeID,
		&video.URL,
		&video.Title,
		&video.Channel,
		&video.ThumbnailURL,
		&video.DurationSeconds,
		&video.PublishedAt,
		&video.ProcessingStatus,
		&video.WatchPosition,
		&video.CreatedAt,
		&video.UpdatedAt,
	)

	if err != nil {
		return nil, db.WrapError(err, "get video by list and youtube id")
	}

	return video, nil
}

func (r *videoRepository) GetVideoByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	query := `
		SELECT id, list_id, youtube_id, url, title, channel, thumbnail_url,
		       duration_seconds, published_at, processing_status, watch_position,
		       created_at, updated_at
		FROM videos
		WHERE id = $1
	`

	video := &models.Video{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&video.ID,
		&video.ListID,
		&video.YouTubeID,
		&video.URL,
		&video.Title,
		&video.Channel,
		&video.ThumbnailURL,
		&video.DurationSeconds,
		&video.PublishedAt,
		&video.ProcessingStatus,
		&video.WatchPosition,
		&video.CreatedAt,
		&video.UpdatedAt,
	)

	if err != nil {
		return nil, db.WrapError(err, "get video by id")
	}

	return video, nil
}

func (r *videoRepository) GetVideosByList(ctx context.Context, listID uuid.UUID, limit, offset int) ([]*models.Video, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, list_id, youtube_id, url, title, channel, thumbnail_url,
		       duration_seconds, published_at, processing_status, watch_position,
		       created_at, updated_at
		FROM videos
		WHERE list_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, listID, limit, offset)
	if err != nil {
		return nil, db.WrapError(err, "get videos by list")
	}
	defer rows.Close()

	return scanVideos(rows)
}

func (r *videoRepository) CountVideosByList(ctx context.Context, listID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*)::int FROM videos WHERE list_id = $1`

	var count int
	if err := r.pool.QueryRow(ctx, query, listID).Scan(&count); err != nil {
		return 0, db.WrapError(err, "count videos by list")
	}

	return count, nil
}

func (r *videoRepository) UpdateVideoMetadata(ctx context.Context, video *models.Video) error {
	query := `
		UPDATE videos
		SET title = $2,
		    channel = $3,
		    thumbnail_url = $4,
		    duration_seconds = $5,
		    published_at = $6,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		video.ID,
		video.Title,
		video.Channel,
		video.ThumbnailURL,
		video.DurationSeconds,
		video.PublishedAt,
	).Scan(&video.UpdatedAt)

	if err != nil {
		return db.WrapError(err, "update video metadata")
	}

	return nil
}

func (r *videoRepository) UpdateProcessingStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `
		UPDATE videos
		SET processing_status = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return db.WrapError(err, "update processing status")
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}

	return nil
}

func (r *videoRepository) UpdateWatchPosition(ctx context.Context, id uuid.UUID, seconds int) error {
	query := `
		UPDATE videos
		SET watch_position = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, seconds)
	if err != nil {
		return db.WrapError(err, "update watch position")
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}

	return nil
}

func (r *videoRepository) DeleteVideo(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM videos WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return db.WrapError(err, "delete video")
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}

	return nil
}

// Helper function to scan multiple videos from query results
func scanVideos(rows pgx.Rows) ([]*models.Video, error) {
	var videos []*models.Video

	for rows.Next() {
		video := &models.Video{}
		err := rows.Scan(
			&video.ID,
			&video.ListID,
			&video.YouTubeID,
			&video.URL,
			&video.Title,
			&video.Channel,
			&video.ThumbnailURL,
			&video.DurationSeconds,
			&video.PublishedAt,
			&video.ProcessingStatus,
			&video.WatchPosition,
			&video.CreatedAt,
			&video.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}
