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

// FieldValueRepository defines operations for typed per-video field values.
type FieldValueRepository interface {
	// GetValuesByVideo retrieves the video's stored values joined with their
	// field definitions.
	GetValuesByVideo(ctx context.Context, videoID uuid.UUID) ([]*models.FieldValueDetail, error)

	// GetValuesByVideos retrieves stored values for several videos in one
	// query, grouped by video.
	GetValuesByVideos(ctx context.Context, videoIDs []uuid.UUID) (map[uuid.UUID][]*models.FieldValueDetail, error)

	// UpsertValuesBatch applies a batch of already-coerced values to one
	// video in a single transaction. A null value deletes the row. Nothing
	// is written if any statement fails.
	UpsertValuesBatch(ctx context.Context, videoID uuid.UUID, values []models.VideoFieldValue) error
}

type fieldValueRepository struct {
	pool *pgxpool.Pool
}

// NewFieldValueRepository creates a new FieldValueRepository.
func NewFieldValueRepository(pool *pgxpool.Pool) FieldValueRepository {
	return &fieldValueRepository{pool: pool}
}

func (r *fieldValueRepository) GetValuesByVideo(ctx context.Context, videoID uuid.UUID) ([]*models.FieldValueDetail, error) {
	query := `
		SELECT v.video_id, v.value_text, v.value_numeric, v.value_boolean, v.updated_at,
		       f.id, f.list_id, f.name, f.field_type, f.config, f.created_at, f.updated_at
		FROM video_field_values v
		JOIN custom_fields f ON f.id = v.field_id
		WHERE v.video_id = $1
		ORDER BY f.created_at, f.id
	`

	rows, err := r.pool.Query(ctx, query, videoID)
	if err != nil {
		return nil, db.WrapError(err, "get values by video")
	}
	defer rows.Close()

	details, _, err := scanValueDetails(rows)
	return details, err
}

func (r *fieldValueRepository) GetValuesByVideos(ctx context.Context, videoIDs []uuid.UUID) (map[uuid.UUID][]*models.FieldValueDetail, error) {
	grouped := make(map[uuid.UUID][]*models.FieldValueDetail, len(videoIDs))
	if len(videoIDs) == 0 {
		return grouped, nil
	}

	query := `
		SELECT v.video_id, v.value_text, v.value_numeric, v.value_boolean, v.updated_at,
		       f.id, f.list_id, f.name, f.field_type, f.config, f.created_at, f.updated_at
		FROM video_field_values v
		JOIN custom_fields f ON f.id = v.field_id
		WHERE v.video_id = ANY($1)
		ORDER BY v.video_id, f.created_at, f.id
	`

	rows, err := r.pool.Query(ctx, query, videoIDs)
	if err != nil {
		return nil, db.WrapError(err, "get values by videos")
	}
	defer rows.Close()

	details, owners, err := scanValueDetails(rows)
	if err != nil {
		return nil, err
	}

	for i, d := range details {
		grouped[owners[i]] = append(grouped[owners[i]], d)
	}

	return grouped, nil
}

func (r *fieldValueRepository) UpsertValuesBatch(ctx context.Context, videoID uuid.UUID, values []models.VideoFieldValue) error {
	if len(values) == 0 {
		return nil
	}

	err := db.WithTxRetry(ctx, r.pool, func(tx pgx.Tx) error {
		deleteStmt := `
			DELETE FROM video_field_values
			WHERE video_id = $1 AND field_id = $2
		`
		upsertStmt := `
			INSERT INTO video_field_values (video_id, field_id, value_text, value_numeric, value_boolean, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (video_id, field_id) DO UPDATE
			SET value_text = EXCLUDED.value_text,
			    value_numeric = EXCLUDED.value_numeric,
			    value_boolean = EXCLUDED.value_boolean,
			    updated_at = NOW()
		`

		for _, v := range values {
			if v.Value.IsNull() {
				if _, err := tx.Exec(ctx, deleteStmt, videoID, v.FieldID); err != nil {
					return fmt.Errorf("clear value: %w", err)
				}
				continue
			}
			if _, err := tx.Exec(ctx, upsertStmt, videoID, v.FieldID,
				v.Value.Text, v.Value.Numeric, v.Value.Boolean); err != nil {
				return fmt.Errorf("upsert value: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		return db.WrapError(err, "upsert values batch")
	}

	return nil
}

// scanValueDetails returns the details plus a parallel slice of owning video
// ids, used by the multi-video read to group rows.
func scanValueDetails(rows pgx.Rows) ([]*models.FieldValueDetail, []uuid.UUID, error) {
	var (
		details []*models.FieldValueDetail
		owners  []uuid.UUID
	)

	for rows.Next() {
		d := &models.FieldValueDetail{}
		var (
			videoID    uuid.UUID
			configJSON []byte
		)

		err := rows.Scan(
			&videoID,
			&d.Value.Text,
			&d.Value.Numeric,
			&d.Value.Boolean,
			&d.UpdatedAt,
			&d.Field.ID,
			&d.Field.ListID,
			&d.Field.Name,
			&d.Field.FieldType,
			&configJSON,
			&d.Field.CreatedAt,
			&d.Field.UpdatedAt,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("scan field value: %w", err)
		}

		config, err := models.ParseFieldConfig(d.Field.FieldType, configJSON)
		if err != nil {
			return nil, nil, fmt.Errorf("parse field config: %w", err)
		}
		d.Field.Config = config

		details = append(details, d)
		owners = append(owners, videoID)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate field values: %w", err)
	}

	return details, owners, nil
}
