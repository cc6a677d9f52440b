package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/db"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BackupRepository defines operations for category value backups.
type BackupRepository interface {
	// GetBackup retrieves the backup for a (video, category) pair.
	GetBackup(ctx context.Context, videoID, categoryTagID uuid.UUID) (*models.FieldValueBackup, error)

	// GetBackupsByVideo retrieves all backups of a video, newest first.
	GetBackupsByVideo(ctx context.Context, videoID uuid.UUID) ([]*models.FieldValueBackup, error)

	// RestoreBackup re-materializes the backed-up values into the live
	// store in one transaction, overwriting colliding values.
	RestoreBackup(ctx context.Context, videoID, categoryTagID uuid.UUID) (*models.FieldValueBackup, error)
}

type backupRepository struct {
	pool *pgxpool.Pool
}

// NewBackupRepository creates a new BackupRepository.
func NewBackupRepository(pool *pgxpool.Pool) BackupRepository {
	return &backupRepository{pool: pool}
}

func (r *backupRepository) GetBackup(ctx context.Context, videoID, categoryTagID uuid.UUID) (*models.FieldValueBackup, error) {
	query := `
		SELECT video_id, category_tag_id, category_name, payload, created_at
		FROM field_value_backups
		WHERE video_id = $1 AND category_tag_id = $2
	`

	backup := &models.FieldValueBackup{}
	var payload []byte

	err := r.pool.QueryRow(ctx, query, videoID, categoryTagID).Scan(
		&backup.VideoID,
		&backup.CategoryTagID,
		&backup.CategoryName,
		&payload,
		&backup.CreatedAt,
	)

	if err != nil {
		return nil, db.WrapError(err, "get backup")
	}

	if err := json.Unmarshal(payload, &backup.Values); err != nil {
		return nil, fmt.Errorf("unmarshal backup payload: %w", err)
	}

	return backup, nil
}

func (r *backupRepository) GetBackupsByVideo(ctx context.Context, videoID uuid.UUID) ([]*models.FieldValueBackup, error) {
	query := `
		SELECT video_id, category_tag_id, category_name, payload, created_at
		FROM field_value_backups
		WHERE video_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, videoID)
	if err != nil {
		return nil, db.WrapError(err, "get backups by video")
	}
	defer rows.Close()

	var backups []*models.FieldValueBackup
	for rows.Next() {
		backup := &models.FieldValueBackup{}
		var payload []byte

		err := rows.Scan(
			&backup.VideoID,
			&backup.CategoryTagID,
			&backup.CategoryName,
			&payload,
			&backup.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan backup: %w", err)
		}

		if err := json.Unmarshal(payload, &backup.Values); err != nil {
			return nil, fmt.Errorf("unmarshal backup payload: %w", err)
		}

		backups = append(backups, backup)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backups: %w", err)
	}

	return backups, nil
}

func (r *backupRepository) RestoreBackup(ctx context.Context, videoID, categoryTagID uuid.UUID) (*models.FieldValueBackup, error) {
	backup, err := r.GetBackup(ctx, videoID, categoryTagID)
	if err != nil {
		return nil, err
	}

	err = db.WithTxRetry(ctx, r.pool, func(tx pgx.Tx) error {
		upsert := `
			INSERT INTO video_field_values (video_id, field_id, value_text, value_numeric, value_boolean, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (video_id, field_id) DO UPDATE
			SET value_text = EXCLUDED.value_text,
			    value_numeric = EXCLUDED.value_numeric,
			    value_boolean = EXCLUDED.value_boolean,
			    updated_at = NOW()
		`

		for _, bv := range backup.Values {
			if bv.Value.IsNull() {
				continue
			}
			if _, err := tx.Exec(ctx, upsert, videoID, bv.FieldID,
				bv.Value.Text, bv.Value.Numeric, bv.Value.Boolean); err != nil {
				return fmt.Errorf("restore value: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		return nil, db.WrapError(err, "restore backup")
	}

	return backup, nil
}
