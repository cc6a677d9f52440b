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

// TagRepository defines operations for tags and their video attachments.
type TagRepository interface {
	// CreateTag creates a new tag. Duplicate names per user are rejected
	// case-insensitively with db.ErrDuplicateKey.
	CreateTag(ctx context.Context, tag *models.Tag) error

	// GetTagByID retrieves a single tag by ID.
	GetTagByID(ctx context.Context, id uuid.UUID) (*models.Tag, error)

	// GetTagsByUser retrieves all tags owned by a user.
	GetTagsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Tag, error)

	// UpdateTag writes the tag's name, color, and schema binding.
	UpdateTag(ctx context.Context, tag *models.Tag) error

	// DeleteTag deletes a tag and detaches it everywhere.
	DeleteTag(ctx context.Context, id uuid.UUID) error

	// AttachTag attaches a tag to a video. Re-attaching the same tag is a
	// no-op; attaching a second category tag fails with db.ErrDuplicateKey.
	AttachTag(ctx context.Context, videoID uuid.UUID, tag *models.Tag) error

	// DetachTag removes a tag from a video.
	DetachTag(ctx context.Context, videoID, tagID uuid.UUID) error

	// GetTagsByVideo retrieves a video's tags in attachment order.
	GetTagsByVideo(ctx context.Context, videoID uuid.UUID) ([]*models.Tag, error)

	// GetCategoryTag retrieves the video's current category tag, or
	// db.ErrNotFound when the video has none.
	GetCategoryTag(ctx context.Context, videoID uuid.UUID) (*models.Tag, error)

	// SwitchCategory moves the video from category tag `from` to `to` in one
	// transaction: values of fields that belong only to the old category's
	// schema (not to the workspace schema) are snapshotted into a backup and
	// removed from the live store, then the attachment rows are swapped.
	// Either tag may be nil for "no category" on that side.
	SwitchCategory(ctx context.Context, videoID uuid.UUID, from, to *models.Tag, workspaceSchemaID *uuid.UUID) error
}

type tagRepository struct {
	pool *pgxpool.Pool
}

// NewTagRepository creates a new TagRepository.
func NewTagRepository(pool *pgxpool.Pool) TagRepository {
	return &tagRepository{pool: pool}
}

func (r *tagRepository) CreateTag(ctx context.Context, tag *models.Tag) error {
	query := `
		INSERT INTO tags (id, user_id, name, color, is_video_type, schema_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		tag.ID,
		tag.UserID,
		tag.Name,
		tag.Color,
		tag.IsVideoType,
		tag.SchemaID,
		tag.CreatedAt,
	).Scan(&tag.CreatedAt)

	if err != nil {
		return db.WrapError(err, "create tag")
	}

	return nil
}

func (r *tagRepository) GetTagByID(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	query := `
		SELECT id, user_id, name, color, is_video_type, schema_id, created_at
		FROM tags
		WHERE id = $1
	`

	tag := &models.Tag{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&tag.ID,
		&tag.UserID,
		&tag.Name,
		&tag.Color,
		&tag.IsVideoType,
		&tag.SchemaID,
		&tag.CreatedAt,
	)

	if err != nil {
		return nil, db.WrapError(err, "get tag by id")
	}

	return tag, nil
}

func (r *tagRepository) GetTagsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Tag, error) {
	query := `
		SELECT id, user_id, name, color, is_video_type, schema_id, created_at
		FROM tags
		WHERE user_id = $1
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, db.WrapError(err, "get tags by user")
	}
	defer rows.Close()

	return scanTags(rows)
}

func (r *tagRepository) UpdateTag(ctx context.Context, tag *models.Tag) error {
	query := `
		UPDATE tags
		SET name = $2, color = $3, schema_id = $4
		WHERE id = $1
	`

	cmd, err := r.pool.Exec(ctx, query, tag.ID, tag.Name, tag.Color, tag.SchemaID)
	if err != nil {
		return db.WrapError(err, "update tag")
	}
	if cmd.RowsAffected() == 0 {
		return db.ErrNotFound
	}

	return nil
}

func (r *tagRepository) DeleteTag(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM tags WHERE id = $1`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return db.WrapError(err, "delete tag")
	}
	if cmd.RowsAffected() == 0 {
		return db.ErrNotFound
	}

	return nil
}

func (r *tagRepository) AttachTag(ctx context.Context, videoID uuid.UUID, tag *models.Tag) error {
	query := `
		INSERT INTO video_tags (video_id, tag_id, is_category, attached_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (video_id, tag_id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, videoID, tag.ID, tag.IsVideoType)
	if err != nil {
		return db.WrapError(err, "attach tag")
	}

	return nil
}

func (r *tagRepository) DetachTag(ctx context.Context, videoID, tagID uuid.UUID) error {
	query := `DELETE FROM video_tags WHERE video_id = $1 AND tag_id = $2`

	cmd, err := r.pool.Exec(ctx, query, videoID, tagID)
	if err != nil {
		return db.WrapError(err, "detach tag")
	}
	if cmd.RowsAffected() == 0 {
		return db.ErrNotFound
	}

	return nil
}

func (r *tagRepository) GetTagsByVideo(ctx context.Context, videoID uuid.UUID) ([]*models.Tag, error) {
	query := `
		SELECT t.id, t.user_id, t.name, t.color, t.is_video_type, t.schema_id, t.created_at
		FROM video_tags vt
		JOIN tags t ON t.id = vt.tag_id
		WHERE vt.video_id = $1
		ORDER BY vt.attached_at, t.created_at
	`

	rows, err := r.pool.Query(ctx, query, videoID)
	if err != nil {
		return nil, db.WrapError(err, "get tags by video")
	}
	defer rows.Close()

	return scanTags(rows)
}

func (r *tagRepository) GetCategoryTag(ctx context.Context, videoID uuid.UUID) (*models.Tag, error) {
	query := `
		SELECT t.id, t.user_id, t.name, t.color, t.is_video_type, t.schema_id, t.created_at
		FROM video_tags vt
		JOIN tags t ON t.id = vt.tag_id
		WHERE vt.video_id = $1 AND vt.is_category
	`

	tag := &models.Tag{}
	err := r.pool.QueryRow(ctx, query, videoID).Scan(
		&tag.ID,
		&tag.UserID,
		&tag.Name,
		&tag.Color,
		&tag.IsVideoType,
		&tag.SchemaID,
		&tag.CreatedAt,
	)

	if err != nil {
		return nil, db.WrapError(err, "get category tag")
	}

	return tag, nil
}

func (r *tagRepository) SwitchCategory(ctx context.Context, videoID uuid.UUID, from, to *models.Tag, workspaceSchemaID *uuid.UUID) error {
	err := db.WithTxRetry(ctx, r.pool, func(tx pgx.Tx) error {
		if from != nil && from.SchemaID != nil {
			if err := snapshotCategoryValues(ctx, tx, videoID, from, workspaceSchemaID); err != nil {
				return err
			}
		}

		if from != nil {
			if _, err := tx.Exec(ctx,
				`DELETE FROM video_tags WHERE video_id = $1 AND tag_id = $2`,
				videoID, from.ID); err != nil {
				return fmt.Errorf("detach old category: %w", err)
			}
		}

		if to != nil {
			if _, err := tx.Exec(ctx,
				`INSERT INTO video_tags (video_id, tag_id, is_category, attached_at) VALUES ($1, $2, TRUE, NOW())`,
				videoID, to.ID); err != nil {
				return fmt.Errorf("attach new category: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		return db.WrapError(err, "switch category")
	}

	return nil
}

// snapshotCategoryValues backs up and removes the values of fields that are
// in the old category's schema but not in the workspace schema. The backup is
// written even when empty so that restoring always reflects the latest state
// under that category.
func snapshotCategoryValues(ctx context.Context, tx pgx.Tx, videoID uuid.UUID, from *models.Tag, workspaceSchemaID *uuid.UUID) error {
	scopeQuery := `
		SELECT v.field_id, v.value_text, v.value_numeric, v.value_boolean
		FROM video_field_values v
		WHERE v.video_id = $1 AND v.field_id IN (
			SELECT field_id FROM schema_fields WHERE schema_id = $2
			EXCEPT
			SELECT field_id FROM schema_fields WHERE schema_id = $3
		)
	`

	rows, err := tx.Query(ctx, scopeQuery, videoID, from.SchemaID, workspaceSchemaID)
	if err != nil {
		return fmt.Errorf("select category values: %w", err)
	}

	values := []models.BackupValue{}
	for rows.Next() {
		var bv models.BackupValue
		if err := rows.Scan(&bv.FieldID, &bv.Value.Text, &bv.Value.Numeric, &bv.Value.Boolean); err != nil {
			rows.Close()
			return fmt.Errorf("scan category value: %w", err)
		}
		values = append(values, bv)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate category values: %w", err)
	}
	rows.Close()

	payload, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal backup payload: %w", err)
	}

	upsert := `
		INSERT INTO field_value_backups (video_id, category_tag_id, category_name, payload, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (video_id, category_tag_id) DO UPDATE
		SET category_name = EXCLUDED.category_name,
		    payload = EXCLUDED.payload,
		    created_at = NOW()
	`
	if _, err := tx.Exec(ctx, upsert, videoID, from.ID, from.Name, payload); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}

	scrub := `
		DELETE FROM video_field_values
		WHERE video_id = $1 AND field_id IN (
			SELECT field_id FROM schema_fields WHERE schema_id = $2
			EXCEPT
			SELECT field_id FROM schema_fields WHERE schema_id = $3
		)
	`
	if _, err := tx.Exec(ctx, scrub, videoID, from.SchemaID, workspaceSchemaID); err != nil {
		return fmt.Errorf("remove category values: %w", err)
	}

	return nil
}

func scanTags(rows pgx.Rows) ([]*models.Tag, error) {
	var tags []*models.Tag

	for rows.Next() {
		tag := &models.Tag{}
		err := rows.Scan(
			&tag.ID,
			&tag.UserID,
			&tag.Name,
			&tag.Color,
			&tag.IsVideoType,
			&tag.SchemaID,
			&tag.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}

	return tags, nil
}
