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

// FieldReferences describes what still points at a custom field. A field can
// only be deleted when both are empty.
type FieldReferences struct {
	SchemaNames []string
	ValueCount  int
}

// InUse reports whether any schema or stored value references the field.
func (fr FieldReferences) InUse() bool {
	return len(fr.SchemaNames) > 0 || fr.ValueCount > 0
}

// ValueAdjustment describes how stored values are reconciled with a field
// edit. All set adjustments run in the same transaction as the field update,
// so either the field and its values change together or nothing changes.
type ValueAdjustment struct {
	// ClearAll deletes every stored value of the field (type change).
	ClearAll bool
	// ClipNumericMax clamps numeric values above the new maximum down to it.
	ClipNumericMax *int
	// DropTextValues deletes values whose text matches a removed select option.
	DropTextValues []string
	// TruncateTextTo shortens text values to the new maximum length.
	TruncateTextTo *int
}

func (a ValueAdjustment) empty() bool {
	return !a.ClearAll && a.ClipNumericMax == nil && len(a.DropTextValues) == 0 && a.TruncateTextTo == nil
}

// CustomFieldRepository defines operations for the per-list field catalog.
type CustomFieldRepository interface {
	// CreateField creates a new field. Duplicate names within a list are
	// rejected case-insensitively with db.ErrDuplicateKey.
	CreateField(ctx context.Context, field *models.CustomField) error

	// GetFieldByID retrieves a single field by ID.
	GetFieldByID(ctx context.Context, id uuid.UUID) (*models.CustomField, error)

	// GetFieldByName retrieves a field by case-insensitive name within a list.
	GetFieldByName(ctx context.Context, listID uuid.UUID, name string) (*models.CustomField, error)

	// GetFieldsByList retrieves all fields of a list, oldest first.
	GetFieldsByList(ctx context.Context, listID uuid.UUID) ([]*models.CustomField, error)

	// GetFieldsByIDs retrieves the given fields in one query.
	GetFieldsByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.CustomField, error)

	// UpdateField writes the field's name and config.
	UpdateField(ctx context.Context, field *models.CustomField) error

	// UpdateFieldWithValues writes name, type and config and applies the
	// value adjustment in a single transaction.
	UpdateFieldWithValues(ctx context.Context, field *models.CustomField, adj ValueAdjustment) error

	// DeleteField deletes a field. Callers must check references first;
	// a remaining schema reference surfaces as db.ErrForeignKeyViolation.
	DeleteField(ctx context.Context, id uuid.UUID) error

	// GetFieldReferences reports the schemas and value count still
	// referencing a field.
	GetFieldReferences(ctx context.Context, id uuid.UUID) (*FieldReferences, error)

	// CountValuesAboveNumeric counts stored values greater than max.
	CountValuesAboveNumeric(ctx context.Context, fieldID uuid.UUID, max int) (int, error)

	// CountValuesMatchingText counts stored values equal to any of the
	// given option strings.
	CountValuesMatchingText(ctx context.Context, fieldID uuid.UUID, options []string) (int, error)

	// CountValuesLongerThan counts stored text values longer than length
	// characters.
	CountValuesLongerThan(ctx context.Context, fieldID uuid.UUID, length int) (int, error)
}

type customFieldRepository struct {
	pool *pgxpool.Pool
}

// NewCustomFieldRepository creates a new CustomFieldRepository.
func NewCustomFieldRepository(pool *pgxpool.Pool) CustomFieldRepository {
	return &customFieldRepository{pool: pool}
}

func (r *customFieldRepository) CreateField(ctx context.Context, field *models.CustomField) error {
	query := `
		INSERT INTO custom_fields (id, list_id, name, field_type, config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	configJSON, err := json.Marshal(field.Config)
	if err != nil {
		return fmt.Errorf("marshal field config: %w", err)
	}

	err = r.pool.QueryRow(ctx, query,
		field.ID,
		field.ListID,
		field.Name,
		field.FieldType,
		configJSON,
		field.CreatedAt,
		field.UpdatedAt,
	).Scan(&field.CreatedAt, &field.UpdatedAt)

	if err != nil {
		return db.WrapError(err, "create custom field")
	}

	return nil
}

func (r *customFieldRepository) GetFieldByID(ctx context.Context, id uuid.UUID) (*models.CustomField, error) {
	query := `
		SELECT id, list_id, name, field_type, config, created_at, updated_at
		FROM custom_fields
		WHERE id = $1
	`

	return r.getField(ctx, query, id)
}

func (r *customFieldRepository) GetFieldByName(ctx context.Context, listID uuid.UUID, name string) (*models.CustomField, error) {
	query := `
		SELECT id, list_id, name, field_type, config, created_at, updated_at
		FROM custom_fields
		WHERE list_id = $1 AND LOWER(name) = LOWER($2)
	`

	return r.getField(ctx, query, listID, name)
}

func (r *customFieldRepository) getField(ctx context.Context, query string, args ...any) (*models.CustomField, error) {
	field := &models.CustomField{}
	var configJSON []byte

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&field.ID,
		&field.ListID,
		&field.Name,
		&field.FieldType,
		&configJSON,
		&field.CreatedAt,
		&field.UpdatedAt,
	)

	if err != nil {
		return nil, db.WrapError(err, "get custom field")
	}

	config, err := models.ParseFieldConfig(field.FieldType, configJSON)
	if err != nil {
		return nil, fmt.Errorf("parse field config: %w", err)
	}
	field.Config = config

	return field, nil
}

func (r *customFieldRepository) GetFieldsByList(ctx context.Context, listID uuid.UUID) ([]*models.CustomField, error) {
	query := `
		SELECT id, list_id, name, field_type, config, created_at, updated_at
		FROM custom_fields
		WHERE list_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, listID)
	if err != nil {
		return nil, db.WrapError(err, "get fields by list")
	}
	defer rows.Close()

	return scanFields(rows)
}

func (r *customFieldRepository) GetFieldsByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.CustomField, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, list_id, name, field_type, config, created_at, updated_at
		FROM custom_fields
		WHERE id = ANY($1)
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, db.WrapError(err, "get fields by ids")
	}
	defer rows.Close()

	return scanFields(rows)
}

func (r *customFieldRepository) UpdateField(ctx context.Context, field *models.CustomField) error {
	query := `
		UPDATE custom_fields
		SET name = $2, config = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	configJSON, err := json.Marshal(field.Config)
	if err != nil {
		return fmt.Errorf("marshal field config: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, field.ID, field.Name, configJSON).Scan(&field.UpdatedAt)
	if err != nil {
		return db.WrapError(err, "update custom field")
	}

	return nil
}

func (r *customFieldRepository) UpdateFieldWithValues(ctx context.Context, field *models.CustomField, adj ValueAdjustment) error {
	configJSON, err := json.Marshal(field.Config)
	if err != nil {
		return fmt.Errorf("marshal field config: %w", err)
	}

	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			UPDATE custom_fields
			SET name = $2, field_type = $3, config = $4, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at
		`
		if err := tx.QueryRow(ctx, query, field.ID, field.Name, field.FieldType, configJSON).Scan(&field.UpdatedAt); err != nil {
			return db.WrapError(err, "update custom field")
		}

		if adj.empty() {
			return nil
		}

		if adj.ClearAll {
			if _, err := tx.Exec(ctx, `DELETE FROM video_field_values WHERE field_id = $1`, field.ID); err != nil {
				return db.WrapError(err, "clear field values")
			}
			return nil
		}

		if adj.ClipNumericMax != nil {
			query := `
				UPDATE video_field_values
				SET value_numeric = $2, updated_at = NOW()
				WHERE field_id = $1 AND value_numeric > $2
			`
			if _, err := tx.Exec(ctx, query, field.ID, *adj.ClipNumericMax); err != nil {
				return db.WrapError(err, "clip field values")
			}
		}

		if len(adj.DropTextValues) > 0 {
			query := `DELETE FROM video_field_values WHERE field_id = $1 AND value_text = ANY($2)`
			if _, err := tx.Exec(ctx, query, field.ID, adj.DropTextValues); err != nil {
				return db.WrapError(err, "drop removed option values")
			}
		}

		if adj.TruncateTextTo != nil {
			query := `
				UPDATE video_field_values
				SET value_text = LEFT(value_text, $2), updated_at = NOW()
				WHERE field_id = $1 AND LENGTH(value_text) > $2
			`
			if _, err := tx.Exec(ctx, query, field.ID, *adj.TruncateTextTo); err != nil {
				return db.WrapError(err, "truncate field values")
			}
		}

		return nil
	})
}

func (r *customFieldRepository) DeleteField(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM custom_fields WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return db.WrapError(err, "delete custom field")
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}

	return nil
}

func (r *customFieldRepository) GetFieldReferences(ctx context.Context, id uuid.UUID) (*FieldReferences, error) {
	schemaQuery := `
		SELECT fs.name
		FROM schema_fields sf
		JOIN field_schemas fs ON fs.id = sf.schema_id
		WHERE sf.field_id = $1
		ORDER BY fs.name
	`

	rows, err := r.pool.Query(ctx, schemaQuery, id)
	if err != nil {
		return nil, db.WrapError(err, "get field schema references")
	}
	defer rows.Close()

	refs := &FieldReferences{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan schema name: %w", err)
		}
		refs.SchemaNames = append(refs.SchemaNames, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schema references: %w", err)
	}

	valueQuery := `SELECT COUNT(*)::int FROM video_field_values WHERE field_id = $1`
	if err := r.pool.QueryRow(ctx, valueQuery, id).Scan(&refs.ValueCount); err != nil {
		return nil, db.WrapError(err, "count field values")
	}

	return refs, nil
}

func (r *customFieldRepository) CountValuesAboveNumeric(ctx context.Context, fieldID uuid.UUID, max int) (int, error) {
	query := `SELECT COUNT(*)::int FROM video_field_values WHERE field_id = $1 AND value_numeric > $2`

	var count int
	if err := r.pool.QueryRow(ctx, query, fieldID, max).Scan(&count); err != nil {
		return 0, db.WrapError(err, "count values above numeric")
	}
	return count, nil
}

func (r *customFieldRepository) CountValuesMatchingText(ctx context.Context, fieldID uuid.UUID, options []string) (int, error) {
	if len(options) == 0 {
		return 0, nil
	}

	query := `SELECT COUNT(*)::int FROM video_field_values WHERE field_id = $1 AND value_text = ANY($2)`

	var count int
	if err := r.pool.QueryRow(ctx, query, fieldID, options).Scan(&count); err != nil {
		return 0, db.WrapError(err, "count values matching text")
	}
	return count, nil
}

func (r *customFieldRepository) CountValuesLongerThan(ctx context.Context, fieldID uuid.UUID, length int) (int, error) {
	query := `SELECT COUNT(*)::int FROM video_field_values WHERE field_id = $1 AND LENGTH(value_text) > $2`

	var count int
	if err := r.pool.QueryRow(ctx, query, fieldID, length).Scan(&count); err != nil {
		return 0, db.WrapError(err, "count values longer than")
	}
	return count, nil
}

func scanFields(rows pgx.Rows) ([]*models.CustomField, error) {
	var fields []*models.CustomField

	for rows.Next() {
		field := &models.CustomField{}
		var configJSON []byte

		err := rows.Scan(
			&field.ID,
			&field.ListID,
			&field.Name,
			&field.FieldType,
			&configJSON,
			&field.CreatedAt,
			&field.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan custom field: %w", err)
		}

		config, err := models.ParseFieldConfig(field.FieldType, configJSON)
		if err != nil {
			return nil, fmt.Errorf("parse field config: %w", err)
		}
		field.Config = config

		fields = append(fields, field)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate custom fields: %w", err)
	}

	return fields, nil
}
