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

// FieldOrder is one entry of an atomic reorder request.
type FieldOrder struct {
	FieldID      uuid.UUID
	DisplayOrder int
}

// FieldSchemaRepository defines operations for managing field schemas and
// their ordered field memberships.
type FieldSchemaRepository interface {
	// CreateSchema creates a new schema.
	CreateSchema(ctx context.Context, schema *models.FieldSchema) error

	// GetSchemaByID retrieves a single schema by ID.
	GetSchemaByID(ctx context.Context, id uuid.UUID) (*models.FieldSchema, error)

	// GetSchemasByList retrieves all schemas of a list, oldest first.
	GetSchemasByList(ctx context.Context, listID uuid.UUID) ([]*models.FieldSchema, error)

	// UpdateSchemaName renames a schema.
	UpdateSchemaName(ctx context.Context, id uuid.UUID, name string) error

	// DeleteSchema deletes a schema and its field memberships.
	DeleteSchema(ctx context.Context, id uuid.UUID) error

	// ReplaceSchemaFields atomically replaces the schema's field memberships.
	ReplaceSchemaFields(ctx context.Context, schemaID uuid.UUID, fields []models.SchemaField) error

	// ReorderSchemaFields applies a full set of new display orders in one
	// transaction. Position swaps are legal because the uniqueness check is
	// deferred to commit.
	ReorderSchemaFields(ctx context.Context, schemaID uuid.UUID, orders []FieldOrder) error

	// GetSchemaFields retrieves the schema's fields joined with their
	// definitions, ordered by display_order.
	GetSchemaFields(ctx context.Context, schemaID uuid.UUID) ([]*models.SchemaFieldDetail, error)

	// GetSchemaFieldsForSchemas retrieves the fields of several schemas in
	// one query, grouped by schema and ordered by display_order.
	GetSchemaFieldsForSchemas(ctx context.Context, schemaIDs []uuid.UUID) (map[uuid.UUID][]*models.SchemaFieldDetail, error)
}

type fieldSchemaRepository struct {
	pool *pgxpool.Pool
}

// NewFieldSchemaRepository creates a new FieldSchemaRepository.
func NewFieldSchemaRepository(pool *pgxpool.Pool) FieldSchemaRepository {
	return &fieldSchemaRepository{pool: pool}
}

func (r *fieldSchemaRepository) CreateSchema(ctx context.Context, schema *models.FieldSchema) error {
	query := `
		INSERT INTO field_schemas (id, list_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		schema.ID,
		schema.ListID,
		schema.Name,
		schema.CreatedAt,
		schema.UpdatedAt,
	).Scan(&schema.CreatedAt, &schema.UpdatedAt)

	if err != nil {
		return db.WrapError(err, "create field schema")
	}

	return nil
}

func (r *fieldSchemaRepository) GetSchemaByID(ctx context.Context, id uuid.UUID) (*models.FieldSchema, error) {
	query := `
		SELECT id, list_id, name, created_at, updated_at
		FROM field_schemas
		WHERE id = $1
	`

	schema := &models.FieldSchema{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&schema.ID,
		&schema.ListID,
		&schema.Name,
		&schema.CreatedAt,
		&schema.UpdatedAt,
	)

	if err != nil {
		return nil, db.WrapError(err, "get schema by id")
	}

	return schema, nil
}

func (r *fieldSchemaRepository) GetSchemasByList(ctx context.Context, listID uuid.UUID) ([]*models.FieldSchema, error) {
	query := `
		SELECT id, list_id, name, created_at, updated_at
		FROM field_schemas
		WHERE list_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, listID)
	if err != nil {
		return nil, db.WrapError(err, "get schemas by list")
	}
	defer rows.Close()

	var schemas []*models.FieldSchema
	for rows.Next() {
		schema := &models.FieldSchema{}
		err := rows.Scan(
			&schema.ID,
			&schema.ListID,
			&schema.Name,
			&schema.CreatedAt,
			&schema.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan schema: %w", err)
		}
		schemas = append(schemas, schema)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schemas: %w", err)
	}

	return schemas, nil
}

func (r *fieldSchemaRepository) UpdateSchemaName(ctx context.Context, id uuid.UUID, name string) error {
	query := `
		UPDATE field_schemas
		SET name = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, name)
	if err != nil {
		return db.WrapError(err, "update schema name")
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}

	return nil
}

func (r *fieldSchemaRepository) DeleteSchema(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM field_schemas WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return db.WrapError(err, "delete schema")
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}

	return nil
}

func (r *fieldSchemaRepository) ReplaceSchemaFields(ctx context.Context, schemaID uuid.UUID, fields []models.SchemaField) error {
	err := db.WithTxRetry(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM schema_fields WHERE schema_id = $1`, schemaID); err != nil {
			return fmt.Errorf("clear schema fields: %w", err)
		}

		insert := `
			INSERT INTO schema_fields (id, schema_id, field_id, display_order, show_on_card)
			VALUES ($1, $2, $3, $4, $5)
		`
		for _, sf := range fields {
			id := sf.ID
			if id == uuid.Nil {
				id = uuid.New()
			}
			if _, err := tx.Exec(ctx, insert, id, schemaID, sf.FieldID, sf.DisplayOrder, sf.ShowOnCard); err != nil {
				return fmt.Errorf("insert schema field: %w", err)
			}
		}

		if _, err := tx.Exec(ctx, `UPDATE field_schemas SET updated_at = NOW() WHERE id = $1`, schemaID); err != nil {
			return fmt.Errorf("touch schema: %w", err)
		}

		return nil
	})

	if err != nil {
		return db.WrapError(err, "replace schema fields")
	}

	return nil
}

func (r *fieldSchemaRepository) ReorderSchemaFields(ctx context.Context, schemaID uuid.UUID, orders []FieldOrder) error {
	err := db.WithTxRetry(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SET CONSTRAINTS ALL DEFERRED`); err != nil {
			return fmt.Errorf("defer constraints: %w", err)
		}

		update := `
			UPDATE schema_fields
			SET display_order = $3
			WHERE schema_id = $1 AND field_id = $2
		`
		for _, o := range orders {
			tag, err := tx.Exec(ctx, update, schemaID, o.FieldID, o.DisplayOrder)
			if err != nil {
				return fmt.Errorf("update display order: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("field %s: %w", o.FieldID, db.ErrNotFound)
			}
		}

		if _, err := tx.Exec(ctx, `UPDATE field_schemas SET updated_at = NOW() WHERE id = $1`, schemaID); err != nil {
			return fmt.Errorf("touch schema: %w", err)
		}

		return nil
	})

	if err != nil {
		return db.WrapError(err, "reorder schema fields")
	}

	return nil
}

func (r *fieldSchemaRepository) GetSchemaFields(ctx context.Context, schemaID uuid.UUID) ([]*models.SchemaFieldDetail, error) {
	query := `
		SELECT sf.id, sf.schema_id, sf.field_id, sf.display_order, sf.show_on_card,
		       f.id, f.list_id, f.name, f.field_type, f.config, f.created_at, f.updated_at
		FROM schema_fields sf
		JOIN custom_fields f ON f.id = sf.field_id
		WHERE sf.schema_id = $1
		ORDER BY sf.display_order
	`

	rows, err := r.pool.Query(ctx, query, schemaID)
	if err != nil {
		return nil, db.WrapError(err, "get schema fields")
	}
	defer rows.Close()

	return scanSchemaFieldDetails(rows)
}

func (r *fieldSchemaRepository) GetSchemaFieldsForSchemas(ctx context.Context, schemaIDs []uuid.UUID) (map[uuid.UUID][]*models.SchemaFieldDetail, error) {
	grouped := make(map[uuid.UUID][]*models.SchemaFieldDetail, len(schemaIDs))
	if len(schemaIDs) == 0 {
		return grouped, nil
	}

	query := `
		SELECT sf.id, sf.schema_id, sf.field_id, sf.display_order, sf.show_on_card,
		       f.id, f.list_id, f.name, f.field_type, f.config, f.created_at, f.updated_at
		FROM schema_fields sf
		JOIN custom_fields f ON f.id = sf.field_id
		WHERE sf.schema_id = ANY($1)
		ORDER BY sf.schema_id, sf.display_order
	`

	rows, err := r.pool.Query(ctx, query, schemaIDs)
	if err != nil {
		return nil, db.WrapError(err, "get schema fields for schemas")
	}
	defer rows.Close()

	details, err := scanSchemaFieldDetails(rows)
	if err != nil {
		return nil, err
	}

	for _, d := range details {
		grouped[d.SchemaID] = append(grouped[d.SchemaID], d)
	}

	return grouped, nil
}

func scanSchemaFieldDetails(rows pgx.Rows) ([]*models.SchemaFieldDetail, error) {
	var details []*models.SchemaFieldDetail

	for rows.Next() {
		d := &models.SchemaFieldDetail{}
		var configJSON []byte

		err := rows.Scan(
			&d.ID,
			&d.SchemaID,
			&d.FieldID,
			&d.DisplayOrder,
			&d.ShowOnCard,
			&d.Field.ID,
			&d.Field.ListID,
			&d.Field.Name,
			&d.Field.FieldType,
			&configJSON,
			&d.Field.CreatedAt,
			&d.Field.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan schema field: %w", err)
		}

		config, err := models.ParseFieldConfig(d.Field.FieldType, configJSON)
		if err != nil {
			return nil, fmt.Errorf("parse field config: %w", err)
		}
		d.Field.Config = config

		details = append(details, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schema fields: %w", err)
	}

	return details, nil
}
