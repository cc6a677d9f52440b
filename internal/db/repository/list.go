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

// ListRepository defines operations for managing lists.
type ListRepository interface {
	// CreateList creates a new list.
	CreateList(ctx context.Context, list *models.List) error

	// GetListByID retrieves a single list by ID.
	GetListByID(ctx context.Context, id uuid.UUID) (*models.List, error)

	// GetListsByUser retrieves all lists owned by a user, newest first.
	GetListsByUser(ctx context.Context, userID uuid.UUID) ([]*models.List, error)

	// UpdateListName renames a list.
	UpdateListName(ctx context.Context, id uuid.UUID, name string) error

	// SetWorkspaceSchema points the list at its workspace schema, or clears
	// it when schemaID is nil.
	SetWorkspaceSchema(ctx context.Context, id uuid.UUID, schemaID *uuid.UUID) error

	// DeleteList deletes a list and cascades to its videos, fields, and schemas.
	DeleteList(ctx context.Context, id uuid.UUID) error
}

type listRepository struct {
	pool *pgxpool.Pool
}

// NewListRepository creates a new ListRepository.
func NewListRepository(pool *pgxpool.Pool) ListRepository {
	return &listRepository{pool: pool}
}

func (r *listRepository) CreateList(ctx context.Context, list *models.List) error {
	query := `
		INSERT INTO lists (id, user_id, name, workspace_schema_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		list.ID,
		list.UserID,
		list.Name,
		list.WorkspaceSchemaID,
		list.CreatedAt,
		list.UpdatedAt,
	).Scan(&list.CreatedAt, &list.UpdatedAt)

	if err != nil {
		return db.WrapError(err, "create list")
	}

	return nil
}

func (r *listRepository) GetListByID(ctx context.Context, id uuid.UUID) (*models.List, error) {
	query := `
		SELECT id, user_id, name, workspace_schema_id, created_at, updated_at
		FROM lists
		WHERE id = $1
	`

	list := &models.List{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&list.ID,
		&list.UserID,
		&list.Name,
		&list.WorkspaceSchemaID,
		&list.CreatedAt,
		&list.UpdatedAt,
	)

	if err != nil {
		return nil, db.WrapError(err, "get list by id")
	}

	return list, nil
}

func (r *listRepository) GetListsByUser(ctx context.Context, userID uuid.UUID) ([]*models.List, error) {
	query := `
		SELECT id, user_id, name, workspace_schema_id, created_at, updated_at
		FROM lists
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, db.WrapError(err, "get lists by user")
	}
	defer rows.Close()

	return scanLists(rows)
}

func (r *listRepository) UpdateListName(ctx context.Context, id uuid.UUID, name string) error {
	query := `
		UPDATE lists
		SET name = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, name)
	if err != nil {
		return db.WrapError(err, "update list name")
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}

	return nil
}

func (r *listRepository) SetWorkspaceSchema(ctx context.Context, id uuid.UUID, schemaID *uuid.UUID) error {
	query := `
		UPDATE lists
		SET workspace_schema_id = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, schemaID)
	if err != nil {
		return db.WrapError(err, "set workspace schema")
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}

	return nil
}

func (r *listRepository) DeleteList(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM lists WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return db.WrapError(err, "delete list")
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}

	return nil
}

func scanLists(rows pgx.Rows) ([]*models.List, error) {
	var lists []*models.List

	for rows.Next() {
		list := &models.List{}
		err := rows.Scan(
			&list.ID,
			&list.UserID,
			&list.Name,
			&list.WorkspaceSchemaID,
			&list.CreatedAt,
			&list.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, list)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lists: %w", err)
	}

	return lists, nil
}
