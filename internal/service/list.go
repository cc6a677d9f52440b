package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/db"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/repository"
	"github.com/vidshelf/youtube-list-ingestion-go/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Name length limits, in characters.
const (
	MaxListNameLength  = 200
	MaxFieldNameLength = 100
	MaxTagNameLength   = 100
)

// ListService manages the per-user video lists that own everything else.
type ListService struct {
	lists   repository.ListRepository
	schemas repository.FieldSchemaRepository
	jobs    repository.IngestionJobRepository
}

// NewListService creates a new ListService.
func NewListService(lists repository.ListRepository, schemas repository.FieldSchemaRepository, jobs repository.IngestionJobRepository) *ListService {
	return &ListService{lists: lists, schemas: schemas, jobs: jobs}
}

// CreateList creates a list owned by the given user.
func (s *ListService) CreateList(ctx context.Context, userID uuid.UUID, name string) (*models.List, error) {
	name, err := validateName(name, MaxListNameLength, "list")
	if err != nil {
		return nil, err
	}

	list := models.NewList(userID, name)
	if err := s.lists.CreateList(ctx, list); err != nil {
		return nil, &ProcessingError{Message: "create list", Cause: err}
	}

	logger.Log.Info("List created",
		zap.String("listId", list.ID.String()),
		zap.String("userId", userID.String()))

	return list, nil
}

// GetList returns a list the user owns.
func (s *ListService) GetList(ctx context.Context, userID, listID uuid.UUID) (*models.List, error) {
	return requireOwnedList(ctx, s.lists, userID, listID)
}

// GetLists returns all lists owned by the user, newest first.
func (s *ListService) GetLists(ctx context.Context, userID uuid.UUID) ([]*models.List, error) {
	lists, err := s.lists.GetListsByUser(ctx, userID)
	if err != nil {
		return nil, &ProcessingError{Message: "get lists", Cause: err}
	}
	return lists, nil
}

// RenameList updates the list name.
func (s *ListService) RenameList(ctx context.Context, userID, listID uuid.UUID, name string) (*models.List, error) {
	list, err := requireOwnedList(ctx, s.lists, userID, listID)
	if err != nil {
		return nil, err
	}

	name, err = validateName(name, MaxListNameLength, "list")
	if err != nil {
		return nil, err
	}

	if err := s.lists.UpdateListName(ctx, listID, name); err != nil {
		return nil, &ProcessingError{Message: "rename list", Cause: err}
	}
	list.Name = name
	return list, nil
}

// SetWorkspaceSchema points the list at the schema whose fields apply to
// every video in it, or clears the assignment when schemaID is nil.
func (s *ListService) SetWorkspaceSchema(ctx context.Context, userID, listID uuid.UUID, schemaID *uuid.UUID) error {
	if _, err := requireOwnedList(ctx, s.lists, userID, listID); err != nil {
		return err
	}

	if schemaID != nil {
		schema, err := s.schemas.GetSchemaByID(ctx, *schemaID)
		if err != nil {
			if db.IsNotFound(err) {
				return NewNotFoundError("schema")
			}
			return &ProcessingError{Message: "load schema", Cause: err}
		}
		if schema.ListID != listID {
			return NewValidationError("schema does not belong to this list")
		}
	}

	if err := s.lists.SetWorkspaceSchema(ctx, listID, schemaID); err != nil {
		return &ProcessingError{Message: "set workspace schema", Cause: err}
	}
	return nil
}

// DeleteList cancels any outstanding enrichment work for the list's videos
// and then deletes the list. Videos, fields, schemas, and values cascade.
func (s *ListService) DeleteList(ctx context.Context, userID, listID uuid.UUID) error {
	if _, err := requireOwnedList(ctx, s.lists, userID, listID); err != nil {
		return err
	}

	if err := s.jobs.CancelVideoJobsForList(ctx, listID); err != nil {
		return &ProcessingError{Message: "cancel list jobs", Cause: err}
	}

	if err := s.lists.DeleteList(ctx, listID); err != nil {
		if db.IsNotFound(err) {
			return NewNotFoundError("list")
		}
		return &ProcessingError{Message: "delete list", Cause: err}
	}

	logger.Log.Info("List deleted",
		zap.String("listId", listID.String()),
		zap.String("userId", userID.String()))
	return nil
}

// requireOwnedList loads a list and verifies ownership. A list owned by a
// different user reads as not found so existence is not leaked.
func requireOwnedList(ctx context.Context, lists repository.ListRepository, userID, listID uuid.UUID) (*models.List, error) {
	list, err := lists.GetListByID(ctx, listID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, NewNotFoundError("list")
		}
		return nil, &ProcessingError{Message: "load list", Cause: err}
	}
	if list.UserID != userID {
		return nil, NewNotFoundError("list")
	}
	return list, nil
}

// validateName trims and length-checks a user-supplied name.
func validateName(name string, max int, what string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewValidationError("%s name must not be empty", what)
	}
	if utf8.RuneCountInString(name) > max {
		return "", NewValidationError("%s name must be at most %d characters", what, max)
	}
	return name, nil
}
