package service

import (
	"errors"
	"fmt"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/repository"
)

// Stable error codes surfaced in API error bodies. Clients branch on these
// strings, so they never change.
const (
	CodeValidation        = "validation_error"
	CodeNotFound          = "not_found"
	CodeDuplicateName     = "duplicate_name"
	CodeFieldInUse        = "field_in_use"
	CodeSchemaInvariant   = "schema_invariant_violated"
	CodeCategoryInvariant = "category_invariant_violated"
	CodeIngestRejected    = "ingest_rejected"
	CodeEnrichmentFailed  = "enrichment_failed"
)

// Error is a request failure the client can act on. Code is one of the
// constants above; Details carries code-specific context, like the colliding
// field for duplicate_name or the referencing schemas for field_in_use.
type Error struct {
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

// WithDetail attaches one key of code-specific context and returns e.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, 1)
	}
	e.Details[key] = value
	return e
}

// AsError unwraps err into a service Error, if it is one.
func AsError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// NewValidationError builds a validation_error with a user-facing message.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError builds a not_found error for the named resource.
func NewNotFoundError(what string) *Error {
	return &Error{Code: CodeNotFound, Message: what + " not found"}
}

// NewDuplicateNameError builds a duplicate_name error carrying the existing
// field so clients can offer reuse instead of creation.
func NewDuplicateNameError(existing *models.CustomField) *Error {
	e := &Error{
		Code:    CodeDuplicateName,
		Message: fmt.Sprintf("a field named %q already exists in this list", existing.Name),
	}
	return e.WithDetail("existing_field", existing)
}

// NewFieldInUseError builds a field_in_use error listing the referents that
// block deletion.
func NewFieldInUseError(refs *repository.FieldReferences) *Error {
	e := &Error{
		Code:    CodeFieldInUse,
		Message: "field is still referenced by schemas or stored values",
	}
	if len(refs.SchemaNames) > 0 {
		e.WithDetail("schemas", refs.SchemaNames)
	}
	if refs.ValueCount > 0 {
		e.WithDetail("value_count", refs.ValueCount)
	}
	return e
}

// NewSchemaInvariantError builds a schema_invariant_violated error naming the
// specific rule, like "max_show_on_card=3".
func NewSchemaInvariantError(rule, format string, args ...any) *Error {
	e := &Error{Code: CodeSchemaInvariant, Message: fmt.Sprintf(format, args...)}
	return e.WithDetail("rule", rule)
}

// NewCategoryInvariantError builds a category_invariant_violated error.
func NewCategoryInvariantError(format string, args ...any) *Error {
	return &Error{Code: CodeCategoryInvariant, Message: fmt.Sprintf(format, args...)}
}

// ProcessingError represents an internal failure while handling a request.
// Handlers map it to a 500 without exposing the cause.
type ProcessingError struct {
	Message string
	Cause   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}
