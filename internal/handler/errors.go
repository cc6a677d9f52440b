package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/middleware"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/service"
	"github.com/vidshelf/youtube-list-ingestion-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// statusForCode maps a stable service error code to its HTTP status.
// Malformed requests are rejected with 400 before a service ever runs, so
// validation_error here always means a semantic rule and maps to 422.
func statusForCode(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeDuplicateName, service.CodeFieldInUse:
		return http.StatusConflict
	case service.CodeValidation, service.CodeSchemaInvariant, service.CodeCategoryInvariant:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, status int, code, message string, details map[string]any) {
	c.JSON(status, models.ErrorResponse{
		Timestamp: time.Now(),
		Status:    status,
		Error:     code,
		Message:   message,
		Details:   details,
		Path:      c.Request.URL.Path,
	})
}

// handleError translates a service error into the API error body. Service
// errors keep their code and details; anything else becomes an opaque 500.
func handleError(c *gin.Context, err error) {
	if se, ok := service.AsError(err); ok {
		status := statusForCode(se.Code)
		logger.Log.Warn("Request rejected",
			zap.String("code", se.Code),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		respondError(c, status, se.Code, se.Message, se.Details)
		return
	}

	var pe *service.ProcessingError
	if errors.As(err, &pe) {
		logger.Log.Error("Processing error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	} else {
		logger.Log.Error("Unexpected error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	respondError(c, http.StatusInternalServerError, "internal_error", "An internal error occurred", nil)
}

// bindJSON binds the request body, rejecting malformed payloads with 400.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, service.CodeValidation, "Invalid request payload: "+err.Error(), nil)
		return false
	}
	return true
}

// parseID parses a UUID path parameter, rejecting bad ids with 400.
func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		respondError(c, http.StatusBadRequest, service.CodeValidation, param+" must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the authenticated user id set by the auth middleware.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "missing authenticated user", nil)
	}
	return userID, ok
}

func parseLimit(c *gin.Context) int {
	raw := c.Query("limit")
	if raw == "" {
		return defaultLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func parseOffset(c *gin.Context) int {
	raw := c.Query("offset")
	if raw == "" {
		return 0
	}
	offset, err := strconv.Atoi(raw)
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

// parseSince parses an optional RFC3339 since query parameter. A missing
// value means the zero time, replaying from the start of the ring.
func parseSince(c *gin.Context) (time.Time, bool) {
	raw := c.Query("since")
	if raw == "" {
		return time.Time{}, true
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, service.CodeValidation, "since must be an RFC3339 timestamp", nil)
		return time.Time{}, false
	}
	return since, true
}
