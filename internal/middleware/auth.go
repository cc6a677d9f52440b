// Package middleware provides the gin middleware chain for the API server:
// bearer-token authentication and per-request metrics.
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/models"
	"github.com/vidshelf/youtube-list-ingestion-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// ContextUserID is the gin context key the authenticated user id is stored
// under.
const ContextUserID = "user_id"

// TokenValidator checks a bearer token and returns the user it was issued
// for.
type TokenValidator interface {
	Validate(token string) (uuid.UUID, error)
}

// Auth provides bearer-token authentication middleware.
type Auth struct {
	validator TokenValidator
}

// NewAuth creates authentication middleware backed by the given validator.
func NewAuth(validator TokenValidator) *Auth {
	return &Auth{validator: validator}
}

// RequireAuth rejects requests without a valid Authorization bearer token and
// stores the authenticated user id in the gin context.
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c)
		if token == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		userID, err := a.validator.Validate(token)
		if err != nil {
			logger.Log.Warn("Rejected invalid token",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// UserID returns the authenticated user id set by RequireAuth.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func extractBearer(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return header[len(bearerPrefix):]
	}
	return ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Status:    http.StatusUnauthorized,
		Error:     "unauthorized",
		Message:   message,
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}
