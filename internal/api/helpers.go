package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/offerdesk/offerdesk/internal/middleware"
	"github.com/offerdesk/offerdesk/internal/models"
)

// maxPaginationLimit caps the maximum number of items per page.
const maxPaginationLimit = 1000

// maxPaginationOffset caps the maximum offset for paginated queries.
const maxPaginationOffset = 100000

// getActor returns the authenticated user or responds 401 and returns
// nil. Handlers must bail out on nil.
func getActor(c *gin.Context) *models.User {
	user := middleware.CurrentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "not authenticated")

		return nil
	}

	return user
}

// requestMeta builds the audit metadata recorded with every mutation.
func requestMeta(c *gin.Context) map[string]any {
	meta := map[string]any{
		"client_ip": c.ClientIP(),
	}
	if rid := c.GetString(middleware.RequestIDKey); rid != "" {
		meta["request_id"] = rid
	}

	return meta
}

// parseLockableKind validates the :kind path parameter against the
// closed entity-kind set and requires the kind to carry lock columns.
func parseLockableKind(c *gin.Context) (models.EntityKind, bool) {
	kind := models.EntityKind(c.Param("kind"))
	if !kind.Valid() || !kind.Lockable() {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "unknown or unlockable entity kind")

		return "", false
	}

	return kind, true
}

func ginLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}
		if rid, exists := c.Get(middleware.RequestIDKey); exists {
			fields["request_id"] = rid
		}
		if user := middleware.CurrentUser(c); user != nil {
			fields["user_id"] = user.ID
		}
		log.WithFields(fields).Info("request")
	}
}

func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return fallback
	}

	if v > maxPaginationLimit {
		return maxPaginationLimit
	}

	return v
}

func parseOffset(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0
	}

	if v > maxPaginationOffset {
		return maxPaginationOffset
	}

	return v
}

// validatePathID checks that a path parameter ID is non-empty and within length limits.
func validatePathID(id string) error {
	if id == "" {
		return fmt.Errorf("id must not be empty")
	}
	if len(id) > 255 {
		return fmt.Errorf("id exceeds maximum length of 255")
	}
	return nil
}
