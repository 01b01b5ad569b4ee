package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/offerdesk/offerdesk/internal/models"
)

// CurrentUserKey is the gin context key holding the authenticated actor.
const CurrentUserKey = "current_user"

// authTimingFloor is the minimum response time for failed auth to
// prevent timing oracles that distinguish valid from invalid tokens.
const authTimingFloor = 50 * time.Millisecond

// UserLookup resolves an API token to the acting user. Implemented by
// the store; called on every request and never cached, so the actor
// always reflects the current request.
type UserLookup interface {
	GetUserByToken(ctx context.Context, token string) (*models.User, error)
}

// truncateToken returns at most the first 4 characters of token followed by "...".
func truncateToken(token string) string {
	if len(token) > 4 {
		return token[:4] + "..."
	}
	return token
}

// enforceTimingFloor sleeps if needed so the response takes at least authTimingFloor.
func enforceTimingFloor(start time.Time) {
	if elapsed := time.Since(start); elapsed < authTimingFloor {
		time.Sleep(authTimingFloor - elapsed)
	}
}

// Auth returns Gin middleware that authenticates requests via Bearer
// token and stores the resolved user in the context.
func Auth(lookup UserLookup, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if c.Writer.Status() == http.StatusUnauthorized {
				enforceTimingFloor(start)
			}
		}()

		token := ExtractBearerToken(c)
		if token == "" {
			respondError(c, http.StatusUnauthorized, "unauthorized", "missing or invalid authorization header")
			return
		}

		user, err := lookup.GetUserByToken(c.Request.Context(), token)
		if err != nil {
			log.WithFields(logrus.Fields{
				"client_ip":    c.ClientIP(),
				"method":       c.Request.Method,
				"path":         c.Request.URL.Path,
				"request_id":   c.GetString("request_id"),
				"token_prefix": truncateToken(token),
			}).Warn("authentication failed: invalid api token")

			respondError(c, http.StatusUnauthorized, "unauthorized", "invalid api token")
			return
		}

		c.Set(CurrentUserKey, user)
		c.Next()
	}
}

// ExtractBearerToken extracts the API token from the Authorization header.
func ExtractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// CurrentUser returns the authenticated actor from the gin context, or
// nil when the request is unauthenticated.
func CurrentUser(c *gin.Context) *models.User {
	v, exists := c.Get(CurrentUserKey)
	if !exists {
		return nil
	}

	user, ok := v.(*models.User)
	if !ok {
		return nil
	}

	return user
}
