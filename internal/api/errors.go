package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/offerdesk/offerdesk/internal/httputil"
	"github.com/offerdesk/offerdesk/internal/metrics"
	"github.com/offerdesk/offerdesk/internal/models"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest  = "invalid_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeInternalError   = "internal_error"
	ErrCodeUnauthorized    = "unauthorized"
	ErrCodeLocked          = "locked"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeValidationError = "validation_error"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// respondServiceError maps an error from the service layer to an HTTP
// response. Lock conflicts carry the holder so the UI can show who has
// the entity open; operation failures expose only their safe message.
func respondServiceError(c *gin.Context, err error) {
	var lockErr *models.LockConflictError
	if errors.As(err, &lockErr) {
		metrics.ErrorsTotal.WithLabelValues(ErrCodeLocked).Inc()
		c.JSON(http.StatusConflict, gin.H{
			"error":     ErrCodeLocked,
			"message":   lockErr.Error(),
			"locked_by": lockErr.LockedBy,
			"locked_at": lockErr.LockedAt,
		})

		return
	}

	switch {
	case errors.Is(err, models.ErrNotAuthenticated):
		respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "not authenticated")
	case errors.Is(err, models.ErrMissingName),
		errors.Is(err, models.ErrMissingLanguage),
		errors.Is(err, models.ErrMissingTitle),
		errors.Is(err, models.ErrMissingCustomer):
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
	case isNotFound(err):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	default:
		var opErr *models.OperationFailedError
		if errors.As(err, &opErr) {
			respondError(c, http.StatusInternalServerError, ErrCodeInternalError, opErr.Message)

			return
		}

		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}

func isNotFound(err error) bool {
	switch {
	case errors.Is(err, models.ErrArticleNotFound),
		errors.Is(err, models.ErrBlockNotFound),
		errors.Is(err, models.ErrContentNotFound),
		errors.Is(err, models.ErrCalculationItemNotFound),
		errors.Is(err, models.ErrQuoteNotFound),
		errors.Is(err, models.ErrQuoteVariantNotFound),
		errors.Is(err, models.ErrQuoteVersionNotFound),
		errors.Is(err, models.ErrOpportunityNotFound),
		errors.Is(err, models.ErrUserNotFound):
		return true
	}

	return false
}
