package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/offerdesk/offerdesk/internal/models"
)

// AuditHandler serves the audit log read endpoints. The log itself is
// written only inside mutation transactions; there is no write endpoint.
type AuditHandler struct {
	audit AuditService
	log   *logrus.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(audit AuditService, log *logrus.Logger) *AuditHandler {
	return &AuditHandler{audit: audit, log: log}
}

// Query handles GET /api/v1/audit, the filtered global activity feed.
func (h *AuditHandler) Query(c *gin.Context) {
	opts := models.AuditQueryOpts{
		EntityID: c.Query("entity_id"),
		UserID:   c.Query("user_id"),
		Limit:    parseInt(c.DefaultQuery("limit", "50"), 50),
		Offset:   parseOffset(c.DefaultQuery("offset", "0")),
	}

	if kind := c.Query("kind"); kind != "" {
		k := models.EntityKind(kind)
		if !k.Valid() {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "unknown entity kind")

			return
		}
		opts.Kind = k
	}

	if action := c.Query("action"); action != "" {
		a := models.AuditAction(action)
		if !a.Valid() {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "unknown audit action")

			return
		}
		opts.Action = a
	}

	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "since must be RFC 3339")

			return
		}
		opts.Since = &t
	}

	entries, hasMore, err := h.audit.Query(c.Request.Context(), opts)
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries, "has_more": hasMore})
}

// History returns a handler for GET <entity>/:id/history bound to one
// entity kind. Entries come back newest first.
func (h *AuditHandler) History(kind models.EntityKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := validatePathID(id); err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

			return
		}

		limit := parseInt(c.DefaultQuery("limit", "50"), 50)
		offset := parseOffset(c.DefaultQuery("offset", "0"))

		entries, hasMore, err := h.audit.GetChangeHistory(c.Request.Context(), kind, id, limit, offset)
		if err != nil {
			respondServiceError(c, err)

			return
		}

		c.JSON(http.StatusOK, gin.H{"entries": entries, "has_more": hasMore})
	}
}
