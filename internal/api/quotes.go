package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/offerdesk/offerdesk/internal/models"
)

// QuoteHandler serves quote, variant, and version endpoints.
type QuoteHandler struct {
	quotes QuoteService
	log    *logrus.Logger
}

// NewQuoteHandler creates a QuoteHandler.
func NewQuoteHandler(quotes QuoteService, log *logrus.Logger) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, log: log}
}

// List handles GET /api/v1/quotes.
func (h *QuoteHandler) List(c *gin.Context) {
	limit := parseInt(c.DefaultQuery("limit", "50"), 50)
	offset := parseOffset(c.DefaultQuery("offset", "0"))

	quotes, hasMore, err := h.quotes.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"quotes": quotes, "has_more": hasMore})
}

// Get handles GET /api/v1/quotes/:id.
func (h *QuoteHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	quote, err := h.quotes.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, quote)
}

// Create handles POST /api/v1/quotes.
func (h *QuoteHandler) Create(c *gin.Context) {
	var req models.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	actor := getActor(c)
	if actor == nil {
		return
	}

	quote, err := h.quotes.Create(c.Request.Context(), req, actor, requestMeta(c))
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusCreated, quote)
}

// Update handles PUT /api/v1/quotes/:id.
func (h *QuoteHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	var req models.UpdateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	actor := getActor(c)
	if actor == nil {
		return
	}

	quote, err := h.quotes.Update(c.Request.Context(), id, req, actor, requestMeta(c))
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, quote)
}

// Delete handles DELETE /api/v1/quotes/:id. The delete cascades through
// every active variant and version of the quote.
func (h *QuoteHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	actor := getActor(c)
	if actor == nil {
		return
	}

	quote, err := h.quotes.Delete(c.Request.Context(), id, actor, requestMeta(c))
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, quote)
}

// ListVariants handles GET /api/v1/quotes/:id/variants.
func (h *QuoteHandler) ListVariants(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	variants, err := h.quotes.ListVariants(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"variants": variants})
}

// CreateVariant handles POST /api/v1/quotes/:id/variants.
func (h *QuoteHandler) CreateVariant(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	var req models.CreateQuoteVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	actor := getActor(c)
	if actor == nil {
		return
	}

	variant, err := h.quotes.CreateVariant(c.Request.Context(), id, req, actor, requestMeta(c))
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusCreated, variant)
}

// CreateVersion handles POST /api/v1/variants/:id/versions. Version
// numbers are assigned server-side, monotonically per variant.
func (h *QuoteHandler) CreateVersion(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	actor := getActor(c)
	if actor == nil {
		return
	}

	version, err := h.quotes.CreateVersion(c.Request.Context(), id, req.Notes, actor, requestMeta(c))
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusCreated, version)
}

// DeleteVariant handles DELETE /api/v1/variants/:id.
func (h *QuoteHandler) DeleteVariant(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	actor := getActor(c)
	if actor == nil {
		return
	}

	if err := h.quotes.DeleteVariant(c.Request.Context(), id, actor); err != nil {
		respondServiceError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}
