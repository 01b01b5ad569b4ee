// Package api provides the HTTP handlers for offerdesk.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/offerdesk/offerdesk/internal/models"
)

// ArticleHandler serves article CRUD, content, and calculation item endpoints.
type ArticleHandler struct {
	articles ArticleService
	content  ContentService
	log      *logrus.Logger
}

// NewArticleHandler creates an ArticleHandler.
func NewArticleHandler(articles ArticleService, content ContentService, log *logrus.Logger) *ArticleHandler {
	return &ArticleHandler{articles: articles, content: content, log: log}
}

// List handles GET /api/v1/articles.
func (h *ArticleHandler) List(c *gin.Context) {
	limit := parseInt(c.DefaultQuery("limit", "50"), 50)
	offset := parseOffset(c.DefaultQuery("offset", "0"))

	articles, hasMore, err := h.articles.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"articles": articles, "has_more": hasMore})
}

// Get handles GET /api/v1/articles/:id.
func (h *ArticleHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	article, err := h.articles.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, article)
}

// Create handles POST /api/v1/articles.
func (h *ArticleHandler) Create(c *gin.Context) {
	var req models.CreateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	actor := getActor(c)
	if actor == nil {
		return
	}

	article, err := h.articles.Create(c.Request.Context(), req, actor, requestMeta(c))
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusCreated, article)
}

// Update handles PUT /api/v1/articles/:id.
func (h *ArticleHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	var req models.UpdateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	actor := getActor(c)
	if actor == nil {
		return
	}

	article, err := h.articles.Update(c.Request.Context(), id, req, actor, requestMeta(c))
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, article)
}

// Delete handles DELETE /api/v1/articles/:id.
func (h *ArticleHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	actor := getActor(c)
	if actor == nil {
		return
	}

	article, err := h.articles.Delete(c.Request.Context(), id, actor, requestMeta(c))
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, article)
}

// ListContent handles GET /api/v1/articles/:id/content.
func (h *ArticleHandler) ListContent(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	rows, err := h.content.List(c.Request.Context(), models.KindArticle, id)
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"content": rows})
}

// ReplaceContent handles PUT /api/v1/articles/:id/content. The request
// body is the complete desired content set; the previous set is retired
// and the new one inserted in a single transaction.
func (h *ArticleHandler) ReplaceContent(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	var req struct {
		Content []models.ContentInput `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	actor := getActor(c)
	if actor == nil {
		return
	}

	rows, err := h.content.Replace(c.Request.Context(), models.KindArticle, id, req.Content, actor, requestMeta(c))
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"content": rows})
}

// ListCalculationItems handles GET /api/v1/articles/:id/calculation-items.
func (h *ArticleHandler) ListCalculationItems(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	items, err := h.articles.ListCalculationItems(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// AddCalculationItem handles POST /api/v1/articles/:id/calculation-items.
func (h *ArticleHandler) AddCalculationItem(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	var req models.CreateCalculationItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	actor := getActor(c)
	if actor == nil {
		return
	}

	item, err := h.articles.AddCalculationItem(c.Request.Context(), id, req, actor, requestMeta(c))
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusCreated, item)
}

// DeleteCalculationItem handles DELETE /api/v1/articles/:id/calculation-items/:itemID.
func (h *ArticleHandler) DeleteCalculationItem(c *gin.Context) {
	id := c.Param("id")
	itemID := c.Param("itemID")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}
	if err := validatePathID(itemID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	actor := getActor(c)
	if actor == nil {
		return
	}

	if err := h.articles.DeleteCalculationItem(c.Request.Context(), id, itemID, actor, requestMeta(c)); err != nil {
		respondServiceError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}
