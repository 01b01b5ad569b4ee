package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/offerdesk/offerdesk/internal/models"
)

// BlockHandler serves text block endpoints.
type BlockHandler struct {
	blocks  BlockService
	content ContentService
	log     *logrus.Logger
}

// NewBlockHandler creates a BlockHandler.
func NewBlockHandler(blocks BlockService, content ContentService, log *logrus.Logger) *BlockHandler {
	return &BlockHandler{blocks: blocks, content: content, log: log}
}

// List handles GET /api/v1/blocks.
func (h *BlockHandler) List(c *gin.Context) {
	limit := parseInt(c.DefaultQuery("limit", "50"), 50)
	offset := parseOffset(c.DefaultQuery("offset", "0"))

	blocks, hasMore, err := h.blocks.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"blocks": blocks, "has_more": hasMore})
}

// Get handles GET /api/v1/blocks/:id.
func (h *BlockHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	block, err := h.blocks.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, block)
}

// Create handles POST /api/v1/blocks.
func (h *BlockHandler) Create(c *gin.Context) {
	var req models.CreateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	actor := getActor(c)
	if actor == nil {
		return
	}

	block, err := h.blocks.Create(c.Request.Context(), req, actor, requestMeta(c))
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusCreated, block)
}

// Update handles PUT /api/v1/blocks/:id.
func (h *BlockHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	var req models.UpdateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	actor := getActor(c)
	if actor == nil {
		return
	}

	block, err := h.blocks.Update(c.Request.Context(), id, req, actor, requestMeta(c))
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, block)
}

// Delete handles DELETE /api/v1/blocks/:id.
func (h *BlockHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	actor := getActor(c)
	if actor == nil {
		return
	}

	block, err := h.blocks.Delete(c.Request.Context(), id, actor, requestMeta(c))
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, block)
}

// Copy handles POST /api/v1/blocks/:id/copy. The copy duplicates the
// block and all of its content rows as a new unlocked block.
func (h *BlockHandler) Copy(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	actor := getActor(c)
	if actor == nil {
		return
	}

	block, err := h.blocks.Copy(c.Request.Context(), id, actor, requestMeta(c))
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusCreated, block)
}

// ListContent handles GET /api/v1/blocks/:id/content.
func (h *BlockHandler) ListContent(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	rows, err := h.content.List(c.Request.Context(), models.KindBlock, id)
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"content": rows})
}

// ReplaceContent handles PUT /api/v1/blocks/:id/content.
func (h *BlockHandler) ReplaceContent(c *gin.Context) {
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

	rows, err := h.content.Replace(c.Request.Context(), models.KindBlock, id, req.Content, actor, requestMeta(c))
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"content": rows})
}
