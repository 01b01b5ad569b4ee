package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/offerdesk/offerdesk/internal/models"
)

// OpportunityHandler serves sales opportunity endpoints.
type OpportunityHandler struct {
	opps OpportunityService
	log  *logrus.Logger
}

// NewOpportunityHandler creates an OpportunityHandler.
func NewOpportunityHandler(opps OpportunityService, log *logrus.Logger) *OpportunityHandler {
	return &OpportunityHandler{opps: opps, log: log}
}

// List handles GET /api/v1/opportunities.
func (h *OpportunityHandler) List(c *gin.Context) {
	limit := parseInt(c.DefaultQuery("limit", "50"), 50)
	offset := parseOffset(c.DefaultQuery("offset", "0"))

	opps, hasMore, err := h.opps.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"opportunities": opps, "has_more": hasMore})
}

// Get handles GET /api/v1/opportunities/:id.
func (h *OpportunityHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	opp, err := h.opps.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, opp)
}

// Create handles POST /api/v1/opportunities.
func (h *OpportunityHandler) Create(c *gin.Context) {
	var req models.CreateOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	actor := getActor(c)
	if actor == nil {
		return
	}

	opp, err := h.opps.Create(c.Request.Context(), req, actor, requestMeta(c))
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusCreated, opp)
}

// Update handles PUT /api/v1/opportunities/:id.
func (h *OpportunityHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	var req models.UpdateOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	actor := getActor(c)
	if actor == nil {
		return
	}

	opp, err := h.opps.Update(c.Request.Context(), id, req, actor, requestMeta(c))
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, opp)
}

// Delete handles DELETE /api/v1/opportunities/:id.
func (h *OpportunityHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	actor := getActor(c)
	if actor == nil {
		return
	}

	opp, err := h.opps.Delete(c.Request.Context(), id, actor, requestMeta(c))
	if err != nil {
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, opp)
}
