package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LockHandler serves the edit lock endpoints. Locks are advisory from
// the API's perspective; every mutation re-validates the lock inside its
// own transaction regardless of what these endpoints report.
type LockHandler struct {
	locks LockService
	log   *logrus.Logger
}

// NewLockHandler creates a LockHandler.
func NewLockHandler(locks LockService, log *logrus.Logger) *LockHandler {
	return &LockHandler{locks: locks, log: log}
}

// Check handles GET /api/v1/locks/:kind/:id. Responds 204 when the
// caller may edit and 409 with the holder when someone else has it.
func (h *LockHandler) Check(c *gin.Context) {
	kind, ok := parseLockableKind(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	actor := getActor(c)
	if actor == nil {
		return
	}

	if err := h.locks.CheckEditable(c.Request.Context(), kind, id, actor); err != nil {
		respondServiceError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}

// Acquire handles POST /api/v1/locks/:kind/:id. Re-acquiring a lock the
// caller already holds refreshes its timestamp.
func (h *LockHandler) Acquire(c *gin.Context) {
	kind, ok := parseLockableKind(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	actor := getActor(c)
	if actor == nil {
		return
	}

	if err := h.locks.Acquire(c.Request.Context(), kind, id, actor); err != nil {
		respondServiceError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}

// Release handles DELETE /api/v1/locks/:kind/:id. With ?force=true
// another user's lock may be broken; the forced release is audited.
func (h *LockHandler) Release(c *gin.Context) {
	kind, ok := parseLockableKind(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	actor := getActor(c)
	if actor == nil {
		return
	}

	force := c.Query("force") == "true"

	if err := h.locks.Release(c.Request.Context(), kind, id, actor, force); err != nil {
		respondServiceError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}
