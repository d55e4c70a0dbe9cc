package presence

import (
	"net/http"

	"kitchen-collab/internal/errors"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Heartbeat handles POST /projects/:id/presence/heartbeat
func (h *Handler) Heartbeat(c *gin.Context) {
	projectID := c.Param("id")

	userID, exists := c.Get("user_id")
	if !exists {
		c.Error(errors.Unauthorized("No caller identity", nil))
		return
	}

	if err := h.service.Heartbeat(c.Request.Context(), projectID, userID.(string)); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

type SetStatusRequest struct {
	Status Status `json:"status" binding:"required,oneof=not_participating participating completed"`
}

// SetStatus handles POST /projects/:id/presence/status. The caller can only
// set their own status.
func (h *Handler) SetStatus(c *gin.Context) {
	projectID := c.Param("id")

	userID, exists := c.Get("user_id")
	if !exists {
		c.Error(errors.Unauthorized("No caller identity", nil))
		return
	}

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.SetStatus(c.Request.Context(), projectID, userID.(string), req.Status); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// List handles GET /projects/:id/presence
func (h *Handler) List(c *gin.Context) {
	projectID := c.Param("id")

	users, err := h.service.ListActive(c.Request.Context(), projectID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, users)
}
