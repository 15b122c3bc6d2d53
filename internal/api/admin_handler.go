package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"notisub/pkg/outbox"
)

// AdminHandler exposes operational endpoints.
type AdminHandler struct {
	replay *outbox.ReplayService
}

func NewAdminHandler(replay *outbox.ReplayService) *AdminHandler {
	return &AdminHandler{replay: replay}
}

// ReplayOutboxEvent handles POST /admin/outbox/:id/replay
func (h *AdminHandler) ReplayOutboxEvent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	if err := h.replay.ReplayEvent(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "replayed"})
}
