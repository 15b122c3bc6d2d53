package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"notisub/internal/registry"
)

type TypesHandler struct {
	registry registry.Registry
}

func NewTypesHandler(reg registry.Registry) *TypesHandler {
	return &TypesHandler{registry: reg}
}

// List handles GET /notification-types
func (h *TypesHandler) List(c *gin.Context) {
	defs := h.registry.Types()

	type channelResponse struct {
		Name  string `json:"name"`
		Label string `json:"label"`
	}
	type typeResponse struct {
		Type        string            `json:"type"`
		Label       string            `json:"label"`
		Description string            `json:"description"`
		Channels    []channelResponse `json:"channels"`
	}

	out := make([]typeResponse, 0, len(defs))
	for _, d := range defs {
		t := typeResponse{
			Type:        d.Type,
			Label:       d.Label,
			Description: d.Description,
			Channels:    make([]channelResponse, 0, len(d.Channels)),
		}
		for _, ch := range d.Channels {
			t.Channels = append(t.Channels, channelResponse{Name: ch.Name, Label: ch.Label})
		}
		out = append(out, t)
	}

	c.JSON(http.StatusOK, gin.H{"notification_types": out})
}
