package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	mqcontracts "notisub/contracts/mq"
	"notisub/internal/registry"
)

type eventPublisher interface {
	PublishWithContext(ctx context.Context, routingKey string, payload any) error
}

// EventHandler accepts fired notification events from producers and puts
// them on the queue for the dispatch worker.
type EventHandler struct {
	publisher eventPublisher
	registry  registry.Registry
}

func NewEventHandler(pub eventPublisher, reg registry.Registry) *EventHandler {
	return &EventHandler{
		publisher: pub,
		registry:  reg,
	}
}

// Fire handles POST /events
func (h *EventHandler) Fire(c *gin.Context) {
	var req struct {
		Type string          `json:"type"`
		Kind string          `json:"kind"`
		Args json.RawMessage `json:"args"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Type == "" || req.Kind == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "type and kind are required"})
		return
	}
	if _, err := h.registry.Lookup(req.Type); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	payload := mqcontracts.NotificationFiredPayload{
		EventID: uuid.New().String(),
		Type:    req.Type,
		Kind:    req.Kind,
		Args:    req.Args,
		FiredAt: time.Now().UTC(),
	}

	if err := h.publisher.PublishWithContext(c.Request.Context(), "notification.fired", payload); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to publish event"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"event_id": payload.EventID,
		"status":   "queued",
	})
}
