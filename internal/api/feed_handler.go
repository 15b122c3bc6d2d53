package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"notisub/internal/repository"
)

type feedStore interface {
	ListByUser(ctx context.Context, userID int64, limit int) ([]repository.InAppNotification, error)
	MarkAsRead(ctx context.Context, id int64) error
}

type pendingCounter interface {
	CountForUser(ctx context.Context, userID int64) (int, error)
}

// FeedHandler serves the in-app notification feed backing the database
// channel.
type FeedHandler struct {
	feed    feedStore
	pending pendingCounter
}

func NewFeedHandler(feed feedStore, pending pendingCounter) *FeedHandler {
	return &FeedHandler{feed: feed, pending: pending}
}

// List handles GET /users/:user_id/notifications. The response carries the
// number of items still queued for the user's next digest alongside the
// delivered feed.
func (h *FeedHandler) List(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	items, err := h.feed.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
		return
	}
	if items == nil {
		items = []repository.InAppNotification{}
	}

	pending, err := h.pending.CountForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count pending notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications":  items,
		"pending_digest": pending,
	})
}

// MarkRead handles POST /notifications/:id/read
func (h *FeedHandler) MarkRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	if err := h.feed.MarkAsRead(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notification read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "read"})
}
