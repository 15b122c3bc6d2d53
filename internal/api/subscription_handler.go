package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"notisub/internal/model"
	"notisub/internal/registry"
	"notisub/internal/repository"
	"notisub/internal/service/subscription"
)

type SubscriptionHandler struct {
	svc *subscription.Service
}

func NewSubscriptionHandler(svc *subscription.Service) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc}
}

type subscriptionResponse struct {
	ID               int64   `json:"id"`
	UserID           int64   `json:"user_id"`
	Type             string  `json:"type"`
	Channel          string  `json:"channel"`
	DigestInterval   string  `json:"digest_interval"`
	DigestAtTime     *string `json:"digest_at_time"`
	DigestAtDay      *string `json:"digest_at_day"`
	LastDigestSentAt *string `json:"last_digest_sent_at"`
}

func toResponse(s *model.Subscription) subscriptionResponse {
	resp := subscriptionResponse{
		ID:             s.ID,
		UserID:         s.UserID,
		Type:           s.Type,
		Channel:        s.Channel,
		DigestInterval: string(s.DigestInterval),
		DigestAtDay:    s.DigestAtDay,
	}
	if s.DigestAtTime != nil {
		v := s.DigestAtTime.String()
		resp.DigestAtTime = &v
	}
	if s.LastDigestSentAt != nil {
		v := s.LastDigestSentAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		resp.LastDigestSentAt = &v
	}
	return resp
}

func toResponses(subs []*model.Subscription) []subscriptionResponse {
	out := make([]subscriptionResponse, 0, len(subs))
	for _, s := range subs {
		out = append(out, toResponse(s))
	}
	return out
}

func userIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return id, true
}

func isValidationError(err error) bool {
	return errors.Is(err, registry.ErrUnknownType) ||
		errors.Is(err, registry.ErrUnknownChannel) ||
		errors.Is(err, subscription.ErrInvalidInterval) ||
		errors.Is(err, subscription.ErrMissingDigestDay) ||
		errors.Is(err, subscription.ErrInvalidDigestDay)
}

// Subscribe handles PUT /users/:user_id/subscriptions
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Type           string  `json:"type"`
		Channel        string  `json:"channel"`
		DigestInterval string  `json:"digest_interval"`
		DigestAtTime   *string `json:"digest_at_time"`
		DigestAtDay    *string `json:"digest_at_day"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	svcReq := subscription.Request{
		UserID:         userID,
		Type:           req.Type,
		Channel:        req.Channel,
		DigestInterval: model.DigestInterval(req.DigestInterval),
		DigestAtDay:    req.DigestAtDay,
	}
	if req.DigestAtTime != nil {
		t, err := model.ParseTimeOfDay(*req.DigestAtTime)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		svcReq.DigestAtTime = &t
	}

	sub, err := h.svc.Subscribe(c.Request.Context(), svcReq)
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save subscription"})
		return
	}

	c.JSON(http.StatusOK, toResponse(sub))
}

// List handles GET /users/:user_id/subscriptions
func (h *SubscriptionHandler) List(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	subs, err := h.svc.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list subscriptions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": toResponses(subs)})
}

// ListByType handles GET /users/:user_id/subscriptions/:type
func (h *SubscriptionHandler) ListByType(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	subs, err := h.svc.ListForUserAndType(c.Request.Context(), userID, c.Param("type"))
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list subscriptions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": toResponses(subs)})
}

// Channels handles GET /users/:user_id/subscribed-channels/:type
func (h *SubscriptionHandler) Channels(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	channels, err := h.svc.GetSubscribedChannels(c.Request.Context(), userID, c.Param("type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list channels"})
		return
	}
	if channels == nil {
		channels = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

// Details handles GET /users/:user_id/subscriptions/:type/:channel
func (h *SubscriptionHandler) Details(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	sub, err := h.svc.GetDetails(c.Request.Context(), userID, c.Param("type"), c.Param("channel"))
	if err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load subscription"})
		return
	}
	c.JSON(http.StatusOK, toResponse(sub))
}

// Unsubscribe handles DELETE /users/:user_id/subscriptions/:type/:channel
func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	removed, err := h.svc.Unsubscribe(c.Request.Context(), userID, c.Param("type"), c.Param("channel"))
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unsubscribe"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// UnsubscribeFromType handles DELETE /users/:user_id/subscriptions/:type
func (h *SubscriptionHandler) UnsubscribeFromType(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	removed, err := h.svc.UnsubscribeFromType(c.Request.Context(), userID, c.Param("type"))
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unsubscribe"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// UnsubscribeFromAll handles DELETE /users/:user_id/subscriptions
func (h *SubscriptionHandler) UnsubscribeFromAll(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	removed, err := h.svc.UnsubscribeFromAll(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unsubscribe"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
