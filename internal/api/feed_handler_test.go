package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notisub/internal/repository"
)

type stubFeed struct {
	items  []repository.InAppNotification
	readID int64
}

func (s *stubFeed) ListByUser(ctx context.Context, userID int64, limit int) ([]repository.InAppNotification, error) {
	return s.items, nil
}

func (s *stubFeed) MarkAsRead(ctx context.Context, id int64) error {
	s.readID = id
	return nil
}

type stubPendingCount struct {
	n int
}

func (s *stubPendingCount) CountForUser(ctx context.Context, userID int64) (int, error) {
	return s.n, nil
}

func newFeedRouter(feed *stubFeed, pending *stubPendingCount) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewFeedHandler(feed, pending)
	r := gin.New()
	r.GET("/users/:user_id/notifications", h.List)
	r.POST("/notifications/:id/read", h.MarkRead)
	return r
}

func TestFeedListIncludesPendingDigestCount(t *testing.T) {
	feed := &stubFeed{items: []repository.InAppNotification{
		{ID: 1, UserID: 10, Title: "Your Notification Digest", CreatedAt: time.Now()},
	}}
	r := newFeedRouter(feed, &stubPendingCount{n: 3})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/10/notifications", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Notifications []repository.InAppNotification `json:"notifications"`
		PendingDigest int                            `json:"pending_digest"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Notifications, 1)
	assert.Equal(t, 3, body.PendingDigest)
}

func TestFeedListEmpty(t *testing.T) {
	r := newFeedRouter(&stubFeed{}, &stubPendingCount{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/10/notifications", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"notifications":[]`)
	assert.Contains(t, w.Body.String(), `"pending_digest":0`)
}

func TestFeedMarkRead(t *testing.T) {
	feed := &stubFeed{}
	r := newFeedRouter(feed, &stubPendingCount{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/notifications/42/read", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(42), feed.readID)
}
