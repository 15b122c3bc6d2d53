package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"notisub/internal/config"
	"notisub/internal/model"
	"notisub/internal/registry"
	"notisub/internal/repository"
	"notisub/internal/service/subscription"
)

type stubStore struct {
	saved *model.Subscription
}

func (s *stubStore) Upsert(ctx context.Context, sub *model.Subscription) (*model.Subscription, error) {
	out := *sub
	out.ID = 7
	s.saved = &out
	return &out, nil
}

func (s *stubStore) Get(ctx context.Context, userID int64, typ, channel string) (*model.Subscription, error) {
	return nil, repository.ErrSubscriptionNotFound
}

func (s *stubStore) Exists(ctx context.Context, userID int64, typ, channel string) (bool, error) {
	return false, nil
}

func (s *stubStore) Delete(ctx context.Context, userID int64, typ, channel string) (bool, error) {
	return true, nil
}

func (s *stubStore) DeleteByType(ctx context.Context, userID int64, typ string) (bool, error) {
	return false, nil
}

func (s *stubStore) DeleteAll(ctx context.Context, userID int64) (bool, error) {
	return false, nil
}

func (s *stubStore) Channels(ctx context.Context, userID int64, typ string) ([]string, error) {
	return []string{"mail"}, nil
}

func (s *stubStore) ListByUserAndType(ctx context.Context, userID int64, typ string) ([]*model.Subscription, error) {
	return nil, nil
}

func (s *stubStore) ListByUser(ctx context.Context, userID int64) ([]*model.Subscription, error) {
	return nil, nil
}

func newTestRouter(store *stubStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	reg := registry.NewConfigRegistry(map[string]config.NotificationTypeConfig{
		"comment.created": {
			Label:    "New comments",
			Channels: []config.ChannelConfig{{Name: "mail", Label: "Email"}},
		},
	})
	h := NewSubscriptionHandler(subscription.NewService(store, reg, zap.NewNop()))

	r := gin.New()
	r.PUT("/users/:user_id/subscriptions", h.Subscribe)
	r.GET("/users/:user_id/subscriptions/:type/:channel", h.Details)
	r.DELETE("/users/:user_id/subscriptions/:type/:channel", h.Unsubscribe)
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestSubscribeEndpoint(t *testing.T) {
	store := &stubStore{}
	r := newTestRouter(store)

	w := doRequest(r, http.MethodPut, "/users/10/subscriptions",
		`{"type":"comment.created","channel":"mail","digest_interval":"daily","digest_at_time":"08:30"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"digest_interval":"daily"`)
	assert.Contains(t, w.Body.String(), `"digest_at_time":"08:30:00"`)

	require.NotNil(t, store.saved)
	assert.Equal(t, int64(10), store.saved.UserID)
}

func TestSubscribeValidationErrors(t *testing.T) {
	r := newTestRouter(&stubStore{})

	t.Run("unknown type", func(t *testing.T) {
		w := doRequest(r, http.MethodPut, "/users/10/subscriptions",
			`{"type":"nope","channel":"mail"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("unknown channel", func(t *testing.T) {
		w := doRequest(r, http.MethodPut, "/users/10/subscriptions",
			`{"type":"comment.created","channel":"sms"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("bad time", func(t *testing.T) {
		w := doRequest(r, http.MethodPut, "/users/10/subscriptions",
			`{"type":"comment.created","channel":"mail","digest_interval":"daily","digest_at_time":"25:00"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("bad user id", func(t *testing.T) {
		w := doRequest(r, http.MethodPut, "/users/abc/subscriptions",
			`{"type":"comment.created","channel":"mail"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad body", func(t *testing.T) {
		w := doRequest(r, http.MethodPut, "/users/10/subscriptions", `{`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDetailsNotFound(t *testing.T) {
	r := newTestRouter(&stubStore{})

	w := doRequest(r, http.MethodGet, "/users/10/subscriptions/comment.created/mail", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnsubscribeEndpoint(t *testing.T) {
	r := newTestRouter(&stubStore{})

	w := doRequest(r, http.MethodDelete, "/users/10/subscriptions/comment.created/mail", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"removed":true`)
}
