package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"notisub/internal/config"
	"notisub/internal/digest"
	"notisub/internal/model"
	"notisub/internal/registry"
)

type fakeSubs struct {
	byUser map[int64][]*model.Subscription
	err    error
}

func (f *fakeSubs) ListSubscriberIDs(ctx context.Context, notificationType string) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	var ids []int64
	for id := range f.byUser {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeSubs) ListByUserAndType(ctx context.Context, userID int64, notificationType string) ([]*model.Subscription, error) {
	return f.byUser[userID], nil
}

type enqueueCall struct {
	userID  int64
	channel string
	kind    string
}

type fakePending struct {
	calls []enqueueCall
	err   error
}

func (f *fakePending) Enqueue(ctx context.Context, userID int64, notificationType, channel, kind string, payload json.RawMessage) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.calls = append(f.calls, enqueueCall{userID: userID, channel: channel, kind: kind})
	return int64(len(f.calls)), nil
}

type immediateCall struct {
	userID   int64
	channels []string
}

type fakeSender struct {
	calls []immediateCall
	err   error
}

func (f *fakeSender) SendImmediate(ctx context.Context, userID int64, channels []string, ev *model.Event) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, immediateCall{userID: userID, channels: channels})
	return nil
}

func testRegistry() registry.Registry {
	return registry.NewConfigRegistry(map[string]config.NotificationTypeConfig{
		"system.alert": {
			Label: "System alerts",
			Channels: []config.ChannelConfig{
				{Name: "mail"},
				{Name: "database"},
				{Name: "sms"},
			},
		},
	})
}

func sub(userID int64, channel string, interval model.DigestInterval) *model.Subscription {
	s := &model.Subscription{
		UserID:         userID,
		Type:           "system.alert",
		Channel:        channel,
		DigestInterval: interval,
	}
	if interval != model.IntervalImmediate {
		at := model.TimeOfDay{Hour: 9}
		s.DigestAtTime = &at
	}
	return s
}

func testEvent() *model.Event {
	return &model.Event{
		ID:      "evt-1",
		Type:    "system.alert",
		Kind:    "Update",
		Args:    json.RawMessage(`{"title":"t","message":"m"}`),
		FiredAt: time.Now(),
	}
}

// adminAlertNotification narrows its recipients to an allow-list carried in
// the payload.
type adminAlertNotification struct {
	AllowedIDs []int64 `json:"allowed_ids"`

	filterErr error
}

func (n *adminAlertNotification) FilterSubscribers(ctx context.Context, userIDs []int64) ([]int64, error) {
	if n.filterErr != nil {
		return nil, n.filterErr
	}
	allowed := make(map[int64]bool, len(n.AllowedIDs))
	for _, id := range n.AllowedIDs {
		allowed[id] = true
	}
	var out []int64
	for _, id := range userIDs {
		if allowed[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func testKinds(filterErr error) *digest.KindRegistry {
	r := digest.NewKindRegistry()
	r.Register("AdminAlert", func(payload json.RawMessage) (any, error) {
		var n adminAlertNotification
		if err := json.Unmarshal(payload, &n); err != nil {
			return nil, err
		}
		n.filterErr = filterErr
		return &n, nil
	})
	return r
}

func TestHandleEventPartitionsChannels(t *testing.T) {
	subs := &fakeSubs{byUser: map[int64][]*model.Subscription{
		10: {
			sub(10, "mail", model.IntervalImmediate),
			sub(10, "database", model.IntervalImmediate),
			sub(10, "sms", model.IntervalWeekly),
		},
	}}
	pending := &fakePending{}
	sender := &fakeSender{}
	svc := NewService(subs, pending, sender, testRegistry(), nil, zap.NewNop())

	err := svc.HandleEvent(context.Background(), testEvent())
	require.NoError(t, err)

	// one combined immediate send for both immediate channels
	require.Len(t, sender.calls, 1)
	assert.Equal(t, int64(10), sender.calls[0].userID)
	assert.Equal(t, []string{"mail", "database"}, sender.calls[0].channels)

	// one pending row for the batched channel
	require.Len(t, pending.calls, 1)
	assert.Equal(t, enqueueCall{userID: 10, channel: "sms", kind: "Update"}, pending.calls[0])
}

func TestHandleEventOnlyBatchedSkipsSender(t *testing.T) {
	subs := &fakeSubs{byUser: map[int64][]*model.Subscription{
		10: {sub(10, "mail", model.IntervalDaily)},
	}}
	pending := &fakePending{}
	sender := &fakeSender{}
	svc := NewService(subs, pending, sender, testRegistry(), nil, zap.NewNop())

	err := svc.HandleEvent(context.Background(), testEvent())
	require.NoError(t, err)

	assert.Empty(t, sender.calls)
	assert.Len(t, pending.calls, 1)
}

func TestHandleEventUnknownTypeDropped(t *testing.T) {
	subs := &fakeSubs{}
	svc := NewService(subs, &fakePending{}, &fakeSender{}, testRegistry(), nil, zap.NewNop())

	ev := testEvent()
	ev.Type = "nope"
	err := svc.HandleEvent(context.Background(), ev)
	assert.NoError(t, err) // dropped, not retried
}

func TestHandleEventUserIsolation(t *testing.T) {
	subs := &fakeSubs{byUser: map[int64][]*model.Subscription{
		10: {sub(10, "mail", model.IntervalImmediate)},
		20: {sub(20, "mail", model.IntervalImmediate)},
	}}
	sender := &fakeSender{err: errors.New("provider down")}
	svc := NewService(subs, &fakePending{}, sender, testRegistry(), nil, zap.NewNop())

	err := svc.HandleEvent(context.Background(), testEvent())
	assert.Error(t, err)
}

func TestHandleEventKindFiltersSubscribers(t *testing.T) {
	subs := &fakeSubs{byUser: map[int64][]*model.Subscription{
		10: {sub(10, "mail", model.IntervalImmediate)},
		20: {sub(20, "mail", model.IntervalImmediate)},
	}}
	sender := &fakeSender{}
	svc := NewService(subs, &fakePending{}, sender, testRegistry(), testKinds(nil), zap.NewNop())

	ev := testEvent()
	ev.Kind = "AdminAlert"
	ev.Args = json.RawMessage(`{"allowed_ids":[20]}`)
	err := svc.HandleEvent(context.Background(), ev)
	require.NoError(t, err)

	require.Len(t, sender.calls, 1)
	assert.Equal(t, int64(20), sender.calls[0].userID)
}

func TestHandleEventKindWithoutFilterFansOut(t *testing.T) {
	subs := &fakeSubs{byUser: map[int64][]*model.Subscription{
		10: {sub(10, "mail", model.IntervalImmediate)},
		20: {sub(20, "mail", model.IntervalImmediate)},
	}}
	sender := &fakeSender{}
	// "Update" is not registered here, so no filter applies
	svc := NewService(subs, &fakePending{}, sender, testRegistry(), testKinds(nil), zap.NewNop())

	err := svc.HandleEvent(context.Background(), testEvent())
	require.NoError(t, err)
	assert.Len(t, sender.calls, 2)
}

func TestHandleEventFilterErrorPropagates(t *testing.T) {
	subs := &fakeSubs{byUser: map[int64][]*model.Subscription{
		10: {sub(10, "mail", model.IntervalImmediate)},
	}}
	sender := &fakeSender{}
	svc := NewService(subs, &fakePending{}, sender, testRegistry(), testKinds(errors.New("directory down")), zap.NewNop())

	ev := testEvent()
	ev.Kind = "AdminAlert"
	ev.Args = json.RawMessage(`{"allowed_ids":[10]}`)
	err := svc.HandleEvent(context.Background(), ev)
	assert.Error(t, err)
	assert.Empty(t, sender.calls)
}

func TestHandleEventEnqueueErrorPropagates(t *testing.T) {
	subs := &fakeSubs{byUser: map[int64][]*model.Subscription{
		10: {sub(10, "mail", model.IntervalDaily)},
	}}
	pending := &fakePending{err: errors.New("db down")}
	svc := NewService(subs, pending, &fakeSender{}, testRegistry(), nil, zap.NewNop())

	err := svc.HandleEvent(context.Background(), testEvent())
	assert.Error(t, err)
}
