package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	mqcontracts "notisub/contracts/mq"
	"notisub/internal/model"
	"notisub/pkg/metrics"
	"notisub/pkg/mq"
	"notisub/pkg/util"
)

const maxRetries = 5

type eventDispatcher interface {
	HandleEvent(ctx context.Context, ev *model.Event) error
}

// NotificationFiredHandler consumes notification.fired events and hands them
// to the dispatch service. Redis deduplication keeps redeliveries idempotent
// and exhausted retries land in the DLQ.
type NotificationFiredHandler struct {
	dispatcher   eventDispatcher
	deduper      *util.Deduper
	retryCounter *util.RetryCounter
	publisher    *mq.Publisher
	logger       *zap.Logger
}

func NewNotificationFiredHandler(
	dispatcher eventDispatcher,
	deduper *util.Deduper,
	retryCounter *util.RetryCounter,
	publisher *mq.Publisher,
	logger *zap.Logger,
) *NotificationFiredHandler {
	return &NotificationFiredHandler{
		dispatcher:   dispatcher,
		deduper:      deduper,
		retryCounter: retryCounter,
		publisher:    publisher,
		logger:       logger,
	}
}

func (h *NotificationFiredHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	start := time.Now()
	defer func() {
		metrics.RecordMQConsumeLatency("notification.fired", "notification.fired.dispatch", time.Since(start))
	}()

	var payload mqcontracts.NotificationFiredPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.logger.Error("Invalid NotificationFiredPayload, sending to DLQ",
			zap.String("raw", string(raw)),
			zap.Error(err),
		)
		_ = h.publisher.PublishToDLQ("notification.fired", raw, fmt.Sprintf("bad_payload: %v", err))
		return nil // ack, re-decoding will never succeed
	}

	if !h.deduper.AcquireOnce(ctx, "dispatch", payload.EventID) {
		h.logger.Info("Duplicated event, skip",
			zap.String("event_id", payload.EventID),
		)
		return nil
	}

	retryKey := util.FormatRetryKey("dispatch", payload.EventID)
	retryCount, _ := h.retryCounter.IncrementAndGet(ctx, retryKey)

	h.logger.Info("Dispatching fired notification",
		zap.String("event_id", payload.EventID),
		zap.String("type", payload.Type),
		zap.String("kind", payload.Kind),
		zap.Int64("retry", retryCount),
	)

	ev := &model.Event{
		ID:      payload.EventID,
		Type:    payload.Type,
		Kind:    payload.Kind,
		Args:    payload.Args,
		FiredAt: payload.FiredAt,
	}

	if err := h.dispatcher.HandleEvent(ctx, ev); err != nil {
		return h.handleDispatchError(ctx, err, raw, retryKey, retryCount, payload.EventID)
	}

	h.retryCounter.Reset(ctx, retryKey)
	return nil
}

func (h *NotificationFiredHandler) handleDispatchError(ctx context.Context, err error, raw json.RawMessage, retryKey string, retryCount int64, eventID string) error {
	isRetryable, errType := util.IsRetryableError(err)

	h.logger.Warn("Dispatch error",
		zap.String("event_id", eventID),
		zap.String("error_type", errType),
		zap.Bool("retryable", isRetryable),
		zap.Int64("retry", retryCount),
		zap.Error(err),
	)

	if !isRetryable || retryCount > maxRetries {
		_ = h.publisher.PublishToDLQ("notification.fired", raw, err.Error())
		h.retryCounter.Reset(ctx, retryKey)
		return nil // ack, the DLQ owns it now
	}

	// Redelivery needs a fresh dedup slot.
	h.deduper.Release(ctx, "dispatch", eventID)
	return err // nack, requeue
}
