// Package dispatch routes fired notification events: immediate
// subscriptions are delivered right away, batched ones are queued for the
// next digest.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"notisub/internal/digest"
	"notisub/internal/model"
	"notisub/internal/registry"
)

type subscriptionStore interface {
	ListSubscriberIDs(ctx context.Context, notificationType string) ([]int64, error)
	ListByUserAndType(ctx context.Context, userID int64, notificationType string) ([]*model.Subscription, error)
}

type pendingEnqueuer interface {
	Enqueue(ctx context.Context, userID int64, notificationType, channel, kind string, payload json.RawMessage) (int64, error)
}

// immediateSender delivers one event to one user over their immediate
// channels in a single call.
type immediateSender interface {
	SendImmediate(ctx context.Context, userID int64, channels []string, ev *model.Event) error
}

type Service struct {
	subs     subscriptionStore
	pending  pendingEnqueuer
	sender   immediateSender
	registry registry.Registry
	kinds    *digest.KindRegistry
	logger   *zap.Logger
}

// NewService wires the resolver. kinds may be nil, in which case no
// per-kind recipient filtering is applied.
func NewService(subs subscriptionStore, pending pendingEnqueuer, sender immediateSender, reg registry.Registry, kinds *digest.KindRegistry, logger *zap.Logger) *Service {
	return &Service{
		subs:     subs,
		pending:  pending,
		sender:   sender,
		registry: reg,
		kinds:    kinds,
		logger:   logger,
	}
}

// HandleEvent fans a fired event out to every subscriber of its type. Per
// user, immediate channels are collected into one send and every batched
// channel gets a pending row. A failing user does not block the rest; the
// joined error is returned so the message can be retried.
func (s *Service) HandleEvent(ctx context.Context, ev *model.Event) error {
	if _, err := s.registry.Lookup(ev.Type); err != nil {
		// Unknown types are dropped, not retried.
		s.logger.Warn("dropping event of unknown type",
			zap.String("event_id", ev.ID),
			zap.String("type", ev.Type))
		return nil
	}

	userIDs, err := s.subs.ListSubscriberIDs(ctx, ev.Type)
	if err != nil {
		return err
	}

	userIDs, err = s.filterSubscribers(ctx, ev, userIDs)
	if err != nil {
		return err
	}

	s.logger.Info("dispatching event",
		zap.String("event_id", ev.ID),
		zap.String("type", ev.Type),
		zap.String("kind", ev.Kind),
		zap.Int("subscribers", len(userIDs)))

	var errs []error
	for _, userID := range userIDs {
		if err := s.dispatchToUser(ctx, userID, ev); err != nil {
			s.logger.Error("failed to dispatch event to user",
				zap.String("event_id", ev.ID),
				zap.Int64("user_id", userID),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// filterSubscribers gives the event's kind a chance to narrow the
// recipient set before fan-out.
func (s *Service) filterSubscribers(ctx context.Context, ev *model.Event, userIDs []int64) ([]int64, error) {
	if s.kinds == nil || len(userIDs) == 0 {
		return userIDs, nil
	}
	v := s.kinds.New(ev.Kind, ev.Args)
	if v == nil {
		return userIDs, nil
	}
	f, ok := v.(digest.SubscriberFilter)
	if !ok {
		return userIDs, nil
	}
	return f.FilterSubscribers(ctx, userIDs)
}

func (s *Service) dispatchToUser(ctx context.Context, userID int64, ev *model.Event) error {
	subs, err := s.subs.ListByUserAndType(ctx, userID, ev.Type)
	if err != nil {
		return err
	}

	var immediate []string
	for _, sub := range subs {
		if sub.DigestInterval == model.IntervalImmediate {
			immediate = append(immediate, sub.Channel)
			continue
		}
		if _, err := s.pending.Enqueue(ctx, userID, ev.Type, sub.Channel, ev.Kind, ev.Args); err != nil {
			return err
		}
	}

	if len(immediate) == 0 {
		return nil
	}
	return s.sender.SendImmediate(ctx, userID, immediate, ev)
}
