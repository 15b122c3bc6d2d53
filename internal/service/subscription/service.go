// Package subscription manages a user's notification preferences: which
// types they receive, over which channels, and at what cadence.
package subscription

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"notisub/internal/model"
	"notisub/internal/registry"
)

var (
	ErrInvalidInterval  = errors.New("invalid digest interval")
	ErrMissingDigestDay = errors.New("weekly subscription requires a digest day")
	ErrInvalidDigestDay = errors.New("invalid digest day")
)

// DefaultDigestTime is used when a daily or weekly request omits a time.
var DefaultDigestTime = model.TimeOfDay{Hour: 9}

type store interface {
	Upsert(ctx context.Context, s *model.Subscription) (*model.Subscription, error)
	Get(ctx context.Context, userID int64, notificationType, channel string) (*model.Subscription, error)
	Exists(ctx context.Context, userID int64, notificationType, channel string) (bool, error)
	Delete(ctx context.Context, userID int64, notificationType, channel string) (bool, error)
	DeleteByType(ctx context.Context, userID int64, notificationType string) (bool, error)
	DeleteAll(ctx context.Context, userID int64) (bool, error)
	Channels(ctx context.Context, userID int64, notificationType string) ([]string, error)
	ListByUserAndType(ctx context.Context, userID int64, notificationType string) ([]*model.Subscription, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Subscription, error)
}

type Service struct {
	store    store
	registry registry.Registry
	logger   *zap.Logger
}

func NewService(store store, reg registry.Registry, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		registry: reg,
		logger:   logger,
	}
}

// Request carries the caller's desired cadence for one (type, channel).
type Request struct {
	UserID         int64
	Type           string
	Channel        string
	DigestInterval model.DigestInterval
	DigestAtTime   *model.TimeOfDay
	DigestAtDay    *string
}

// Subscribe creates or reshapes the subscription for (user, type, channel).
// Fields irrelevant to the chosen cadence are cleared; an existing row keeps
// its identity and its delivery watermark.
func (s *Service) Subscribe(ctx context.Context, req Request) (*model.Subscription, error) {
	if err := registry.ValidateChannel(s.registry, req.Type, req.Channel); err != nil {
		return nil, err
	}

	sub, err := normalize(req)
	if err != nil {
		return nil, err
	}

	saved, err := s.store.Upsert(ctx, sub)
	if err != nil {
		return nil, err
	}

	s.logger.Info("subscription saved",
		zap.Int64("user_id", saved.UserID),
		zap.String("type", saved.Type),
		zap.String("channel", saved.Channel),
		zap.String("digest_interval", string(saved.DigestInterval)))
	return saved, nil
}

// normalize applies the cadence invariants: immediate subscriptions carry no
// schedule, daily ones only a time, weekly ones a time and a lowercase day.
func normalize(req Request) (*model.Subscription, error) {
	interval := req.DigestInterval
	if interval == "" {
		interval = model.IntervalImmediate
	}
	if !interval.Valid() {
		return nil, ErrInvalidInterval
	}

	sub := &model.Subscription{
		UserID:         req.UserID,
		Type:           req.Type,
		Channel:        req.Channel,
		DigestInterval: interval,
	}

	switch interval {
	case model.IntervalImmediate:
		// no schedule fields

	case model.IntervalDaily:
		t := DefaultDigestTime
		if req.DigestAtTime != nil {
			t = *req.DigestAtTime
		}
		sub.DigestAtTime = &t

	case model.IntervalWeekly:
		t := DefaultDigestTime
		if req.DigestAtTime != nil {
			t = *req.DigestAtTime
		}
		sub.DigestAtTime = &t

		if req.DigestAtDay == nil || *req.DigestAtDay == "" {
			return nil, ErrMissingDigestDay
		}
		if !model.ValidWeekday(*req.DigestAtDay) {
			return nil, ErrInvalidDigestDay
		}
		day := strings.ToLower(*req.DigestAtDay)
		sub.DigestAtDay = &day
	}

	return sub, nil
}

// Unsubscribe removes one (type, channel) subscription, reporting whether it
// existed.
func (s *Service) Unsubscribe(ctx context.Context, userID int64, notificationType, channel string) (bool, error) {
	if err := registry.ValidateChannel(s.registry, notificationType, channel); err != nil {
		return false, err
	}
	return s.store.Delete(ctx, userID, notificationType, channel)
}

// UnsubscribeFromType removes the user's subscriptions for a type across
// every channel.
func (s *Service) UnsubscribeFromType(ctx context.Context, userID int64, notificationType string) (bool, error) {
	if _, err := s.registry.Lookup(notificationType); err != nil {
		return false, err
	}
	return s.store.DeleteByType(ctx, userID, notificationType)
}

// UnsubscribeFromAll removes every subscription the user holds.
func (s *Service) UnsubscribeFromAll(ctx context.Context, userID int64) (bool, error) {
	return s.store.DeleteAll(ctx, userID)
}

func (s *Service) IsSubscribed(ctx context.Context, userID int64, notificationType, channel string) (bool, error) {
	return s.store.Exists(ctx, userID, notificationType, channel)
}

// GetDetails returns the stored subscription for (user, type, channel).
func (s *Service) GetDetails(ctx context.Context, userID int64, notificationType, channel string) (*model.Subscription, error) {
	return s.store.Get(ctx, userID, notificationType, channel)
}

// GetSubscribedChannels lists the channels the user receives a type on.
func (s *Service) GetSubscribedChannels(ctx context.Context, userID int64, notificationType string) ([]string, error) {
	return s.store.Channels(ctx, userID, notificationType)
}

// ListForUser returns every subscription the user holds.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]*model.Subscription, error) {
	return s.store.ListByUser(ctx, userID)
}

// ListForUserAndType returns the user's per-channel subscriptions for a type.
func (s *Service) ListForUserAndType(ctx context.Context, userID int64, notificationType string) ([]*model.Subscription, error) {
	if _, err := s.registry.Lookup(notificationType); err != nil {
		return nil, err
	}
	return s.store.ListByUserAndType(ctx, userID, notificationType)
}
