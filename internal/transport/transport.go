// Package transport delivers compiled notifications over the supported
// channels: Postmark mail, the in-app notification table, and SMS via the
// message queue.
package transport

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"notisub/internal/digest"
	"notisub/internal/model"
	"notisub/internal/repository"
	"notisub/pkg/metrics"
)

const (
	ChannelMail     = "mail"
	ChannelDatabase = "database"
	ChannelSMS      = "sms"
)

// Router maps channel names to their transports, in the shape the digest
// dispatcher consumes.
func Router(mail, database, sms digest.Transport) map[string]digest.Transport {
	return map[string]digest.Transport{
		ChannelMail:     mail,
		ChannelDatabase: database,
		ChannelSMS:      sms,
	}
}

type userDirectory interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// ImmediateDispatcher delivers one fired event straight to a user's
// immediate channels, bypassing the pending queue.
type ImmediateDispatcher struct {
	users      userDirectory
	transports map[string]digest.Transport
	compiler   *digest.Compiler
	logger     *zap.Logger
}

func NewImmediateDispatcher(users userDirectory, transports map[string]digest.Transport, compiler *digest.Compiler, logger *zap.Logger) *ImmediateDispatcher {
	return &ImmediateDispatcher{
		users:      users,
		transports: transports,
		compiler:   compiler,
		logger:     logger,
	}
}

// SendImmediate compiles the event as a single-item message and sends it on
// each listed channel. A missing recipient is skipped, not retried.
func (d *ImmediateDispatcher) SendImmediate(ctx context.Context, userID int64, channels []string, ev *model.Event) error {
	recipient, err := d.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			d.logger.Warn("immediate recipient not found, skipping",
				zap.Int64("user_id", userID),
				zap.String("event_id", ev.ID))
			return nil
		}
		return err
	}

	item := model.PendingNotification{
		UserID:           userID,
		NotificationType: ev.Type,
		NotificationKind: ev.Kind,
		Payload:          ev.Args,
		CreatedAt:        ev.FiredAt,
	}
	compiled := d.compiler.Compile(recipient, []model.PendingNotification{item})

	var errs []error
	for _, channel := range channels {
		transport, ok := d.transports[channel]
		if !ok {
			errs = append(errs, fmt.Errorf("no transport for channel %q", channel))
			continue
		}
		sub := &model.Subscription{
			UserID:         userID,
			Type:           ev.Type,
			Channel:        channel,
			DigestInterval: model.IntervalImmediate,
		}
		if err := transport.Send(ctx, recipient, sub, compiled); err != nil {
			errs = append(errs, fmt.Errorf("channel %s: %w", channel, err))
			continue
		}
		metrics.ImmediateSent.WithLabelValues(channel).Inc()
	}
	return errors.Join(errs...)
}
