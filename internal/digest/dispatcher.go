package digest

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"notisub/internal/model"
	"notisub/internal/repository"
	"notisub/pkg/metrics"
)

// subscriptionSource yields the daily/weekly subscriptions that may be due.
type subscriptionSource interface {
	ListDigestCandidates(ctx context.Context) ([]*model.Subscription, error)
}

// pendingSource yields the queued items for one subscription.
type pendingSource interface {
	ListFor(ctx context.Context, userID int64, notificationType, channel string) ([]model.PendingNotification, error)
}

// flusher commits the outcome of a sent digest: pending rows removed and the
// watermark advanced, atomically.
type flusher interface {
	FlushDigest(ctx context.Context, sub *model.Subscription, pendingIDs []int64, itemCount int, sentAt time.Time) error
	AdvanceWatermark(ctx context.Context, subscriptionID int64, sentAt time.Time) error
}

// userDirectory resolves recipients.
type userDirectory interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// Transport delivers a compiled digest over one channel.
type Transport interface {
	Send(ctx context.Context, recipient *model.User, sub *model.Subscription, d *Digest) error
}

// Report summarizes one dispatch run.
type Report struct {
	Due              int
	Sent             int
	Empty            int
	MissingRecipient int
	Failed           int
}

// Dispatcher runs the periodic digest batch: select due subscriptions,
// compile and send their digests, and flush state. One failing subscription
// never blocks the others.
type Dispatcher struct {
	subs       subscriptionSource
	pending    pendingSource
	flush      flusher
	users      userDirectory
	transports map[string]Transport
	compiler   *Compiler
	logger     *zap.Logger
}

func NewDispatcher(
	subs subscriptionSource,
	pending pendingSource,
	flush flusher,
	users userDirectory,
	transports map[string]Transport,
	compiler *Compiler,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		subs:       subs,
		pending:    pending,
		flush:      flush,
		users:      users,
		transports: transports,
		compiler:   compiler,
		logger:     logger,
	}
}

// Run performs one dispatch pass at the given instant.
func (d *Dispatcher) Run(ctx context.Context, now time.Time) (Report, error) {
	start := time.Now()
	defer func() {
		metrics.ObserveDigestRun(time.Since(start))
	}()

	var report Report

	candidates, err := d.subs.ListDigestCandidates(ctx)
	if err != nil {
		return report, err
	}

	due := SelectDue(candidates, now)
	report.Due = len(due)
	if len(due) == 0 {
		return report, nil
	}

	d.logger.Info("digest run started",
		zap.Int("candidates", len(candidates)),
		zap.Int("due", len(due)))

	for _, sub := range due {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		switch outcome := d.process(ctx, sub, now); outcome {
		case outcomeSent:
			report.Sent++
		case outcomeEmpty:
			report.Empty++
		case outcomeMissingRecipient:
			report.MissingRecipient++
		case outcomeFailed:
			report.Failed++
		}
	}

	d.logger.Info("digest run finished",
		zap.Int("sent", report.Sent),
		zap.Int("empty", report.Empty),
		zap.Int("missing_recipient", report.MissingRecipient),
		zap.Int("failed", report.Failed))

	return report, nil
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeEmpty
	outcomeMissingRecipient
	outcomeFailed
)

func (d *Dispatcher) process(ctx context.Context, sub *model.Subscription, now time.Time) outcome {
	log := d.logger.With(
		zap.Int64("subscription_id", sub.ID),
		zap.Int64("user_id", sub.UserID),
		zap.String("type", sub.Type),
		zap.String("channel", sub.Channel))

	items, err := d.pending.ListFor(ctx, sub.UserID, sub.Type, sub.Channel)
	if err != nil {
		log.Error("failed to load pending notifications", zap.Error(err))
		metrics.DigestsFailed.WithLabelValues(sub.Channel).Inc()
		return outcomeFailed
	}

	if len(items) == 0 {
		// Nothing to send; advance the watermark so the slot is consumed.
		if err := d.flush.AdvanceWatermark(ctx, sub.ID, now); err != nil {
			log.Error("failed to advance digest watermark", zap.Error(err))
			metrics.DigestsFailed.WithLabelValues(sub.Channel).Inc()
			return outcomeFailed
		}
		metrics.DigestsSkipped.WithLabelValues("empty").Inc()
		return outcomeEmpty
	}

	recipient, err := d.users.FindByID(ctx, sub.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Keep the pending rows and the watermark; the items remain
			// eligible once the user record reappears.
			log.Warn("digest recipient not found, skipping")
			metrics.DigestsSkipped.WithLabelValues("missing_recipient").Inc()
			return outcomeMissingRecipient
		}
		log.Error("failed to resolve digest recipient", zap.Error(err))
		metrics.DigestsFailed.WithLabelValues(sub.Channel).Inc()
		return outcomeFailed
	}

	transport, ok := d.transports[sub.Channel]
	if !ok {
		log.Error("no transport configured for channel")
		metrics.DigestsFailed.WithLabelValues(sub.Channel).Inc()
		return outcomeFailed
	}

	compiled := d.compiler.Compile(recipient, items)

	if err := transport.Send(ctx, recipient, sub, compiled); err != nil {
		log.Error("failed to send digest", zap.Error(err))
		metrics.DigestsFailed.WithLabelValues(sub.Channel).Inc()
		return outcomeFailed
	}

	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	if err := d.flush.FlushDigest(ctx, sub, ids, len(items), now); err != nil {
		// The digest went out but state did not commit; the next run will
		// resend the same items.
		log.Error("failed to flush sent digest", zap.Error(err))
		metrics.DigestsFailed.WithLabelValues(sub.Channel).Inc()
		return outcomeFailed
	}

	metrics.DigestsSent.WithLabelValues(sub.Channel).Inc()
	log.Info("digest sent", zap.Int("items", len(items)))
	return outcomeSent
}
