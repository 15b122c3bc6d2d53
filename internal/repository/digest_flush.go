package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"notisub/contracts/mq"
	"notisub/internal/model"
	"notisub/pkg/outbox"
)

// DigestFlushRepository commits the state change of a sent digest in one
// transaction: the included pending rows are deleted, the subscription
// watermark advances, and a digest.sent event enters the outbox.
type DigestFlushRepository struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
	logger *zap.Logger
}

func NewDigestFlushRepository(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *DigestFlushRepository {
	return &DigestFlushRepository{
		db:     db,
		outbox: outboxRepo,
		logger: logger,
	}
}

func (r *DigestFlushRepository) FlushDigest(ctx context.Context, sub *model.Subscription, pendingIDs []int64, itemCount int, sentAt time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if len(pendingIDs) > 0 {
		_, err = tx.Exec(ctx, `DELETE FROM pending_notifications WHERE id = ANY($1)`, pendingIDs)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `
        UPDATE notification_subscriptions
        SET last_digest_sent_at = $2, updated_at = now()
        WHERE id = $1
    `, sub.ID, sentAt)
	if err != nil {
		return err
	}

	payload := mq.DigestSentPayload{
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		Type:           sub.Type,
		Channel:        sub.Channel,
		ItemCount:      itemCount,
		SentAt:         sentAt,
	}
	if err := outbox.InsertEventInTx(ctx, tx, r.outbox, "subscription", &sub.ID, "digest.sent", payload); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	r.logger.Debug("Flushed sent digest",
		zap.Int64("subscription_id", sub.ID),
		zap.Int("items", itemCount),
	)
	return nil
}

// AdvanceWatermark records an empty digest slot: no rows were sent, only the
// schedule moves forward.
func (r *DigestFlushRepository) AdvanceWatermark(ctx context.Context, subscriptionID int64, sentAt time.Time) error {
	_, err := r.db.Exec(ctx, `
        UPDATE notification_subscriptions
        SET last_digest_sent_at = $2, updated_at = now()
        WHERE id = $1
    `, subscriptionID, sentAt)
	return err
}
