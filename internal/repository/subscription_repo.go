package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"notisub/internal/model"
)

type SubscriptionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewSubscriptionRepository(db *pgxpool.Pool, logger *zap.Logger) *SubscriptionRepository {
	return &SubscriptionRepository{
		db:     db,
		logger: logger,
	}
}

const subscriptionColumns = `
        id, user_id, type, channel, digest_interval,
        digest_at_time::text, digest_at_day, last_digest_sent_at,
        created_at, updated_at
`

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var s model.Subscription
	var atTime *string
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Type,
		&s.Channel,
		&s.DigestInterval,
		&atTime,
		&s.DigestAtDay,
		&s.LastDigestSentAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if atTime != nil {
		t, err := model.ParseTimeOfDay(*atTime)
		if err != nil {
			return nil, err
		}
		s.DigestAtTime = &t
	}
	return &s, nil
}

// Upsert inserts or updates the subscription identified by
// (user_id, type, channel). On update the row keeps its id and its
// last_digest_sent_at watermark; only the cadence columns change.
func (r *SubscriptionRepository) Upsert(ctx context.Context, s *model.Subscription) (*model.Subscription, error) {
	r.logger.Debug("Upserting subscription",
		zap.Int64("user_id", s.UserID),
		zap.String("type", s.Type),
		zap.String("channel", s.Channel),
		zap.String("digest_interval", string(s.DigestInterval)),
	)

	var atTime *string
	if s.DigestAtTime != nil {
		v := s.DigestAtTime.String()
		atTime = &v
	}

	query := `
        INSERT INTO notification_subscriptions
            (user_id, type, channel, digest_interval, digest_at_time, digest_at_day)
        VALUES ($1, $2, $3, $4, $5::time, $6)
        ON CONFLICT (user_id, type, channel) DO UPDATE SET
            digest_interval = EXCLUDED.digest_interval,
            digest_at_time  = EXCLUDED.digest_at_time,
            digest_at_day   = EXCLUDED.digest_at_day,
            updated_at      = now()
        RETURNING ` + subscriptionColumns

	row := r.db.QueryRow(ctx, query, s.UserID, s.Type, s.Channel, s.DigestInterval, atTime, s.DigestAtDay)
	saved, err := scanSubscription(row)
	if err != nil {
		r.logger.Error("Failed to upsert subscription", zap.Error(err))
		return nil, err
	}
	return saved, nil
}

func (r *SubscriptionRepository) Get(ctx context.Context, userID int64, notificationType, channel string) (*model.Subscription, error) {
	query := `
        SELECT ` + subscriptionColumns + `
        FROM notification_subscriptions
        WHERE user_id = $1 AND type = $2 AND channel = $3
    `
	s, err := scanSubscription(r.db.QueryRow(ctx, query, userID, notificationType, channel))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *SubscriptionRepository) Exists(ctx context.Context, userID int64, notificationType, channel string) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM notification_subscriptions
            WHERE user_id = $1 AND type = $2 AND channel = $3
        )
    `
	var exists bool
	err := r.db.QueryRow(ctx, query, userID, notificationType, channel).Scan(&exists)
	return exists, err
}

// Delete removes one subscription and reports whether a row existed.
func (r *SubscriptionRepository) Delete(ctx context.Context, userID int64, notificationType, channel string) (bool, error) {
	query := `
        DELETE FROM notification_subscriptions
        WHERE user_id = $1 AND type = $2 AND channel = $3
    `
	tag, err := r.db.Exec(ctx, query, userID, notificationType, channel)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteByType removes the user's subscriptions for a type across all
// channels.
func (r *SubscriptionRepository) DeleteByType(ctx context.Context, userID int64, notificationType string) (bool, error) {
	query := `DELETE FROM notification_subscriptions WHERE user_id = $1 AND type = $2`
	tag, err := r.db.Exec(ctx, query, userID, notificationType)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteAll removes every subscription the user has.
func (r *SubscriptionRepository) DeleteAll(ctx context.Context, userID int64) (bool, error) {
	query := `DELETE FROM notification_subscriptions WHERE user_id = $1`
	tag, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Channels returns the channels the user is subscribed to for a type.
func (r *SubscriptionRepository) Channels(ctx context.Context, userID int64, notificationType string) ([]string, error) {
	query := `
        SELECT channel FROM notification_subscriptions
        WHERE user_id = $1 AND type = $2
        ORDER BY channel
    `
	rows, err := r.db.Query(ctx, query, userID, notificationType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

// ListByUserAndType returns the user's subscriptions for a type, one per
// channel.
func (r *SubscriptionRepository) ListByUserAndType(ctx context.Context, userID int64, notificationType string) ([]*model.Subscription, error) {
	query := `
        SELECT ` + subscriptionColumns + `
        FROM notification_subscriptions
        WHERE user_id = $1 AND type = $2
        ORDER BY channel
    `
	return r.queryMany(ctx, query, userID, notificationType)
}

func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Subscription, error) {
	query := `
        SELECT ` + subscriptionColumns + `
        FROM notification_subscriptions
        WHERE user_id = $1
        ORDER BY type, channel
    `
	return r.queryMany(ctx, query, userID)
}

// ListSubscriberIDs returns the distinct users holding any subscription for
// a type.
func (r *SubscriptionRepository) ListSubscriberIDs(ctx context.Context, notificationType string) ([]int64, error) {
	query := `
        SELECT DISTINCT user_id FROM notification_subscriptions
        WHERE type = $1
        ORDER BY user_id
    `
	rows, err := r.db.Query(ctx, query, notificationType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListDigestCandidates returns every daily and weekly subscription. Due
// filtering happens in code so the calendar rules stay testable.
func (r *SubscriptionRepository) ListDigestCandidates(ctx context.Context) ([]*model.Subscription, error) {
	query := `
        SELECT ` + subscriptionColumns + `
        FROM notification_subscriptions
        WHERE digest_interval <> 'immediate'
        ORDER BY id
    `
	return r.queryMany(ctx, query)
}

// AdvanceWatermark moves last_digest_sent_at forward without touching
// pending rows. Used when a due subscription has nothing queued.
func (r *SubscriptionRepository) AdvanceWatermark(ctx context.Context, subscriptionID int64, sentAt time.Time) error {
	query := `
        UPDATE notification_subscriptions
        SET last_digest_sent_at = $2, updated_at = now()
        WHERE id = $1
    `
	_, err := r.db.Exec(ctx, query, subscriptionID, sentAt)
	return err
}

func (r *SubscriptionRepository) queryMany(ctx context.Context, query string, args ...any) ([]*model.Subscription, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}
