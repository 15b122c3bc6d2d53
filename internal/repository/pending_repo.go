package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"notisub/internal/model"
	"notisub/pkg/metrics"
)

type PendingRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPendingRepository(db *pgxpool.Pool, logger *zap.Logger) *PendingRepository {
	return &PendingRepository{
		db:     db,
		logger: logger,
	}
}

// Enqueue queues one notification for a future digest on the given channel.
func (r *PendingRepository) Enqueue(ctx context.Context, userID int64, notificationType, channel, kind string, payload json.RawMessage) (int64, error) {
	r.logger.Debug("Enqueueing pending notification",
		zap.Int64("user_id", userID),
		zap.String("type", notificationType),
		zap.String("channel", channel),
		zap.String("kind", kind),
	)

	query := `
        INSERT INTO pending_notifications
            (user_id, notification_type, channel, notification_kind, payload)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	var id int64
	err := r.db.QueryRow(ctx, query, userID, notificationType, channel, kind, payload).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to enqueue pending notification", zap.Error(err))
		return 0, err
	}

	metrics.PendingEnqueued.WithLabelValues(channel).Inc()
	return id, nil
}

// ListFor returns the queued items for one (user, type, channel), oldest
// first.
func (r *PendingRepository) ListFor(ctx context.Context, userID int64, notificationType, channel string) ([]model.PendingNotification, error) {
	query := `
        SELECT id, user_id, notification_type, channel, notification_kind, payload, created_at
        FROM pending_notifications
        WHERE user_id = $1 AND notification_type = $2 AND channel = $3
        ORDER BY created_at ASC, id ASC
    `
	rows, err := r.db.Query(ctx, query, userID, notificationType, channel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.PendingNotification
	for rows.Next() {
		var p model.PendingNotification
		err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.NotificationType,
			&p.Channel,
			&p.NotificationKind,
			&p.Payload,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *PendingRepository) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query := `DELETE FROM pending_notifications WHERE id = ANY($1)`
	_, err := r.db.Exec(ctx, query, ids)
	return err
}

func (r *PendingRepository) CountForUser(ctx context.Context, userID int64) (int, error) {
	query := `SELECT count(*) FROM pending_notifications WHERE user_id = $1`
	var n int
	err := r.db.QueryRow(ctx, query, userID).Scan(&n)
	return n, err
}
