package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// InAppNotification is one row of the in-app notification feed, the storage
// behind the database channel.
type InAppNotification struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Title     string          `json:"title"`
	Summary   string          `json:"summary"`
	Data      json.RawMessage `json:"data"`
	IsRead    bool            `json:"is_read"`
	CreatedAt time.Time       `json:"created_at"`
}

type InAppRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewInAppRepository(db *pgxpool.Pool, logger *zap.Logger) *InAppRepository {
	return &InAppRepository{
		db:     db,
		logger: logger,
	}
}

func (r *InAppRepository) Insert(ctx context.Context, userID int64, title, summary string, data json.RawMessage) (int64, error) {
	r.logger.Debug("Inserting in-app notification",
		zap.Int64("user_id", userID),
		zap.String("title", title),
	)

	query := `
        INSERT INTO notifications (user_id, title, summary, data)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	var id int64
	err := r.db.QueryRow(ctx, query, userID, title, summary, data).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert in-app notification", zap.Error(err))
		return 0, err
	}
	return id, nil
}

func (r *InAppRepository) MarkAsRead(ctx context.Context, id int64) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

// ListByUser returns the user's feed, newest first.
func (r *InAppRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]InAppNotification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
        SELECT id, user_id, title, summary, data, is_read, created_at
        FROM notifications
        WHERE user_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []InAppNotification
	for rows.Next() {
		var n InAppNotification
		err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Title,
			&n.Summary,
			&n.Data,
			&n.IsRead,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}
