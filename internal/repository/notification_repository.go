package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/studymart-checkout/internal/model"
	"github.com/fairyhunter13/studymart-checkout/pkg/database"
)

// NotificationRepository provides data access for in-app notifications.
type NotificationRepository struct {
	pool PoolInterface
}

// NewNotificationRepository creates a new NotificationRepository with the given pool.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// NewNotificationRepositoryWithPool creates a new NotificationRepository with a custom pool interface.
// This is primarily used for testing.
func NewNotificationRepositoryWithPool(pool PoolInterface) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// Insert stores a notification within a transaction.
func (r *NotificationRepository) Insert(ctx context.Context, tx database.TxQuerier, n *model.Notification) error {
	query := `INSERT INTO notifications (id, user_id, title, message, created_at) VALUES ($1, $2, $3, $4, $5)`

	_, err := tx.Exec(ctx, query, n.ID, n.UserID, n.Title, n.Message, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListForUser returns the user's most recent notifications, newest first.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, limit int) ([]*model.Notification, error) {
	query := `SELECT id, user_id, title, message, created_at
		FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", userID, err)
	}
	defer rows.Close()

	notifications := []*model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification rows: %w", err)
	}
	return notifications, nil
}
