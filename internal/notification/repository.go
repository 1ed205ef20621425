// internal/notification/repository.go
// PostgreSQL persistence for notifications

package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrNotificationNotFound is returned when a notification doesn't
	// exist or belongs to another user.
	ErrNotificationNotFound = errors.New("notification not found")
)

// Repository defines notification persistence operations
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByRecipient(ctx context.Context, recipientID int64, unreadOnly bool) ([]*Notification, error)
	ListUnreadIDs(ctx context.Context, recipientID int64) ([]int64, error)
	MarkRead(ctx context.Context, id, recipientID int64) (bool, error)
	Exists(ctx context.Context, id, recipientID int64) (bool, error)
	CountUnread(ctx context.Context, recipientID int64) (int, error)
}

// postgresRepository implements Repository using PostgreSQL
type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// Create inserts an unread notification and fills in id and createdAt
func (r *postgresRepository) Create(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notifications (recipient_id, actor_id, actor_username, type, post_id, session_id, read)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		n.RecipientID, n.ActorID, n.ActorUsername, n.Type, n.PostID, n.SessionID,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}
	n.Read = false
	return nil
}

// ListByRecipient returns the recipient's notifications newest first,
// optionally filtered to unread.
func (r *postgresRepository) ListByRecipient(ctx context.Context, recipientID int64, unreadOnly bool) ([]*Notification, error) {
	query := `
		SELECT id, recipient_id, actor_id, actor_username, type, post_id, session_id, read, created_at
		FROM notifications
		WHERE recipient_id = $1`
	if unreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	var notifications []*Notification
	if err := r.db.SelectContext(ctx, &notifications, query, recipientID); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return notifications, nil
}

// ListUnreadIDs returns ids of the recipient's unread notifications,
// newest first.
func (r *postgresRepository) ListUnreadIDs(ctx context.Context, recipientID int64) ([]int64, error) {
	var ids []int64
	query := `
		SELECT id FROM notifications
		WHERE recipient_id = $1 AND read = FALSE
		ORDER BY created_at DESC, id DESC`

	if err := r.db.SelectContext(ctx, &ids, query, recipientID); err != nil {
		return nil, fmt.Errorf("listing unread ids: %w", err)
	}
	return ids, nil
}

// MarkRead flips read to true. Returns whether the row transitioned;
// false with nil error means it was already read.
func (r *postgresRepository) MarkRead(ctx context.Context, id, recipientID int64) (bool, error) {
	query := `
		UPDATE notifications
		SET read = TRUE
		WHERE id = $1 AND recipient_id = $2 AND read = FALSE`

	result, err := r.db.ExecContext(ctx, query, id, recipientID)
	if err != nil {
		return false, fmt.Errorf("marking notification read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// Exists reports whether the notification exists for the recipient
func (r *postgresRepository) Exists(ctx context.Context, id, recipientID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM notifications WHERE id = $1 AND recipient_id = $2)`

	err := r.db.GetContext(ctx, &exists, query, id, recipientID)
	return exists, err
}

// CountUnread returns the recipient's unread badge count
func (r *postgresRepository) CountUnread(ctx context.Context, recipientID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND read = FALSE`

	if err := r.db.GetContext(ctx, &count, query, recipientID); err != nil {
		return 0, fmt.Errorf("counting unread: %w", err)
	}
	return count, nil
}
