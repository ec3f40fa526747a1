package notification

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for notification persistence
type Repository interface {
	// Create stores a new notification
	Create(ctx context.Context, n *Notification) error

	// GetByID retrieves a notification by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Notification, error)

	// ListByUser lists a user's notifications, newest first
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, error)

	// CountUnread counts a user's unread notifications
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)

	// MarkRead marks one notification as read
	MarkRead(ctx context.Context, id uuid.UUID) error

	// MarkAllRead marks all of a user's notifications as read
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

// Publisher pushes notifications to connected clients (Redis pub/sub).
// Publish failures must not fail the domain operation that produced the
// notification.
type Publisher interface {
	Publish(ctx context.Context, n *Notification) error
}
