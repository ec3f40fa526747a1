package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/amoralabs/amora/internal/notification"
	"github.com/amoralabs/amora/pkg/logger"
)

// notificationChannel is the pub/sub channel per user:
// notifications:{user_id}
const notificationChannel = "notifications:%s"

// Publisher fans out notifications over Redis pub/sub for live delivery.
// Delivery is best effort; the notification is already persisted before
// it reaches the publisher.
type Publisher struct {
	client *redis.Client
	logger *logger.Logger
}

// NewPublisher creates a new Redis notification publisher
func NewPublisher(client *redis.Client, log *logger.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: log.WithField("component", "notification_publisher"),
	}
}

// Publish sends a notification to the user's channel
func (p *Publisher) Publish(ctx context.Context, n *notification.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	channel := fmt.Sprintf(notificationChannel, n.UserID)
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	p.logger.Debug("notification published", "user_id", n.UserID, "type", n.Type)
	return nil
}
