package notification

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/pkg/logger"
	"github.com/amoralabs/amora/pkg/money"
)

// Service stores notifications and fans them out to subscribers
type Service struct {
	repo      Repository
	publisher Publisher
	log       *logger.Logger
}

// NewService creates a new notification service
func NewService(repo Repository, publisher Publisher, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

// Push stores a notification and publishes it to live subscribers.
// Publishing is best effort; the stored record is the source of truth.
func (s *Service) Push(ctx context.Context, n *Notification) error {
	if n.UserID == uuid.Nil {
		return ErrInvalidUserID
	}

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, n); err != nil {
			s.log.WithContext(ctx).WithError(err).Warn("failed to publish notification", "user_id", n.UserID)
		}
	}

	return nil
}

// List returns a user's notifications, newest first
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// UnreadCount returns the number of unread notifications
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkRead marks one notification as read, verifying ownership
func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if n.UserID != userID {
		return ErrUnauthorized
	}

	return s.repo.MarkRead(ctx, id)
}

// MarkAllRead marks all of a user's notifications as read
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

// Domain event helpers. These implement the Notifier ports declared by
// the packages that raise the events.

// ReferralEarning notifies a referrer about a commission credit
func (s *Service) ReferralEarning(ctx context.Context, userID uuid.UUID, amount *big.Int, currency money.Currency, level int) error {
	return s.Push(ctx, &Notification{
		UserID:        userID,
		Type:          TypeReferral,
		Title:         "Реферальный доход",
		Text:          fmt.Sprintf("Вы получили %s %s от реферала %d уровня", money.FromBaseUnits(amount, currency), currency, level),
		Amount:        amount,
		Currency:      currency,
		ReferralLevel: &level,
	})
}

// VIPActivated notifies a user that their VIP subscription is active
func (s *Service) VIPActivated(ctx context.Context, userID uuid.UUID, until time.Time) error {
	return s.Push(ctx, &Notification{
		UserID: userID,
		Type:   TypeVIP,
		Title:  "VIP статус активирован",
		Text:   fmt.Sprintf("Ваш VIP статус действует до %s", until.Format("02.01.2006")),
	})
}

// VIPExpired notifies a user that their VIP subscription lapsed
func (s *Service) VIPExpired(ctx context.Context, userID uuid.UUID) error {
	return s.Push(ctx, &Notification{
		UserID: userID,
		Type:   TypeVIP,
		Title:  "VIP статус истёк",
		Text:   "Продлите подписку, чтобы вернуть VIP преимущества",
	})
}

// PaymentReceived notifies a seller about an incoming payment
func (s *Service) PaymentReceived(ctx context.Context, userID uuid.UUID, amount *big.Int, currency money.Currency, fromName string) error {
	return s.Push(ctx, &Notification{
		UserID:   userID,
		Type:     TypePayment,
		Title:    "Оплата получена",
		Text:     fmt.Sprintf("Вы получили %s %s от %s", money.FromBaseUnits(amount, currency), currency, fromName),
		Amount:   amount,
		Currency: currency,
	})
}

// TipReceived notifies a user about a tip
func (s *Service) TipReceived(ctx context.Context, userID uuid.UUID, amount *big.Int, currency money.Currency, fromName string) error {
	return s.Push(ctx, &Notification{
		UserID:   userID,
		Type:     TypeTip,
		Title:    "Чаевые",
		Text:     fmt.Sprintf("%s отправил вам чаевые %s %s", fromName, money.FromBaseUnits(amount, currency), currency),
		Amount:   amount,
		Currency: currency,
	})
}

// DailyBonus notifies a user about a granted daily login bonus
func (s *Service) DailyBonus(ctx context.Context, userID uuid.UUID, amount *big.Int, streak int) error {
	return s.Push(ctx, &Notification{
		UserID:   userID,
		Type:     TypeBonus,
		Title:    "Ежедневный бонус",
		Text:     fmt.Sprintf("Вы получили %s LOVE, серия %d дней", money.FromBaseUnits(amount, money.LOVE), streak),
		Amount:   amount,
		Currency: money.LOVE,
	})
}

// BookingEvent notifies a participant about a booking lifecycle change
func (s *Service) BookingEvent(ctx context.Context, userID uuid.UUID, title, text string) error {
	return s.Push(ctx, &Notification{
		UserID: userID,
		Type:   TypeBooking,
		Title:  title,
		Text:   text,
	})
}
