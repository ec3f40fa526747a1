package vip

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/internal/ledger"
	"github.com/amoralabs/amora/internal/user"
	"github.com/amoralabs/amora/pkg/logger"
)

// Ledger records VIP payment transactions
type Ledger interface {
	RecordTransaction(ctx context.Context, transactionType ledger.TransactionType, rawData map[string]interface{}) ([]*ledger.Transaction, error)
}

// Notifier pushes VIP lifecycle notifications to users
type Notifier interface {
	VIPExpired(ctx context.Context, userID uuid.UUID) error
	VIPActivated(ctx context.Context, userID uuid.UUID, until time.Time) error
}

// Service handles VIP subscription purchases and expiry
type Service struct {
	users    user.Repository
	ledger   Ledger
	notifier Notifier
	log      *logger.Logger

	sweepInterval time.Duration
}

// NewService creates a new VIP service
func NewService(users user.Repository, l Ledger, notifier Notifier, log *logger.Logger) *Service {
	return &Service{
		users:         users,
		ledger:        l,
		notifier:      notifier,
		log:           log,
		sweepInterval: time.Hour,
	}
}

// Purchase buys a VIP plan for the user. The payment is recorded first;
// if it fails (e.g. insufficient funds) the subscription is not granted.
// Buying while already active extends the current expiry.
func (s *Service) Purchase(ctx context.Context, userID uuid.UUID, planID string) (*user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	plan, err := GetPlan(planID)
	if err != nil {
		return nil, err
	}

	_, err = s.ledger.RecordTransaction(ctx, ledger.TxTypeVIPPayment, map[string]interface{}{
		"user_id": userID.String(),
		"plan_id": planID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record VIP payment: %w", err)
	}

	now := time.Now()
	base := now
	if u.IsVIP(now) {
		base = *u.VIPExpiresAt
	}
	expiry := base.Add(time.Duration(plan.Days) * 24 * time.Hour)

	u.VIPActive = true
	u.VIPExpiresAt = &expiry
	u.UpdatedAt = now

	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.VIPActivated(ctx, userID, expiry); err != nil {
			s.log.WithContext(ctx).WithError(err).Warn("failed to send VIP notification")
		}
	}

	return u, nil
}

// Run sweeps lapsed VIP subscriptions until the context is cancelled
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	s.log.Info("VIP expiry sweep started", "interval", s.sweepInterval)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("VIP expiry sweep stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Service) sweep(ctx context.Context) {
	expired, err := s.users.ExpireVIP(ctx)
	if err != nil {
		s.log.WithError(err).Error("VIP expiry sweep failed")
		return
	}

	for _, userID := range expired {
		if s.notifier == nil {
			continue
		}
		if err := s.notifier.VIPExpired(ctx, userID); err != nil {
			s.log.WithError(err).Warn("failed to send VIP expiry notification", "user_id", userID)
		}
	}

	if len(expired) > 0 {
		s.log.Info("VIP subscriptions expired", "count", len(expired))
	}
}
