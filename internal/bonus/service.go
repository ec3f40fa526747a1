package bonus

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/internal/ledger"
	"github.com/amoralabs/amora/pkg/logger"
	"github.com/amoralabs/amora/pkg/metrics"
)

// Ledger records daily bonus transactions
type Ledger interface {
	RecordTransaction(ctx context.Context, transactionType ledger.TransactionType, rawData map[string]interface{}) ([]*ledger.Transaction, error)
}

// Notifier announces granted bonuses to the user
type Notifier interface {
	DailyBonus(ctx context.Context, userID uuid.UUID, amount *big.Int, streak int) error
}

// ClaimResult describes a granted daily bonus
type ClaimResult struct {
	Amount *big.Int `json:"amount"` // LOVE base units
	Streak int      `json:"streak"`
}

// Status describes the user's claim state for today
type Status struct {
	Claimed bool `json:"claimed"`
	Streak  int  `json:"streak"`
}

// Service grants daily LOVE bonuses. The claim store guarantees one
// grant per user per day even when requests race across instances.
type Service struct {
	store        ClaimStore
	ledger       Ledger
	notifier     Notifier
	log          *logger.Logger
	collector    *metrics.Collector
	amount       int64
	streakBonus  int64
	streakLength int
}

// NewService creates a new daily bonus service
func NewService(store ClaimStore, l Ledger, notifier Notifier, log *logger.Logger, collector *metrics.Collector, amount, streakBonus int64, streakLength int) *Service {
	return &Service{
		store:        store,
		ledger:       l,
		notifier:     notifier,
		log:          log,
		collector:    collector,
		amount:       amount,
		streakBonus:  streakBonus,
		streakLength: streakLength,
	}
}

// Claim grants today's bonus to the user. Every streakLength-th
// consecutive day adds the streak bonus on top of the base amount.
// A second claim on the same day returns ErrAlreadyClaimed.
func (s *Service) Claim(ctx context.Context, userID uuid.UUID) (*ClaimResult, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidUserID
	}

	claimed, streak, err := s.store.Claim(ctx, userID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to claim bonus: %w", err)
	}

	if !claimed {
		return nil, ErrAlreadyClaimed
	}

	amount := big.NewInt(s.amount)
	if s.streakLength > 0 && streak > 0 && streak%s.streakLength == 0 {
		amount.Add(amount, big.NewInt(s.streakBonus))
	}

	_, err = s.ledger.RecordTransaction(ctx, ledger.TxTypeDailyBonus, map[string]interface{}{
		"user_id": userID.String(),
		"amount":  amount.String(),
		"streak":  streak,
	})
	if err != nil {
		// The claim key is already set; the user loses today's bonus if
		// this fails, so make it loud.
		s.log.WithContext(ctx).WithError(err).Error("failed to record daily bonus", "user_id", userID)
		return nil, err
	}

	if s.collector != nil {
		s.collector.BonusClaim()
	}

	if s.notifier != nil {
		if err := s.notifier.DailyBonus(ctx, userID, amount, streak); err != nil {
			s.log.WithContext(ctx).WithError(err).Warn("failed to send bonus notification", "user_id", userID)
		}
	}

	return &ClaimResult{Amount: amount, Streak: streak}, nil
}

// GetStatus reports whether today's bonus was already claimed and the
// current streak
func (s *Service) GetStatus(ctx context.Context, userID uuid.UUID) (*Status, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidUserID
	}

	claimed, streak, err := s.store.Status(ctx, userID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to get bonus status: %w", err)
	}

	return &Status{Claimed: claimed, Streak: streak}, nil
}
