package referral

import (
	"context"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/internal/ledger"
	"github.com/amoralabs/amora/internal/user"
	"github.com/amoralabs/amora/pkg/logger"
	"github.com/amoralabs/amora/pkg/money"
)

// Ledger records commission transactions
type Ledger interface {
	RecordTransaction(ctx context.Context, transactionType ledger.TransactionType, rawData map[string]interface{}) ([]*ledger.Transaction, error)
}

// Notifier pushes referral earning notifications
type Notifier interface {
	ReferralEarning(ctx context.Context, userID uuid.UUID, amount *big.Int, currency money.Currency, level int) error
}

// Service pays referral commissions and builds referral trees
type Service struct {
	users    user.Repository
	ledger   Ledger
	notifier Notifier
	log      *logger.Logger
}

// NewService creates a new referral service
func NewService(users user.Repository, l Ledger, notifier Notifier, log *logger.Logger) *Service {
	return &Service{
		users:    users,
		ledger:   l,
		notifier: notifier,
		log:      log,
	}
}

// PayCommissions walks up the earner's referrer chain and credits each
// ancestor their level's cut of the earned amount: 10% at level 1, 5%
// at level 2, 1% at level 3. A zero commission (tiny amounts truncate
// toward zero) is skipped rather than recorded.
//
// Commission failures are logged but do not fail the earning operation
// that triggered them.
func (s *Service) PayCommissions(ctx context.Context, earnerID uuid.UUID, amount *big.Int, currency money.Currency) {
	earner, err := s.users.GetByID(ctx, earnerID)
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Error("failed to load earner for commissions", "user_id", earnerID)
		return
	}

	sourceName := earner.Name
	current := earner

	for level := 1; level <= MaxLevels; level++ {
		if current.ReferrerID == nil {
			return
		}

		referrer, err := s.users.GetByID(ctx, *current.ReferrerID)
		if err != nil {
			s.log.WithContext(ctx).WithError(err).Error("failed to load referrer", "user_id", *current.ReferrerID)
			return
		}

		commission, err := Commission(amount, level)
		if err != nil {
			return
		}

		if commission.Sign() > 0 {
			if err := s.payCommission(ctx, referrer.ID, commission, currency, level, sourceName); err != nil {
				s.log.WithContext(ctx).WithError(err).Error("failed to pay referral commission",
					"user_id", referrer.ID, "level", level)
			}
		}

		current = referrer
	}
}

func (s *Service) payCommission(ctx context.Context, userID uuid.UUID, amount *big.Int, currency money.Currency, level int, sourceName string) error {
	_, err := s.ledger.RecordTransaction(ctx, ledger.TxTypeReferralCommission, map[string]interface{}{
		"user_id":     userID.String(),
		"amount":      amount.String(),
		"currency":    string(currency),
		"level":       level,
		"source_name": sourceName,
	})
	if err != nil {
		return fmt.Errorf("failed to record commission: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.ReferralEarning(ctx, userID, amount, currency, level); err != nil {
			s.log.WithContext(ctx).WithError(err).Warn("failed to send referral notification", "user_id", userID)
		}
	}

	return nil
}

// BuildTree collects a user's referrals three levels deep
func (s *Service) BuildTree(ctx context.Context, userID uuid.UUID) (*Tree, error) {
	tree := &Tree{}

	level1, err := s.users.ListReferrals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}

	for _, u1 := range level1 {
		tree.Level1 = append(tree.Level1, TreeNode{UserID: u1.ID, Name: u1.Name, Level: 1})

		level2, err := s.users.ListReferrals(ctx, u1.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list referrals: %w", err)
		}

		for _, u2 := range level2 {
			tree.Level2 = append(tree.Level2, TreeNode{UserID: u2.ID, Name: u2.Name, Level: 2})

			level3, err := s.users.ListReferrals(ctx, u2.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to list referrals: %w", err)
			}

			for _, u3 := range level3 {
				tree.Level3 = append(tree.Level3, TreeNode{UserID: u3.ID, Name: u3.Name, Level: 3})
			}
		}
	}

	return tree, nil
}
