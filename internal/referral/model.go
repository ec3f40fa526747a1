package referral

import (
	"math/big"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/pkg/money"
)

// commissionRates maps referral level to the commission percent taken
// from a referred user's earnings
var commissionRates = map[int]int64{
	1: 10,
	2: 5,
	3: 1,
}

// MaxLevels is how far up the referrer chain commissions propagate
const MaxLevels = 3

// CommissionRate returns the percent for a level, or an error for an
// unknown level
func CommissionRate(level int) (int64, error) {
	rate, ok := commissionRates[level]
	if !ok {
		return 0, ErrInvalidLevel
	}
	return rate, nil
}

// Commission computes the commission amount for a level in base units
func Commission(amount *big.Int, level int) (*big.Int, error) {
	rate, err := CommissionRate(level)
	if err != nil {
		return nil, err
	}
	return money.Percent(amount, rate), nil
}

// CommissionRequest records a referral commission payout
type CommissionRequest struct {
	UserID     uuid.UUID      `json:"user_id"` // beneficiary
	Amount     *money.BigInt  `json:"amount"`  // base units, already computed
	Currency   money.Currency `json:"currency"`
	Level      int            `json:"level"`
	SourceName string         `json:"source_name"` // the referred user who earned
}

// Validate validates the commission request
func (r *CommissionRequest) Validate() error {
	if r.UserID == uuid.Nil {
		return ErrInvalidUserID
	}
	if r.Amount.IsNil() || r.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if !r.Currency.IsValid() {
		return ErrInvalidCurrency
	}
	if _, err := CommissionRate(r.Level); err != nil {
		return err
	}
	return nil
}

// TreeNode is one referred user in a referral tree
type TreeNode struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Level  int       `json:"level"`
}

// Tree groups a user's referrals by level
type Tree struct {
	Level1 []TreeNode `json:"level1"`
	Level2 []TreeNode `json:"level2"`
	Level3 []TreeNode `json:"level3"`
}
