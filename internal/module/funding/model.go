package funding

import (
	"github.com/google/uuid"

	"github.com/amoralabs/amora/pkg/money"
)

// DepositRequest represents a top-up of a user's wallet
type DepositRequest struct {
	UserID   uuid.UUID      `json:"user_id"`
	Amount   *money.BigInt  `json:"amount"` // base units
	Currency money.Currency `json:"currency"`
	Method   string         `json:"method,omitempty"` // card, crypto, etc.
}

// Validate validates the deposit request
func (r *DepositRequest) Validate() error {
	if r.UserID == uuid.Nil {
		return ErrInvalidUserID
	}

	if r.Amount.IsNil() || r.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	if !r.Currency.IsValid() {
		return ErrInvalidCurrency
	}

	return nil
}

// WithdrawRequest represents a withdrawal from a user's wallet.
// Withdrawals are recorded pending and complete when the payout settles.
type WithdrawRequest struct {
	UserID      uuid.UUID      `json:"user_id"`
	Amount      *money.BigInt  `json:"amount"` // base units
	Currency    money.Currency `json:"currency"`
	Destination string         `json:"destination,omitempty"` // card number or wallet address
}

// Validate validates the withdraw request
func (r *WithdrawRequest) Validate() error {
	if r.UserID == uuid.Nil {
		return ErrInvalidUserID
	}

	if r.Amount.IsNil() || r.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	if !r.Currency.IsValid() {
		return ErrInvalidCurrency
	}

	return nil
}
