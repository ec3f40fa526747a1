package wallet

import (
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/pkg/money"
)

// Wallet represents a user's multi-currency wallet.
// Every user has exactly one wallet; per-currency balances live in
// separate Balance rows so new currencies need no schema changes.
type Wallet struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Balance is the cached balance of one currency in a wallet.
// It is maintained by the ledger committer and can always be recomputed
// from completed transactions.
type Balance struct {
	WalletID    uuid.UUID      `json:"wallet_id" db:"wallet_id"`
	Currency    money.Currency `json:"currency" db:"currency"`
	Amount      *big.Int       `json:"amount" db:"amount"` // base units
	LastUpdated time.Time      `json:"last_updated" db:"last_updated"`
}

// Validate validates the balance row
func (b *Balance) Validate() error {
	if b.WalletID == uuid.Nil {
		return ErrWalletNotFound
	}

	if !b.Currency.IsValid() {
		return ErrInvalidCurrency
	}

	if b.Amount != nil && b.Amount.Sign() < 0 {
		return ErrNegativeBalance
	}

	return nil
}

// ValidateCreate validates wallet fields for creation
func (w *Wallet) ValidateCreate() error {
	if w.UserID == uuid.Nil {
		return ErrInvalidUserID
	}
	return nil
}
