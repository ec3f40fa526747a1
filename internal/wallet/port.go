package wallet

import (
	"context"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/pkg/money"
)

// Repository defines the interface for wallet persistence operations
type Repository interface {
	// Create creates a new wallet
	Create(ctx context.Context, wallet *Wallet) error

	// GetByUserID retrieves a user's wallet
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Wallet, error)

	// GetBalance retrieves the cached balance for one currency.
	// A missing row means zero balance, not an error.
	GetBalance(ctx context.Context, walletID uuid.UUID, currency money.Currency) (*Balance, error)

	// GetBalances retrieves all currency balances for a wallet
	GetBalances(ctx context.Context, walletID uuid.UUID) ([]*Balance, error)
}
