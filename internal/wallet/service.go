package wallet

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/pkg/money"
)

// Service provides business logic for wallet operations
type Service struct {
	repo Repository
}

// NewService creates a new wallet service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create creates the wallet for a newly registered user
func (s *Service) Create(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	wallet := &Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := wallet.ValidateCreate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := s.repo.Create(ctx, wallet); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	return wallet, nil
}

// GetByUserID retrieves a user's wallet
func (s *Service) GetByUserID(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// GetBalance returns the balance of one currency for a user.
// Unknown currency is rejected; a wallet with no row for the currency
// simply has zero.
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID, currency money.Currency) (*big.Int, error) {
	if !currency.IsValid() {
		return nil, ErrInvalidCurrency
	}

	wallet, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	balance, err := s.repo.GetBalance(ctx, wallet.ID, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	if balance == nil || balance.Amount == nil {
		return big.NewInt(0), nil
	}

	return balance.Amount, nil
}

// GetBalances returns all currency balances for a user, including zero
// entries for supported currencies with no stored row. The front-end
// renders every currency, so the map is always complete.
func (s *Service) GetBalances(ctx context.Context, userID uuid.UUID) (map[money.Currency]*big.Int, error) {
	wallet, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.GetBalances(ctx, wallet.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get balances: %w", err)
	}

	result := make(map[money.Currency]*big.Int, len(money.SupportedCurrencies()))
	for _, c := range money.SupportedCurrencies() {
		result[c] = big.NewInt(0)
	}
	for _, b := range stored {
		if b.Amount != nil {
			result[b.Currency] = b.Amount
		}
	}

	return result, nil
}

// HasSufficientFunds checks whether a user can spend the given amount.
// Used as a fast pre-check before recording a transaction; the ledger
// committer re-checks under a row lock.
func (s *Service) HasSufficientFunds(ctx context.Context, userID uuid.UUID, currency money.Currency, amount *big.Int) error {
	balance, err := s.GetBalance(ctx, userID, currency)
	if err != nil {
		return err
	}

	if balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}

	return nil
}
