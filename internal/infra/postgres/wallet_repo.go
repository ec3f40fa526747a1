package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amoralabs/amora/internal/wallet"
	"github.com/amoralabs/amora/pkg/money"
)

// WalletRepository implements the wallet repository using PostgreSQL.
// Balance rows are written by the ledger and keyed by user; this
// repository joins them back to the wallet for reads.
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository creates a new PostgreSQL wallet repository
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// Create inserts a new wallet
func (r *WalletRepository) Create(ctx context.Context, w *wallet.Wallet) error {
	query := `
		INSERT INTO wallets (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, w.ID, w.UserID, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

// GetByUserID retrieves a user's wallet
func (r *WalletRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error) {
	query := `SELECT id, user_id, created_at, updated_at FROM wallets WHERE user_id = $1`

	var w wallet.Wallet
	err := r.pool.QueryRow(ctx, query, userID).Scan(&w.ID, &w.UserID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &w, nil
}

// GetBalance retrieves the cached balance for one currency.
// A missing row means zero balance, not an error.
func (r *WalletRepository) GetBalance(ctx context.Context, walletID uuid.UUID, currency money.Currency) (*wallet.Balance, error) {
	query := `
		SELECT w.id, b.currency, b.amount, b.last_updated
		FROM balances b
		JOIN wallets w ON w.user_id = b.user_id
		WHERE w.id = $1 AND b.currency = $2
	`

	b, err := scanBalance(r.pool.QueryRow(ctx, query, walletID, string(currency)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return b, nil
}

// GetBalances retrieves all currency balances for a wallet
func (r *WalletRepository) GetBalances(ctx context.Context, walletID uuid.UUID) ([]*wallet.Balance, error) {
	query := `
		SELECT w.id, b.currency, b.amount, b.last_updated
		FROM balances b
		JOIN wallets w ON w.user_id = b.user_id
		WHERE w.id = $1
		ORDER BY b.currency ASC
	`

	rows, err := r.pool.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer rows.Close()

	var balances []*wallet.Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances = append(balances, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating balances: %w", err)
	}
	return balances, nil
}

func scanBalance(row pgx.Row) (*wallet.Balance, error) {
	var b wallet.Balance
	var currency, amountStr string

	err := row.Scan(&b.WalletID, &currency, &amountStr, &b.LastUpdated)
	if err != nil {
		return nil, err
	}

	b.Currency = money.Currency(currency)

	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok {
		return nil, fmt.Errorf("failed to parse balance amount: %s", amountStr)
	}
	b.Amount = amount

	return &b, nil
}
