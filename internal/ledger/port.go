package ledger

import (
	"context"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/pkg/money"
)

// Repository defines the interface for ledger persistence operations
type Repository interface {
	// Transaction operations
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListTransactions(ctx context.Context, filters TransactionFilters) ([]*Transaction, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*Transaction, error)
	// UpdateTransactionStatus settles a pending transaction; it returns
	// ErrAlreadyTerminal once another settlement got there first
	UpdateTransactionStatus(ctx context.Context, id uuid.UUID, status TransactionStatus, completedAt *time.Time) error

	// Balance operations. Balances are per user per currency and are only
	// written inside a repository transaction.
	GetBalanceForUpdate(ctx context.Context, userID uuid.UUID, currency money.Currency) (*big.Int, error)
	UpsertBalance(ctx context.Context, userID uuid.UUID, currency money.Currency, amount *big.Int) error
	CalculateBalanceFromTransactions(ctx context.Context, userID uuid.UUID, currency money.Currency) (*big.Int, error)

	// Transaction management
	BeginTx(ctx context.Context) (context.Context, error)
	CommitTx(ctx context.Context) error
	RollbackTx(ctx context.Context) error
}

// TransactionFilters defines filters for listing transactions
type TransactionFilters struct {
	UserID   *uuid.UUID
	Type     *TransactionType
	Status   *TransactionStatus
	Currency *money.Currency
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}
