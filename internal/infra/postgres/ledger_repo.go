package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amoralabs/amora/internal/ledger"
	"github.com/amoralabs/amora/pkg/money"
)

// LedgerRepository implements the ledger repository using PostgreSQL.
// Amounts are stored as NUMERIC and round-trip through big.Int strings.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new PostgreSQL ledger repository
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

const transactionColumns = `id, user_id, type, status, amount, currency, description,
	related_booking_id, from_user, to_user, fee, referral_level, created_at, completed_at`

// CreateTransaction inserts a new transaction record
func (r *LedgerRepository) CreateTransaction(ctx context.Context, tx *ledger.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("invalid transaction: %w", err)
	}

	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	var fee *string
	if tx.Fee != nil {
		s := tx.Fee.String()
		fee = &s
	}

	q := r.getQueryer(ctx)
	_, err := q.Exec(ctx, query,
		tx.ID,
		tx.UserID,
		string(tx.Type),
		string(tx.Status),
		tx.Amount.String(),
		string(tx.Currency),
		tx.Description,
		tx.RelatedBookingID,
		tx.FromUser,
		tx.ToUser,
		fee,
		tx.ReferralLevel,
		tx.CreatedAt,
		tx.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// GetTransaction retrieves a transaction by ID
func (r *LedgerRepository) GetTransaction(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	q := r.getQueryer(ctx)
	tx, err := scanTransaction(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// ListTransactions lists transactions with filters and pagination
func (r *LedgerRepository) ListTransactions(ctx context.Context, filters ledger.TransactionFilters) ([]*ledger.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`

	args := make([]interface{}, 0)
	argPos := 1

	if filters.UserID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argPos)
		args = append(args, *filters.UserID)
		argPos++
	}

	if filters.Type != nil {
		query += fmt.Sprintf(" AND type = $%d", argPos)
		args = append(args, string(*filters.Type))
		argPos++
	}

	if filters.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, string(*filters.Status))
		argPos++
	}

	if filters.Currency != nil {
		query += fmt.Sprintf(" AND currency = $%d", argPos)
		args = append(args, string(*filters.Currency))
		argPos++
	}

	if filters.FromDate != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argPos)
		args = append(args, *filters.FromDate)
		argPos++
	}

	if filters.ToDate != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argPos)
		args = append(args, *filters.ToDate)
		argPos++
	}

	query += " ORDER BY created_at DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filters.Limit)
		argPos++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, filters.Offset)
		argPos++
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListByBooking lists all transactions linked to a booking, oldest first
func (r *LedgerRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*ledger.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE related_booking_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query booking transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// UpdateTransactionStatus settles a pending transaction. The status
// predicate guarantees a single settlement: a transaction that already
// reached a terminal status reports ErrAlreadyTerminal and the caller's
// balance work rolls back with its DB transaction.
func (r *LedgerRepository) UpdateTransactionStatus(ctx context.Context, id uuid.UUID, status ledger.TransactionStatus, completedAt *time.Time) error {
	query := `UPDATE transactions SET status = $2, completed_at = $3 WHERE id = $1 AND status = $4`

	q := r.getQueryer(ctx)
	tag, err := q.Exec(ctx, query, id, string(status), completedAt, string(ledger.StatusPending))
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var current string
		err := q.QueryRow(ctx, `SELECT status FROM transactions WHERE id = $1`, id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.ErrTransactionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check transaction status: %w", err)
		}
		return ledger.ErrAlreadyTerminal
	}
	return nil
}

// GetBalanceForUpdate retrieves a user's balance with row-level locking.
// A missing row means zero balance. Must run inside a repository
// transaction; FOR UPDATE outside one locks nothing.
func (r *LedgerRepository) GetBalanceForUpdate(ctx context.Context, userID uuid.UUID, currency money.Currency) (*big.Int, error) {
	query := `
		SELECT amount FROM balances
		WHERE user_id = $1 AND currency = $2
		FOR UPDATE
	`

	var amountStr string
	q := r.getQueryer(ctx)
	err := q.QueryRow(ctx, query, userID, string(currency)).Scan(&amountStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return big.NewInt(0), nil
		}
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok {
		return nil, fmt.Errorf("failed to parse balance: %s", amountStr)
	}
	return amount, nil
}

// UpsertBalance creates or updates a user's cached balance
func (r *LedgerRepository) UpsertBalance(ctx context.Context, userID uuid.UUID, currency money.Currency, amount *big.Int) error {
	query := `
		INSERT INTO balances (user_id, currency, amount, last_updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, currency)
		DO UPDATE SET
			amount = EXCLUDED.amount,
			last_updated = EXCLUDED.last_updated
	`

	q := r.getQueryer(ctx)
	_, err := q.Exec(ctx, query, userID, string(currency), amount.String(), time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert balance: %w", err)
	}
	return nil
}

// CalculateBalanceFromTransactions recomputes a balance from completed
// transactions, for reconciliation against the cached row
func (r *LedgerRepository) CalculateBalanceFromTransactions(ctx context.Context, userID uuid.UUID, currency money.Currency) (*big.Int, error) {
	query := `
		SELECT COALESCE(SUM(
			CASE
				WHEN type IN ('deposit', 'booking_refund', 'booking_received', 'tip_received', 'referral_commission', 'daily_bonus') THEN amount::numeric
				ELSE -amount::numeric
			END
		), 0)::text
		FROM transactions
		WHERE user_id = $1 AND currency = $2 AND status = 'completed'
	`

	var balanceStr string
	err := r.pool.QueryRow(ctx, query, userID, string(currency)).Scan(&balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate balance: %w", err)
	}

	balance, ok := new(big.Int).SetString(balanceStr, 10)
	if !ok {
		return nil, fmt.Errorf("failed to parse calculated balance: %s", balanceStr)
	}
	return balance, nil
}

// Transaction management using pgx transactions stored in context

type ctxKey string

const txContextKey ctxKey = "ledger_tx"

// BeginTx starts a new database transaction and stores it in the context
func (r *LedgerRepository) BeginTx(ctx context.Context) (context.Context, error) {
	if tx := r.getTxFromContext(ctx); tx != nil {
		return ctx, fmt.Errorf("transaction already in progress")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return ctx, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return context.WithValue(ctx, txContextKey, tx), nil
}

// CommitTx commits the database transaction from the context
func (r *LedgerRepository) CommitTx(ctx context.Context) error {
	tx := r.getTxFromContext(ctx)
	if tx == nil {
		return fmt.Errorf("no transaction in context")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RollbackTx rolls back the database transaction from the context
func (r *LedgerRepository) RollbackTx(ctx context.Context) error {
	tx := r.getTxFromContext(ctx)
	if tx == nil {
		return fmt.Errorf("no transaction in context")
	}

	if err := tx.Rollback(ctx); err != nil {
		if errors.Is(err, pgx.ErrTxClosed) {
			return nil
		}
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

func (r *LedgerRepository) getTxFromContext(ctx context.Context) pgx.Tx {
	if tx, ok := ctx.Value(txContextKey).(pgx.Tx); ok {
		return tx
	}
	return nil
}

// getQueryer returns the transaction if one exists in context, otherwise
// the pool. This lets every method work both inside and outside
// transactions.
func (r *LedgerRepository) getQueryer(ctx context.Context) interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
} {
	if tx := r.getTxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func scanTransaction(row pgx.Row) (*ledger.Transaction, error) {
	var tx ledger.Transaction
	var txType, status, currency, amountStr string
	var feeStr sql.NullString

	err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&txType,
		&status,
		&amountStr,
		&currency,
		&tx.Description,
		&tx.RelatedBookingID,
		&tx.FromUser,
		&tx.ToUser,
		&feeStr,
		&tx.ReferralLevel,
		&tx.CreatedAt,
		&tx.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	tx.Type = ledger.TransactionType(txType)
	tx.Status = ledger.TransactionStatus(status)
	tx.Currency = money.Currency(currency)

	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok {
		return nil, fmt.Errorf("failed to parse amount: %s", amountStr)
	}
	tx.Amount = amount

	if feeStr.Valid {
		fee, ok := new(big.Int).SetString(feeStr.String, 10)
		if !ok {
			return nil, fmt.Errorf("failed to parse fee: %s", feeStr.String)
		}
		tx.Fee = fee
	}

	return &tx, nil
}

func collectTransactions(rows pgx.Rows) ([]*ledger.Transaction, error) {
	var transactions []*ledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}
