//go:build integration

package postgres

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amoralabs/amora/internal/ledger"
	"github.com/amoralabs/amora/pkg/money"
	"github.com/amoralabs/amora/testutil/testdb"
)

var testDB *testdb.TestDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	testDB, err = testdb.NewTestDB(ctx)
	if err != nil {
		panic("failed to create test database: " + err.Error())
	}

	code := m.Run()

	testDB.Close(ctx)
	if code != 0 {
		panic("tests failed")
	}
}

func setupTest(t *testing.T) (*LedgerRepository, context.Context) {
	ctx := context.Background()
	require.NoError(t, testDB.Reset(ctx))

	repo := NewLedgerRepository(testDB.Pool)
	return repo, ctx
}

// Helper to create a test user
func createTestUser(t *testing.T, ctx context.Context) uuid.UUID {
	userID := uuid.New()
	short := userID.String()[:8]
	_, err := testDB.Pool.Exec(ctx, `
		INSERT INTO users (id, email, name, role, password_hash, referral_code, created_at, updated_at)
		VALUES ($1, $2, $3, 'buyer', 'hash', $4, NOW(), NOW())
	`, userID, "test-"+short+"@example.com", "Test "+short, "REF"+short)
	require.NoError(t, err)
	return userID
}

func completedTx(userID uuid.UUID, txType ledger.TransactionType, amount int64) *ledger.Transaction {
	now := time.Now()
	return &ledger.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        txType,
		Status:      ledger.StatusCompleted,
		Amount:      big.NewInt(amount),
		Currency:    money.RUB,
		Description: "test transaction",
		CreatedAt:   now,
		CompletedAt: &now,
	}
}

func TestLedgerRepository_CreateTransaction_RoundTrip(t *testing.T) {
	repo, ctx := setupTest(t)
	userID := createTestUser(t, ctx)

	fee := big.NewInt(15000)
	now := time.Now()
	tx := &ledger.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        ledger.TxTypeBookingReceived,
		Status:      ledger.StatusCompleted,
		Amount:      new(big.Int).SetInt64(985000),
		Currency:    money.RUB,
		Description: "Оплата за бронирование",
		Fee:         fee,
		CreatedAt:   now,
		CompletedAt: &now,
	}

	require.NoError(t, repo.CreateTransaction(ctx, tx))

	retrieved, err := repo.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.UserID, retrieved.UserID)
	assert.Equal(t, ledger.TxTypeBookingReceived, retrieved.Type)
	assert.Equal(t, ledger.StatusCompleted, retrieved.Status)
	assert.Equal(t, 0, tx.Amount.Cmp(retrieved.Amount))
	assert.Equal(t, money.RUB, retrieved.Currency)
	require.NotNil(t, retrieved.Fee)
	assert.Equal(t, 0, fee.Cmp(retrieved.Fee))
	assert.NotNil(t, retrieved.CompletedAt)
}

func TestLedgerRepository_CreateTransaction_LargeAmountPrecision(t *testing.T) {
	repo, ctx := setupTest(t)
	userID := createTestUser(t, ctx)

	// Beyond int64 range; NUMERIC must round-trip exactly.
	amount, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)

	tx := completedTx(userID, ledger.TxTypeDeposit, 0)
	tx.Amount = amount

	require.NoError(t, repo.CreateTransaction(ctx, tx))

	retrieved, err := repo.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, amount.Cmp(retrieved.Amount))
}

func TestLedgerRepository_GetTransaction_NotFound(t *testing.T) {
	repo, ctx := setupTest(t)

	_, err := repo.GetTransaction(ctx, uuid.New())
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
}

func TestLedgerRepository_ListTransactions_Filters(t *testing.T) {
	repo, ctx := setupTest(t)
	userID := createTestUser(t, ctx)
	otherID := createTestUser(t, ctx)

	require.NoError(t, repo.CreateTransaction(ctx, completedTx(userID, ledger.TxTypeDeposit, 100000)))
	require.NoError(t, repo.CreateTransaction(ctx, completedTx(userID, ledger.TxTypeWithdraw, 30000)))
	require.NoError(t, repo.CreateTransaction(ctx, completedTx(otherID, ledger.TxTypeDeposit, 50000)))

	all, err := repo.ListTransactions(ctx, ledger.TransactionFilters{UserID: &userID})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	depositType := ledger.TxTypeDeposit
	deposits, err := repo.ListTransactions(ctx, ledger.TransactionFilters{UserID: &userID, Type: &depositType})
	require.NoError(t, err)
	require.Len(t, deposits, 1)
	assert.Equal(t, ledger.TxTypeDeposit, deposits[0].Type)

	limited, err := repo.ListTransactions(ctx, ledger.TransactionFilters{UserID: &userID, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestLedgerRepository_ListByBooking(t *testing.T) {
	repo, ctx := setupTest(t)
	buyerID := createTestUser(t, ctx)
	sellerID := createTestUser(t, ctx)
	bookingID := uuid.New()

	payment := completedTx(buyerID, ledger.TxTypeBookingPayment, 200000)
	payment.RelatedBookingID = &bookingID
	require.NoError(t, repo.CreateTransaction(ctx, payment))

	payout := completedTx(sellerID, ledger.TxTypeBookingReceived, 180000)
	payout.RelatedBookingID = &bookingID
	payout.CreatedAt = payment.CreatedAt.Add(time.Minute)
	require.NoError(t, repo.CreateTransaction(ctx, payout))

	txs, err := repo.ListByBooking(ctx, bookingID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, payment.ID, txs[0].ID)
	assert.Equal(t, payout.ID, txs[1].ID)
}

func TestLedgerRepository_UpdateTransactionStatus(t *testing.T) {
	repo, ctx := setupTest(t)
	userID := createTestUser(t, ctx)

	tx := completedTx(userID, ledger.TxTypeWithdraw, 50000)
	tx.Status = ledger.StatusPending
	tx.CompletedAt = nil
	require.NoError(t, repo.CreateTransaction(ctx, tx))

	completedAt := time.Now()
	require.NoError(t, repo.UpdateTransactionStatus(ctx, tx.ID, ledger.StatusCompleted, &completedAt))

	retrieved, err := repo.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCompleted, retrieved.Status)
	assert.NotNil(t, retrieved.CompletedAt)
}

func TestLedgerRepository_UpdateTransactionStatus_NotFound(t *testing.T) {
	repo, ctx := setupTest(t)

	err := repo.UpdateTransactionStatus(ctx, uuid.New(), ledger.StatusFailed, nil)
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
}

func TestLedgerRepository_UpdateTransactionStatus_SettlesOnce(t *testing.T) {
	repo, ctx := setupTest(t)
	userID := createTestUser(t, ctx)

	tx := completedTx(userID, ledger.TxTypeWithdraw, 50000)
	tx.Status = ledger.StatusPending
	tx.CompletedAt = nil
	require.NoError(t, repo.CreateTransaction(ctx, tx))

	completedAt := time.Now()
	require.NoError(t, repo.UpdateTransactionStatus(ctx, tx.ID, ledger.StatusCompleted, &completedAt))

	// The second settlement, whatever direction it goes, bounces off
	err := repo.UpdateTransactionStatus(ctx, tx.ID, ledger.StatusCancelled, &completedAt)
	assert.ErrorIs(t, err, ledger.ErrAlreadyTerminal)

	retrieved, err := repo.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCompleted, retrieved.Status)
}

func TestLedgerRepository_BalanceUpsertAndRead(t *testing.T) {
	repo, ctx := setupTest(t)
	userID := createTestUser(t, ctx)

	// No row yet
	balance, err := repo.GetBalanceForUpdate(ctx, userID, money.RUB)
	require.NoError(t, err)
	assert.Equal(t, 0, balance.Sign())

	require.NoError(t, repo.UpsertBalance(ctx, userID, money.RUB, big.NewInt(150000)))

	balance, err = repo.GetBalanceForUpdate(ctx, userID, money.RUB)
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewInt(150000).Cmp(balance))

	// Upsert overwrites
	require.NoError(t, repo.UpsertBalance(ctx, userID, money.RUB, big.NewInt(70000)))

	balance, err = repo.GetBalanceForUpdate(ctx, userID, money.RUB)
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewInt(70000).Cmp(balance))

	// Other currency untouched
	love, err := repo.GetBalanceForUpdate(ctx, userID, money.LOVE)
	require.NoError(t, err)
	assert.Equal(t, 0, love.Sign())
}

func TestLedgerRepository_CalculateBalanceFromTransactions(t *testing.T) {
	repo, ctx := setupTest(t)
	userID := createTestUser(t, ctx)

	require.NoError(t, repo.CreateTransaction(ctx, completedTx(userID, ledger.TxTypeDeposit, 100000)))
	require.NoError(t, repo.CreateTransaction(ctx, completedTx(userID, ledger.TxTypeWithdraw, 30000)))

	// Pending withdraw must not count
	pending := completedTx(userID, ledger.TxTypeWithdraw, 20000)
	pending.Status = ledger.StatusPending
	pending.CompletedAt = nil
	require.NoError(t, repo.CreateTransaction(ctx, pending))

	balance, err := repo.CalculateBalanceFromTransactions(ctx, userID, money.RUB)
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewInt(70000).Cmp(balance))
}

func TestLedgerRepository_TxCommit(t *testing.T) {
	repo, ctx := setupTest(t)
	userID := createTestUser(t, ctx)

	txCtx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	tx := completedTx(userID, ledger.TxTypeDeposit, 100000)
	require.NoError(t, repo.CreateTransaction(txCtx, tx))
	require.NoError(t, repo.UpsertBalance(txCtx, userID, money.RUB, big.NewInt(100000)))
	require.NoError(t, repo.CommitTx(txCtx))

	retrieved, err := repo.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, retrieved.ID)

	balance, err := repo.GetBalanceForUpdate(ctx, userID, money.RUB)
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewInt(100000).Cmp(balance))
}

func TestLedgerRepository_TxRollback(t *testing.T) {
	repo, ctx := setupTest(t)
	userID := createTestUser(t, ctx)

	txCtx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	tx := completedTx(userID, ledger.TxTypeDeposit, 100000)
	require.NoError(t, repo.CreateTransaction(txCtx, tx))
	require.NoError(t, repo.RollbackTx(txCtx))

	_, err = repo.GetTransaction(ctx, tx.ID)
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
}
