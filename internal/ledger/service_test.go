package ledger

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amoralabs/amora/pkg/logger"
	"github.com/amoralabs/amora/pkg/metrics"
	"github.com/amoralabs/amora/pkg/money"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) CreateTransaction(ctx context.Context, tx *Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockRepository) GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Transaction), args.Error(1)
}

func (m *mockRepository) ListTransactions(ctx context.Context, filters TransactionFilters) ([]*Transaction, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Transaction), args.Error(1)
}

func (m *mockRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*Transaction, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Transaction), args.Error(1)
}

func (m *mockRepository) UpdateTransactionStatus(ctx context.Context, id uuid.UUID, status TransactionStatus, completedAt *time.Time) error {
	args := m.Called(ctx, id, status, completedAt)
	return args.Error(0)
}

func (m *mockRepository) GetBalanceForUpdate(ctx context.Context, userID uuid.UUID, currency money.Currency) (*big.Int, error) {
	args := m.Called(ctx, userID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *mockRepository) UpsertBalance(ctx context.Context, userID uuid.UUID, currency money.Currency, amount *big.Int) error {
	args := m.Called(ctx, userID, currency, amount)
	return args.Error(0)
}

func (m *mockRepository) CalculateBalanceFromTransactions(ctx context.Context, userID uuid.UUID, currency money.Currency) (*big.Int, error) {
	args := m.Called(ctx, userID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *mockRepository) BeginTx(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return ctx, args.Error(1)
}

func (m *mockRepository) CommitTx(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockRepository) RollbackTx(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// stubHandler produces fixed transaction records for tests
type stubHandler struct {
	BaseHandler
	txs []*Transaction
}

func (h *stubHandler) Handle(ctx context.Context, data map[string]interface{}) ([]*Transaction, error) {
	return h.txs, nil
}

func (h *stubHandler) ValidateData(ctx context.Context, data map[string]interface{}) error {
	return nil
}

func newTestService(repo Repository) (*Service, *Registry) {
	registry := NewRegistry()
	return NewService(repo, registry, logger.NewDefault("development"), metrics.NewCollector()), registry
}

func TestRecordTransaction_CompletedAppliesBalance(t *testing.T) {
	repo := new(mockRepository)
	svc, registry := newTestService(repo)

	userID := uuid.New()
	deposit := &Transaction{
		UserID:   userID,
		Type:     TxTypeDeposit,
		Status:   StatusCompleted,
		Amount:   big.NewInt(100000),
		Currency: money.RUB,
	}
	require.NoError(t, registry.Register(&stubHandler{
		BaseHandler: NewBaseHandler(TxTypeDeposit),
		txs:         []*Transaction{deposit},
	}))

	repo.On("BeginTx", mock.Anything).Return(nil, nil)
	repo.On("CreateTransaction", mock.Anything, deposit).Return(nil)
	repo.On("GetBalanceForUpdate", mock.Anything, userID, money.RUB).Return(big.NewInt(0), nil)
	repo.On("UpsertBalance", mock.Anything, userID, money.RUB, big.NewInt(100000)).Return(nil)
	repo.On("CommitTx", mock.Anything).Return(nil)

	txs, err := svc.RecordTransaction(context.Background(), TxTypeDeposit, nil)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.NotEqual(t, uuid.Nil, txs[0].ID)
	assert.NotNil(t, txs[0].CompletedAt)
	repo.AssertExpectations(t)
}

func TestRecordTransaction_PendingDoesNotTouchBalance(t *testing.T) {
	repo := new(mockRepository)
	svc, registry := newTestService(repo)

	withdraw := &Transaction{
		UserID:   uuid.New(),
		Type:     TxTypeWithdraw,
		Status:   StatusPending,
		Amount:   big.NewInt(20000),
		Currency: money.RUB,
	}
	require.NoError(t, registry.Register(&stubHandler{
		BaseHandler: NewBaseHandler(TxTypeWithdraw),
		txs:         []*Transaction{withdraw},
	}))

	repo.On("BeginTx", mock.Anything).Return(nil, nil)
	repo.On("CreateTransaction", mock.Anything, withdraw).Return(nil)
	repo.On("CommitTx", mock.Anything).Return(nil)

	_, err := svc.RecordTransaction(context.Background(), TxTypeWithdraw, nil)
	require.NoError(t, err)
	repo.AssertNotCalled(t, "UpsertBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordTransaction_InsufficientFundsRollsBack(t *testing.T) {
	repo := new(mockRepository)
	svc, registry := newTestService(repo)

	userID := uuid.New()
	payment := &Transaction{
		UserID:   userID,
		Type:     TxTypeBookingPayment,
		Status:   StatusCompleted,
		Amount:   big.NewInt(30000),
		Currency: money.RUB,
	}
	require.NoError(t, registry.Register(&stubHandler{
		BaseHandler: NewBaseHandler(TxTypeBookingPayment),
		txs:         []*Transaction{payment},
	}))

	repo.On("BeginTx", mock.Anything).Return(nil, nil)
	repo.On("CreateTransaction", mock.Anything, payment).Return(nil)
	repo.On("GetBalanceForUpdate", mock.Anything, userID, money.RUB).Return(big.NewInt(10000), nil)
	repo.On("RollbackTx", mock.Anything).Return(nil)

	_, err := svc.RecordTransaction(context.Background(), TxTypeBookingPayment, nil)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	repo.AssertCalled(t, "RollbackTx", mock.Anything)
	repo.AssertNotCalled(t, "CommitTx", mock.Anything)
}

func TestRecordTransaction_UnknownType(t *testing.T) {
	repo := new(mockRepository)
	svc, _ := newTestService(repo)

	_, err := svc.RecordTransaction(context.Background(), TxTypeTipSent, nil)
	assert.ErrorIs(t, err, ErrHandlerNotFound)
}

func TestCompleteTransaction_AppliesBalance(t *testing.T) {
	repo := new(mockRepository)
	svc, _ := newTestService(repo)

	userID := uuid.New()
	txID := uuid.New()
	pending := &Transaction{
		ID:       txID,
		UserID:   userID,
		Type:     TxTypeWithdraw,
		Status:   StatusPending,
		Amount:   big.NewInt(20000),
		Currency: money.RUB,
	}

	repo.On("BeginTx", mock.Anything).Return(nil, nil)
	repo.On("GetTransaction", mock.Anything, txID).Return(pending, nil)
	repo.On("GetBalanceForUpdate", mock.Anything, userID, money.RUB).Return(big.NewInt(100000), nil)
	repo.On("UpsertBalance", mock.Anything, userID, money.RUB, big.NewInt(80000)).Return(nil)
	repo.On("UpdateTransactionStatus", mock.Anything, txID, StatusCompleted, mock.AnythingOfType("*time.Time")).Return(nil)
	repo.On("CommitTx", mock.Anything).Return(nil)

	tx, err := svc.CompleteTransaction(context.Background(), txID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, tx.Status)
	assert.NotNil(t, tx.CompletedAt)
	repo.AssertExpectations(t)
}

// Two settlements racing over a pending withdraw must debit the
// balance once: the loser's status update reports ErrAlreadyTerminal
// and its DB transaction rolls back instead of committing.
func TestCompleteTransaction_LostSettlementRollsBack(t *testing.T) {
	repo := new(mockRepository)
	svc, _ := newTestService(repo)

	userID := uuid.New()
	txID := uuid.New()
	pending := &Transaction{
		ID:       txID,
		UserID:   userID,
		Type:     TxTypeWithdraw,
		Status:   StatusPending,
		Amount:   big.NewInt(20000),
		Currency: money.RUB,
	}

	repo.On("BeginTx", mock.Anything).Return(nil, nil)
	repo.On("GetTransaction", mock.Anything, txID).Return(pending, nil)
	repo.On("GetBalanceForUpdate", mock.Anything, userID, money.RUB).Return(big.NewInt(100000), nil)
	repo.On("UpsertBalance", mock.Anything, userID, money.RUB, big.NewInt(80000)).Return(nil)
	repo.On("UpdateTransactionStatus", mock.Anything, txID, StatusCompleted, mock.AnythingOfType("*time.Time")).Return(ErrAlreadyTerminal)
	repo.On("RollbackTx", mock.Anything).Return(nil)

	_, err := svc.CompleteTransaction(context.Background(), txID)
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
	repo.AssertNotCalled(t, "CommitTx", mock.Anything)
	repo.AssertCalled(t, "RollbackTx", mock.Anything)
}

func TestCompleteTransaction_TerminalGuard(t *testing.T) {
	repo := new(mockRepository)
	svc, _ := newTestService(repo)

	txID := uuid.New()
	done := &Transaction{
		ID:       txID,
		UserID:   uuid.New(),
		Type:     TxTypeDeposit,
		Status:   StatusCompleted,
		Amount:   big.NewInt(100),
		Currency: money.RUB,
	}

	repo.On("BeginTx", mock.Anything).Return(nil, nil)
	repo.On("GetTransaction", mock.Anything, txID).Return(done, nil)
	repo.On("RollbackTx", mock.Anything).Return(nil)

	_, err := svc.CompleteTransaction(context.Background(), txID)
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
	repo.AssertNotCalled(t, "UpsertBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelTransaction_TerminalGuard(t *testing.T) {
	repo := new(mockRepository)
	svc, _ := newTestService(repo)

	txID := uuid.New()
	failed := &Transaction{
		ID:       txID,
		UserID:   uuid.New(),
		Type:     TxTypeWithdraw,
		Status:   StatusFailed,
		Amount:   big.NewInt(100),
		Currency: money.RUB,
	}

	repo.On("GetTransaction", mock.Anything, txID).Return(failed, nil)

	_, err := svc.CancelTransaction(context.Background(), txID)
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
}

func TestEscrowBalance(t *testing.T) {
	repo := new(mockRepository)
	svc, _ := newTestService(repo)

	bookingID := uuid.New()
	payment := completedTx(TxTypeBookingPayment, 100000, money.RUB)
	extend := completedTx(TxTypeBookingExtend, 50000, money.RUB)
	payout := completedTx(TxTypeBookingReceived, 90000, money.RUB)
	payout.Fee = big.NewInt(10000)

	repo.On("ListByBooking", mock.Anything, bookingID).Return([]*Transaction{payment, extend, payout}, nil)

	held, err := svc.EscrowBalance(context.Background(), bookingID)
	require.NoError(t, err)
	// 1000 + 500 paid in, 900 net + 100 fee released: 500 still held
	assert.Equal(t, big.NewInt(50000), held)
}

func TestRegistry_DuplicateRejected(t *testing.T) {
	registry := NewRegistry()
	h := &stubHandler{BaseHandler: NewBaseHandler(TxTypeDeposit)}
	require.NoError(t, registry.Register(h))
	assert.ErrorIs(t, registry.Register(h), ErrHandlerDuplicate)
	assert.True(t, registry.Has(TxTypeDeposit))
}
