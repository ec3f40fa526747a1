package ledger

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/pkg/logger"
	"github.com/amoralabs/amora/pkg/metrics"
	"github.com/amoralabs/amora/pkg/money"
)

// Service orchestrates the ledger operations
// This is the main service for recording transactions and deriving balances
type Service struct {
	repo            Repository
	handlerRegistry *Registry
	validator       *transactionValidator
	committer       *transactionCommitter
	log             *logger.Logger
	collector       *metrics.Collector
}

// NewService creates a new ledger service
func NewService(repo Repository, handlerRegistry *Registry, log *logger.Logger, collector *metrics.Collector) *Service {
	return &Service{
		repo:            repo,
		handlerRegistry: handlerRegistry,
		validator:       newTransactionValidator(),
		committer:       newTransactionCommitter(repo),
		log:             log,
		collector:       collector,
	}
}

// RecordTransaction records the transaction records for a business operation.
//
// Steps:
// 1. Look up the handler for the transaction type
// 2. Validate the request data with the handler
// 3. Generate transaction records (one operation may produce several,
//    e.g. a tip writes tip_sent and tip_received)
// 4. Validate each record
// 5. Commit all records atomically and apply balance changes for the
//    completed ones
func (s *Service) RecordTransaction(
	ctx context.Context,
	transactionType TransactionType,
	rawData map[string]interface{},
) ([]*Transaction, error) {
	start := time.Now()

	txs, err := s.recordTransaction(ctx, transactionType, rawData)

	if s.collector != nil {
		currency := ""
		if len(txs) > 0 {
			currency = string(txs[0].Currency)
		}
		s.collector.RecordTransaction(string(transactionType), currency, time.Since(start), err == nil)
	}

	if err != nil {
		s.log.WithContext(ctx).WithError(err).Error("failed to record transaction", "type", transactionType)
		return nil, err
	}

	return txs, nil
}

func (s *Service) recordTransaction(
	ctx context.Context,
	transactionType TransactionType,
	rawData map[string]interface{},
) ([]*Transaction, error) {
	h, err := s.handlerRegistry.Get(transactionType)
	if err != nil {
		return nil, fmt.Errorf("transaction type not supported: %w", err)
	}

	if err := h.ValidateData(ctx, rawData); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	txs, err := h.Handle(ctx, rawData)
	if err != nil {
		return nil, fmt.Errorf("failed to generate transactions: %w", err)
	}

	if len(txs) == 0 {
		return nil, fmt.Errorf("handler for %s produced no transactions", transactionType)
	}

	now := time.Now()
	for _, tx := range txs {
		if tx.ID == uuid.Nil {
			tx.ID = uuid.New()
		}
		if tx.CreatedAt.IsZero() {
			tx.CreatedAt = now
		}
		if tx.Status == StatusCompleted && tx.CompletedAt == nil {
			completedAt := now
			tx.CompletedAt = &completedAt
		}
	}

	if err := s.validator.validate(txs); err != nil {
		return nil, err
	}

	if err := s.committer.commit(ctx, txs); err != nil {
		return nil, err
	}

	return txs, nil
}

// CompleteTransaction transitions a pending transaction to completed and
// applies its balance effect. Completing an already-terminal transaction
// returns ErrAlreadyTerminal.
func (s *Service) CompleteTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	txCtx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = s.repo.RollbackTx(txCtx)
		}
	}()

	tx, err := s.repo.GetTransaction(txCtx, id)
	if err != nil {
		return nil, err
	}

	if tx.Status.IsTerminal() {
		return nil, ErrAlreadyTerminal
	}

	if err := s.committer.applyBalanceChange(txCtx, tx.UserID, tx.Currency, tx.SignedAmount()); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.repo.UpdateTransactionStatus(txCtx, id, StatusCompleted, &now); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	if err := s.repo.CommitTx(txCtx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	committed = true

	tx.Status = StatusCompleted
	tx.CompletedAt = &now
	return tx, nil
}

// FailTransaction transitions a pending transaction to failed.
// Pending transactions never touched the balance, so no balance change.
func (s *Service) FailTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.terminate(ctx, id, StatusFailed)
}

// CancelTransaction transitions a pending transaction to cancelled
func (s *Service) CancelTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.terminate(ctx, id, StatusCancelled)
}

func (s *Service) terminate(ctx context.Context, id uuid.UUID, status TransactionStatus) (*Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	if tx.Status.IsTerminal() {
		return nil, ErrAlreadyTerminal
	}

	now := time.Now()
	if err := s.repo.UpdateTransactionStatus(ctx, id, status, &now); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	tx.Status = status
	tx.CompletedAt = &now
	return tx, nil
}

// GetTransaction retrieves a transaction by ID
func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

// ListTransactions lists transactions with filters
func (s *Service) ListTransactions(ctx context.Context, filters TransactionFilters) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, filters)
}

// GetStats aggregates a user's completed transactions per currency
func (s *Service) GetStats(ctx context.Context, userID uuid.UUID) (map[money.Currency]*CurrencyStats, error) {
	txs, err := s.repo.ListTransactions(ctx, TransactionFilters{UserID: &userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return CalculateStats(txs), nil
}

// EscrowBalance returns the funds currently held for a booking: completed
// payments and extensions in, minus what was already released by refund or
// payout. The payout amount is net of fee, so the fee is counted as
// released too.
func (s *Service) EscrowBalance(ctx context.Context, bookingID uuid.UUID) (*big.Int, error) {
	txs, err := s.repo.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking transactions: %w", err)
	}

	held := big.NewInt(0)
	for _, tx := range txs {
		if tx.Status != StatusCompleted {
			continue
		}
		switch tx.Type {
		case TxTypeBookingPayment, TxTypeBookingExtend:
			held.Add(held, tx.Amount)
		case TxTypeBookingRefund:
			held.Sub(held, tx.Amount)
		case TxTypeBookingReceived:
			held.Sub(held, tx.Amount)
			if tx.Fee != nil {
				held.Sub(held, tx.Fee)
			}
		}
	}

	return held, nil
}

// ReconcileBalance verifies that the cached balance matches the balance
// derived from completed transactions
func (s *Service) ReconcileBalance(ctx context.Context, userID uuid.UUID, currency money.Currency) error {
	txCtx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = s.repo.RollbackTx(txCtx) }()

	cached, err := s.repo.GetBalanceForUpdate(txCtx, userID, currency)
	if err != nil {
		return fmt.Errorf("failed to get cached balance: %w", err)
	}

	calculated, err := s.repo.CalculateBalanceFromTransactions(txCtx, userID, currency)
	if err != nil {
		return fmt.Errorf("failed to calculate balance: %w", err)
	}

	if cached.Cmp(calculated) != 0 {
		return fmt.Errorf(
			"balance mismatch for user %s %s: cached=%s, calculated=%s",
			userID, currency, cached.String(), calculated.String(),
		)
	}

	return nil
}

// transactionValidator validates transaction records before committing them
type transactionValidator struct{}

func newTransactionValidator() *transactionValidator {
	return &transactionValidator{}
}

func (v *transactionValidator) validate(txs []*Transaction) error {
	for i, tx := range txs {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("transaction %d validation failed: %w", i, err)
		}
	}
	return nil
}

// transactionCommitter commits transaction records and applies balance
// changes atomically
type transactionCommitter struct {
	repo Repository
}

func newTransactionCommitter(repo Repository) *transactionCommitter {
	return &transactionCommitter{repo: repo}
}

func (c *transactionCommitter) commit(ctx context.Context, txs []*Transaction) error {
	txCtx, err := c.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = c.repo.RollbackTx(txCtx)
		}
	}()

	for _, tx := range txs {
		if err := c.repo.CreateTransaction(txCtx, tx); err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
	}

	// Balance effects only for records that are already completed.
	// Pending records (e.g. a withdraw awaiting processing) apply later
	// via CompleteTransaction.
	for _, tx := range txs {
		if tx.Status != StatusCompleted {
			continue
		}
		if err := c.applyBalanceChange(txCtx, tx.UserID, tx.Currency, tx.SignedAmount()); err != nil {
			return err
		}
	}

	if err := c.repo.CommitTx(txCtx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	committed = true
	return nil
}

func (c *transactionCommitter) applyBalanceChange(ctx context.Context, userID uuid.UUID, currency money.Currency, change *big.Int) error {
	// FOR UPDATE row lock; only effective inside the surrounding DB
	// transaction
	current, err := c.repo.GetBalanceForUpdate(ctx, userID, currency)
	if err != nil {
		return fmt.Errorf("failed to get current balance: %w", err)
	}

	newBalance := new(big.Int).Add(current, change)

	if newBalance.Sign() < 0 {
		return fmt.Errorf("%w: current=%s, change=%s", ErrInsufficientFunds, current.String(), change.String())
	}

	if err := c.repo.UpsertBalance(ctx, userID, currency, newBalance); err != nil {
		return fmt.Errorf("failed to upsert balance: %w", err)
	}

	return nil
}
