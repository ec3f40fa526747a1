package funding

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/internal/ledger"
	"github.com/amoralabs/amora/pkg/money"
)

// BalanceChecker verifies spendable funds before a withdrawal is accepted
type BalanceChecker interface {
	HasSufficientFunds(ctx context.Context, userID uuid.UUID, currency money.Currency, amount *big.Int) error
}

// WithdrawHandler handles withdrawal requests.
// The record is written pending and only debits the balance once the
// payout settles and the transaction is completed.
type WithdrawHandler struct {
	ledger.BaseHandler
	balances BalanceChecker
}

// NewWithdrawHandler creates a new withdraw handler
func NewWithdrawHandler(balances BalanceChecker) *WithdrawHandler {
	return &WithdrawHandler{
		BaseHandler: ledger.NewBaseHandler(ledger.TxTypeWithdraw),
		balances:    balances,
	}
}

// Handle builds the withdraw transaction record
func (h *WithdrawHandler) Handle(ctx context.Context, data map[string]interface{}) ([]*ledger.Transaction, error) {
	req, err := decodeWithdraw(data)
	if err != nil {
		return nil, err
	}

	tx := &ledger.Transaction{
		UserID:      req.UserID,
		Type:        ledger.TxTypeWithdraw,
		Status:      ledger.StatusPending,
		Amount:      req.Amount.ToBigInt(),
		Currency:    req.Currency,
		Description: fmt.Sprintf("Вывод средств на %s", truncateDestination(req.Destination)),
	}

	return []*ledger.Transaction{tx}, nil
}

// ValidateData validates the withdraw request data, including a fast
// funds check. The authoritative check happens again under a row lock
// when the withdrawal completes.
func (h *WithdrawHandler) ValidateData(ctx context.Context, data map[string]interface{}) error {
	req, err := decodeWithdraw(data)
	if err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		return err
	}

	return h.balances.HasSufficientFunds(ctx, req.UserID, req.Currency, req.Amount.ToBigInt())
}

func decodeWithdraw(data map[string]interface{}) (*WithdrawRequest, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request data: %w", err)
	}

	var req WithdrawRequest
	if err := json.Unmarshal(jsonData, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request data: %w", err)
	}

	return &req, nil
}

// truncateDestination shortens card numbers and wallet addresses for the
// human-readable description
func truncateDestination(dest string) string {
	if len(dest) > 20 {
		return dest[:20] + "..."
	}
	return dest
}
