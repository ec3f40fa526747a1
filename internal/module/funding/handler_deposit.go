package funding

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/amoralabs/amora/internal/ledger"
)

// DepositHandler handles wallet top-ups.
// Deposits complete immediately; the payment provider callback is assumed
// to have settled before the record is written.
type DepositHandler struct {
	ledger.BaseHandler
}

// NewDepositHandler creates a new deposit handler
func NewDepositHandler() *DepositHandler {
	return &DepositHandler{
		BaseHandler: ledger.NewBaseHandler(ledger.TxTypeDeposit),
	}
}

// Handle builds the deposit transaction record
func (h *DepositHandler) Handle(ctx context.Context, data map[string]interface{}) ([]*ledger.Transaction, error) {
	req, err := decodeDeposit(data)
	if err != nil {
		return nil, err
	}

	tx := &ledger.Transaction{
		UserID:      req.UserID,
		Type:        ledger.TxTypeDeposit,
		Status:      ledger.StatusCompleted,
		Amount:      req.Amount.ToBigInt(),
		Currency:    req.Currency,
		Description: fmt.Sprintf("Пополнение счета %s", req.Currency),
	}

	return []*ledger.Transaction{tx}, nil
}

// ValidateData validates the deposit request data
func (h *DepositHandler) ValidateData(ctx context.Context, data map[string]interface{}) error {
	req, err := decodeDeposit(data)
	if err != nil {
		return err
	}
	return req.Validate()
}

func decodeDeposit(data map[string]interface{}) (*DepositRequest, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request data: %w", err)
	}

	var req DepositRequest
	if err := json.Unmarshal(jsonData, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request data: %w", err)
	}

	return &req, nil
}
