package referral

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/amoralabs/amora/internal/ledger"
)

// Handler records referral commission credits
type Handler struct {
	ledger.BaseHandler
}

// NewHandler creates a new referral commission handler
func NewHandler() *Handler {
	return &Handler{
		BaseHandler: ledger.NewBaseHandler(ledger.TxTypeReferralCommission),
	}
}

// Handle builds the commission transaction record
func (h *Handler) Handle(ctx context.Context, data map[string]interface{}) ([]*ledger.Transaction, error) {
	req, err := decode(data)
	if err != nil {
		return nil, err
	}

	level := req.Level
	tx := &ledger.Transaction{
		UserID:        req.UserID,
		Type:          ledger.TxTypeReferralCommission,
		Status:        ledger.StatusCompleted,
		Amount:        req.Amount.ToBigInt(),
		Currency:      req.Currency,
		Description:   fmt.Sprintf("Реферальная комиссия %d уровня от %s", req.Level, req.SourceName),
		ReferralLevel: &level,
	}

	return []*ledger.Transaction{tx}, nil
}

// ValidateData validates the commission request data
func (h *Handler) ValidateData(ctx context.Context, data map[string]interface{}) error {
	req, err := decode(data)
	if err != nil {
		return err
	}
	return req.Validate()
}

func decode(data map[string]interface{}) (*CommissionRequest, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request data: %w", err)
	}

	var req CommissionRequest
	if err := json.Unmarshal(jsonData, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request data: %w", err)
	}

	return &req, nil
}
