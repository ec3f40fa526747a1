package tips

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/amoralabs/amora/internal/ledger"
)

// Handler records a tip as a pair of transactions: tip_sent debiting the
// sender and tip_received crediting the recipient. Both are committed
// atomically, so the sender's funds check covers the whole pair.
type Handler struct {
	ledger.BaseHandler
}

// NewHandler creates a new tip handler
func NewHandler() *Handler {
	return &Handler{
		BaseHandler: ledger.NewBaseHandler(ledger.TxTypeTipSent),
	}
}

// Handle builds the paired tip transaction records
func (h *Handler) Handle(ctx context.Context, data map[string]interface{}) ([]*ledger.Transaction, error) {
	req, err := decode(data)
	if err != nil {
		return nil, err
	}

	amount := req.Amount.ToBigInt()

	sent := &ledger.Transaction{
		UserID:      req.FromUserID,
		Type:        ledger.TxTypeTipSent,
		Status:      ledger.StatusCompleted,
		Amount:      amount,
		Currency:    req.Currency,
		Description: fmt.Sprintf("Чаевые для %s", req.RecipientName),
		FromUser:    &req.FromUserID,
		ToUser:      &req.ToUserID,
	}

	received := &ledger.Transaction{
		UserID:      req.ToUserID,
		Type:        ledger.TxTypeTipReceived,
		Status:      ledger.StatusCompleted,
		Amount:      amount,
		Currency:    req.Currency,
		Description: fmt.Sprintf("Чаевые от %s", req.SenderName),
		FromUser:    &req.FromUserID,
		ToUser:      &req.ToUserID,
	}

	return []*ledger.Transaction{sent, received}, nil
}

// ValidateData validates the tip request data
func (h *Handler) ValidateData(ctx context.Context, data map[string]interface{}) error {
	req, err := decode(data)
	if err != nil {
		return err
	}
	return req.Validate()
}

func decode(data map[string]interface{}) (*TipRequest, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request data: %w", err)
	}

	var req TipRequest
	if err := json.Unmarshal(jsonData, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request data: %w", err)
	}

	return &req, nil
}
