package vip

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/amoralabs/amora/internal/ledger"
	"github.com/amoralabs/amora/pkg/money"
)

// Handler records VIP subscription payments.
// VIP is always priced in RUB.
type Handler struct {
	ledger.BaseHandler
}

// NewHandler creates a new VIP payment handler
func NewHandler() *Handler {
	return &Handler{
		BaseHandler: ledger.NewBaseHandler(ledger.TxTypeVIPPayment),
	}
}

// Handle builds the VIP payment transaction record
func (h *Handler) Handle(ctx context.Context, data map[string]interface{}) ([]*ledger.Transaction, error) {
	req, err := decode(data)
	if err != nil {
		return nil, err
	}

	plan, err := GetPlan(req.PlanID)
	if err != nil {
		return nil, err
	}

	tx := &ledger.Transaction{
		UserID:      req.UserID,
		Type:        ledger.TxTypeVIPPayment,
		Status:      ledger.StatusCompleted,
		Amount:      money.NewBigIntFromInt64(plan.Price).ToBigInt(),
		Currency:    money.RUB,
		Description: fmt.Sprintf("Оплата VIP статуса: %s", plan.ID),
	}

	return []*ledger.Transaction{tx}, nil
}

// ValidateData validates the purchase request data
func (h *Handler) ValidateData(ctx context.Context, data map[string]interface{}) error {
	req, err := decode(data)
	if err != nil {
		return err
	}
	return req.Validate()
}

func decode(data map[string]interface{}) (*PurchaseRequest, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request data: %w", err)
	}

	var req PurchaseRequest
	if err := json.Unmarshal(jsonData, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request data: %w", err)
	}

	return &req, nil
}
