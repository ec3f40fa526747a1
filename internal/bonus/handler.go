package bonus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/internal/ledger"
	"github.com/amoralabs/amora/pkg/money"
)

// GrantRequest records a granted daily bonus.
// Bonuses are always paid in LOVE.
type GrantRequest struct {
	UserID uuid.UUID     `json:"user_id"`
	Amount *money.BigInt `json:"amount"` // base units
	Streak int           `json:"streak"`
}

// Validate validates the grant request
func (r *GrantRequest) Validate() error {
	if r.UserID == uuid.Nil {
		return ErrInvalidUserID
	}
	if r.Amount.IsNil() || r.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Handler records daily bonus credits
type Handler struct {
	ledger.BaseHandler
}

// NewHandler creates a new daily bonus handler
func NewHandler() *Handler {
	return &Handler{
		BaseHandler: ledger.NewBaseHandler(ledger.TxTypeDailyBonus),
	}
}

// Handle builds the bonus transaction record
func (h *Handler) Handle(ctx context.Context, data map[string]interface{}) ([]*ledger.Transaction, error) {
	req, err := decode(data)
	if err != nil {
		return nil, err
	}

	tx := &ledger.Transaction{
		UserID:      req.UserID,
		Type:        ledger.TxTypeDailyBonus,
		Status:      ledger.StatusCompleted,
		Amount:      req.Amount.ToBigInt(),
		Currency:    money.LOVE,
		Description: fmt.Sprintf("Ежедневный бонус (серия %d)", req.Streak),
	}

	return []*ledger.Transaction{tx}, nil
}

// ValidateData validates the grant request data
func (h *Handler) ValidateData(ctx context.Context, data map[string]interface{}) error {
	req, err := decode(data)
	if err != nil {
		return err
	}
	return req.Validate()
}

func decode(data map[string]interface{}) (*GrantRequest, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request data: %w", err)
	}

	var req GrantRequest
	if err := json.Unmarshal(jsonData, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request data: %w", err)
	}

	return &req, nil
}
