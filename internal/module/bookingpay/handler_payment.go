package bookingpay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/amoralabs/amora/internal/ledger"
)

// PaymentHandler debits the buyer when a booking is paid.
// The money stays in escrow (tracked by the booking's transaction trail)
// until the meeting completes or the booking is cancelled.
type PaymentHandler struct {
	ledger.BaseHandler
}

// NewPaymentHandler creates a new booking payment handler
func NewPaymentHandler() *PaymentHandler {
	return &PaymentHandler{
		BaseHandler: ledger.NewBaseHandler(ledger.TxTypeBookingPayment),
	}
}

// Handle builds the booking payment transaction record
func (h *PaymentHandler) Handle(ctx context.Context, data map[string]interface{}) ([]*ledger.Transaction, error) {
	req, err := decode[PaymentRequest](data)
	if err != nil {
		return nil, err
	}

	bookingID := req.BookingID
	tx := &ledger.Transaction{
		UserID:           req.BuyerID,
		Type:             ledger.TxTypeBookingPayment,
		Status:           ledger.StatusCompleted,
		Amount:           req.Amount.ToBigInt(),
		Currency:         req.Currency,
		Description:      fmt.Sprintf("Оплата встречи с %s", req.SellerName),
		RelatedBookingID: &bookingID,
		FromUser:         &req.BuyerID,
		ToUser:           &req.SellerID,
	}

	return []*ledger.Transaction{tx}, nil
}

// ValidateData validates the payment request data
func (h *PaymentHandler) ValidateData(ctx context.Context, data map[string]interface{}) error {
	req, err := decode[PaymentRequest](data)
	if err != nil {
		return err
	}
	return req.Validate()
}

// decode unmarshals raw request data into the typed request
func decode[T any](data map[string]interface{}) (*T, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request data: %w", err)
	}

	var req T
	if err := json.Unmarshal(jsonData, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request data: %w", err)
	}

	return &req, nil
}
