package bookingpay

import (
	"context"
	"fmt"

	"github.com/amoralabs/amora/internal/ledger"
)

// RefundHandler credits the buyer when escrowed funds are returned
type RefundHandler struct {
	ledger.BaseHandler
}

// NewRefundHandler creates a new booking refund handler
func NewRefundHandler() *RefundHandler {
	return &RefundHandler{
		BaseHandler: ledger.NewBaseHandler(ledger.TxTypeBookingRefund),
	}
}

// Handle builds the refund transaction record
func (h *RefundHandler) Handle(ctx context.Context, data map[string]interface{}) ([]*ledger.Transaction, error) {
	req, err := decode[RefundRequest](data)
	if err != nil {
		return nil, err
	}

	bookingID := req.BookingID
	tx := &ledger.Transaction{
		UserID:           req.BuyerID,
		Type:             ledger.TxTypeBookingRefund,
		Status:           ledger.StatusCompleted,
		Amount:           req.Amount.ToBigInt(),
		Currency:         req.Currency,
		Description:      fmt.Sprintf("Возврат средств: %s", req.Reason),
		RelatedBookingID: &bookingID,
		ToUser:           &req.BuyerID,
	}

	return []*ledger.Transaction{tx}, nil
}

// ValidateData validates the refund request data
func (h *RefundHandler) ValidateData(ctx context.Context, data map[string]interface{}) error {
	req, err := decode[RefundRequest](data)
	if err != nil {
		return err
	}
	return req.Validate()
}
