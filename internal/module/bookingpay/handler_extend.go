package bookingpay

import (
	"context"
	"fmt"
	"strconv"

	"github.com/amoralabs/amora/internal/ledger"
)

// ExtendHandler debits the buyer for extending a meeting in progress.
// The cost is computed by the booking service from the seller's hourly
// rate; this handler only records the movement.
type ExtendHandler struct {
	ledger.BaseHandler
}

// NewExtendHandler creates a new booking extend handler
func NewExtendHandler() *ExtendHandler {
	return &ExtendHandler{
		BaseHandler: ledger.NewBaseHandler(ledger.TxTypeBookingExtend),
	}
}

// Handle builds the extend transaction record
func (h *ExtendHandler) Handle(ctx context.Context, data map[string]interface{}) ([]*ledger.Transaction, error) {
	req, err := decode[ExtendRequest](data)
	if err != nil {
		return nil, err
	}

	hours := strconv.FormatFloat(req.Hours, 'f', -1, 64)
	bookingID := req.BookingID
	tx := &ledger.Transaction{
		UserID:           req.BuyerID,
		Type:             ledger.TxTypeBookingExtend,
		Status:           ledger.StatusCompleted,
		Amount:           req.Cost.ToBigInt(),
		Currency:         req.Currency,
		Description:      fmt.Sprintf("Продление встречи на %s ч с %s", hours, req.SellerName),
		RelatedBookingID: &bookingID,
		FromUser:         &req.BuyerID,
	}

	return []*ledger.Transaction{tx}, nil
}

// ValidateData validates the extend request data
func (h *ExtendHandler) ValidateData(ctx context.Context, data map[string]interface{}) error {
	req, err := decode[ExtendRequest](data)
	if err != nil {
		return err
	}
	return req.Validate()
}
