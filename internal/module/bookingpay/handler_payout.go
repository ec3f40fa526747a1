package bookingpay

import (
	"context"
	"fmt"
	"math/big"

	"github.com/amoralabs/amora/internal/ledger"
	"github.com/amoralabs/amora/pkg/money"
)

// PayoutHandler credits the seller when a completed booking's escrow is
// released. The platform fee is deducted here so the recorded amount is
// what the seller actually receives; the fee is kept on the record for
// per-currency fee reporting.
type PayoutHandler struct {
	ledger.BaseHandler
	feePercent int64
}

// NewPayoutHandler creates a new booking payout handler
func NewPayoutHandler(feePercent int64) *PayoutHandler {
	return &PayoutHandler{
		BaseHandler: ledger.NewBaseHandler(ledger.TxTypeBookingReceived),
		feePercent:  feePercent,
	}
}

// Handle builds the payout transaction record
func (h *PayoutHandler) Handle(ctx context.Context, data map[string]interface{}) ([]*ledger.Transaction, error) {
	req, err := decode[PayoutRequest](data)
	if err != nil {
		return nil, err
	}

	gross := req.GrossAmount.ToBigInt()
	fee := money.Percent(gross, h.feePercent)
	net := new(big.Int).Sub(gross, fee)

	bookingID := req.BookingID
	tx := &ledger.Transaction{
		UserID:           req.SellerID,
		Type:             ledger.TxTypeBookingReceived,
		Status:           ledger.StatusCompleted,
		Amount:           net,
		Currency:         req.Currency,
		Description:      fmt.Sprintf("Получение оплаты от %s", req.BuyerName),
		RelatedBookingID: &bookingID,
		ToUser:           &req.SellerID,
		Fee:              fee,
	}

	return []*ledger.Transaction{tx}, nil
}

// ValidateData validates the payout request data
func (h *PayoutHandler) ValidateData(ctx context.Context, data map[string]interface{}) error {
	if h.feePercent < 0 || h.feePercent > 100 {
		return ErrInvalidFee
	}

	req, err := decode[PayoutRequest](data)
	if err != nil {
		return err
	}
	return req.Validate()
}
