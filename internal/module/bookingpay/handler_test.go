package bookingpay

import (
	"context"
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amoralabs/amora/internal/ledger"
	"github.com/amoralabs/amora/pkg/money"
)

func TestPaymentHandler_Handle(t *testing.T) {
	h := NewPaymentHandler()
	buyerID := uuid.New()
	sellerID := uuid.New()
	bookingID := uuid.New()

	data := map[string]interface{}{
		"buyer_id":    buyerID.String(),
		"seller_id":   sellerID.String(),
		"booking_id":  bookingID.String(),
		"amount":      "100000",
		"currency":    "RUB",
		"seller_name": "Анна",
	}

	require.NoError(t, h.ValidateData(context.Background(), data))

	txs, err := h.Handle(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, txs, 1)

	tx := txs[0]
	assert.Equal(t, ledger.TxTypeBookingPayment, tx.Type)
	assert.Equal(t, ledger.StatusCompleted, tx.Status)
	assert.Equal(t, buyerID, tx.UserID)
	require.NotNil(t, tx.RelatedBookingID)
	assert.Equal(t, bookingID, *tx.RelatedBookingID)
	assert.Equal(t, "Оплата встречи с Анна", tx.Description)
}

func TestPayoutHandler_DeductsFee(t *testing.T) {
	h := NewPayoutHandler(10)
	sellerID := uuid.New()
	bookingID := uuid.New()

	data := map[string]interface{}{
		"seller_id":    sellerID.String(),
		"booking_id":   bookingID.String(),
		"gross_amount": "100000",
		"currency":     "RUB",
		"buyer_name":   "Иван",
	}

	require.NoError(t, h.ValidateData(context.Background(), data))

	txs, err := h.Handle(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, txs, 1)

	tx := txs[0]
	assert.Equal(t, ledger.TxTypeBookingReceived, tx.Type)
	// seller receives 90%, the 10% fee stays on the record
	assert.Equal(t, big.NewInt(90000), tx.Amount)
	require.NotNil(t, tx.Fee)
	assert.Equal(t, big.NewInt(10000), tx.Fee)
	assert.Equal(t, "Получение оплаты от Иван", tx.Description)
}

func TestPayoutHandler_ZeroFee(t *testing.T) {
	h := NewPayoutHandler(0)

	data := map[string]interface{}{
		"seller_id":    uuid.New().String(),
		"booking_id":   uuid.New().String(),
		"gross_amount": "50000",
		"currency":     "RUB",
		"buyer_name":   "Иван",
	}

	txs, err := h.Handle(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50000), txs[0].Amount)
	assert.Equal(t, big.NewInt(0), txs[0].Fee)
}

func TestRefundHandler_Handle(t *testing.T) {
	h := NewRefundHandler()
	buyerID := uuid.New()

	data := map[string]interface{}{
		"buyer_id":   buyerID.String(),
		"booking_id": uuid.New().String(),
		"amount":     "100000",
		"currency":   "RUB",
		"reason":     "Отмена бронирования",
	}

	txs, err := h.Handle(context.Background(), data)
	require.NoError(t, err)

	tx := txs[0]
	assert.Equal(t, ledger.TxTypeBookingRefund, tx.Type)
	assert.True(t, tx.Type.IsIncoming())
	assert.Equal(t, "Возврат средств: Отмена бронирования", tx.Description)
}

func TestExtendHandler_Handle(t *testing.T) {
	h := NewExtendHandler()
	buyerID := uuid.New()

	data := map[string]interface{}{
		"buyer_id":    buyerID.String(),
		"booking_id":  uuid.New().String(),
		"cost":        "50000",
		"currency":    "RUB",
		"hours":       0.5,
		"seller_name": "Анна",
	}

	txs, err := h.Handle(context.Background(), data)
	require.NoError(t, err)

	tx := txs[0]
	assert.Equal(t, ledger.TxTypeBookingExtend, tx.Type)
	assert.False(t, tx.Type.IsIncoming())
	assert.Equal(t, big.NewInt(50000), tx.Amount)
	assert.Equal(t, "Продление встречи на 0.5 ч с Анна", tx.Description)
}

func TestPaymentHandler_RejectsMissingBooking(t *testing.T) {
	h := NewPaymentHandler()

	data := map[string]interface{}{
		"buyer_id": uuid.New().String(),
		"amount":   "100000",
		"currency": string(money.RUB),
	}

	err := h.ValidateData(context.Background(), data)
	assert.ErrorIs(t, err, ErrInvalidBookingID)
}
