package bookingpay

import (
	"github.com/google/uuid"

	"github.com/amoralabs/amora/pkg/money"
)

// PaymentRequest moves a booking's price from the buyer into escrow
type PaymentRequest struct {
	BuyerID    uuid.UUID      `json:"buyer_id"`
	SellerID   uuid.UUID      `json:"seller_id"`
	BookingID  uuid.UUID      `json:"booking_id"`
	Amount     *money.BigInt  `json:"amount"` // base units
	Currency   money.Currency `json:"currency"`
	SellerName string         `json:"seller_name"`
}

// Validate validates the payment request
func (r *PaymentRequest) Validate() error {
	if r.BuyerID == uuid.Nil {
		return ErrInvalidUserID
	}
	if r.BookingID == uuid.Nil {
		return ErrInvalidBookingID
	}
	if r.Amount.IsNil() || r.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if !r.Currency.IsValid() {
		return ErrInvalidCurrency
	}
	return nil
}

// RefundRequest returns escrowed funds to the buyer
type RefundRequest struct {
	BuyerID   uuid.UUID      `json:"buyer_id"`
	BookingID uuid.UUID      `json:"booking_id"`
	Amount    *money.BigInt  `json:"amount"` // base units
	Currency  money.Currency `json:"currency"`
	Reason    string         `json:"reason"`
}

// Validate validates the refund request
func (r *RefundRequest) Validate() error {
	if r.BuyerID == uuid.Nil {
		return ErrInvalidUserID
	}
	if r.BookingID == uuid.Nil {
		return ErrInvalidBookingID
	}
	if r.Amount.IsNil() || r.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if !r.Currency.IsValid() {
		return ErrInvalidCurrency
	}
	return nil
}

// PayoutRequest releases escrowed funds to the seller.
// GrossAmount is what the buyer paid; the platform fee is deducted by
// the handler so the seller receives the net amount.
type PayoutRequest struct {
	SellerID    uuid.UUID      `json:"seller_id"`
	BookingID   uuid.UUID      `json:"booking_id"`
	GrossAmount *money.BigInt  `json:"gross_amount"` // base units
	Currency    money.Currency `json:"currency"`
	BuyerName   string         `json:"buyer_name"`
}

// Validate validates the payout request
func (r *PayoutRequest) Validate() error {
	if r.SellerID == uuid.Nil {
		return ErrInvalidUserID
	}
	if r.BookingID == uuid.Nil {
		return ErrInvalidBookingID
	}
	if r.GrossAmount.IsNil() || r.GrossAmount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if !r.Currency.IsValid() {
		return ErrInvalidCurrency
	}
	return nil
}

// ExtendRequest charges the buyer for extending a meeting in progress
type ExtendRequest struct {
	BuyerID    uuid.UUID      `json:"buyer_id"`
	BookingID  uuid.UUID      `json:"booking_id"`
	Cost       *money.BigInt  `json:"cost"` // base units, computed by the booking service
	Currency   money.Currency `json:"currency"`
	Hours      float64        `json:"hours"` // extension length for the description
	SellerName string         `json:"seller_name"`
}

// Validate validates the extend request
func (r *ExtendRequest) Validate() error {
	if r.BuyerID == uuid.Nil {
		return ErrInvalidUserID
	}
	if r.BookingID == uuid.Nil {
		return ErrInvalidBookingID
	}
	if r.Cost.IsNil() || r.Cost.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if !r.Currency.IsValid() {
		return ErrInvalidCurrency
	}
	return nil
}
