package bookingpay

import "errors"

// Booking payment validation errors
var (
	ErrInvalidUserID    = errors.New("invalid user ID")
	ErrInvalidBookingID = errors.New("invalid booking ID")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidCurrency  = errors.New("unsupported currency")
	ErrInvalidFee       = errors.New("fee percent must be between 0 and 100")
)
