package booking

import "errors"

// Booking errors
var (
	ErrNotFound          = errors.New("booking not found")
	ErrInvalidSeller     = errors.New("invalid seller ID")
	ErrInvalidBuyer      = errors.New("invalid buyer ID")
	ErrSelfBooking       = errors.New("cannot book yourself")
	ErrInvalidDuration   = errors.New("duration must be positive")
	ErrInvalidPrice      = errors.New("price must be positive")
	ErrInvalidCurrency   = errors.New("unsupported currency")
	ErrInvalidTransition = errors.New("invalid booking status transition")
	ErrConfirmExpired    = errors.New("booking confirmation window has expired")
	ErrNotParticipant    = errors.New("user is not a participant of this booking")
	ErrInvalidExtend     = errors.New("extend amount must be positive")
)
