package funding

import "errors"

// Funding validation errors
var (
	ErrInvalidUserID   = errors.New("invalid user ID")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidCurrency = errors.New("unsupported currency")
	ErrUnauthorized    = errors.New("cannot record transactions for another user")
)
