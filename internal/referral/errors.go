package referral

import "errors"

// Referral errors
var (
	ErrInvalidUserID   = errors.New("invalid user ID")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidCurrency = errors.New("unsupported currency")
	ErrInvalidLevel    = errors.New("referral level must be 1, 2 or 3")
)
