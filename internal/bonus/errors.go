package bonus

import "errors"

// Daily bonus errors
var (
	ErrInvalidUserID  = errors.New("invalid user ID")
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrAlreadyClaimed = errors.New("daily bonus already claimed today")
)
