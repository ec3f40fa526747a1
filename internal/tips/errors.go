package tips

import "errors"

// Tip validation errors
var (
	ErrInvalidSender    = errors.New("invalid sender ID")
	ErrInvalidRecipient = errors.New("invalid recipient ID")
	ErrSelfTip          = errors.New("cannot tip yourself")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidCurrency  = errors.New("unsupported currency")
)
