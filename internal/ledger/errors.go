package ledger

import "errors"

// Transaction errors
var (
	ErrInvalidTransactionType   = errors.New("invalid transaction type")
	ErrInvalidTransactionStatus = errors.New("invalid transaction status")
	ErrInvalidUserID            = errors.New("transaction requires a user ID")
	ErrInvalidCurrency          = errors.New("unsupported currency")
	ErrNegativeAmount           = errors.New("amount cannot be negative")
	ErrNegativeFee              = errors.New("fee cannot be negative")
	ErrFeeExceedsAmount         = errors.New("fee cannot exceed amount")
	ErrTransactionNotFound      = errors.New("transaction not found")
	ErrAlreadyTerminal          = errors.New("transaction is already in a terminal status")
	ErrInsufficientFunds        = errors.New("insufficient funds")
)

// Handler errors
var (
	ErrNilHandler         = errors.New("handler cannot be nil")
	ErrEmptyHandlerType   = errors.New("handler type cannot be empty")
	ErrHandlerNotFound    = errors.New("no handler registered for transaction type")
	ErrHandlerDuplicate   = errors.New("handler for this type already registered")
)
