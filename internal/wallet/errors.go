package wallet

import "errors"

// Wallet errors
var (
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrInvalidUserID      = errors.New("invalid user ID")
	ErrInvalidCurrency    = errors.New("unsupported currency")
	ErrNegativeBalance    = errors.New("balance cannot be negative")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrUnauthorizedAccess = errors.New("unauthorized access to wallet")
)
