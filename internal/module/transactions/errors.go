package transactions

import "errors"

var (
	ErrInvalidUserID   = errors.New("invalid user ID")
	ErrInvalidDateSpan = errors.New("from date must not be after to date")
)
