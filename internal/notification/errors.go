package notification

import "errors"

// Notification errors
var (
	ErrNotFound      = errors.New("notification not found")
	ErrInvalidUserID = errors.New("invalid user ID")
	ErrUnauthorized  = errors.New("notification belongs to another user")
)
