package vip

import "errors"

// VIP errors
var (
	ErrInvalidUserID  = errors.New("invalid user ID")
	ErrUnknownPlan    = errors.New("unknown VIP plan")
	ErrAlreadyActive  = errors.New("VIP subscription already active")
)
