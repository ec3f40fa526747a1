package tips

import (
	"github.com/google/uuid"

	"github.com/amoralabs/amora/pkg/money"
)

// TipRequest moves a voluntary tip from one user to another.
// Tips carry no platform fee.
type TipRequest struct {
	FromUserID    uuid.UUID      `json:"from_user_id"`
	ToUserID      uuid.UUID      `json:"to_user_id"`
	Amount        *money.BigInt  `json:"amount"` // base units
	Currency      money.Currency `json:"currency"`
	SenderName    string         `json:"sender_name"`
	RecipientName string         `json:"recipient_name"`
}

// Validate validates the tip request
func (r *TipRequest) Validate() error {
	if r.FromUserID == uuid.Nil {
		return ErrInvalidSender
	}
	if r.ToUserID == uuid.Nil {
		return ErrInvalidRecipient
	}
	if r.FromUserID == r.ToUserID {
		return ErrSelfTip
	}
	if r.Amount.IsNil() || r.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if !r.Currency.IsValid() {
		return ErrInvalidCurrency
	}
	return nil
}
