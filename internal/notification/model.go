package notification

import (
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/pkg/money"
)

// Type categorizes notifications for client-side rendering
type Type string

const (
	TypePayment  Type = "payment"
	TypeReferral Type = "referral"
	TypeVIP      Type = "vip"
	TypeBooking  Type = "booking"
	TypeTip      Type = "tip"
	TypeBonus    Type = "bonus"
	TypeSystem   Type = "system"
)

// Notification is a user-facing event record. Every notification comes
// from a real domain event; nothing here is simulated.
type Notification struct {
	ID     uuid.UUID `json:"id" db:"id"`
	UserID uuid.UUID `json:"user_id" db:"user_id"`
	Type   Type      `json:"type" db:"type"`
	Title  string    `json:"title" db:"title"`
	Text   string    `json:"text" db:"text"`
	Read   bool      `json:"read" db:"read"`

	// Money context for payment/referral/tip notifications
	Amount        *big.Int       `json:"amount,omitempty" db:"amount"`
	Currency      money.Currency `json:"currency,omitempty" db:"currency"`
	ReferralLevel *int           `json:"referral_level,omitempty" db:"referral_level"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
