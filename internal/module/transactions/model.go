package transactions

import (
	"time"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/internal/ledger"
	"github.com/amoralabs/amora/pkg/money"
)

// Filters narrows a transaction history query
type Filters struct {
	Type     *ledger.TransactionType
	Status   *ledger.TransactionStatus
	Currency *money.Currency
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}

// Item is a transaction prepared for display: amounts are formatted in
// decimal currency units and the sign reflects the direction.
type Item struct {
	ID            uuid.UUID                `json:"id"`
	Type          ledger.TransactionType   `json:"type"`
	Status        ledger.TransactionStatus `json:"status"`
	Direction     string                   `json:"direction"`
	Amount        string                   `json:"amount"`
	Fee           string                   `json:"fee,omitempty"`
	Currency      money.Currency           `json:"currency"`
	Description   string                   `json:"description"`
	BookingID     *uuid.UUID               `json:"booking_id,omitempty"`
	ReferralLevel *int                     `json:"referral_level,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
}

const (
	directionIn  = "in"
	directionOut = "out"
)

// newItem converts a ledger transaction into a display item
func newItem(tx *ledger.Transaction) *Item {
	item := &Item{
		ID:            tx.ID,
		Type:          tx.Type,
		Status:        tx.Status,
		Direction:     directionOut,
		Amount:        money.FromBaseUnits(tx.Amount, tx.Currency),
		Currency:      tx.Currency,
		Description:   tx.Description,
		BookingID:     tx.RelatedBookingID,
		ReferralLevel: tx.ReferralLevel,
		CreatedAt:     tx.CreatedAt,
	}
	if tx.Type.IsIncoming() {
		item.Direction = directionIn
	}
	if tx.Fee != nil {
		item.Fee = money.FromBaseUnits(tx.Fee, tx.Currency)
	}
	return item
}
