package booking

import (
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/pkg/money"
)

// Status represents the booking lifecycle state
type Status string

const (
	// StatusPendingConfirmation waits for the seller to accept. The
	// buyer's payment is already in escrow; the booking expires and
	// refunds automatically if the seller never responds.
	StatusPendingConfirmation Status = "pending_seller_confirmation"
	StatusConfirmed           Status = "confirmed"
	StatusSellerReady         Status = "seller_ready"
	StatusInProgress          Status = "in_progress"
	StatusCompleted           Status = "completed"
	StatusCancelled           Status = "cancelled"
	StatusRejected            Status = "rejected"
	StatusExpired             Status = "expired"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusPendingConfirmation, StatusConfirmed, StatusSellerReady,
		StatusInProgress, StatusCompleted, StatusCancelled, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// CategoryVirtual is the service category whose meetings are extended in
// minutes rather than hours
const CategoryVirtual = "virtual"

// Booking is a paid meeting between a buyer and a seller.
// All money fields are base units of Currency. PaidSeconds is the total
// purchased meeting time; the remaining time is always derived from it
// and StartedAt, never stored.
type Booking struct {
	ID              uuid.UUID `json:"id" db:"id"`
	ServiceName     string    `json:"service_name" db:"service_name"`
	ServiceCategory string    `json:"service_category" db:"service_category"`

	SellerID   uuid.UUID `json:"seller_id" db:"seller_id"`
	SellerName string    `json:"seller_name" db:"seller_name"`
	BuyerID    uuid.UUID `json:"buyer_id" db:"buyer_id"`
	BuyerName  string    `json:"buyer_name" db:"buyer_name"`

	ScheduledAt     time.Time      `json:"scheduled_at" db:"scheduled_at"`
	DurationMinutes int64          `json:"duration_minutes" db:"duration_minutes"`
	PricePerHour    *big.Int       `json:"price_per_hour" db:"price_per_hour"`
	TotalPrice      *big.Int       `json:"total_price" db:"total_price"`
	Currency        money.Currency `json:"currency" db:"currency"`
	Note            string         `json:"note,omitempty" db:"note"`

	Status      Status `json:"status" db:"status"`
	PaidSeconds int64  `json:"paid_seconds" db:"paid_seconds"`

	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	ConfirmedAt   *time.Time `json:"confirmed_at,omitempty" db:"confirmed_at"`
	SellerReadyAt *time.Time `json:"seller_ready_at,omitempty" db:"seller_ready_at"`
	StartedAt     *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// RemainingSeconds derives the meeting countdown at the given instant.
// Before the meeting starts it equals the purchased time; once started
// it decreases with the clock, floored at zero.
func (b *Booking) RemainingSeconds(now time.Time) int64 {
	if b.Status.IsTerminal() {
		return 0
	}

	if b.StartedAt == nil {
		return b.PaidSeconds
	}

	elapsed := int64(now.Sub(*b.StartedAt) / time.Second)
	remaining := b.PaidSeconds - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Overtime reports whether an in-progress meeting has used up its paid time
func (b *Booking) Overtime(now time.Time) bool {
	return b.Status == StatusInProgress && b.RemainingSeconds(now) == 0
}

// ConfirmExpired reports whether the seller confirmation window has passed
func (b *Booking) ConfirmExpired(now time.Time) bool {
	return b.Status == StatusPendingConfirmation && b.ExpiresAt != nil && now.After(*b.ExpiresAt)
}

// Validate validates the booking
func (b *Booking) Validate() error {
	if b.SellerID == uuid.Nil {
		return ErrInvalidSeller
	}
	if b.BuyerID == uuid.Nil {
		return ErrInvalidBuyer
	}
	if b.SellerID == b.BuyerID {
		return ErrSelfBooking
	}
	if b.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	if b.PricePerHour == nil || b.PricePerHour.Sign() <= 0 {
		return ErrInvalidPrice
	}
	if !b.Currency.IsValid() {
		return ErrInvalidCurrency
	}
	return nil
}

// TotalFor computes the price of a meeting in base units:
// pricePerHour * minutes / 60, truncated toward zero.
func TotalFor(pricePerHour *big.Int, minutes int64) *big.Int {
	total := new(big.Int).Mul(pricePerHour, big.NewInt(minutes))
	return total.Div(total, big.NewInt(60))
}

// ExtendCost computes the price of extending a meeting. For virtual
// services the amount is minutes, so the cost is (amount/60)*pricePerHour;
// for everything else the amount is whole hours.
func ExtendCost(serviceCategory string, amount int64, pricePerHour *big.Int) *big.Int {
	if serviceCategory == CategoryVirtual {
		return TotalFor(pricePerHour, amount)
	}
	return new(big.Int).Mul(pricePerHour, big.NewInt(amount))
}

// ExtendSeconds converts an extend amount into purchased seconds
func ExtendSeconds(serviceCategory string, amount int64) int64 {
	if serviceCategory == CategoryVirtual {
		return amount * 60
	}
	return amount * 3600
}
