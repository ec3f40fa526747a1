package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for booking persistence operations
type Repository interface {
	// Create creates a new booking
	Create(ctx context.Context, b *Booking) error

	// GetByID retrieves a booking by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// Update persists booking changes only while the stored status
	// still equals from, so racing transitions get exactly one winner.
	// The loser sees ErrInvalidTransition.
	Update(ctx context.Context, b *Booking, from Status) error

	// ListByUser lists bookings where the user is buyer or seller,
	// newest first
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Booking, error)

	// ListConfirmExpired lists pending bookings whose confirmation
	// window passed before the given instant
	ListConfirmExpired(ctx context.Context, now time.Time) ([]*Booking, error)

	// ListOvertime lists in-progress bookings whose paid time has fully
	// elapsed at the given instant
	ListOvertime(ctx context.Context, now time.Time) ([]*Booking, error)
}
