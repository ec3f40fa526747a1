package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amoralabs/amora/internal/booking"
	"github.com/amoralabs/amora/pkg/money"
)

// BookingRepository implements the booking repository using PostgreSQL
type BookingRepository struct {
	pool *pgxpool.Pool
}

// NewBookingRepository creates a new PostgreSQL booking repository
func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

const bookingColumns = `id, service_name, service_category, seller_id, seller_name,
	buyer_id, buyer_name, scheduled_at, duration_minutes, price_per_hour, total_price,
	currency, note, status, paid_seconds, created_at, expires_at, confirmed_at,
	seller_ready_at, started_at, completed_at`

// Create inserts a new booking
func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	_, err := r.pool.Exec(ctx, query,
		b.ID,
		b.ServiceName,
		b.ServiceCategory,
		b.SellerID,
		b.SellerName,
		b.BuyerID,
		b.BuyerName,
		b.ScheduledAt,
		b.DurationMinutes,
		b.PricePerHour.String(),
		b.TotalPrice.String(),
		string(b.Currency),
		b.Note,
		string(b.Status),
		b.PaidSeconds,
		b.CreatedAt,
		b.ExpiresAt,
		b.ConfirmedAt,
		b.SellerReadyAt,
		b.StartedAt,
		b.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	b, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// Update updates a booking. The status predicate makes the write a
// compare-and-swap: a row whose status moved on since the caller read
// it is left untouched and ErrInvalidTransition is returned.
func (r *BookingRepository) Update(ctx context.Context, b *booking.Booking, from booking.Status) error {
	query := `
		UPDATE bookings SET
			status = $2, duration_minutes = $3, total_price = $4,
			paid_seconds = $5, expires_at = $6, confirmed_at = $7,
			seller_ready_at = $8, started_at = $9, completed_at = $10
		WHERE id = $1 AND status = $11
	`

	tag, err := r.pool.Exec(ctx, query,
		b.ID,
		string(b.Status),
		b.DurationMinutes,
		b.TotalPrice.String(),
		b.PaidSeconds,
		b.ExpiresAt,
		b.ConfirmedAt,
		b.SellerReadyAt,
		b.StartedAt,
		b.CompletedAt,
		string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrInvalidTransition
	}
	return nil
}

// ListByUser lists bookings where the user is buyer or seller, newest first
func (r *BookingRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*booking.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE buyer_id = $1 OR seller_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// ListConfirmExpired lists pending bookings whose confirmation window
// passed before the given instant
func (r *BookingRepository) ListConfirmExpired(ctx context.Context, now time.Time) ([]*booking.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE status = $1 AND expires_at < $2
		ORDER BY expires_at ASC`

	rows, err := r.pool.Query(ctx, query, string(booking.StatusPendingConfirmation), now)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// ListOvertime lists in-progress bookings whose paid time has fully
// elapsed at the given instant
func (r *BookingRepository) ListOvertime(ctx context.Context, now time.Time) ([]*booking.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE status = $1
		  AND started_at IS NOT NULL
		  AND started_at + paid_seconds * interval '1 second' <= $2
		ORDER BY started_at ASC`

	rows, err := r.pool.Query(ctx, query, string(booking.StatusInProgress), now)
	if err != nil {
		return nil, fmt.Errorf("failed to query overtime bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var b booking.Booking
	var status, currency, priceStr, totalStr string

	err := row.Scan(
		&b.ID,
		&b.ServiceName,
		&b.ServiceCategory,
		&b.SellerID,
		&b.SellerName,
		&b.BuyerID,
		&b.BuyerName,
		&b.ScheduledAt,
		&b.DurationMinutes,
		&priceStr,
		&totalStr,
		&currency,
		&b.Note,
		&status,
		&b.PaidSeconds,
		&b.CreatedAt,
		&b.ExpiresAt,
		&b.ConfirmedAt,
		&b.SellerReadyAt,
		&b.StartedAt,
		&b.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Status = booking.Status(status)
	b.Currency = money.Currency(currency)

	price, ok := new(big.Int).SetString(priceStr, 10)
	if !ok {
		return nil, fmt.Errorf("failed to parse price: %s", priceStr)
	}
	b.PricePerHour = price

	total, ok := new(big.Int).SetString(totalStr, 10)
	if !ok {
		return nil, fmt.Errorf("failed to parse total price: %s", totalStr)
	}
	b.TotalPrice = total

	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]*booking.Booking, error) {
	var bookings []*booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}
	return bookings, nil
}
