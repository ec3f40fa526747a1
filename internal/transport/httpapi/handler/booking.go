package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/amoralabs/amora/internal/booking"
	"github.com/amoralabs/amora/internal/ledger"
	"github.com/amoralabs/amora/internal/transport/httpapi/middleware"
	"github.com/amoralabs/amora/pkg/money"
)

// BookingService defines the operations needed by BookingHandler
type BookingService interface {
	Create(ctx context.Context, req booking.CreateRequest) (*booking.Booking, error)
	Get(ctx context.Context, bookingID, userID uuid.UUID) (*booking.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*booking.Booking, error)
	Confirm(ctx context.Context, bookingID, sellerID uuid.UUID) (*booking.Booking, error)
	Reject(ctx context.Context, bookingID, sellerID uuid.UUID) (*booking.Booking, error)
	SellerReady(ctx context.Context, bookingID, sellerID uuid.UUID) (*booking.Booking, error)
	Start(ctx context.Context, bookingID, buyerID uuid.UUID) (*booking.Booking, error)
	Extend(ctx context.Context, bookingID, buyerID uuid.UUID, amount int64) (*booking.Booking, error)
	Complete(ctx context.Context, bookingID, actorID uuid.UUID) (*booking.Booking, error)
	Cancel(ctx context.Context, bookingID, actorID uuid.UUID) (*booking.Booking, error)
	EscrowFor(ctx context.Context, bookingID, userID uuid.UUID) (*big.Int, error)
}

// BookingHandler handles booking HTTP requests
type BookingHandler struct {
	svc BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(svc BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

// BookingView is a booking with the derived countdown attached
type BookingView struct {
	*booking.Booking
	RemainingSeconds int64 `json:"remaining_seconds"`
}

func bookingView(b *booking.Booking) *BookingView {
	return &BookingView{Booking: b, RemainingSeconds: b.RemainingSeconds(time.Now())}
}

// CreateBookingRequest represents the booking creation request body
type CreateBookingRequest struct {
	SellerID        string    `json:"seller_id"`
	ServiceName     string    `json:"service_name"`
	ServiceCategory string    `json:"service_category"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int64     `json:"duration_minutes"`
	Currency        string    `json:"currency"`
	Note            string    `json:"note,omitempty"`
}

// Create books a meeting (POST /bookings)
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sellerID, err := uuid.Parse(req.SellerID)
	if err != nil {
		respondError(w, "invalid seller ID", http.StatusBadRequest)
		return
	}

	b, err := h.svc.Create(r.Context(), booking.CreateRequest{
		BuyerID:         userID,
		SellerID:        sellerID,
		ServiceName:     req.ServiceName,
		ServiceCategory: req.ServiceCategory,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Currency:        money.Currency(req.Currency),
		Note:            req.Note,
	})
	if err != nil {
		respondBookingError(w, err)
		return
	}

	respondJSON(w, bookingView(b), http.StatusCreated)
}

// List returns the user's bookings (GET /bookings)
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	bookings, err := h.svc.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, "failed to list bookings", http.StatusInternalServerError)
		return
	}

	views := make([]*BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, bookingView(b))
	}

	respondJSON(w, map[string]interface{}{"bookings": views}, http.StatusOK)
}

// Get returns one booking (GET /bookings/{id})
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withBooking(w, r, h.svc.Get)
}

// Confirm accepts a booking as the seller (POST /bookings/{id}/confirm)
func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.withBooking(w, r, h.svc.Confirm)
}

// Reject declines a booking as the seller (POST /bookings/{id}/reject)
func (h *BookingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.withBooking(w, r, h.svc.Reject)
}

// Ready marks the seller as ready (POST /bookings/{id}/ready)
func (h *BookingHandler) Ready(w http.ResponseWriter, r *http.Request) {
	h.withBooking(w, r, h.svc.SellerReady)
}

// Start begins the meeting as the buyer (POST /bookings/{id}/start)
func (h *BookingHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.withBooking(w, r, h.svc.Start)
}

// Complete ends the meeting (POST /bookings/{id}/complete)
func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.withBooking(w, r, h.svc.Complete)
}

// Cancel cancels a booking before it starts (POST /bookings/{id}/cancel)
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.withBooking(w, r, h.svc.Cancel)
}

// ExtendBookingRequest represents the extend request body.
// Amount is minutes for virtual services and whole hours otherwise.
type ExtendBookingRequest struct {
	Amount int64 `json:"amount"`
}

// Extend buys additional meeting time (POST /bookings/{id}/extend)
func (h *BookingHandler) Extend(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, "invalid booking ID", http.StatusBadRequest)
		return
	}

	var req ExtendBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	b, err := h.svc.Extend(r.Context(), id, userID, req.Amount)
	if err != nil {
		respondBookingError(w, err)
		return
	}

	respondJSON(w, bookingView(b), http.StatusOK)
}

// Escrow returns the amount currently held for a booking (GET /bookings/{id}/escrow)
func (h *BookingHandler) Escrow(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, "invalid booking ID", http.StatusBadRequest)
		return
	}

	held, err := h.svc.EscrowFor(r.Context(), id, userID)
	if err != nil {
		respondBookingError(w, err)
		return
	}

	respondJSON(w, map[string]string{"held": held.String()}, http.StatusOK)
}

// withBooking runs a (bookingID, actorID) transition and renders the result
func (h *BookingHandler) withBooking(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID, uuid.UUID) (*booking.Booking, error)) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, "invalid booking ID", http.StatusBadRequest)
		return
	}

	b, err := fn(r.Context(), id, userID)
	if err != nil {
		respondBookingError(w, err)
		return
	}

	respondJSON(w, bookingView(b), http.StatusOK)
}

func respondBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrNotFound):
		respondError(w, "booking not found", http.StatusNotFound)
	case errors.Is(err, booking.ErrNotParticipant):
		respondError(w, "booking belongs to another user", http.StatusForbidden)
	case errors.Is(err, booking.ErrInvalidTransition):
		respondError(w, "action not allowed in current booking status", http.StatusConflict)
	case errors.Is(err, booking.ErrConfirmExpired):
		respondError(w, "booking confirmation window has expired", http.StatusConflict)
	case errors.Is(err, ledger.ErrInsufficientFunds):
		respondError(w, "insufficient funds", http.StatusUnprocessableEntity)
	case errors.Is(err, booking.ErrSelfBooking):
		respondError(w, "cannot book yourself", http.StatusBadRequest)
	case errors.Is(err, booking.ErrInvalidDuration),
		errors.Is(err, booking.ErrInvalidPrice),
		errors.Is(err, booking.ErrInvalidCurrency),
		errors.Is(err, booking.ErrInvalidExtend):
		respondError(w, err.Error(), http.StatusBadRequest)
	default:
		respondError(w, "failed to process booking", http.StatusInternalServerError)
	}
}
