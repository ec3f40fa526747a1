package booking

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/internal/ledger"
	"github.com/amoralabs/amora/internal/user"
	"github.com/amoralabs/amora/pkg/logger"
	"github.com/amoralabs/amora/pkg/metrics"
	"github.com/amoralabs/amora/pkg/money"
)

// Ledger records booking money movements
type Ledger interface {
	RecordTransaction(ctx context.Context, transactionType ledger.TransactionType, rawData map[string]interface{}) ([]*ledger.Transaction, error)
}

// CommissionPayer pays referral commissions on seller earnings
type CommissionPayer interface {
	PayCommissions(ctx context.Context, earnerID uuid.UUID, amount *big.Int, currency money.Currency)
}

// Notifier pushes booking lifecycle notifications
type Notifier interface {
	BookingEvent(ctx context.Context, userID uuid.UUID, title, text string) error
	PaymentReceived(ctx context.Context, userID uuid.UUID, amount *big.Int, currency money.Currency, fromName string) error
}

// CreateRequest carries the data for a new booking
type CreateRequest struct {
	BuyerID         uuid.UUID      `json:"buyer_id"`
	SellerID        uuid.UUID      `json:"seller_id"`
	ServiceName     string         `json:"service_name"`
	ServiceCategory string         `json:"service_category"`
	ScheduledAt     time.Time      `json:"scheduled_at"`
	DurationMinutes int64          `json:"duration_minutes"`
	Currency        money.Currency `json:"currency"`
	Note            string         `json:"note,omitempty"`
}

// Service drives the booking lifecycle. Payments move through the
// ledger at every transition: into escrow on creation, back to the
// buyer on refund paths, and out to the seller on completion.
type Service struct {
	repo        Repository
	users       user.Repository
	ledger      Ledger
	commissions CommissionPayer
	notifier    Notifier
	log         *logger.Logger
	collector   *metrics.Collector

	confirmTTL   time.Duration
	pollInterval time.Duration
}

// NewService creates a new booking service
func NewService(
	repo Repository,
	users user.Repository,
	l Ledger,
	commissions CommissionPayer,
	notifier Notifier,
	log *logger.Logger,
	collector *metrics.Collector,
	confirmTTL time.Duration,
	pollInterval time.Duration,
) *Service {
	return &Service{
		repo:         repo,
		users:        users,
		ledger:       l,
		commissions:  commissions,
		notifier:     notifier,
		log:          log,
		collector:    collector,
		confirmTTL:   confirmTTL,
		pollInterval: pollInterval,
	}
}

// Create books a meeting and moves the full price into escrow.
// The buyer is charged immediately; if the seller never confirms within
// the confirmation window the watcher refunds automatically.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	seller, err := s.users.GetByID(ctx, req.SellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seller: %w", err)
	}

	buyer, err := s.users.GetByID(ctx, req.BuyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load buyer: %w", err)
	}

	now := time.Now()
	expiresAt := now.Add(s.confirmTTL)
	pricePerHour := big.NewInt(seller.PricePerHour)

	b := &Booking{
		ID:              uuid.New(),
		ServiceName:     req.ServiceName,
		ServiceCategory: req.ServiceCategory,
		SellerID:        seller.ID,
		SellerName:      seller.Name,
		BuyerID:         buyer.ID,
		BuyerName:       buyer.Name,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		PricePerHour:    pricePerHour,
		TotalPrice:      TotalFor(pricePerHour, req.DurationMinutes),
		Currency:        req.Currency,
		Note:            req.Note,
		Status:          StatusPendingConfirmation,
		CreatedAt:       now,
		ExpiresAt:       &expiresAt,
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}

	// Charge the buyer before the booking exists; a failed payment
	// must not leave a phantom booking behind
	_, err = s.ledger.RecordTransaction(ctx, ledger.TxTypeBookingPayment, map[string]interface{}{
		"buyer_id":    b.BuyerID.String(),
		"seller_id":   b.SellerID.String(),
		"booking_id":  b.ID.String(),
		"amount":      b.TotalPrice.String(),
		"currency":    string(b.Currency),
		"seller_name": b.SellerName,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, b); err != nil {
		// Payment went through but the booking didn't: refund
		s.refund(ctx, b, b.TotalPrice, "Ошибка создания бронирования")
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.transition(string(StatusPendingConfirmation))
	s.notify(ctx, b.SellerID, "Новое бронирование",
		fmt.Sprintf("%s забронировал(а) «%s» на %s", b.BuyerName, b.ServiceName, b.ScheduledAt.Format("02.01.2006 15:04")))

	return b, nil
}

// Confirm accepts a pending booking as the seller
func (s *Service) Confirm(ctx context.Context, bookingID, sellerID uuid.UUID) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if b.SellerID != sellerID {
		return nil, ErrNotParticipant
	}

	if b.Status != StatusPendingConfirmation {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	if b.ConfirmExpired(now) {
		// The watcher may not have caught it yet; expire it here
		if err := s.expire(ctx, b); err != nil {
			return nil, err
		}
		return nil, ErrConfirmExpired
	}

	b.Status = StatusConfirmed
	b.ConfirmedAt = &now
	b.ExpiresAt = nil

	if err := s.repo.Update(ctx, b, StatusPendingConfirmation); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	s.transition(string(StatusConfirmed))
	s.notify(ctx, b.BuyerID, "Бронирование подтверждено",
		fmt.Sprintf("%s подтвердила встречу «%s»", b.SellerName, b.ServiceName))

	return b, nil
}

// Reject declines a pending booking as the seller and refunds the buyer
func (s *Service) Reject(ctx context.Context, bookingID, sellerID uuid.UUID) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if b.SellerID != sellerID {
		return nil, ErrNotParticipant
	}

	if b.Status != StatusPendingConfirmation {
		return nil, ErrInvalidTransition
	}

	// Win the status race before any money moves; a concurrent expiry
	// must not produce a second refund
	b.Status = StatusRejected
	if err := s.repo.Update(ctx, b, StatusPendingConfirmation); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	s.refund(ctx, b, b.TotalPrice, "Бронирование отклонено")

	s.transition(string(StatusRejected))
	s.notify(ctx, b.BuyerID, "Бронирование отклонено",
		fmt.Sprintf("%s отклонила встречу «%s», средства возвращены", b.SellerName, b.ServiceName))

	return b, nil
}

// SellerReady marks the seller as ready for a confirmed meeting
func (s *Service) SellerReady(ctx context.Context, bookingID, sellerID uuid.UUID) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if b.SellerID != sellerID {
		return nil, ErrNotParticipant
	}

	if b.Status != StatusConfirmed {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	b.Status = StatusSellerReady
	b.SellerReadyAt = &now

	if err := s.repo.Update(ctx, b, StatusConfirmed); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	s.transition(string(StatusSellerReady))
	s.notify(ctx, b.BuyerID, "Продавец готова",
		fmt.Sprintf("%s готова начать встречу «%s»", b.SellerName, b.ServiceName))

	return b, nil
}

// Start begins the meeting as the buyer once the seller is ready.
// The countdown runs from the purchased duration.
func (s *Service) Start(ctx context.Context, bookingID, buyerID uuid.UUID) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if b.BuyerID != buyerID {
		return nil, ErrNotParticipant
	}

	if b.Status != StatusSellerReady {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	b.Status = StatusInProgress
	b.StartedAt = &now
	b.PaidSeconds = b.DurationMinutes * 60

	if err := s.repo.Update(ctx, b, StatusSellerReady); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	s.transition(string(StatusInProgress))
	s.notify(ctx, b.SellerID, "Встреча началась",
		fmt.Sprintf("Встреча «%s» с %s началась", b.ServiceName, b.BuyerName))

	return b, nil
}

// Extend buys additional meeting time for an in-progress booking.
// amount is minutes for virtual services and whole hours otherwise.
// The charge goes through the ledger first, so insufficient funds
// block the extension.
func (s *Service) Extend(ctx context.Context, bookingID, buyerID uuid.UUID, amount int64) (*Booking, error) {
	if amount <= 0 {
		return nil, ErrInvalidExtend
	}

	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if b.BuyerID != buyerID {
		return nil, ErrNotParticipant
	}

	if b.Status != StatusInProgress {
		return nil, ErrInvalidTransition
	}

	cost := ExtendCost(b.ServiceCategory, amount, b.PricePerHour)
	hours := extendHours(b.ServiceCategory, amount)

	_, err = s.ledger.RecordTransaction(ctx, ledger.TxTypeBookingExtend, map[string]interface{}{
		"buyer_id":    b.BuyerID.String(),
		"booking_id":  b.ID.String(),
		"cost":        cost.String(),
		"currency":    string(b.Currency),
		"hours":       hours,
		"seller_name": b.SellerName,
	})
	if err != nil {
		return nil, err
	}

	b.PaidSeconds += ExtendSeconds(b.ServiceCategory, amount)
	b.DurationMinutes += ExtendSeconds(b.ServiceCategory, amount) / 60
	b.TotalPrice = new(big.Int).Add(b.TotalPrice, cost)

	if err := s.repo.Update(ctx, b, StatusInProgress); err != nil {
		// The meeting ended while the charge was in flight; the
		// extension money goes back to the buyer
		s.refund(ctx, b, cost, "Встреча завершилась до продления")
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	s.notify(ctx, b.SellerID, "Встреча продлена",
		fmt.Sprintf("%s продлил(а) встречу «%s»", b.BuyerName, b.ServiceName))

	return b, nil
}

// Complete ends an in-progress meeting, releases the escrow to the
// seller net of the platform fee, and pays referral commissions on the
// seller's earnings.
func (s *Service) Complete(ctx context.Context, bookingID, actorID uuid.UUID) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if b.BuyerID != actorID && b.SellerID != actorID {
		return nil, ErrNotParticipant
	}

	if b.Status != StatusInProgress {
		return nil, ErrInvalidTransition
	}

	return s.complete(ctx, b)
}

func (s *Service) complete(ctx context.Context, b *Booking) (*Booking, error) {
	now := time.Now()
	b.Status = StatusCompleted
	b.CompletedAt = &now

	// Winning this update is what earns the payout; a manual Complete
	// racing the watcher loses here before any money moves
	if err := s.repo.Update(ctx, b, StatusInProgress); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	txs, err := s.ledger.RecordTransaction(ctx, ledger.TxTypeBookingReceived, map[string]interface{}{
		"seller_id":    b.SellerID.String(),
		"booking_id":   b.ID.String(),
		"gross_amount": b.TotalPrice.String(),
		"currency":     string(b.Currency),
		"buyer_name":   b.BuyerName,
	})
	if err != nil {
		// The booking is already completed; the escrow stays held and
		// the ledger trail keeps it reconcilable
		s.log.WithContext(ctx).WithError(err).Error("failed to release escrow", "booking_id", b.ID)
		return nil, fmt.Errorf("failed to release escrow: %w", err)
	}

	s.transition(string(StatusCompleted))

	net := txs[0].Amount
	if s.notifier != nil {
		if err := s.notifier.PaymentReceived(ctx, b.SellerID, net, b.Currency, b.BuyerName); err != nil {
			s.log.WithContext(ctx).WithError(err).Warn("failed to send payment notification")
		}
	}
	s.notify(ctx, b.BuyerID, "Встреча завершена",
		fmt.Sprintf("Встреча «%s» с %s завершена", b.ServiceName, b.SellerName))

	if s.commissions != nil {
		s.commissions.PayCommissions(ctx, b.SellerID, net, b.Currency)
	}

	return b, nil
}

// Cancel cancels a booking before it starts and refunds the buyer.
// Either participant may cancel.
func (s *Service) Cancel(ctx context.Context, bookingID, actorID uuid.UUID) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if b.BuyerID != actorID && b.SellerID != actorID {
		return nil, ErrNotParticipant
	}

	from := b.Status
	switch from {
	case StatusPendingConfirmation, StatusConfirmed, StatusSellerReady:
	default:
		return nil, ErrInvalidTransition
	}

	b.Status = StatusCancelled
	if err := s.repo.Update(ctx, b, from); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	s.refund(ctx, b, b.TotalPrice, "Отмена бронирования")

	s.transition(string(StatusCancelled))

	other := b.SellerID
	if actorID == b.SellerID {
		other = b.BuyerID
	}
	s.notify(ctx, other, "Бронирование отменено",
		fmt.Sprintf("Встреча «%s» отменена, средства возвращены покупателю", b.ServiceName))

	return b, nil
}

// Get retrieves a booking, verifying the requester participates in it
func (s *Service) Get(ctx context.Context, bookingID, userID uuid.UUID) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if b.BuyerID != userID && b.SellerID != userID {
		return nil, ErrNotParticipant
	}

	return b, nil
}

// ListByUser lists the user's bookings, newest first
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// EscrowFor exposes the ledger's held balance for a booking
func (s *Service) EscrowFor(ctx context.Context, bookingID, userID uuid.UUID) (*big.Int, error) {
	if _, err := s.Get(ctx, bookingID, userID); err != nil {
		return nil, err
	}

	type escrowReader interface {
		EscrowBalance(ctx context.Context, bookingID uuid.UUID) (*big.Int, error)
	}

	if r, ok := s.ledger.(escrowReader); ok {
		return r.EscrowBalance(ctx, bookingID)
	}

	return nil, fmt.Errorf("escrow balance not supported by ledger")
}

// Run drives time-based transitions until the context is cancelled:
// pending bookings past their confirmation window expire with a refund,
// and in-progress meetings whose paid time ran out complete with a
// payout.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	s.log.Info("booking watcher started", "interval", s.pollInterval)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("booking watcher stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Service) tick(ctx context.Context) {
	now := time.Now()

	expired, err := s.repo.ListConfirmExpired(ctx, now)
	if err != nil {
		s.log.WithError(err).Error("failed to list expired bookings")
	} else {
		for _, b := range expired {
			if err := s.expire(ctx, b); err != nil {
				s.log.WithError(err).Error("failed to expire booking", "booking_id", b.ID)
			}
		}
	}

	overtime, err := s.repo.ListOvertime(ctx, now)
	if err != nil {
		s.log.WithError(err).Error("failed to list overtime bookings")
		return
	}
	for _, b := range overtime {
		if _, err := s.complete(ctx, b); err != nil {
			s.log.WithError(err).Error("failed to auto-complete booking", "booking_id", b.ID)
		}
	}
}

// expire refunds and expires a booking whose confirmation window passed
func (s *Service) expire(ctx context.Context, b *Booking) error {
	b.Status = StatusExpired
	if err := s.repo.Update(ctx, b, StatusPendingConfirmation); err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	s.refund(ctx, b, b.TotalPrice, "Продавец не подтвердил бронирование")

	s.transition(string(StatusExpired))
	s.notify(ctx, b.BuyerID, "Бронирование истекло",
		fmt.Sprintf("%s не подтвердила встречу «%s», средства возвращены", b.SellerName, b.ServiceName))

	return nil
}

// refund returns amount to the buyer. Refund failures are logged
// loudly but do not undo the status transition; the ledger trail keeps
// the escrow reconcilable.
func (s *Service) refund(ctx context.Context, b *Booking, amount *big.Int, reason string) {
	_, err := s.ledger.RecordTransaction(ctx, ledger.TxTypeBookingRefund, map[string]interface{}{
		"buyer_id":   b.BuyerID.String(),
		"booking_id": b.ID.String(),
		"amount":     amount.String(),
		"currency":   string(b.Currency),
		"reason":     reason,
	})
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Error("failed to refund booking", "booking_id", b.ID)
	}
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, title, text string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.BookingEvent(ctx, userID, title, text); err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("failed to send booking notification", "user_id", userID)
	}
}

func (s *Service) transition(status string) {
	if s.collector != nil {
		s.collector.BookingTransition(status)
	}
}

// extendHours converts an extend amount to hours for descriptions
func extendHours(serviceCategory string, amount int64) float64 {
	if serviceCategory == CategoryVirtual {
		return float64(amount) / 60
	}
	return float64(amount)
}
