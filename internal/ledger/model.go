package ledger

import (
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/pkg/money"
)

// TransactionType identifies the business operation behind a transaction
type TransactionType string

const (
	TxTypeDeposit            TransactionType = "deposit"
	TxTypeWithdraw           TransactionType = "withdraw"
	TxTypeBookingPayment     TransactionType = "booking_payment"
	TxTypeBookingRefund      TransactionType = "booking_refund"
	TxTypeBookingReceived    TransactionType = "booking_received"
	TxTypeBookingExtend      TransactionType = "booking_extend"
	TxTypeVIPPayment         TransactionType = "vip_payment"
	TxTypeTipSent            TransactionType = "tip_sent"
	TxTypeTipReceived        TransactionType = "tip_received"
	TxTypeReferralCommission TransactionType = "referral_commission"
	TxTypeDailyBonus         TransactionType = "daily_bonus"
)

// allTransactionTypes is the set of valid types
var allTransactionTypes = map[TransactionType]bool{
	TxTypeDeposit:            true,
	TxTypeWithdraw:           true,
	TxTypeBookingPayment:     true,
	TxTypeBookingRefund:      true,
	TxTypeBookingReceived:    true,
	TxTypeBookingExtend:      true,
	TxTypeVIPPayment:         true,
	TxTypeTipSent:            true,
	TxTypeTipReceived:        true,
	TxTypeReferralCommission: true,
	TxTypeDailyBonus:         true,
}

// IsValid checks if the transaction type is known
func (t TransactionType) IsValid() bool {
	return allTransactionTypes[t]
}

// incomingTypes credit the owner's wallet; every other valid type debits it.
// This table is the single source of truth for balance direction.
var incomingTypes = map[TransactionType]bool{
	TxTypeDeposit:            true,
	TxTypeBookingRefund:      true,
	TxTypeBookingReceived:    true,
	TxTypeTipReceived:        true,
	TxTypeReferralCommission: true,
	TxTypeDailyBonus:         true,
}

// IsIncoming reports whether this type credits the owner's wallet
func (t TransactionType) IsIncoming() bool {
	return incomingTypes[t]
}

// TransactionStatus represents the lifecycle status of a transaction
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
	StatusCancelled TransactionStatus = "cancelled"
)

// IsValid checks if the status is known
func (s TransactionStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Transaction is a single wallet movement for one user.
// Amount and Fee are base units of Currency. Only completed transactions
// count toward balances; a pending withdraw does not reduce the balance
// until it completes.
type Transaction struct {
	ID       uuid.UUID         `json:"id" db:"id"`
	UserID   uuid.UUID         `json:"user_id" db:"user_id"`
	Type     TransactionType   `json:"type" db:"type"`
	Status   TransactionStatus `json:"status" db:"status"`
	Amount   *big.Int          `json:"amount" db:"amount"`
	Currency money.Currency    `json:"currency" db:"currency"`

	Description string `json:"description" db:"description"`

	// Optional linkage
	RelatedBookingID *uuid.UUID `json:"related_booking_id,omitempty" db:"related_booking_id"`
	FromUser         *uuid.UUID `json:"from_user,omitempty" db:"from_user"`
	ToUser           *uuid.UUID `json:"to_user,omitempty" db:"to_user"`
	Fee              *big.Int   `json:"fee,omitempty" db:"fee"`
	ReferralLevel    *int       `json:"referral_level,omitempty" db:"referral_level"`

	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// Validate validates the transaction
func (t *Transaction) Validate() error {
	if !t.Type.IsValid() {
		return ErrInvalidTransactionType
	}

	if !t.Status.IsValid() {
		return ErrInvalidTransactionStatus
	}

	if t.UserID == uuid.Nil {
		return ErrInvalidUserID
	}

	if !t.Currency.IsValid() {
		return ErrInvalidCurrency
	}

	if t.Amount == nil || t.Amount.Sign() < 0 {
		return ErrNegativeAmount
	}

	if t.Fee != nil {
		if t.Fee.Sign() < 0 {
			return ErrNegativeFee
		}
	}

	return nil
}

// SignedAmount returns the amount with the sign implied by the type:
// positive for incoming, negative for outgoing.
func (t *Transaction) SignedAmount() *big.Int {
	if t.Amount == nil {
		return big.NewInt(0)
	}
	if t.Type.IsIncoming() {
		return new(big.Int).Set(t.Amount)
	}
	return new(big.Int).Neg(t.Amount)
}

// CalculateBalance derives a balance from a transaction history.
// Only completed transactions in the requested currency are counted;
// incoming types add, outgoing types subtract. Result is
// initial + Σincoming − Σoutgoing in base units.
func CalculateBalance(transactions []*Transaction, currency money.Currency, initial *big.Int) *big.Int {
	balance := big.NewInt(0)
	if initial != nil {
		balance.Set(initial)
	}

	for _, tx := range transactions {
		if tx.Status != StatusCompleted || tx.Currency != currency {
			continue
		}
		balance.Add(balance, tx.SignedAmount())
	}

	return balance
}

// CurrencyStats aggregates completed transactions of one currency
type CurrencyStats struct {
	Currency     money.Currency `json:"currency"`
	TotalIncome  *big.Int       `json:"total_income"`
	TotalExpense *big.Int       `json:"total_expense"`
	NetBalance   *big.Int       `json:"net_balance"`
	TotalFees    *big.Int       `json:"total_fees"`
	Count        int            `json:"count"`
}

// CalculateStats aggregates completed transactions grouped by currency.
// Fees are never mixed across currencies.
func CalculateStats(transactions []*Transaction) map[money.Currency]*CurrencyStats {
	stats := make(map[money.Currency]*CurrencyStats)

	for _, tx := range transactions {
		if tx.Status != StatusCompleted {
			continue
		}

		s, ok := stats[tx.Currency]
		if !ok {
			s = &CurrencyStats{
				Currency:     tx.Currency,
				TotalIncome:  big.NewInt(0),
				TotalExpense: big.NewInt(0),
				NetBalance:   big.NewInt(0),
				TotalFees:    big.NewInt(0),
			}
			stats[tx.Currency] = s
		}

		if tx.Type.IsIncoming() {
			s.TotalIncome.Add(s.TotalIncome, tx.Amount)
		} else {
			s.TotalExpense.Add(s.TotalExpense, tx.Amount)
		}
		if tx.Fee != nil {
			s.TotalFees.Add(s.TotalFees, tx.Fee)
		}
		s.Count++
	}

	for _, s := range stats {
		s.NetBalance.Sub(s.TotalIncome, s.TotalExpense)
	}

	return stats
}
