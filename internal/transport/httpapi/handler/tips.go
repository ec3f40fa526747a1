package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/internal/ledger"
	"github.com/amoralabs/amora/internal/transport/httpapi/middleware"
	"github.com/amoralabs/amora/internal/user"
	"github.com/amoralabs/amora/pkg/money"
)

// TipNotifier tells the recipient about an incoming tip
type TipNotifier interface {
	TipReceived(ctx context.Context, userID uuid.UUID, amount *big.Int, currency money.Currency, fromName string) error
}

// TipsHandler handles tip HTTP requests. A tip is two paired ledger
// records written atomically, so the handler only needs the ledger,
// the user directory for display names, and the notifier.
type TipsHandler struct {
	ledger   LedgerRecorder
	users    UserGetter
	notifier TipNotifier
}

// NewTipsHandler creates a new tips handler
func NewTipsHandler(l LedgerRecorder, users UserGetter, notifier TipNotifier) *TipsHandler {
	return &TipsHandler{ledger: l, users: users, notifier: notifier}
}

// SendTipRequest represents the tip request body
type SendTipRequest struct {
	ToUserID string `json:"to_user_id"`
	Amount   string `json:"amount"` // decimal units
	Currency string `json:"currency"`
}

// Send transfers a tip to another user (POST /tips)
func (h *TipsHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req SendTipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	toUserID, err := uuid.Parse(req.ToUserID)
	if err != nil {
		respondError(w, "invalid recipient ID", http.StatusBadRequest)
		return
	}

	currency := money.Currency(req.Currency)
	if !currency.IsValid() {
		respondError(w, "unsupported currency", http.StatusBadRequest)
		return
	}

	amount, err := money.ToBaseUnits(req.Amount, currency)
	if err != nil || amount.Sign() <= 0 {
		respondError(w, "invalid amount", http.StatusBadRequest)
		return
	}

	sender, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		respondError(w, "failed to get sender", http.StatusInternalServerError)
		return
	}

	recipient, err := h.users.GetByID(r.Context(), toUserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			respondError(w, "recipient not found", http.StatusNotFound)
			return
		}
		respondError(w, "failed to get recipient", http.StatusInternalServerError)
		return
	}

	txs, err := h.ledger.RecordTransaction(r.Context(), ledger.TxTypeTipSent, map[string]interface{}{
		"from_user_id":   userID.String(),
		"to_user_id":     toUserID.String(),
		"amount":         amount.String(),
		"currency":       string(currency),
		"sender_name":    sender.Name,
		"recipient_name": recipient.Name,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			respondError(w, "insufficient funds", http.StatusUnprocessableEntity)
			return
		}
		respondError(w, "failed to send tip", http.StatusInternalServerError)
		return
	}

	// Best effort; the tip itself already committed
	if h.notifier != nil {
		_ = h.notifier.TipReceived(r.Context(), toUserID, amount, currency, sender.Name)
	}

	respondJSON(w, txs[0], http.StatusCreated)
}
