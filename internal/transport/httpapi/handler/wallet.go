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
	"github.com/amoralabs/amora/pkg/money"
)

// BalanceReader defines the wallet operations needed by WalletHandler
type BalanceReader interface {
	GetBalances(ctx context.Context, userID uuid.UUID) (map[money.Currency]*big.Int, error)
	GetBalance(ctx context.Context, userID uuid.UUID, currency money.Currency) (*big.Int, error)
}

// LedgerRecorder records money movements through the ledger
type LedgerRecorder interface {
	RecordTransaction(ctx context.Context, transactionType ledger.TransactionType, rawData map[string]interface{}) ([]*ledger.Transaction, error)
}

// WalletHandler handles wallet HTTP requests
type WalletHandler struct {
	balances BalanceReader
	ledger   LedgerRecorder
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(balances BalanceReader, l LedgerRecorder) *WalletHandler {
	return &WalletHandler{balances: balances, ledger: l}
}

// BalanceEntry is one currency balance, formatted for display
type BalanceEntry struct {
	Currency  money.Currency `json:"currency"`
	Amount    string         `json:"amount"`
	BaseUnits string         `json:"base_units"`
}

// GetBalances returns all currency balances (GET /wallet)
func (h *WalletHandler) GetBalances(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	balances, err := h.balances.GetBalances(r.Context(), userID)
	if err != nil {
		respondError(w, "failed to get balances", http.StatusInternalServerError)
		return
	}

	entries := make([]BalanceEntry, 0, len(balances))
	for _, cur := range money.SupportedCurrencies() {
		amount, ok := balances[cur]
		if !ok {
			amount = big.NewInt(0)
		}
		entries = append(entries, BalanceEntry{
			Currency:  cur,
			Amount:    money.FromBaseUnits(amount, cur),
			BaseUnits: amount.String(),
		})
	}

	respondJSON(w, map[string]interface{}{"balances": entries}, http.StatusOK)
}

// DepositRequest represents the deposit request body
type DepositRequest struct {
	Amount   string `json:"amount"` // decimal units, e.g. "1000.50"
	Currency string `json:"currency"`
	Method   string `json:"method,omitempty"`
}

// Deposit tops up the wallet (POST /wallet/deposit)
func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
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

	txs, err := h.ledger.RecordTransaction(r.Context(), ledger.TxTypeDeposit, map[string]interface{}{
		"user_id":  userID.String(),
		"amount":   amount.String(),
		"currency": string(currency),
		"method":   req.Method,
	})
	if err != nil {
		respondError(w, "failed to record deposit", http.StatusInternalServerError)
		return
	}

	respondJSON(w, txs[0], http.StatusCreated)
}

// WithdrawRequest represents the withdraw request body
type WithdrawRequest struct {
	Amount      string `json:"amount"` // decimal units
	Currency    string `json:"currency"`
	Destination string `json:"destination"`
}

// Withdraw requests a payout from the wallet (POST /wallet/withdraw).
// The transaction stays pending until the payout settles.
func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
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

	txs, err := h.ledger.RecordTransaction(r.Context(), ledger.TxTypeWithdraw, map[string]interface{}{
		"user_id":     userID.String(),
		"amount":      amount.String(),
		"currency":    string(currency),
		"destination": req.Destination,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			respondError(w, "insufficient funds", http.StatusUnprocessableEntity)
			return
		}
		respondError(w, "failed to record withdrawal", http.StatusInternalServerError)
		return
	}

	respondJSON(w, txs[0], http.StatusCreated)
}
