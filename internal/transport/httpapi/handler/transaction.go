package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/amoralabs/amora/internal/ledger"
	"github.com/amoralabs/amora/internal/module/transactions"
	"github.com/amoralabs/amora/internal/transport/httpapi/middleware"
	"github.com/amoralabs/amora/pkg/money"
)

// TransactionService defines the operations needed by TransactionHandler
type TransactionService interface {
	List(ctx context.Context, userID uuid.UUID, f transactions.Filters) ([]*transactions.Item, error)
	Get(ctx context.Context, id, userID uuid.UUID) (*transactions.Item, error)
	Stats(ctx context.Context, userID uuid.UUID) ([]*transactions.StatsEntry, error)
	ExportCSV(ctx context.Context, w io.Writer, userID uuid.UUID, f transactions.Filters) error
}

// Settler transitions pending transactions to a terminal status.
// Used to settle withdrawals once the payout clears or bounces.
type Settler interface {
	CompleteTransaction(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error)
	CancelTransaction(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error)
}

// TransactionHandler handles transaction history HTTP requests
type TransactionHandler struct {
	svc     TransactionService
	settler Settler
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(svc TransactionService, settler Settler) *TransactionHandler {
	return &TransactionHandler{svc: svc, settler: settler}
}

// List returns the transaction history (GET /transactions)
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	filters, err := parseFilters(r)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	items, err := h.svc.List(r.Context(), userID, filters)
	if err != nil {
		if errors.Is(err, transactions.ErrInvalidDateSpan) {
			respondError(w, "from date must not be after to date", http.StatusBadRequest)
			return
		}
		respondError(w, "failed to list transactions", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]interface{}{"transactions": items}, http.StatusOK)
}

// Get returns one transaction (GET /transactions/{id})
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, "invalid transaction ID", http.StatusBadRequest)
		return
	}

	item, err := h.svc.Get(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, ledger.ErrTransactionNotFound) {
			respondError(w, "transaction not found", http.StatusNotFound)
			return
		}
		respondError(w, "failed to get transaction", http.StatusInternalServerError)
		return
	}

	respondJSON(w, item, http.StatusOK)
}

// Stats returns per-currency totals (GET /transactions/stats)
func (h *TransactionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	stats, err := h.svc.Stats(r.Context(), userID)
	if err != nil {
		respondError(w, "failed to get stats", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]interface{}{"stats": stats}, http.StatusOK)
}

// Export streams the history as CSV (GET /transactions/export)
func (h *TransactionHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	filters, err := parseFilters(r)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)

	if err := h.svc.ExportCSV(r.Context(), w, userID, filters); err != nil {
		// Headers may already be out; nothing useful left to send
		return
	}
}

// Complete settles a pending transaction (POST /transactions/{id}/complete)
func (h *TransactionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, h.settler.CompleteTransaction)
}

// Cancel cancels a pending transaction (POST /transactions/{id}/cancel)
func (h *TransactionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, h.settler.CancelTransaction)
}

func (h *TransactionHandler) settle(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID) (*ledger.Transaction, error)) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, "invalid transaction ID", http.StatusBadRequest)
		return
	}

	// Ownership check; foreign transactions read as not found
	if _, err := h.svc.Get(r.Context(), id, userID); err != nil {
		if errors.Is(err, ledger.ErrTransactionNotFound) {
			respondError(w, "transaction not found", http.StatusNotFound)
			return
		}
		respondError(w, "failed to get transaction", http.StatusInternalServerError)
		return
	}

	tx, err := fn(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrAlreadyTerminal):
			respondError(w, "transaction is already settled", http.StatusConflict)
		case errors.Is(err, ledger.ErrInsufficientFunds):
			respondError(w, "insufficient funds", http.StatusUnprocessableEntity)
		default:
			respondError(w, "failed to settle transaction", http.StatusInternalServerError)
		}
		return
	}

	respondJSON(w, tx, http.StatusOK)
}

func parseFilters(r *http.Request) (transactions.Filters, error) {
	var f transactions.Filters
	q := r.URL.Query()

	if v := q.Get("type"); v != "" {
		t := ledger.TransactionType(v)
		if !t.IsValid() {
			return f, errors.New("unknown transaction type")
		}
		f.Type = &t
	}

	if v := q.Get("status"); v != "" {
		s := ledger.TransactionStatus(v)
		if !s.IsValid() {
			return f, errors.New("unknown transaction status")
		}
		f.Status = &s
	}

	if v := q.Get("currency"); v != "" {
		c := money.Currency(v)
		if !c.IsValid() {
			return f, errors.New("unsupported currency")
		}
		f.Currency = &c
	}

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errors.New("invalid from date")
		}
		f.FromDate = &t
	}

	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errors.New("invalid to date")
		}
		f.ToDate = &t
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return f, errors.New("invalid limit")
		}
		f.Limit = limit
	}

	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			return f, errors.New("invalid offset")
		}
		f.Offset = offset
	}

	return f, nil
}
