package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/internal/bonus"
	"github.com/amoralabs/amora/internal/transport/httpapi/middleware"
	"github.com/amoralabs/amora/pkg/money"
)

// BonusService defines the operations needed by BonusHandler
type BonusService interface {
	Claim(ctx context.Context, userID uuid.UUID) (*bonus.ClaimResult, error)
	GetStatus(ctx context.Context, userID uuid.UUID) (*bonus.Status, error)
}

// BonusHandler handles daily bonus HTTP requests
type BonusHandler struct {
	svc BonusService
}

// NewBonusHandler creates a new bonus handler
func NewBonusHandler(svc BonusService) *BonusHandler {
	return &BonusHandler{svc: svc}
}

// ClaimResponse represents the bonus claim response
type ClaimResponse struct {
	Amount string `json:"amount"` // LOVE, decimal units
	Streak int    `json:"streak"`
}

// Claim grants the daily LOVE bonus (POST /bonus/claim)
func (h *BonusHandler) Claim(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	result, err := h.svc.Claim(r.Context(), userID)
	if err != nil {
		if errors.Is(err, bonus.ErrAlreadyClaimed) {
			respondError(w, "daily bonus already claimed", http.StatusConflict)
			return
		}
		respondError(w, "failed to claim bonus", http.StatusInternalServerError)
		return
	}

	respondJSON(w, ClaimResponse{
		Amount: money.FromBaseUnits(result.Amount, money.LOVE),
		Streak: result.Streak,
	}, http.StatusOK)
}

// Status reports today's claim state (GET /bonus/status)
func (h *BonusHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	status, err := h.svc.GetStatus(r.Context(), userID)
	if err != nil {
		respondError(w, "failed to get bonus status", http.StatusInternalServerError)
		return
	}

	respondJSON(w, status, http.StatusOK)
}
