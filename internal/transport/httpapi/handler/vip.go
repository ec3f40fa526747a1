package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/internal/ledger"
	"github.com/amoralabs/amora/internal/transport/httpapi/middleware"
	"github.com/amoralabs/amora/internal/user"
	"github.com/amoralabs/amora/internal/vip"
)

// VIPService defines the operations needed by VIPHandler
type VIPService interface {
	Purchase(ctx context.Context, userID uuid.UUID, planID string) (*user.User, error)
}

// VIPHandler handles VIP subscription HTTP requests
type VIPHandler struct {
	svc VIPService
}

// NewVIPHandler creates a new VIP handler
func NewVIPHandler(svc VIPService) *VIPHandler {
	return &VIPHandler{svc: svc}
}

// Plans returns the VIP price list (GET /vip/plans)
func (h *VIPHandler) Plans(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]interface{}{"plans": vip.Plans()}, http.StatusOK)
}

// PurchaseRequest represents the VIP purchase request body
type PurchaseRequest struct {
	PlanID string `json:"plan_id"`
}

// Purchase buys a VIP subscription (POST /vip/purchase)
func (h *VIPHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	u, err := h.svc.Purchase(r.Context(), userID, req.PlanID)
	if err != nil {
		switch {
		case errors.Is(err, vip.ErrUnknownPlan):
			respondError(w, "unknown VIP plan", http.StatusBadRequest)
		case errors.Is(err, ledger.ErrInsufficientFunds):
			respondError(w, "insufficient funds", http.StatusUnprocessableEntity)
		default:
			respondError(w, "failed to purchase VIP", http.StatusInternalServerError)
		}
		return
	}

	respondJSON(w, userInfo(u), http.StatusOK)
}
