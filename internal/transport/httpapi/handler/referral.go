package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/internal/referral"
	"github.com/amoralabs/amora/internal/transport/httpapi/middleware"
	"github.com/amoralabs/amora/internal/user"
)

// ReferralService defines the operations needed by ReferralHandler
type ReferralService interface {
	BuildTree(ctx context.Context, userID uuid.UUID) (*referral.Tree, error)
}

// UserGetter loads users by ID
type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// ReferralHandler handles referral HTTP requests
type ReferralHandler struct {
	svc   ReferralService
	users UserGetter
}

// NewReferralHandler creates a new referral handler
func NewReferralHandler(svc ReferralService, users UserGetter) *ReferralHandler {
	return &ReferralHandler{svc: svc, users: users}
}

// Tree returns the user's three-level referral tree (GET /referrals/tree)
func (h *ReferralHandler) Tree(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	tree, err := h.svc.BuildTree(r.Context(), userID)
	if err != nil {
		respondError(w, "failed to build referral tree", http.StatusInternalServerError)
		return
	}

	respondJSON(w, tree, http.StatusOK)
}

// Code returns the user's own referral code (GET /referrals/code)
func (h *ReferralHandler) Code(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		respondError(w, "failed to get user", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]string{"referral_code": u.ReferralCode}, http.StatusOK)
}
