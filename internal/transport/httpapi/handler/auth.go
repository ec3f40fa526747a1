package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/internal/user"
	"github.com/amoralabs/amora/internal/wallet"
)

// UserService defines the user operations needed by AuthHandler
type UserService interface {
	Register(ctx context.Context, email, password, name string, role user.Role, referralCode string) (*user.User, error)
	Login(ctx context.Context, email, password string) (*user.User, error)
}

// TokenIssuer defines the JWT operations needed by AuthHandler
type TokenIssuer interface {
	GenerateToken(u *user.User) (string, error)
}

// WalletCreator provisions a wallet for a freshly registered user
type WalletCreator interface {
	Create(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error)
}

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	users   UserService
	tokens  TokenIssuer
	wallets WalletCreator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users UserService, tokens TokenIssuer, wallets WalletCreator) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, wallets: wallets}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	ReferralCode string `json:"referral_code,omitempty"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	Token string    `json:"token"`
	User  *UserInfo `json:"user"`
}

// UserInfo represents user information without sensitive data
type UserInfo struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Role         string     `json:"role"`
	VIPActive    bool       `json:"vip_active"`
	VIPExpiresAt *time.Time `json:"vip_expires_at,omitempty"`
	ReferralCode string     `json:"referral_code"`
}

func userInfo(u *user.User) *UserInfo {
	return &UserInfo{
		ID:           u.ID.String(),
		Email:        u.Email,
		Name:         u.Name,
		Role:         string(u.Role),
		VIPActive:    u.IsVIP(time.Now()),
		VIPExpiresAt: u.VIPExpiresAt,
		ReferralCode: u.ReferralCode,
	}
}

// Register handles user registration (POST /auth/register)
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" {
		respondError(w, "email is required", http.StatusBadRequest)
		return
	}
	if req.Password == "" {
		respondError(w, "password is required", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		respondError(w, "name is required", http.StatusBadRequest)
		return
	}

	registered, err := h.users.Register(r.Context(), req.Email, req.Password, req.Name, user.Role(req.Role), req.ReferralCode)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrUserAlreadyExists):
			respondError(w, "user with this email already exists", http.StatusConflict)
		case errors.Is(err, user.ErrPasswordTooShort):
			respondError(w, "password must be at least 8 characters", http.StatusBadRequest)
		case errors.Is(err, user.ErrInvalidEmail):
			respondError(w, "invalid email address", http.StatusBadRequest)
		case errors.Is(err, user.ErrInvalidRole):
			respondError(w, "role must be buyer or seller", http.StatusBadRequest)
		default:
			respondError(w, "failed to register user", http.StatusInternalServerError)
		}
		return
	}

	if _, err := h.wallets.Create(r.Context(), registered.ID); err != nil {
		respondError(w, "failed to create wallet", http.StatusInternalServerError)
		return
	}

	token, err := h.tokens.GenerateToken(registered)
	if err != nil {
		respondError(w, "failed to generate token", http.StatusInternalServerError)
		return
	}

	respondJSON(w, AuthResponse{Token: token, User: userInfo(registered)}, http.StatusCreated)
}

// Login handles user login (POST /auth/login)
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		respondError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	authenticated, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidPassword) {
			respondError(w, "invalid email or password", http.StatusUnauthorized)
			return
		}
		respondError(w, "failed to login", http.StatusInternalServerError)
		return
	}

	token, err := h.tokens.GenerateToken(authenticated)
	if err != nil {
		respondError(w, "failed to generate token", http.StatusInternalServerError)
		return
	}

	respondJSON(w, AuthResponse{Token: token, User: userInfo(authenticated)}, http.StatusOK)
}
