package user

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Role determines which side of the marketplace a user acts on.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// IsValid checks if the role is a known marketplace role
func (r Role) IsValid() bool {
	return r == RoleBuyer || r == RoleSeller
}

// User represents a marketplace account.
// Balances are not stored here; they live in the wallet package and are
// derived from the transaction ledger.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	Role         Role
	PasswordHash string

	// VIP subscription state. VIPExpiresAt is nil for non-VIP users.
	VIPActive    bool
	VIPExpiresAt *time.Time

	// Referral linkage. ReferralCode is unique per user; ReferrerID points
	// at the user whose code was used during registration.
	ReferralCode string
	ReferrerID   *uuid.UUID

	// Seller profile fields
	PricePerHour   int64 // base units of RUB
	Rating         float64
	CompletedDeals int

	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt *time.Time
}

// Validate validates the user
func (u *User) Validate() error {
	if err := u.ValidateEmail(); err != nil {
		return err
	}

	if u.Name == "" {
		return ErrInvalidName
	}

	if !u.Role.IsValid() {
		return ErrInvalidRole
	}

	if u.PasswordHash == "" {
		return ErrInvalidPasswordHash
	}

	return nil
}

// ValidateEmail validates only the email field
func (u *User) ValidateEmail() error {
	if u.Email == "" {
		return ErrInvalidEmail
	}

	if !isValidEmail(u.Email) {
		return ErrInvalidEmail
	}

	return nil
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword checks if the provided password matches the stored hash
func (u *User) CheckPassword(password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	if err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return ErrInvalidPassword
		}
		return fmt.Errorf("failed to check password: %w", err)
	}
	return nil
}

// UpdateLastLogin updates the last login timestamp
func (u *User) UpdateLastLogin() {
	now := time.Now()
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

// IsVIP reports whether the user currently has an active VIP subscription.
// An expired subscription counts as inactive even if the flag was never
// cleared by the expiry sweep.
func (u *User) IsVIP(now time.Time) bool {
	if !u.VIPActive || u.VIPExpiresAt == nil {
		return false
	}
	return u.VIPExpiresAt.After(now)
}

// isValidEmail checks if the email format is valid
func isValidEmail(email string) bool {
	// RFC 5322 compliant email validation (simplified)
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(email)
}
