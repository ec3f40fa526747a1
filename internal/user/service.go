package user

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/pkg/logger"
)

// Service handles user business logic
type Service struct {
	repo Repository
	log  *logger.Logger
}

// NewService creates a new user service
func NewService(repo Repository, log *logger.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// Register registers a new user.
// referralCode, if non-empty, links the new account to the code's owner.
// An unknown code is ignored rather than failing registration.
func (s *Service) Register(ctx context.Context, email, password, name string, role Role, referralCode string) (*User, error) {
	if email == "" {
		return nil, ErrInvalidEmail
	}

	exists, err := s.repo.Exists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check if user exists: %w", err)
	}

	if exists {
		return nil, ErrUserAlreadyExists
	}

	user := &User{
		ID:        uuid.New(),
		Email:     email,
		Name:      name,
		Role:      role,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := user.SetPassword(password); err != nil {
		return nil, err
	}

	user.ReferralCode = generateReferralCode(name, user.ID)

	if referralCode != "" {
		referrer, err := s.repo.GetByReferralCode(ctx, referralCode)
		switch {
		case err == ErrUserNotFound:
			s.log.WithContext(ctx).Warn("unknown referral code ignored", "code", referralCode)
		case err != nil:
			return nil, fmt.Errorf("failed to resolve referral code: %w", err)
		default:
			user.ReferrerID = &referrer.ID
		}
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user with email and password
// Returns the user if authentication succeeds
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if err == ErrUserNotFound {
			// Don't reveal that the user doesn't exist
			return nil, ErrInvalidPassword
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := user.CheckPassword(password); err != nil {
		return nil, err
	}

	// Update last login timestamp
	user.UpdateLastLogin()
	if err := s.repo.Update(ctx, user); err != nil {
		// Non-critical, don't fail the login
		s.log.WithContext(ctx).WithError(err).Warn("failed to update last login")
	}

	return user, nil
}

// GetByID retrieves a user by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail retrieves a user by email
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// GetByReferralCode retrieves a user by referral code
func (s *Service) GetByReferralCode(ctx context.Context, code string) (*User, error) {
	return s.repo.GetByReferralCode(ctx, code)
}

// generateReferralCode builds a unique, human-readable referral code
// from the user's name, a slice of their id, and a random suffix,
// e.g. "anna3f2b9c7F3K". The id component keeps same-named users from
// colliding on the codes' unique index.
func generateReferralCode(name string, id uuid.UUID) string {
	clean := strings.ToLower(strings.ReplaceAll(name, " ", ""))
	// Keep only ASCII alphanumerics so the code survives URL query strings
	var b strings.Builder
	for _, r := range clean {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	clean = b.String()
	if len(clean) > 12 {
		clean = clean[:12]
	}

	idPart := strings.ReplaceAll(id.String(), "-", "")[:6]

	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	suffix := make([]byte, 4)
	randomBytes := make([]byte, 4)
	_, _ = rand.Read(randomBytes)
	for i, rb := range randomBytes {
		suffix[i] = alphabet[int(rb)%len(alphabet)]
	}

	return clean + idPart + string(suffix)
}

// ValidReferralCode reports whether a code has the shape our codes use.
// Used to reject garbage before hitting the database.
func ValidReferralCode(code string) bool {
	if len(code) < 4 {
		return false
	}
	for _, r := range code {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
