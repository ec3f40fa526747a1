package user

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amoralabs/amora/pkg/logger"
)

// mockRepository is a mock implementation of Repository
type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, u *User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockRepository) GetByReferralCode(ctx context.Context, code string) (*User, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockRepository) Update(ctx context.Context, u *User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockRepository) Exists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) ListReferrals(ctx context.Context, referrerID uuid.UUID) ([]*User, error) {
	args := m.Called(ctx, referrerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*User), args.Error(1)
}

func (m *mockRepository) ExpireVIP(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func newTestService(repo Repository) *Service {
	return NewService(repo, logger.NewDefault("development"))
}

func TestRegister_Success(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo)

	repo.On("Exists", mock.Anything, "anna@example.com").Return(false, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*user.User")).Return(nil)

	u, err := svc.Register(context.Background(), "anna@example.com", "password123", "Anna", RoleSeller, "")
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", u.Email)
	assert.Equal(t, RoleSeller, u.Role)
	assert.NotEmpty(t, u.PasswordHash)
	assert.NotEqual(t, "password123", u.PasswordHash)
	assert.True(t, ValidReferralCode(u.ReferralCode))
	assert.Nil(t, u.ReferrerID)
	repo.AssertExpectations(t)
}

func TestRegister_WithReferralCode(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo)

	referrer := &User{ID: uuid.New(), Email: "ref@example.com", Name: "Ref", Role: RoleBuyer}
	repo.On("Exists", mock.Anything, "new@example.com").Return(false, nil)
	repo.On("GetByReferralCode", mock.Anything, "refABCD").Return(referrer, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*user.User")).Return(nil)

	u, err := svc.Register(context.Background(), "new@example.com", "password123", "New", RoleBuyer, "refABCD")
	require.NoError(t, err)
	require.NotNil(t, u.ReferrerID)
	assert.Equal(t, referrer.ID, *u.ReferrerID)
}

func TestRegister_UnknownReferralCodeIgnored(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo)

	repo.On("Exists", mock.Anything, "new@example.com").Return(false, nil)
	repo.On("GetByReferralCode", mock.Anything, "nope1234").Return(nil, ErrUserNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*user.User")).Return(nil)

	u, err := svc.Register(context.Background(), "new@example.com", "password123", "New", RoleBuyer, "nope1234")
	require.NoError(t, err)
	assert.Nil(t, u.ReferrerID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo)

	repo.On("Exists", mock.Anything, "taken@example.com").Return(true, nil)

	_, err := svc.Register(context.Background(), "taken@example.com", "password123", "Taken", RoleBuyer, "")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegister_ShortPassword(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo)

	repo.On("Exists", mock.Anything, "a@example.com").Return(false, nil)

	_, err := svc.Register(context.Background(), "a@example.com", "short", "A", RoleBuyer, "")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo)

	u := &User{ID: uuid.New(), Email: "anna@example.com", Name: "Anna", Role: RoleSeller}
	require.NoError(t, u.SetPassword("password123"))

	repo.On("GetByEmail", mock.Anything, "anna@example.com").Return(u, nil)

	_, err := svc.Login(context.Background(), "anna@example.com", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestLogin_UnknownUserHidden(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo)

	repo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, ErrUserNotFound)

	_, err := svc.Login(context.Background(), "ghost@example.com", "password123")
	// Unknown accounts must look identical to a wrong password
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestIsVIP(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	u := &User{VIPActive: true, VIPExpiresAt: &future}
	assert.True(t, u.IsVIP(now))

	u = &User{VIPActive: true, VIPExpiresAt: &past}
	assert.False(t, u.IsVIP(now))

	u = &User{VIPActive: false, VIPExpiresAt: &future}
	assert.False(t, u.IsVIP(now))
}

func TestGenerateReferralCode_Shape(t *testing.T) {
	id := uuid.New()
	code := generateReferralCode("Анна Smith", id)
	assert.True(t, ValidReferralCode(code), "code %q", code)
	// Cyrillic is stripped, latin part survives
	assert.Contains(t, code, "smith")
	// id slice keeps same-named users apart
	assert.Contains(t, code, strings.ReplaceAll(id.String(), "-", "")[:6])
}

func TestGenerateReferralCode_SameNameDiffers(t *testing.T) {
	a := generateReferralCode("Анна", uuid.New())
	b := generateReferralCode("Анна", uuid.New())
	assert.NotEqual(t, a, b)
}
