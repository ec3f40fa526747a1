package referral

import (
	"context"
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amoralabs/amora/internal/ledger"
	"github.com/amoralabs/amora/internal/user"
	"github.com/amoralabs/amora/pkg/logger"
	"github.com/amoralabs/amora/pkg/money"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *mockUserRepo) GetByReferralCode(ctx context.Context, code string) (*user.User, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepo) Exists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) ListReferrals(ctx context.Context, referrerID uuid.UUID) ([]*user.User, error) {
	args := m.Called(ctx, referrerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*user.User), args.Error(1)
}

func (m *mockUserRepo) ExpireVIP(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type recordingLedger struct {
	calls []map[string]interface{}
}

func (r *recordingLedger) RecordTransaction(ctx context.Context, transactionType ledger.TransactionType, rawData map[string]interface{}) ([]*ledger.Transaction, error) {
	r.calls = append(r.calls, rawData)
	return []*ledger.Transaction{{}}, nil
}

func TestCommissionRates(t *testing.T) {
	amount := big.NewInt(100000) // 1000.00 RUB

	c1, err := Commission(amount, 1)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10000), c1)

	c2, err := Commission(amount, 2)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5000), c2)

	c3, err := Commission(amount, 3)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), c3)

	_, err = Commission(amount, 4)
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestPayCommissions_ThreeLevels(t *testing.T) {
	users := new(mockUserRepo)
	led := &recordingLedger{}
	svc := NewService(users, led, nil, logger.NewDefault("development"))

	// A referred B, B referred C, C referred D; D earns
	aID, bID, cID, dID := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	a := &user.User{ID: aID, Name: "A"}
	b := &user.User{ID: bID, Name: "B", ReferrerID: &aID}
	c := &user.User{ID: cID, Name: "C", ReferrerID: &bID}
	d := &user.User{ID: dID, Name: "D", ReferrerID: &cID}

	users.On("GetByID", mock.Anything, dID).Return(d, nil)
	users.On("GetByID", mock.Anything, cID).Return(c, nil)
	users.On("GetByID", mock.Anything, bID).Return(b, nil)
	users.On("GetByID", mock.Anything, aID).Return(a, nil)

	svc.PayCommissions(context.Background(), dID, big.NewInt(100000), money.RUB)

	require.Len(t, led.calls, 3)
	assert.Equal(t, cID.String(), led.calls[0]["user_id"])
	assert.Equal(t, "10000", led.calls[0]["amount"])
	assert.Equal(t, 1, led.calls[0]["level"])
	assert.Equal(t, "D", led.calls[0]["source_name"])

	assert.Equal(t, bID.String(), led.calls[1]["user_id"])
	assert.Equal(t, "5000", led.calls[1]["amount"])

	assert.Equal(t, aID.String(), led.calls[2]["user_id"])
	assert.Equal(t, "1000", led.calls[2]["amount"])
}

func TestPayCommissions_ChainStops(t *testing.T) {
	users := new(mockUserRepo)
	led := &recordingLedger{}
	svc := NewService(users, led, nil, logger.NewDefault("development"))

	aID, bID := uuid.New(), uuid.New()
	a := &user.User{ID: aID, Name: "A"}
	b := &user.User{ID: bID, Name: "B", ReferrerID: &aID}

	users.On("GetByID", mock.Anything, bID).Return(b, nil)
	users.On("GetByID", mock.Anything, aID).Return(a, nil)

	svc.PayCommissions(context.Background(), bID, big.NewInt(100000), money.RUB)

	// only level 1 paid; A has no referrer
	require.Len(t, led.calls, 1)
	assert.Equal(t, aID.String(), led.calls[0]["user_id"])
}

func TestPayCommissions_ZeroCommissionSkipped(t *testing.T) {
	users := new(mockUserRepo)
	led := &recordingLedger{}
	svc := NewService(users, led, nil, logger.NewDefault("development"))

	aID, bID := uuid.New(), uuid.New()
	a := &user.User{ID: aID, Name: "A"}
	b := &user.User{ID: bID, Name: "B", ReferrerID: &aID}

	users.On("GetByID", mock.Anything, bID).Return(b, nil)
	users.On("GetByID", mock.Anything, aID).Return(a, nil)

	// 10% of 5 base units truncates to 0
	svc.PayCommissions(context.Background(), bID, big.NewInt(5), money.RUB)
	assert.Empty(t, led.calls)
}

func TestBuildTree(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewService(users, &recordingLedger{}, nil, logger.NewDefault("development"))

	rootID := uuid.New()
	l1 := &user.User{ID: uuid.New(), Name: "L1"}
	l2 := &user.User{ID: uuid.New(), Name: "L2"}

	users.On("ListReferrals", mock.Anything, rootID).Return([]*user.User{l1}, nil)
	users.On("ListReferrals", mock.Anything, l1.ID).Return([]*user.User{l2}, nil)
	users.On("ListReferrals", mock.Anything, l2.ID).Return([]*user.User{}, nil)

	tree, err := svc.BuildTree(context.Background(), rootID)
	require.NoError(t, err)
	assert.Len(t, tree.Level1, 1)
	assert.Len(t, tree.Level2, 1)
	assert.Empty(t, tree.Level3)
	assert.Equal(t, "L1", tree.Level1[0].Name)
	assert.Equal(t, 2, tree.Level2[0].Level)
}
