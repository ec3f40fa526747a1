package notification

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amoralabs/amora/pkg/logger"
	"github.com/amoralabs/amora/pkg/money"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, n *Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Notification), args.Error(1)
}

func (m *mockRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Notification), args.Error(1)
}

func (m *mockRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

type stubPublisher struct {
	published []*Notification
	err       error
}

func (s *stubPublisher) Publish(ctx context.Context, n *Notification) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, n)
	return nil
}

func TestPush_StoresAndPublishes(t *testing.T) {
	repo := new(mockRepository)
	pub := &stubPublisher{}
	svc := NewService(repo, pub, logger.NewDefault("development"))

	userID := uuid.New()
	repo.On("Create", mock.Anything, mock.AnythingOfType("*notification.Notification")).Return(nil)

	n := &Notification{UserID: userID, Type: TypeSystem, Title: "t", Text: "x"}
	require.NoError(t, svc.Push(context.Background(), n))

	assert.NotEqual(t, uuid.Nil, n.ID)
	assert.False(t, n.CreatedAt.IsZero())
	require.Len(t, pub.published, 1)
}

func TestPush_PublishFailureIsNotFatal(t *testing.T) {
	repo := new(mockRepository)
	pub := &stubPublisher{err: errors.New("redis down")}
	svc := NewService(repo, pub, logger.NewDefault("development"))

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	err := svc.Push(context.Background(), &Notification{UserID: uuid.New(), Type: TypeSystem})
	assert.NoError(t, err)
}

func TestMarkRead_OwnershipCheck(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, nil, logger.NewDefault("development"))

	owner := uuid.New()
	stranger := uuid.New()
	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(&Notification{ID: id, UserID: owner}, nil)

	err := svc.MarkRead(context.Background(), id, stranger)
	assert.ErrorIs(t, err, ErrUnauthorized)
	repo.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything)
}

func TestReferralEarning_BuildsNotification(t *testing.T) {
	repo := new(mockRepository)
	pub := &stubPublisher{}
	svc := NewService(repo, pub, logger.NewDefault("development"))

	var stored *Notification
	repo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*Notification)
	}).Return(nil)

	userID := uuid.New()
	err := svc.ReferralEarning(context.Background(), userID, big.NewInt(10000), money.RUB, 1)
	require.NoError(t, err)

	require.NotNil(t, stored)
	assert.Equal(t, TypeReferral, stored.Type)
	assert.Equal(t, big.NewInt(10000), stored.Amount)
	require.NotNil(t, stored.ReferralLevel)
	assert.Equal(t, 1, *stored.ReferralLevel)
	assert.Contains(t, stored.Text, "100 RUB")
}

func TestDailyBonus_BuildsNotification(t *testing.T) {
	repo := new(mockRepository)
	pub := &stubPublisher{}
	svc := NewService(repo, pub, logger.NewDefault("development"))

	var stored *Notification
	repo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*Notification)
	}).Return(nil)

	userID := uuid.New()
	err := svc.DailyBonus(context.Background(), userID, big.NewInt(700), 7)
	require.NoError(t, err)

	require.NotNil(t, stored)
	assert.Equal(t, TypeBonus, stored.Type)
	assert.Equal(t, money.LOVE, stored.Currency)
	assert.Equal(t, big.NewInt(700), stored.Amount)
	assert.Contains(t, stored.Text, "7 LOVE")
	assert.Contains(t, stored.Text, "серия 7")
}

func TestTipReceived_BuildsNotification(t *testing.T) {
	repo := new(mockRepository)
	pub := &stubPublisher{}
	svc := NewService(repo, pub, logger.NewDefault("development"))

	var stored *Notification
	repo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*Notification)
	}).Return(nil)

	userID := uuid.New()
	err := svc.TipReceived(context.Background(), userID, big.NewInt(50000), money.RUB, "Иван")
	require.NoError(t, err)

	require.NotNil(t, stored)
	assert.Equal(t, TypeTip, stored.Type)
	assert.Contains(t, stored.Text, "Иван")
	assert.Contains(t, stored.Text, "500 RUB")
}

func TestList_ClampsLimit(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, nil, logger.NewDefault("development"))

	userID := uuid.New()
	repo.On("ListByUser", mock.Anything, userID, 50, 0).Return([]*Notification{}, nil)

	_, err := svc.List(context.Background(), userID, 0, 0)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
