package bonus

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amoralabs/amora/internal/ledger"
	"github.com/amoralabs/amora/pkg/logger"
	"github.com/amoralabs/amora/pkg/metrics"
)

type stubStore struct {
	claimed bool
	streak  int
	err     error
}

func (s *stubStore) Claim(ctx context.Context, userID uuid.UUID, day time.Time) (bool, int, error) {
	return s.claimed, s.streak, s.err
}

func (s *stubStore) Status(ctx context.Context, userID uuid.UUID, day time.Time) (bool, int, error) {
	return s.claimed, s.streak, s.err
}

type recordingLedger struct {
	calls []map[string]interface{}
	err   error
}

func (r *recordingLedger) RecordTransaction(ctx context.Context, transactionType ledger.TransactionType, rawData map[string]interface{}) ([]*ledger.Transaction, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.calls = append(r.calls, rawData)
	return []*ledger.Transaction{{}}, nil
}

type recordingNotifier struct {
	userID uuid.UUID
	amount *big.Int
	streak int
	calls  int
}

func (r *recordingNotifier) DailyBonus(ctx context.Context, userID uuid.UUID, amount *big.Int, streak int) error {
	r.userID = userID
	r.amount = amount
	r.streak = streak
	r.calls++
	return nil
}

func newTestService(store ClaimStore, led Ledger) *Service {
	return NewService(store, led, nil, logger.NewDefault("development"), metrics.NewCollector(), 200, 500, 7)
}

func TestClaim_BaseAmount(t *testing.T) {
	led := &recordingLedger{}
	svc := newTestService(&stubStore{claimed: true, streak: 3}, led)

	result, err := svc.Claim(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(200), result.Amount)
	assert.Equal(t, 3, result.Streak)
	require.Len(t, led.calls, 1)
	assert.Equal(t, "200", led.calls[0]["amount"])
}

func TestClaim_StreakBonusEverySeventhDay(t *testing.T) {
	led := &recordingLedger{}
	svc := newTestService(&stubStore{claimed: true, streak: 7}, led)

	result, err := svc.Claim(context.Background(), uuid.New())
	require.NoError(t, err)
	// 2 LOVE base + 5 LOVE streak bonus
	assert.Equal(t, big.NewInt(700), result.Amount)

	svc = newTestService(&stubStore{claimed: true, streak: 14}, led)
	result, err = svc.Claim(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(700), result.Amount)
}

func TestClaim_NotifiesUser(t *testing.T) {
	led := &recordingLedger{}
	notifier := &recordingNotifier{}
	userID := uuid.New()
	svc := NewService(&stubStore{claimed: true, streak: 7}, led, notifier,
		logger.NewDefault("development"), metrics.NewCollector(), 200, 500, 7)

	_, err := svc.Claim(context.Background(), userID)
	require.NoError(t, err)

	require.Equal(t, 1, notifier.calls)
	assert.Equal(t, userID, notifier.userID)
	assert.Equal(t, 0, notifier.amount.Cmp(big.NewInt(700)))
	assert.Equal(t, 7, notifier.streak)
}

func TestClaim_AlreadyClaimed(t *testing.T) {
	led := &recordingLedger{}
	svc := newTestService(&stubStore{claimed: false, streak: 3}, led)

	_, err := svc.Claim(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
	assert.Empty(t, led.calls)
}

func TestClaim_LedgerFailureSurfaces(t *testing.T) {
	led := &recordingLedger{err: ledger.ErrHandlerNotFound}
	svc := newTestService(&stubStore{claimed: true, streak: 1}, led)

	_, err := svc.Claim(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ledger.ErrHandlerNotFound)
}

func TestGetStatus(t *testing.T) {
	svc := newTestService(&stubStore{claimed: true, streak: 4}, &recordingLedger{})

	status, err := svc.GetStatus(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, status.Claimed)
	assert.Equal(t, 4, status.Streak)
}

func TestHandler_Handle(t *testing.T) {
	h := NewHandler()
	userID := uuid.New()

	txs, err := h.Handle(context.Background(), map[string]interface{}{
		"user_id": userID.String(),
		"amount":  "700",
		"streak":  7,
	})
	require.NoError(t, err)
	require.Len(t, txs, 1)

	tx := txs[0]
	assert.Equal(t, ledger.TxTypeDailyBonus, tx.Type)
	assert.Equal(t, ledger.StatusCompleted, tx.Status)
	assert.Equal(t, "Ежедневный бонус (серия 7)", tx.Description)
	assert.True(t, tx.Type.IsIncoming())
}
