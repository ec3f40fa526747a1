package transactions

import (
	"bytes"
	"context"
	"encoding/csv"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amoralabs/amora/internal/ledger"
	"github.com/amoralabs/amora/pkg/logger"
	"github.com/amoralabs/amora/pkg/money"
)

type stubReader struct {
	txs     []*ledger.Transaction
	stats   map[money.Currency]*ledger.CurrencyStats
	filters ledger.TransactionFilters
}

func (s *stubReader) GetTransaction(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	for _, tx := range s.txs {
		if tx.ID == id {
			return tx, nil
		}
	}
	return nil, ledger.ErrTransactionNotFound
}

func (s *stubReader) ListTransactions(ctx context.Context, filters ledger.TransactionFilters) ([]*ledger.Transaction, error) {
	s.filters = filters
	return s.txs, nil
}

func (s *stubReader) GetStats(ctx context.Context, userID uuid.UUID) (map[money.Currency]*ledger.CurrencyStats, error) {
	return s.stats, nil
}

func testTx(userID uuid.UUID, txType ledger.TransactionType, amount int64, desc string) *ledger.Transaction {
	return &ledger.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        txType,
		Status:      ledger.StatusCompleted,
		Amount:      big.NewInt(amount),
		Currency:    money.RUB,
		Description: desc,
		CreatedAt:   time.Date(2026, 3, 15, 12, 30, 0, 0, time.UTC),
	}
}

func TestList_FormatsAmountsAndDirections(t *testing.T) {
	userID := uuid.New()
	reader := &stubReader{txs: []*ledger.Transaction{
		testTx(userID, ledger.TxTypeDeposit, 100000, "Пополнение счета RUB"),
		testTx(userID, ledger.TxTypeBookingPayment, 50000, "Оплата встречи с Анна"),
	}}
	svc := NewService(reader, logger.NewDefault("development"))

	items, err := svc.List(context.Background(), userID, Filters{})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "1000", items[0].Amount)
	assert.Equal(t, directionIn, items[0].Direction)
	assert.Equal(t, directionOut, items[1].Direction)

	// filters carry the caller's identity
	require.NotNil(t, reader.filters.UserID)
	assert.Equal(t, userID, *reader.filters.UserID)
	assert.Equal(t, 50, reader.filters.Limit)
}

func TestGet_HidesForeignTransactions(t *testing.T) {
	owner := uuid.New()
	tx := testTx(owner, ledger.TxTypeDeposit, 100, "x")
	reader := &stubReader{txs: []*ledger.Transaction{tx}}
	svc := NewService(reader, logger.NewDefault("development"))

	_, err := svc.Get(context.Background(), tx.ID, uuid.New())
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)

	item, err := svc.Get(context.Background(), tx.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, item.ID)
}

func TestList_RejectsInvertedDateSpan(t *testing.T) {
	svc := NewService(&stubReader{}, logger.NewDefault("development"))

	from := time.Now()
	to := from.Add(-time.Hour)
	_, err := svc.List(context.Background(), uuid.New(), Filters{FromDate: &from, ToDate: &to})
	assert.ErrorIs(t, err, ErrInvalidDateSpan)
}

func TestExportCSV(t *testing.T) {
	userID := uuid.New()
	fee := big.NewInt(10000)
	payout := testTx(userID, ledger.TxTypeBookingReceived, 90000, "Получение оплаты от Иван")
	payout.Fee = fee

	reader := &stubReader{txs: []*ledger.Transaction{
		testTx(userID, ledger.TxTypeDeposit, 100000, "Пополнение счета RUB"),
		testTx(userID, ledger.TxTypeWithdraw, 20000, `Вывод средств на "карту"`),
		payout,
	}}
	svc := NewService(reader, logger.NewDefault("development"))

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &buf, userID, Filters{Limit: 10}))

	// export must not be paginated
	assert.Equal(t, 0, reader.filters.Limit)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, []string{"Дата", "Тип", "Описание", "Сумма", "Валюта", "Статус", "Комиссия"}, records[0])

	deposit := records[1]
	assert.Equal(t, "15.03.2026 12:30:00", deposit[0])
	assert.Equal(t, "deposit", deposit[1])
	assert.Equal(t, "1000", deposit[3])
	assert.Equal(t, "RUB", deposit[4])
	assert.Equal(t, "", deposit[6])

	withdraw := records[2]
	assert.Equal(t, "-200", withdraw[3])
	// quoted field survives the round trip
	assert.Equal(t, `Вывод средств на "карту"`, withdraw[2])

	assert.Equal(t, "100", records[3][6])
}

func TestStats_FormatsPerCurrency(t *testing.T) {
	userID := uuid.New()
	reader := &stubReader{stats: map[money.Currency]*ledger.CurrencyStats{
		money.RUB: {
			Currency:     money.RUB,
			TotalIncome:  big.NewInt(100000),
			TotalExpense: big.NewInt(30000),
			NetBalance:   big.NewInt(70000),
			TotalFees:    big.NewInt(10000),
			Count:        3,
		},
	}}
	svc := NewService(reader, logger.NewDefault("development"))

	entries, err := svc.Stats(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1000", entries[0].Income)
	assert.Equal(t, "700", entries[0].NetBalance)
	assert.Equal(t, 3, entries[0].Count)
}
