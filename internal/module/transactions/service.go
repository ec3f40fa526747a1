package transactions

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/amoralabs/amora/internal/ledger"
	"github.com/amoralabs/amora/pkg/logger"
	"github.com/amoralabs/amora/pkg/money"
)

// Reader is the slice of the ledger this module needs
type Reader interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error)
	ListTransactions(ctx context.Context, filters ledger.TransactionFilters) ([]*ledger.Transaction, error)
	GetStats(ctx context.Context, userID uuid.UUID) (map[money.Currency]*ledger.CurrencyStats, error)
}

// Service exposes a user-facing view of the transaction history:
// filtered listings with display amounts, per-currency statistics and
// CSV export.
type Service struct {
	reader Reader
	log    *logger.Logger
}

// NewService creates a new transactions service
func NewService(reader Reader, log *logger.Logger) *Service {
	return &Service{reader: reader, log: log}
}

// List returns the user's transaction history, newest first
func (s *Service) List(ctx context.Context, userID uuid.UUID, f Filters) ([]*Item, error) {
	txs, err := s.list(ctx, userID, f)
	if err != nil {
		return nil, err
	}

	items := make([]*Item, 0, len(txs))
	for _, tx := range txs {
		items = append(items, newItem(tx))
	}
	return items, nil
}

// Get returns a single transaction, verifying ownership
func (s *Service) Get(ctx context.Context, id, userID uuid.UUID) (*Item, error) {
	tx, err := s.reader.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.UserID != userID {
		return nil, ledger.ErrTransactionNotFound
	}
	return newItem(tx), nil
}

// Stats returns per-currency income/expense/fee totals with amounts
// formatted in decimal units
type StatsEntry struct {
	Currency   money.Currency `json:"currency"`
	Income     string         `json:"income"`
	Expense    string         `json:"expense"`
	Fees       string         `json:"fees"`
	NetBalance string         `json:"net_balance"`
	Count      int            `json:"count"`
}

func (s *Service) Stats(ctx context.Context, userID uuid.UUID) ([]*StatsEntry, error) {
	stats, err := s.reader.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries := make([]*StatsEntry, 0, len(stats))
	for _, cur := range money.SupportedCurrencies() {
		cs, ok := stats[cur]
		if !ok {
			continue
		}
		entries = append(entries, &StatsEntry{
			Currency:   cur,
			Income:     money.FromBaseUnits(cs.TotalIncome, cur),
			Expense:    money.FromBaseUnits(cs.TotalExpense, cur),
			Fees:       money.FromBaseUnits(cs.TotalFees, cur),
			NetBalance: money.FromBaseUnits(cs.NetBalance, cur),
			Count:      cs.Count,
		})
	}
	return entries, nil
}

// csvHeader is the first row of every export
var csvHeader = []string{"Дата", "Тип", "Описание", "Сумма", "Валюта", "Статус", "Комиссия"}

// ExportCSV streams the user's transaction history as CSV. Amounts are
// signed decimal values; outgoing transactions are negative.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, userID uuid.UUID, f Filters) error {
	// Export ignores pagination: the whole filtered history goes out
	f.Limit = 0
	f.Offset = 0

	txs, err := s.list(ctx, userID, f)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, tx := range txs {
		amount := money.FromBaseUnits(tx.Amount, tx.Currency)
		if !tx.Type.IsIncoming() {
			amount = "-" + amount
		}

		fee := ""
		if tx.Fee != nil {
			fee = money.FromBaseUnits(tx.Fee, tx.Currency)
		}

		record := []string{
			tx.CreatedAt.Format("02.01.2006 15:04:05"),
			string(tx.Type),
			tx.Description,
			amount,
			string(tx.Currency),
			string(tx.Status),
			fee,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func (s *Service) list(ctx context.Context, userID uuid.UUID, f Filters) ([]*ledger.Transaction, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidUserID
	}
	if f.FromDate != nil && f.ToDate != nil && f.FromDate.After(*f.ToDate) {
		return nil, ErrInvalidDateSpan
	}

	limit := f.Limit
	if limit < 0 || limit > 200 {
		limit = 50
	}

	return s.reader.ListTransactions(ctx, ledger.TransactionFilters{
		UserID:   &userID,
		Type:     f.Type,
		Status:   f.Status,
		Currency: f.Currency,
		FromDate: f.FromDate,
		ToDate:   f.ToDate,
		Limit:    limit,
		Offset:   f.Offset,
	})
}
