package services

import (
	"context"
	"fmt"
	"time"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/ports"
)

type TransactionStore interface {
	ports.TransactionStore
	ports.BankStore
}

// TransactionService saves investment transactions with their sign normalized
// and their date set to the day of the save.
type TransactionService struct {
	store TransactionStore
	now   func() time.Time
	notifier
}

func NewTransactionService(store TransactionStore, opts ...Option) *TransactionService {
	return &TransactionService{
		store:    store,
		now:      time.Now,
		notifier: newNotifier(log.ComponentInvestment, opts),
	}
}

// Save creates (ID zero) or updates t. The date is refreshed on every save.
func (s *TransactionService) Save(ctx context.Context, t core.InvestmentTransaction) (core.InvestmentTransaction, error) {
	if t.Currency == "" {
		t.Currency = core.BaseCurrency
	}
	if t.Type == "" {
		t.Type = core.Deposit
	}
	if err := t.Validate(); err != nil {
		return core.InvestmentTransaction{}, err
	}
	t.Normalize()
	t.Amount = core.Round2(t.Amount)
	t.Date = core.DateOf(s.now())

	created := t.ID == 0
	var (
		saved core.InvestmentTransaction
		err   error
	)
	if created {
		saved, err = s.store.CreateTransaction(ctx, t)
	} else {
		saved, err = s.store.UpdateTransaction(ctx, t)
	}
	if err != nil {
		return core.InvestmentTransaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction saved",
		log.FieldTxID, saved.ID,
		log.FieldOwner, saved.Owner,
		log.FieldAmount, saved.Amount.StringFixed(2),
		log.FieldCurrency, saved.Currency,
		log.FieldOperation, opFor(created))

	s.changed(ctx, amqp.NewRecordChangedMessage(amqp.KindTransaction, saved.ID, action(created)))
	return saved, nil
}

func (s *TransactionService) Get(ctx context.Context, id int64) (core.InvestmentTransaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func (s *TransactionService) List(ctx context.Context, f ports.TransactionFilter) ([]core.InvestmentTransaction, error) {
	txs, err := s.store.ListTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *TransactionService) CreateBank(ctx context.Context, b core.Bank) (core.Bank, error) {
	if b.Currency == "" {
		b.Currency = core.BaseCurrency
	}
	if err := b.Validate(); err != nil {
		return core.Bank{}, err
	}
	return s.store.CreateBank(ctx, b)
}

func (s *TransactionService) ListBanks(ctx context.Context) ([]core.Bank, error) {
	return s.store.ListBanks(ctx)
}
