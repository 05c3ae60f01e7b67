package services

import (
	"context"
	"fmt"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/ports"
)

// IncomeStore is what IncomeService needs from the record store.
type IncomeStore interface {
	ports.IncomeStore
	ports.SourceStore
}

// IncomeService is the only write path for income records: every save runs
// validation and the payroll calculator before touching the store.
type IncomeService struct {
	store IncomeStore
	notifier
}

func NewIncomeService(store IncomeStore, opts ...Option) *IncomeService {
	return &IncomeService{
		store:    store,
		notifier: newNotifier(log.ComponentIncome, opts),
	}
}

// Save validates r, derives its fund contributions and take-home pay, and
// creates it (ID zero) or updates it.
func (s *IncomeService) Save(ctx context.Context, r core.IncomeRecord) (core.IncomeRecord, error) {
	if err := r.Validate(); err != nil {
		return core.IncomeRecord{}, err
	}
	core.Recompute(&r)

	created := r.ID == 0
	var (
		saved core.IncomeRecord
		err   error
	)
	if created {
		saved, err = s.store.CreateIncome(ctx, r)
	} else {
		saved, err = s.store.UpdateIncome(ctx, r)
	}
	if err != nil {
		return core.IncomeRecord{}, fmt.Errorf("save income record: %w", err)
	}

	s.logger.InfoContext(ctx, "Income record saved",
		log.NewFields().
			WithIncome(saved.ID, saved.Owner, string(saved.Currency), saved.TakeHome.StringFixed(2)).
			WithOperation(opFor(created)).
			ToSlice()...)

	s.changed(ctx, incomeEvent(saved, created))
	return saved, nil
}

func incomeEvent(r core.IncomeRecord, created bool) *amqp.RecordChangedMessage {
	msg := amqp.NewRecordChangedMessage(amqp.KindIncome, r.ID, action(created))
	if !r.Date.IsEmpty() {
		msg.WithPeriod(r.Date.Year(), r.Date.Month())
	}
	return msg
}

func opFor(created bool) string {
	if created {
		return log.OpCreate
	}
	return log.OpUpdate
}

func (s *IncomeService) Get(ctx context.Context, id int64) (core.IncomeRecord, error) {
	return s.store.GetIncome(ctx, id)
}

func (s *IncomeService) List(ctx context.Context, f ports.IncomeFilter) ([]core.IncomeRecord, error) {
	records, err := s.store.ListIncomes(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list income records: %w", err)
	}
	return records, nil
}

func (s *IncomeService) CreateSource(ctx context.Context, src core.Source) (core.Source, error) {
	if err := src.Validate(); err != nil {
		return core.Source{}, err
	}
	return s.store.CreateSource(ctx, src)
}

func (s *IncomeService) ListSources(ctx context.Context) ([]core.Source, error) {
	return s.store.ListSources(ctx)
}
