package services

import (
	"context"
	"fmt"
	"time"

	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/ports"
)

// ReportService runs the aggregators over the record store. Income summaries
// are cached until the next write or the cache TTL, whichever comes first.
type ReportService struct {
	incomes      ports.IncomeStore
	transactions ports.TransactionStore
	table        core.ExchangeTable
	summaries    *cache.LRUCache[[]core.PeriodSummary]
	logger       *log.Logger
}

// ReportConfig tunes the summary cache. A zero CacheTTL disables caching.
type ReportConfig struct {
	CacheTTL  time.Duration
	CacheSize int
}

func NewReportService(incomes ports.IncomeStore, transactions ports.TransactionStore, table core.ExchangeTable, cfg ReportConfig, logger *log.Logger) *ReportService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s := &ReportService{
		incomes:      incomes,
		transactions: transactions,
		table:        table,
		logger:       logger.WithComponent(log.ComponentReport),
	}
	if cfg.CacheTTL > 0 {
		size := cfg.CacheSize
		if size <= 0 {
			size = 64
		}
		s.summaries = cache.NewLRUCache[[]core.PeriodSummary](size, cfg.CacheTTL)
	}
	return s
}

// Cache exposes the summary cache for background cleanup, or nil.
func (s *ReportService) Cache() cache.Cleaner {
	if s.summaries == nil {
		return nil
	}
	return s.summaries
}

// Table returns the exchange table reports convert with.
func (s *ReportService) Table() core.ExchangeTable {
	return s.table
}

func (s *ReportService) Invalidate() {
	if s.summaries != nil {
		s.summaries.Clear()
	}
}

// IncomeSummary summarizes the non-template records matching f. Templates
// are always excluded whatever f says.
func (s *ReportService) IncomeSummary(ctx context.Context, f ports.IncomeFilter) ([]core.PeriodSummary, error) {
	f.IsTemplate = ports.NonTemplates
	key := fmt.Sprintf("%s|%d|%d|%d", f.Owner, f.SourceID, f.Year, f.Month)
	if s.summaries != nil {
		if cached, ok := s.summaries.Get(key); ok {
			return cached, nil
		}
	}

	records, err := s.incomes.ListIncomes(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("load income records: %w", err)
	}

	for _, r := range records {
		if !r.Currency.IsBase() && r.ExchangeRate == nil {
			rate, known := s.table.Rate(r.Currency)
			s.logger.WarnContext(ctx, "Income record has no exchange rate, using table rate",
				log.FieldIncomeID, r.ID,
				log.FieldCurrency, r.Currency,
				"rate", rate.String(),
				"rate_known", known)
		}
	}

	periods := core.SummarizeIncome(records, s.table)
	if periods == nil {
		periods = []core.PeriodSummary{}
	}
	if s.summaries != nil {
		s.summaries.Set(key, periods)
	}

	s.logger.DebugContext(ctx, "Income summary built",
		log.FieldOperation, log.OpSummarize,
		"records", len(records),
		"periods", len(periods))
	return periods, nil
}

// TransactionReport is the transaction list together with its summary.
type TransactionReport struct {
	Transactions []core.InvestmentTransaction `json:"transactions"`
	Summary      core.TransactionSummary      `json:"summary"`
}

// TransactionSummary aggregates the transactions matching f.
func (s *ReportService) TransactionSummary(ctx context.Context, f ports.TransactionFilter) (TransactionReport, error) {
	txs, err := s.transactions.ListTransactions(ctx, f)
	if err != nil {
		return TransactionReport{}, fmt.Errorf("load transactions: %w", err)
	}

	summary := core.SummarizeTransactions(txs, s.table)
	for _, c := range summary.UnknownCurrencies() {
		s.logger.WarnContext(ctx, "Currency missing from exchange table, converting at 1",
			log.FieldCurrency, c)
	}
	return TransactionReport{Transactions: txs, Summary: summary}, nil
}
