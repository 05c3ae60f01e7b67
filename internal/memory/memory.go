// Package memory is a process-local Store used for development and tests.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"budget/internal/core"
	"budget/internal/ports"
)

var _ ports.Store = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	nextID int64

	sources      []core.Source
	incomes      []core.IncomeRecord
	banks        []core.Bank
	transactions []core.InvestmentTransaction
	vehicles     []core.Vehicle
	garages      []core.Garage
	shops        []core.Shop
	services     []core.VehicleService
	parts        []core.ServicePart
	documents    []core.ServiceDocument
}

func New() *Store {
	return &Store{}
}

// NewFromFiles seeds income sources from base/seed_sources.txt, one name per
// line. Blank lines and lines starting with # are skipped.
func NewFromFiles(base string) *Store {
	s := New()
	names := readLines(filepath.Join(base, "seed_sources.txt"))
	if len(names) == 0 {
		names = []string{"Salary", "Freelance"}
	}
	for _, n := range names {
		_, _ = s.CreateSource(context.Background(), core.Source{Name: n})
	}
	return s
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Sources

func (s *Store) CreateSource(_ context.Context, src core.Source) (core.Source, error) {
	if err := src.Validate(); err != nil {
		return core.Source{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	src.ID = s.id()
	s.sources = append(s.sources, src)
	return src, nil
}

func (s *Store) GetSource(_ context.Context, id int64) (core.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source(id)
}

func (s *Store) source(id int64) (core.Source, error) {
	for _, src := range s.sources {
		if src.ID == id {
			return src, nil
		}
	}
	return core.Source{}, core.ErrNotFound
}

func (s *Store) ListSources(context.Context) ([]core.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Source(nil), s.sources...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Incomes

func (s *Store) CreateIncome(_ context.Context, r core.IncomeRecord) (core.IncomeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, err := s.source(r.SourceID)
	if err != nil {
		return core.IncomeRecord{}, core.NewValidationError("source_id", "unknown source %d", r.SourceID)
	}
	r.ID = s.id()
	r.SourceName = src.Name
	r.ExchangeRate = copyRate(r.ExchangeRate)
	s.incomes = append(s.incomes, r)
	return r, nil
}

func (s *Store) UpdateIncome(_ context.Context, r core.IncomeRecord) (core.IncomeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.incomes {
		if s.incomes[i].ID != r.ID {
			continue
		}
		src, err := s.source(r.SourceID)
		if err != nil {
			return core.IncomeRecord{}, core.NewValidationError("source_id", "unknown source %d", r.SourceID)
		}
		r.SourceName = src.Name
		r.ExchangeRate = copyRate(r.ExchangeRate)
		s.incomes[i] = r
		return r, nil
	}
	return core.IncomeRecord{}, core.ErrNotFound
}

func (s *Store) GetIncome(_ context.Context, id int64) (core.IncomeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.incomes {
		if r.ID == id {
			r.ExchangeRate = copyRate(r.ExchangeRate)
			return r, nil
		}
	}
	return core.IncomeRecord{}, core.ErrNotFound
}

func (s *Store) ListIncomes(_ context.Context, f ports.IncomeFilter) ([]core.IncomeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.IncomeRecord, 0, len(s.incomes))
	for _, r := range s.incomes {
		if !matchIncome(r, f) {
			continue
		}
		r.ExchangeRate = copyRate(r.ExchangeRate)
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return incomeLess(out[i], out[j]) })
	return out, nil
}

func matchIncome(r core.IncomeRecord, f ports.IncomeFilter) bool {
	if f.Owner != "" && r.Owner != f.Owner {
		return false
	}
	if f.SourceID != 0 && r.SourceID != f.SourceID {
		return false
	}
	if f.IsTemplate != nil && r.IsTemplate != *f.IsTemplate {
		return false
	}
	if f.Year != 0 && (r.Date.IsEmpty() || r.Date.Year() != f.Year) {
		return false
	}
	if f.Month != 0 && (r.Date.IsEmpty() || r.Date.Month() != f.Month) {
		return false
	}
	return true
}

// incomeLess orders by year and month descending, then owner and source name.
// Undated records sort last.
func incomeLess(a, b core.IncomeRecord) bool {
	if a.Date.IsEmpty() != b.Date.IsEmpty() {
		return b.Date.IsEmpty()
	}
	if !a.Date.IsEmpty() {
		ap := a.Date.Year()*100 + a.Date.Month()
		bp := b.Date.Year()*100 + b.Date.Month()
		if ap != bp {
			return ap > bp
		}
	}
	if a.Owner != b.Owner {
		return a.Owner < b.Owner
	}
	if a.SourceName != b.SourceName {
		return a.SourceName < b.SourceName
	}
	return a.ID < b.ID
}

// Banks and transactions

func (s *Store) CreateBank(_ context.Context, b core.Bank) (core.Bank, error) {
	if err := b.Validate(); err != nil {
		return core.Bank{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.id()
	s.banks = append(s.banks, b)
	return b, nil
}

func (s *Store) GetBank(_ context.Context, id int64) (core.Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bank(id)
}

func (s *Store) bank(id int64) (core.Bank, error) {
	for _, b := range s.banks {
		if b.ID == id {
			return b, nil
		}
	}
	return core.Bank{}, core.ErrNotFound
}

func (s *Store) ListBanks(context.Context) ([]core.Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Bank(nil), s.banks...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.InvestmentTransaction) (core.InvestmentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.bank(t.BankID)
	if err != nil {
		return core.InvestmentTransaction{}, core.NewValidationError("bank_id", "unknown bank %d", t.BankID)
	}
	t.ID = s.id()
	t.BankName = b.Name
	s.transactions = append(s.transactions, t)
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.InvestmentTransaction) (core.InvestmentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID != t.ID {
			continue
		}
		b, err := s.bank(t.BankID)
		if err != nil {
			return core.InvestmentTransaction{}, core.NewValidationError("bank_id", "unknown bank %d", t.BankID)
		}
		t.BankName = b.Name
		s.transactions[i] = t
		return t, nil
	}
	return core.InvestmentTransaction{}, core.ErrNotFound
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.InvestmentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return core.InvestmentTransaction{}, core.ErrNotFound
}

func (s *Store) ListTransactions(_ context.Context, f ports.TransactionFilter) ([]core.InvestmentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.InvestmentTransaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		if f.Owner != "" && t.Owner != f.Owner {
			continue
		}
		if f.BankID != 0 && t.BankID != f.BankID {
			continue
		}
		if f.Currency != "" && t.Currency != f.Currency {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func copyRate(r *decimal.Decimal) *decimal.Decimal {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	seen := map[string]struct{}{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
