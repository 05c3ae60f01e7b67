package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/memory"
	"budget/internal/services"
)

type fakeWriter struct {
	mu           sync.Mutex
	summaries    [][]core.PeriodSummary
	transactions [][]core.InvestmentTransaction
	err          error
}

func (f *fakeWriter) WriteIncomeSummary(_ context.Context, periods []core.PeriodSummary) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.summaries = append(f.summaries, periods)
	return "Summary!A1:G2", nil
}

func (f *fakeWriter) WriteTransactions(_ context.Context, txs []core.InvestmentTransaction, _ core.TransactionSummary) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.transactions = append(f.transactions, txs)
	return "Transactions!A1:G2", nil
}

func setup(t *testing.T, writer *fakeWriter) *ExportWorker {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	src, err := store.CreateSource(ctx, core.Source{Name: "Acme"})
	require.NoError(t, err)
	_, err = store.CreateIncome(ctx, core.IncomeRecord{
		Owner: "u1", SourceID: src.ID, Currency: core.LKR, Type: core.Bonus,
		Date: core.NewDate(2024, 3, 1), TakeHome: decimal.RequireFromString("100"),
	})
	require.NoError(t, err)
	bank, err := store.CreateBank(ctx, core.Bank{Name: "HNB", Currency: core.LKR})
	require.NoError(t, err)
	_, err = store.CreateTransaction(ctx, core.InvestmentTransaction{
		Owner: "u1", BankID: bank.ID, Currency: core.LKR, Type: core.Deposit,
		Amount: decimal.RequireFromString("10"), Date: core.NewDate(2024, 3, 2),
	})
	require.NoError(t, err)

	reports := services.NewReportService(store, store, core.DefaultExchangeTable(), services.ReportConfig{}, nil)
	return NewExportWorker(reports, writer, 0, nil)
}

func TestHandleRecordChangedRoutesByKind(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		kind             amqp.RecordKind
		wantSummaries    int
		wantTransactions int
	}{
		{amqp.KindIncome, 1, 0},
		{amqp.KindTransaction, 0, 1},
		{amqp.KindVehicleService, 0, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			writer := &fakeWriter{}
			w := setup(t, writer)
			err := w.HandleRecordChanged(ctx, amqp.NewRecordChangedMessage(tt.kind, 1, amqp.ActionCreated))
			require.NoError(t, err)
			assert.Len(t, writer.summaries, tt.wantSummaries)
			assert.Len(t, writer.transactions, tt.wantTransactions)
		})
	}
}

func TestExportAll(t *testing.T) {
	writer := &fakeWriter{}
	w := setup(t, writer)

	require.NoError(t, w.ExportAll(context.Background()))
	require.Len(t, writer.summaries, 1)
	require.Len(t, writer.summaries[0], 1)
	assert.True(t, writer.summaries[0][0].TotalIncome.Equal(decimal.RequireFromString("100")))
	require.Len(t, writer.transactions, 1)
	assert.Len(t, writer.transactions[0], 1)
}

func TestExportErrorsPropagate(t *testing.T) {
	writer := &fakeWriter{err: errors.New("quota exceeded")}
	w := setup(t, writer)

	err := w.HandleRecordChanged(context.Background(), amqp.NewRecordChangedMessage(amqp.KindIncome, 1, amqp.ActionUpdated))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	assert.Error(t, w.Job().Run())
	assert.Equal(t, "sheets-export", w.Job().Name())

	// Startup failures are only logged.
	w.StartupExport(context.Background())
}
