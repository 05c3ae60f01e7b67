package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
	"budget/internal/ports"
)

func TestNewFromFilesSeedsSources(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir)
	srcs, err := s.ListSources(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, srcs, "expected defaults when file is missing")

	content := "# header\nAcme\nGlobex\nAcme\n\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed_sources.txt"), []byte(content), 0o644))

	s = NewFromFiles(dir)
	srcs, err = s.ListSources(context.Background())
	require.NoError(t, err)
	require.Len(t, srcs, 2)
	assert.Equal(t, "Acme", srcs[0].Name)
	assert.Equal(t, "Globex", srcs[1].Name)
}

func TestIncomeListOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	s := New()
	acme, err := s.CreateSource(ctx, core.Source{Name: "Acme"})
	require.NoError(t, err)
	beta, err := s.CreateSource(ctx, core.Source{Name: "Beta"})
	require.NoError(t, err)

	add := func(owner string, src core.Source, d core.Date, tmpl bool) {
		t.Helper()
		_, err := s.CreateIncome(ctx, core.IncomeRecord{
			Owner: owner, SourceID: src.ID, Currency: core.LKR, Type: core.Salary,
			Date: d, IsTemplate: tmpl,
		})
		require.NoError(t, err)
	}
	add("u2", acme, core.NewDate(2024, 3, 1), false)
	add("u1", beta, core.NewDate(2024, 3, 5), false)
	add("u1", acme, core.NewDate(2024, 3, 9), false)
	add("u1", acme, core.NewDate(2024, 4, 1), false)
	add("u1", acme, core.Date{}, true)

	all, err := s.ListIncomes(ctx, ports.IncomeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, 4, all[0].Date.Month())
	assert.Equal(t, "u1", all[1].Owner)
	assert.Equal(t, "Acme", all[1].SourceName)
	assert.Equal(t, "Beta", all[2].SourceName)
	assert.Equal(t, "u2", all[3].Owner)
	assert.True(t, all[4].IsTemplate)

	dated, err := s.ListIncomes(ctx, ports.IncomeFilter{IsTemplate: ports.NonTemplates})
	require.NoError(t, err)
	assert.Len(t, dated, 4)

	march, err := s.ListIncomes(ctx, ports.IncomeFilter{Year: 2024, Month: 3, Owner: "u1"})
	require.NoError(t, err)
	assert.Len(t, march, 2)
}

func TestIncomeUnknownSource(t *testing.T) {
	s := New()
	_, err := s.CreateIncome(context.Background(), core.IncomeRecord{SourceID: 42})
	assert.True(t, core.IsValidation(err))
}

func TestIncomeRateIsCopied(t *testing.T) {
	ctx := context.Background()
	s := New()
	src, _ := s.CreateSource(ctx, core.Source{Name: "Acme"})
	rate := decimal.RequireFromString("300")
	r, err := s.CreateIncome(ctx, core.IncomeRecord{SourceID: src.ID, ExchangeRate: &rate})
	require.NoError(t, err)

	rate = decimal.RequireFromString("1")
	got, err := s.GetIncome(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "300", got.ExchangeRate.String())
}

func TestUpdateIncomeNotFound(t *testing.T) {
	_, err := New().UpdateIncome(context.Background(), core.IncomeRecord{ID: 9})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestTransactionsFilter(t *testing.T) {
	ctx := context.Background()
	s := New()
	hnb, err := s.CreateBank(ctx, core.Bank{Name: "HNB", Currency: core.LKR})
	require.NoError(t, err)
	ing, err := s.CreateBank(ctx, core.Bank{Name: "ING", Currency: core.EUR})
	require.NoError(t, err)

	for _, tr := range []core.InvestmentTransaction{
		{Owner: "u1", BankID: hnb.ID, Currency: core.LKR, Type: core.Deposit, Date: core.NewDate(2024, 1, 1)},
		{Owner: "u1", BankID: ing.ID, Currency: core.EUR, Type: core.Withdrawal, Date: core.NewDate(2024, 2, 1)},
	} {
		_, err := s.CreateTransaction(ctx, tr)
		require.NoError(t, err)
	}

	all, err := s.ListTransactions(ctx, ports.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ING", all[0].BankName)

	eur, err := s.ListTransactions(ctx, ports.TransactionFilter{Currency: core.EUR})
	require.NoError(t, err)
	assert.Len(t, eur, 1)

	dep, err := s.ListTransactions(ctx, ports.TransactionFilter{Type: core.Deposit, BankID: hnb.ID})
	require.NoError(t, err)
	assert.Len(t, dep, 1)

	_, err = s.CreateTransaction(ctx, core.InvestmentTransaction{BankID: 999})
	assert.True(t, core.IsValidation(err))
}

func TestVehicleServices(t *testing.T) {
	ctx := context.Background()
	s := New()
	car, err := s.CreateVehicle(ctx, core.Vehicle{Name: "Corolla", PlateNumber: "CAB-1234"})
	require.NoError(t, err)
	shop, err := s.CreateShop(ctx, core.Shop{Name: "Parts Ltd"})
	require.NoError(t, err)

	older, err := s.CreateService(ctx, core.VehicleService{
		VehicleID: car.ID, ServiceDate: core.NewDate(2024, 1, 5),
		ServiceType: core.ServiceRepair, Description: "brakes",
		Cost: decimal.NewFromInt(5000),
		Parts: []core.ServicePart{
			{ShopID: shop.ID, PartName: "pads", Quantity: 2, TotalCost: decimal.NewFromInt(1200)},
		},
	})
	require.NoError(t, err)
	require.Len(t, older.Parts, 1)
	assert.Equal(t, "Corolla", older.VehicleName)
	assert.Equal(t, "Parts Ltd", older.Parts[0].ShopName)

	_, err = s.AddPart(ctx, core.ServicePart{
		ServiceID: older.ID, ShopID: shop.ID, PartName: "fluid", Quantity: 1,
		TotalCost: decimal.NewFromInt(300),
	})
	require.NoError(t, err)
	_, err = s.AddDocument(ctx, core.ServiceDocument{ServiceID: older.ID, FileName: "invoice.pdf"})
	require.NoError(t, err)

	_, err = s.CreateService(ctx, core.VehicleService{
		VehicleID: car.ID, ServiceDate: core.NewDate(2024, 6, 1),
		ServiceType: core.ServiceOilChange, Description: "oil",
	})
	require.NoError(t, err)

	list, err := s.ListServices(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 6, list[0].ServiceDate.Month())
	assert.Empty(t, list[0].Parts)

	got, err := s.GetService(ctx, older.ID)
	require.NoError(t, err)
	assert.Len(t, got.Parts, 2)
	assert.Len(t, got.Documents, 1)
	assert.Equal(t, "6500", got.GrandTotal().String())

	_, err = s.AddPart(ctx, core.ServicePart{ServiceID: 999, ShopID: shop.ID, PartName: "x", Quantity: 1})
	assert.ErrorIs(t, err, core.ErrNotFound)
}
