// Package ports declares the record store the services depend on. The sqlite
// repository and the in-memory store both satisfy Store.
package ports

import (
	"context"

	"budget/internal/core"
)

type (
	// IncomeFilter narrows ListIncomes. Zero values match everything.
	IncomeFilter struct {
		Owner      string
		SourceID   int64
		IsTemplate *bool
		Year       int
		Month      int
	}

	// TransactionFilter narrows ListTransactions. Zero values match
	// everything.
	TransactionFilter struct {
		Owner    string
		BankID   int64
		Currency core.Currency
		Type     core.TransactionType
	}
)

// Templates and NonTemplates are ready-made IsTemplate values.
var (
	templates    = true
	nonTemplates = false

	Templates    = &templates
	NonTemplates = &nonTemplates
)

// Ports for outbound adapters.
type (
	SourceStore interface {
		CreateSource(ctx context.Context, s core.Source) (core.Source, error)
		GetSource(ctx context.Context, id int64) (core.Source, error)
		ListSources(ctx context.Context) ([]core.Source, error)
	}

	// IncomeStore persists income records as given; deriving the computed
	// fields is the caller's job. List results are ordered newest month
	// first, then by owner and source name, with undated templates last.
	IncomeStore interface {
		CreateIncome(ctx context.Context, r core.IncomeRecord) (core.IncomeRecord, error)
		UpdateIncome(ctx context.Context, r core.IncomeRecord) (core.IncomeRecord, error)
		GetIncome(ctx context.Context, id int64) (core.IncomeRecord, error)
		ListIncomes(ctx context.Context, f IncomeFilter) ([]core.IncomeRecord, error)
	}

	BankStore interface {
		CreateBank(ctx context.Context, b core.Bank) (core.Bank, error)
		GetBank(ctx context.Context, id int64) (core.Bank, error)
		ListBanks(ctx context.Context) ([]core.Bank, error)
	}

	// TransactionStore lists transactions newest first.
	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.InvestmentTransaction) (core.InvestmentTransaction, error)
		UpdateTransaction(ctx context.Context, t core.InvestmentTransaction) (core.InvestmentTransaction, error)
		GetTransaction(ctx context.Context, id int64) (core.InvestmentTransaction, error)
		ListTransactions(ctx context.Context, f TransactionFilter) ([]core.InvestmentTransaction, error)
	}

	// VehicleStore keeps vehicles, their service visits and the garages and
	// shops referenced by them. Services come back with parts and documents
	// loaded, ordered by service date descending.
	VehicleStore interface {
		CreateVehicle(ctx context.Context, v core.Vehicle) (core.Vehicle, error)
		ListVehicles(ctx context.Context) ([]core.Vehicle, error)
		CreateGarage(ctx context.Context, g core.Garage) (core.Garage, error)
		ListGarages(ctx context.Context) ([]core.Garage, error)
		CreateShop(ctx context.Context, s core.Shop) (core.Shop, error)
		ListShops(ctx context.Context) ([]core.Shop, error)

		CreateService(ctx context.Context, s core.VehicleService) (core.VehicleService, error)
		GetService(ctx context.Context, id int64) (core.VehicleService, error)
		ListServices(ctx context.Context, vehicleID int64) ([]core.VehicleService, error)
		AddPart(ctx context.Context, p core.ServicePart) (core.ServicePart, error)
		AddDocument(ctx context.Context, d core.ServiceDocument) (core.ServiceDocument, error)
	}

	// Store is the full record store.
	Store interface {
		SourceStore
		IncomeStore
		BankStore
		TransactionStore
		VehicleStore
		Ping(ctx context.Context) error
	}
)
