package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/ports"
)

type (
	InstantiateRequest struct {
		TemplateID int64
		Date       core.Date
		// ExchangeRate overrides the template's rate when set.
		ExchangeRate *decimal.Decimal
	}

	InstantiateResult struct {
		ID            int64
		TemplateLabel string
		Message       string
		Record        core.IncomeRecord
	}
)

// TemplateGenerator clones template income records into dated records.
type TemplateGenerator struct {
	store     ports.IncomeStore
	incomes   *IncomeService
	recompute bool
	notifier
}

// NewTemplateGenerator builds a generator. With recompute set, clones go
// through incomes.Save and are validated and recomputed; otherwise the
// template's derived amounts are copied as they are.
func NewTemplateGenerator(store ports.IncomeStore, incomes *IncomeService, recompute bool, opts ...Option) *TemplateGenerator {
	return &TemplateGenerator{
		store:     store,
		incomes:   incomes,
		recompute: recompute,
		notifier:  newNotifier(log.ComponentTemplate, opts),
	}
}

// Templates lists the records that can be instantiated.
func (g *TemplateGenerator) Templates(ctx context.Context) ([]core.IncomeRecord, error) {
	return g.store.ListIncomes(ctx, ports.IncomeFilter{IsTemplate: ports.Templates})
}

// Instantiate copies the template named by req into a new non-template record
// dated req.Date.
func (g *TemplateGenerator) Instantiate(ctx context.Context, req InstantiateRequest) (InstantiateResult, error) {
	if req.TemplateID <= 0 {
		return InstantiateResult{}, core.NewValidationError("template_id", "template is required")
	}
	if req.Date.IsEmpty() {
		return InstantiateResult{}, core.NewValidationError("date", "date is required")
	}
	if err := req.Date.Validate(); err != nil {
		return InstantiateResult{}, core.NewValidationError("date", "%v", err)
	}
	if req.ExchangeRate != nil && !req.ExchangeRate.IsPositive() {
		return InstantiateResult{}, core.NewValidationError("exchange_rate", "exchange rate must be positive")
	}

	tmpl, err := g.store.GetIncome(ctx, req.TemplateID)
	if err != nil {
		return InstantiateResult{}, fmt.Errorf("load template %d: %w", req.TemplateID, err)
	}
	if !tmpl.IsTemplate {
		return InstantiateResult{}, core.NewValidationError("template_id", "income record %d is not a template", tmpl.ID)
	}

	clone := tmpl
	clone.ID = 0
	clone.IsTemplate = false
	clone.Date = req.Date
	if req.ExchangeRate != nil {
		rate := *req.ExchangeRate
		clone.ExchangeRate = &rate
	} else if tmpl.ExchangeRate != nil {
		rate := *tmpl.ExchangeRate
		clone.ExchangeRate = &rate
	}
	if !clone.Currency.IsBase() && clone.ExchangeRate == nil {
		return InstantiateResult{}, core.NewValidationError("exchange_rate",
			"Exchange rate must be a positive number for non-%s currencies.", core.BaseCurrency)
	}

	var saved core.IncomeRecord
	if g.recompute {
		saved, err = g.incomes.Save(ctx, clone)
	} else {
		saved, err = g.store.CreateIncome(ctx, clone)
		if err == nil {
			g.changed(ctx, incomeEvent(saved, true))
		}
	}
	if err != nil {
		return InstantiateResult{}, fmt.Errorf("create record from template %d: %w", tmpl.ID, err)
	}

	label := tmpl.Label()
	g.logger.InfoContext(ctx, "Income record generated from template",
		log.FieldTemplateID, tmpl.ID,
		log.FieldIncomeID, saved.ID,
		"date", saved.Date.String(),
		"recomputed", g.recompute)

	return InstantiateResult{
		ID:            saved.ID,
		TemplateLabel: label,
		Message:       fmt.Sprintf("Income record generated successfully from template '%s'.", label),
		Record:        saved,
	}, nil
}
