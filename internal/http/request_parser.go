// Package http provides HTTP server and handler implementations.
//
// This file holds the request DTOs, their validation, and the query
// filter parsers.

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"budget/internal/core"
	"budget/internal/ports"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names in errors.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON decodes the request body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return core.NewValidationError("", "invalid JSON body: %v", err)
	}
	return validateStruct(dst)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return core.NewValidationError(fieldPath(fe), "%s", validationMessage(fe))
	}
	return core.NewValidationError("", "%v", err)
}

// fieldPath drops the struct name from the namespace ("serviceRequest.parts[0].part_name"
// becomes "parts[0].part_name").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "max":
		if fe.Kind() == reflect.String {
			return "Must be at most " + fe.Param() + " characters"
		}
		return "Must be at most " + fe.Param()
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "gt":
		return "Must be greater than " + fe.Param()
	case "gte":
		return "Must be greater than or equal to " + fe.Param()
	default:
		return "Invalid value"
	}
}

// amount accepts a JSON number or string and keeps its text for
// core.ParseAmount.
type amount string

func (a *amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*a = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		s = str
	}
	*a = amount(s)
	return nil
}

func (a amount) decimal(field string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(string(a))
	if err != nil {
		return decimal.Zero, core.NewValidationError(field, "invalid amount %q", string(a))
	}
	return d, nil
}

// optional returns nil for an empty amount.
func (a amount) optional(field string) (*decimal.Decimal, error) {
	if strings.TrimSpace(string(a)) == "" {
		return nil, nil
	}
	d, err := a.decimal(field)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseOptionalDate(field, s string) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, core.NewValidationError(field, "%v", err)
	}
	return d, nil
}

type sourceRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

func (req sourceRequest) toSource() core.Source {
	return core.Source{Name: sanitizeInput(req.Name), Description: sanitizeInput(req.Description)}
}

type incomeRequest struct {
	Owner               string `json:"owner" validate:"required,max=150"`
	SourceID            int64  `json:"source_id" validate:"required,gt=0"`
	Currency            string `json:"currency" validate:"omitempty,oneof=LKR EUR AUD"`
	ExchangeRate        amount `json:"exchange_rate"`
	Date                string `json:"date"`
	Type                string `json:"type" validate:"required,oneof=Salary Bonus Other"`
	Note                string `json:"note" validate:"max=1000"`
	IsTemplate          bool   `json:"is_template"`
	BasicAmount         amount `json:"basic_amount"`
	Allowance           amount `json:"allowance"`
	IsAllowanceForFunds bool   `json:"is_allowance_for_funds"`
	StampDuty           amount `json:"stamp_duty"`
	OtherDeductions     amount `json:"other_deductions"`
	Tax                 amount `json:"tax"`
	IsTaxPaid           bool   `json:"is_tax_paid"`
}

// toRecord converts the request. Derived fields are left zero; the income
// service computes them.
func (req incomeRequest) toRecord() (core.IncomeRecord, error) {
	r := core.IncomeRecord{
		Owner:               sanitizeInput(req.Owner),
		SourceID:            req.SourceID,
		Currency:            core.Currency(req.Currency),
		Type:                core.IncomeType(req.Type),
		Note:                sanitizeInput(req.Note),
		IsTemplate:          req.IsTemplate,
		IsAllowanceForFunds: req.IsAllowanceForFunds,
		IsTaxPaid:           req.IsTaxPaid,
	}
	if r.Currency == "" {
		r.Currency = core.BaseCurrency
	}

	var err error
	if r.Date, err = parseOptionalDate("date", req.Date); err != nil {
		return core.IncomeRecord{}, err
	}
	if r.ExchangeRate, err = req.ExchangeRate.optional("exchange_rate"); err != nil {
		return core.IncomeRecord{}, err
	}

	amounts := []struct {
		field string
		in    amount
		out   *decimal.Decimal
	}{
		{"basic_amount", req.BasicAmount, &r.BasicAmount},
		{"allowance", req.Allowance, &r.Allowance},
		{"stamp_duty", req.StampDuty, &r.StampDuty},
		{"other_deductions", req.OtherDeductions, &r.OtherDeductions},
		{"tax", req.Tax, &r.Tax},
	}
	for _, a := range amounts {
		if *a.out, err = a.in.decimal(a.field); err != nil {
			return core.IncomeRecord{}, err
		}
	}
	return r, nil
}

type instantiateRequest struct {
	TemplateID   int64  `json:"template_id" validate:"required,gt=0"`
	Date         string `json:"date" validate:"required"`
	ExchangeRate amount `json:"exchange_rate"`
}

type bankRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Currency string `json:"currency" validate:"omitempty,oneof=LKR EUR AUD"`
}

type transactionRequest struct {
	Owner    string `json:"owner" validate:"required,max=150"`
	BankID   int64  `json:"bank_id" validate:"required,gt=0"`
	Amount   amount `json:"amount" validate:"required"`
	Currency string `json:"currency" validate:"omitempty,oneof=LKR EUR AUD"`
	Type     string `json:"type" validate:"omitempty,oneof=deposit withdrawal"`
	Note     string `json:"note" validate:"max=1000"`
}

func (req transactionRequest) toTransaction() (core.InvestmentTransaction, error) {
	amt, err := req.Amount.decimal("amount")
	if err != nil {
		return core.InvestmentTransaction{}, err
	}
	return core.InvestmentTransaction{
		Owner:    sanitizeInput(req.Owner),
		BankID:   req.BankID,
		Amount:   amt,
		Currency: core.Currency(req.Currency),
		Type:     core.TransactionType(req.Type),
		Note:     sanitizeInput(req.Note),
	}, nil
}

type vehicleRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	PlateNumber string `json:"plate_number" validate:"required,max=20"`
}

type placeRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Location string `json:"location" validate:"max=200"`
}

type partRequest struct {
	ShopID    int64  `json:"shop_id" validate:"required,gt=0"`
	PartName  string `json:"part_name" validate:"required,max=100"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
	TotalCost amount `json:"total_cost"`
}

func (req partRequest) toPart(serviceID int64) (core.ServicePart, error) {
	cost, err := req.TotalCost.decimal("total_cost")
	if err != nil {
		return core.ServicePart{}, err
	}
	return core.ServicePart{
		ServiceID: serviceID,
		ShopID:    req.ShopID,
		PartName:  sanitizeInput(req.PartName),
		Quantity:  req.Quantity,
		TotalCost: cost,
	}, nil
}

type serviceRequest struct {
	VehicleID   int64         `json:"vehicle_id" validate:"required,gt=0"`
	ServiceDate string        `json:"service_date" validate:"required"`
	ServiceType string        `json:"service_type" validate:"required,oneof=maintenance repair inspection oil_change tire_change other"`
	Description string        `json:"description" validate:"required,max=2000"`
	Cost        amount        `json:"cost"`
	Mileage     *int          `json:"mileage" validate:"omitempty,gte=0"`
	GarageID    *int64        `json:"garage_id" validate:"omitempty,gt=0"`
	Parts       []partRequest `json:"parts" validate:"dive"`
}

func (req serviceRequest) toService() (core.VehicleService, error) {
	date, err := core.ParseDate(req.ServiceDate)
	if err != nil {
		return core.VehicleService{}, core.NewValidationError("service_date", "%v", err)
	}
	cost, err := req.Cost.decimal("cost")
	if err != nil {
		return core.VehicleService{}, err
	}
	svc := core.VehicleService{
		VehicleID:   req.VehicleID,
		ServiceDate: date,
		ServiceType: core.ServiceType(req.ServiceType),
		Description: sanitizeInput(req.Description),
		Cost:        cost,
		Mileage:     req.Mileage,
		GarageID:    req.GarageID,
	}
	for _, p := range req.Parts {
		part, err := p.toPart(0)
		if err != nil {
			return core.VehicleService{}, err
		}
		svc.Parts = append(svc.Parts, part)
	}
	return svc, nil
}

type documentRequest struct {
	FileName string `json:"file_name" validate:"required,max=255"`
}

// incomeFilterFromQuery parses owner, source_id, is_template, year and
// month. is_template defaults to false; "all" lists both kinds.
func incomeFilterFromQuery(q url.Values) (ports.IncomeFilter, error) {
	f := ports.IncomeFilter{
		Owner:      strings.TrimSpace(q.Get("owner")),
		IsTemplate: ports.NonTemplates,
	}
	switch strings.ToLower(strings.TrimSpace(q.Get("is_template"))) {
	case "", "false", "0":
	case "true", "1":
		f.IsTemplate = ports.Templates
	case "all":
		f.IsTemplate = nil
	default:
		return ports.IncomeFilter{}, core.NewValidationError("is_template", "must be true, false or all")
	}

	var err error
	if f.SourceID, err = queryInt64(q, "source_id"); err != nil {
		return ports.IncomeFilter{}, err
	}
	year, err := queryInt64(q, "year")
	if err != nil {
		return ports.IncomeFilter{}, err
	}
	month, err := queryInt64(q, "month")
	if err != nil {
		return ports.IncomeFilter{}, err
	}
	if month < 0 || month > 12 {
		return ports.IncomeFilter{}, core.NewValidationError("month", "must be between 1 and 12")
	}
	f.Year, f.Month = int(year), int(month)
	return f, nil
}

// transactionFilterFromQuery parses owner, bank_id, currency and type.
func transactionFilterFromQuery(q url.Values) (ports.TransactionFilter, error) {
	f := ports.TransactionFilter{
		Owner:    strings.TrimSpace(q.Get("owner")),
		Currency: core.Currency(strings.ToUpper(strings.TrimSpace(q.Get("currency")))),
		Type:     core.TransactionType(strings.ToLower(strings.TrimSpace(q.Get("type")))),
	}
	if f.Currency != "" && !f.Currency.Valid() {
		return ports.TransactionFilter{}, core.NewValidationError("currency", "unsupported currency %q", f.Currency)
	}
	if f.Type != "" && !f.Type.Valid() {
		return ports.TransactionFilter{}, core.NewValidationError("type", "unsupported transaction type %q", f.Type)
	}
	var err error
	if f.BankID, err = queryInt64(q, "bank_id"); err != nil {
		return ports.TransactionFilter{}, err
	}
	return f, nil
}

func queryInt64(q url.Values, key string) (int64, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, core.NewValidationError(key, "must be a positive integer")
	}
	return n, nil
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ErrNotFound
	}
	return id, nil
}
