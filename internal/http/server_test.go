package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
	"budget/internal/export"
	"budget/internal/log"
	"budget/internal/memory"
	"budget/internal/services"
)

type testServer struct {
	*Server
	store *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	store := memory.New()

	reports := services.NewReportService(store, store, core.DefaultExchangeTable(),
		services.ReportConfig{CacheTTL: time.Minute, CacheSize: 8}, logger)
	opts := []services.Option{services.WithLogger(logger), services.WithInvalidator(reports)}
	incomes := services.NewIncomeService(store, opts...)

	srv, err := NewServer(":0", Services{
		Incomes:      incomes,
		Templates:    services.NewTemplateGenerator(store, incomes, false, opts...),
		Transactions: services.NewTransactionService(store, opts...),
		Vehicles:     services.NewVehicleLogService(store, opts...),
		Reports:      reports,
		Store:        store,
	}, Options{Logger: logger, RateLimit: 1000})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testServer{Server: srv, store: store}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "203.0.113.7:5000"
	rec := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type incomeJSON struct {
	ID         int64           `json:"id"`
	Label      string          `json:"label"`
	Period     string          `json:"period"`
	IsTemplate bool            `json:"is_template"`
	EPFUser    decimal.Decimal `json:"epf_user"`
	TakeHome   decimal.Decimal `json:"take_home"`
}

func (ts *testServer) seedSource(t *testing.T) core.Source {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/sources", map[string]any{"name": "Acme"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[core.Source](t, rec)
}

func salary(sourceID int64) map[string]any {
	return map[string]any{
		"owner":        "u1",
		"source_id":    sourceID,
		"date":         "2024-03-25",
		"type":         "Salary",
		"basic_amount": "10000",
		"tax":          500,
		"is_tax_paid":  true,
	}
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := ts.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestCreateIncomeDerivesAmounts(t *testing.T) {
	ts := newTestServer(t)
	src := ts.seedSource(t)

	rec := ts.do(t, http.MethodPost, "/api/incomes", salary(src.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got := decodeBody[incomeJSON](t, rec)
	assert.True(t, got.EPFUser.Equal(decimal.NewFromInt(800)), got.EPFUser.String())
	assert.True(t, got.TakeHome.Equal(decimal.NewFromInt(8700)), got.TakeHome.String())
	assert.Equal(t, "Acme(LKR) - Salary", got.Label)
	assert.Equal(t, "2024 March", got.Period)

	body := salary(src.ID)
	body["basic_amount"] = "10500"
	rec = ts.do(t, http.MethodPut, "/api/incomes/"+itoa(got.ID), body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[incomeJSON](t, rec)
	assert.Equal(t, got.ID, updated.ID)
	assert.True(t, updated.TakeHome.Equal(decimal.NewFromInt(9160)), updated.TakeHome.String())
}

func TestIncomeErrors(t *testing.T) {
	ts := newTestServer(t)
	src := ts.seedSource(t)

	missingOwner := salary(src.ID)
	delete(missingOwner, "owner")

	badAmount := salary(src.ID)
	badAmount["basic_amount"] = "ten"

	derived := salary(src.ID)
	derived["take_home"] = "1"

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		field  string
	}{
		{"missing owner", http.MethodPost, "/api/incomes", missingOwner, http.StatusUnprocessableEntity, "owner"},
		{"bad amount", http.MethodPost, "/api/incomes", badAmount, http.StatusUnprocessableEntity, "basic_amount"},
		{"derived field rejected", http.MethodPost, "/api/incomes", derived, http.StatusUnprocessableEntity, ""},
		{"malformed json", http.MethodPost, "/api/incomes", "{", http.StatusUnprocessableEntity, ""},
		{"unknown id", http.MethodGet, "/api/incomes/999", nil, http.StatusNotFound, ""},
		{"non numeric id", http.MethodGet, "/api/incomes/abc", nil, http.StatusNotFound, ""},
		{"update unknown id", http.MethodPut, "/api/incomes/999", salary(src.ID), http.StatusNotFound, ""},
		{"bad filter", http.MethodGet, "/api/incomes?month=13", nil, http.StatusUnprocessableEntity, "month"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decodeBody[errorResponse](t, rec)
			assert.NotEmpty(t, body.Error)
			if tt.field != "" {
				assert.Equal(t, tt.field, body.Field)
			}
		})
	}

	rec := ts.do(t, http.MethodGet, "/api/incomes?is_template=all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]incomeJSON](t, rec), "rejected requests must not persist")
}

func TestListIncomesTemplateFilter(t *testing.T) {
	ts := newTestServer(t)
	src := ts.seedSource(t)

	tmpl := salary(src.ID)
	tmpl["is_template"] = true
	delete(tmpl, "date")
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/incomes", tmpl).Code)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/incomes", salary(src.ID)).Code)

	tests := []struct {
		query string
		want  int
	}{
		{"", 1},
		{"?is_template=false", 1},
		{"?is_template=true", 1},
		{"?is_template=all", 2},
	}
	for _, tt := range tests {
		rec := ts.do(t, http.MethodGet, "/api/incomes"+tt.query, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody[[]incomeJSON](t, rec), tt.want, tt.query)
	}
}

func TestGenerateFromTemplate(t *testing.T) {
	ts := newTestServer(t)
	src := ts.seedSource(t)

	tmpl := salary(src.ID)
	tmpl["is_template"] = true
	delete(tmpl, "date")
	rec := ts.do(t, http.MethodPost, "/api/incomes", tmpl)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	template := decodeBody[incomeJSON](t, rec)

	rec = ts.do(t, http.MethodPost, "/api/incomes/generate-from-template", map[string]any{
		"template_id": template.ID,
		"date":        "2024-04-25",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got struct {
		ID            int64      `json:"id"`
		TemplateLabel string     `json:"template_label"`
		Message       string     `json:"message"`
		Record        incomeJSON `json:"record"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NotEqual(t, template.ID, got.ID)
	assert.Equal(t, "Acme(LKR) - Salary", got.TemplateLabel)
	assert.Equal(t, "Income record generated successfully from template 'Acme(LKR) - Salary'.", got.Message)
	assert.False(t, got.Record.IsTemplate)
	assert.Equal(t, "2024 April", got.Record.Period)
	assert.True(t, got.Record.TakeHome.Equal(template.TakeHome))

	rec = ts.do(t, http.MethodPost, "/api/incomes/generate-from-template", map[string]any{"template_id": template.ID})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "date", decodeBody[errorResponse](t, rec).Field)
}

func TestTransactionsAndReport(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/banks", map[string]any{"name": "Commerzbank", "currency": "EUR"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bank := decodeBody[core.Bank](t, rec)

	for _, tx := range []map[string]any{
		{"owner": "u1", "bank_id": bank.ID, "amount": "100", "currency": "EUR", "type": "deposit"},
		{"owner": "u1", "bank_id": bank.ID, "amount": "20", "currency": "EUR", "type": "withdrawal"},
	} {
		rec := ts.do(t, http.MethodPost, "/api/transactions", tx)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodGet, "/api/transactions?type=withdrawal", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	txs := decodeBody[[]core.InvestmentTransaction](t, rec)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Amount.Equal(decimal.NewFromInt(-20)), txs[0].Amount.String())

	rec = ts.do(t, http.MethodGet, "/api/reports/transactions?currency=EUR", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decodeBody[services.TransactionReport](t, rec)
	require.Len(t, report.Summary.Lines, 1)
	assert.True(t, report.Summary.Lines[0].Total.Equal(decimal.NewFromInt(80)))
	assert.True(t, report.Summary.GrandTotal.Equal(decimal.RequireFromString("27592")), report.Summary.GrandTotal.String())

	rec = ts.do(t, http.MethodGet, "/api/transactions?currency=XYZ", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestVehicleServiceLog(t *testing.T) {
	ts := newTestServer(t)

	vehicle := decodeBody[core.Vehicle](t, ts.do(t, http.MethodPost, "/api/vehicles",
		map[string]any{"name": "Civic", "plate_number": "CAB-1234"}))
	shop := decodeBody[core.Shop](t, ts.do(t, http.MethodPost, "/api/shops",
		map[string]any{"name": "Parts Co", "location": "Colombo"}))

	rec := ts.do(t, http.MethodPost, "/api/vehicle-services", map[string]any{
		"vehicle_id":   vehicle.ID,
		"service_date": "2024-05-02",
		"service_type": "oil_change",
		"description":  "10k service",
		"cost":         "5000",
		"parts": []map[string]any{
			{"shop_id": shop.ID, "part_name": "Oil filter", "quantity": 1, "total_cost": "1500"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view := decodeBody[services.ServiceView](t, rec)
	assert.True(t, view.PartsTotal.Equal(decimal.NewFromInt(1500)))
	assert.True(t, view.GrandTotal.Equal(decimal.NewFromInt(6500)))

	rec = ts.do(t, http.MethodPost, "/api/vehicle-services/"+itoa(view.ID)+"/parts",
		map[string]any{"shop_id": shop.ID, "part_name": "Oil", "quantity": 4, "total_cost": 2000})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view = decodeBody[services.ServiceView](t, rec)
	assert.True(t, view.GrandTotal.Equal(decimal.NewFromInt(8500)))
	assert.Len(t, view.PartsSummary, 2)

	rec = ts.do(t, http.MethodPost, "/api/vehicle-services/"+itoa(view.ID)+"/documents",
		map[string]any{"file_name": "invoice.pdf"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/vehicle-services/999/documents",
		map[string]any{"file_name": "invoice.pdf"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/vehicle-services", map[string]any{
		"vehicle_id":   vehicle.ID,
		"service_date": "2024-05-02",
		"service_type": "oil_change",
		"description":  "bad part",
		"parts":        []map[string]any{{"shop_id": shop.ID, "part_name": "", "quantity": 1}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "parts[0].part_name", decodeBody[errorResponse](t, rec).Field)

	rec = ts.do(t, http.MethodGet, "/reports/vehicles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Oil Change")
	assert.Contains(t, rec.Body.String(), "8,500.00")
}

func TestReportPages(t *testing.T) {
	ts := newTestServer(t)
	src := ts.seedSource(t)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/incomes", salary(src.ID)).Code)

	rec := ts.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Summary Report")

	rec = ts.do(t, http.MethodGet, "/reports/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2024 March")
	assert.Contains(t, rec.Body.String(), "LKR 8,700.00")

	rec = ts.do(t, http.MethodGet, "/reports/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Grand Total")

	rec = ts.do(t, http.MethodGet, "/api/reports/income-summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	periods := decodeBody[[]core.PeriodSummary](t, rec)
	require.Len(t, periods, 1)
	assert.True(t, periods[0].TotalIncome.Equal(decimal.NewFromInt(8700)))

	rec = ts.do(t, http.MethodGet, "/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestXLSXDownloads(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/reports/summary.xlsx", "/reports/transactions.xlsx"} {
		rec := ts.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")
	}
}

func TestReportPagesCarryFiltersToExport(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/reports/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/reports/summary.xlsx"`)

	rec = ts.do(t, http.MethodGet, "/reports/summary?owner=u1&year=2024&month=", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/reports/summary.xlsx?owner=u1&amp;year=2024"`)

	rec = ts.do(t, http.MethodGet, "/reports/transactions?currency=EUR", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/reports/transactions.xlsx?currency=EUR"`)
}

func TestRateLimitAppliesToWrites(t *testing.T) {
	ts := newTestServer(t)
	ts.rateLimiter.limit = 2

	for i := 0; i < 2; i++ {
		rec := ts.do(t, http.MethodPost, "/api/sources", map[string]any{"name": "S" + itoa(int64(i))})
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := ts.do(t, http.MethodPost, "/api/sources", map[string]any{"name": "S3"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/sources", nil).Code)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodDelete, "/api/incomes/1", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
