package http

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"budget/internal/core"
	"budget/internal/export"
	"budget/internal/log"
	"budget/internal/services"
)

type summaryPage struct {
	ExportURL    string
	Periods      []core.PeriodSummary
	Rates        core.ExchangeTable
	BaseCurrency core.Currency
}

type transactionsPage struct {
	ExportURL  string
	Report     services.TransactionReport
	Currencies []core.Currency
}

type vehiclesPage struct {
	Vehicles []core.Vehicle
	Services []services.ServiceView
}

func (s *Server) handleIncomeSummaryJSON(w http.ResponseWriter, r *http.Request) {
	periods, ok := s.incomeSummary(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, periods)
}

func (s *Server) handleTransactionReportJSON(w http.ResponseWriter, r *http.Request) {
	report, ok := s.transactionReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSummaryPage(w http.ResponseWriter, r *http.Request) {
	periods, ok := s.incomeSummary(w, r)
	if !ok {
		return
	}
	s.render(w, r, "summary.html", page{
		Title:  "Summary Report",
		Active: "/reports/summary",
		Query:  queryMap(r, "owner", "year", "month"),
		Data: summaryPage{
			ExportURL:    withQuery("/reports/summary.xlsx", r, "owner", "year", "month"),
			Periods:      periods,
			Rates:        s.svc.Reports.Table(),
			BaseCurrency: core.BaseCurrency,
		},
	})
}

func (s *Server) handleTransactionsPage(w http.ResponseWriter, r *http.Request) {
	report, ok := s.transactionReport(w, r)
	if !ok {
		return
	}
	s.render(w, r, "transactions.html", page{
		Title:  "Investment Transactions",
		Active: "/reports/transactions",
		Query:  queryMap(r, "owner", "currency", "type", "bank_id"),
		Data: transactionsPage{
			ExportURL:  withQuery("/reports/transactions.xlsx", r, "owner", "currency", "type", "bank_id"),
			Report:     report,
			Currencies: core.Currencies(),
		},
	})
}

func (s *Server) handleVehiclesPage(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := queryInt64(r.URL.Query(), "vehicle_id")
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	vehicles, err := s.svc.Vehicles.ListVehicles(r.Context())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	views, err := s.svc.Vehicles.List(r.Context(), vehicleID)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	s.render(w, r, "vehicles.html", page{
		Title:  "Vehicle Services",
		Active: "/reports/vehicles",
		Query:  queryMap(r, "vehicle_id"),
		Data:   vehiclesPage{Vehicles: vehicles, Services: views},
	})
}

func (s *Server) handleSummaryXLSX(w http.ResponseWriter, r *http.Request) {
	periods, ok := s.incomeSummary(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.IncomeSummaryXLSX(&buf, periods); err != nil {
		writeError(w, r, log.OpExport, fmt.Errorf("render income summary workbook: %w", err))
		return
	}
	writeAttachment(w, "income-summary", buf.Bytes())
}

func (s *Server) handleTransactionsXLSX(w http.ResponseWriter, r *http.Request) {
	report, ok := s.transactionReport(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.TransactionsXLSX(&buf, report.Transactions, report.Summary); err != nil {
		writeError(w, r, log.OpExport, fmt.Errorf("render transactions workbook: %w", err))
		return
	}
	writeAttachment(w, "transactions", buf.Bytes())
}

// incomeSummary runs the income aggregator for the request's filter and
// writes the error response itself when it fails.
func (s *Server) incomeSummary(w http.ResponseWriter, r *http.Request) ([]core.PeriodSummary, bool) {
	f, err := incomeFilterFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, log.OpSummarize, err)
		return nil, false
	}
	periods, err := s.svc.Reports.IncomeSummary(r.Context(), f)
	if err != nil {
		writeError(w, r, log.OpSummarize, err)
		return nil, false
	}
	return periods, true
}

func (s *Server) transactionReport(w http.ResponseWriter, r *http.Request) (services.TransactionReport, bool) {
	f, err := transactionFilterFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, log.OpSummarize, err)
		return services.TransactionReport{}, false
	}
	report, err := s.svc.Reports.TransactionSummary(r.Context(), f)
	if err != nil {
		writeError(w, r, log.OpSummarize, err)
		return services.TransactionReport{}, false
	}
	report.Transactions = orEmpty(report.Transactions)
	report.Summary.Lines = orEmpty(report.Summary.Lines)
	return report, true
}

func writeAttachment(w http.ResponseWriter, name string, body []byte) {
	filename := fmt.Sprintf("%s-%s.xlsx", name, time.Now().Format("20060102"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// withQuery appends the non-empty named query parameters of r to path.
func withQuery(path string, r *http.Request, keys ...string) string {
	q := r.URL.Query()
	out := url.Values{}
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			out.Set(k, v)
		}
	}
	if len(out) == 0 {
		return path
	}
	return path + "?" + out.Encode()
}

// queryMap copies the named query parameters for refilling filter forms.
func queryMap(r *http.Request, keys ...string) map[string]string {
	q := r.URL.Query()
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		out[k] = q.Get(k)
	}
	return out
}
