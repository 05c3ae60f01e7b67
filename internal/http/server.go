package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
	appweb "budget/web"
)

const headerRequestID = "X-Request-ID"

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the application services the handlers call.
type Services struct {
	Incomes      *services.IncomeService
	Templates    *services.TemplateGenerator
	Transactions *services.TransactionService
	Vehicles     *services.VehicleLogService
	Reports      *services.ReportService
	Store        Pinger
}

// Options tune the server. Zero values fall back to defaults.
type Options struct {
	RateLimit     int
	CacheInterval time.Duration
	Logger        *log.Logger
}

type Server struct {
	http.Server
	svc         Services
	site        Site
	templates   *template.Template
	logger      *log.Logger
	access      *log.StructuredLogger
	rateLimiter *rateLimiter
	metrics     *securityMetrics
	caches      *cache.Manager

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates, registers routes and starts the
// cache and rate limiter cleanup loops.
func NewServer(addr string, svc Services, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		svc:         svc,
		site:        newSite(),
		templates:   tmpl,
		logger:      logger,
		access:      log.NewStructuredLogger(logger),
		rateLimiter: newRateLimiter(opts.RateLimit),
		metrics:     &securityMetrics{},
		caches:      cache.NewManager(),
	}

	if svc.Reports != nil {
		if c := svc.Reports.Cache(); c != nil {
			s.caches.Register(c)
		}
	}
	interval := opts.CacheInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	s.caches.StartCleanup(interval)

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = log.RequestIDMiddleware(func(r *http.Request) string {
		return r.Header.Get(headerRequestID)
	})(handler)
	handler = log.Middleware(logger)(handler)
	handler = s.withSecurityHeaders(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func parseTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"money": func(d decimal.Decimal, c core.Currency) string {
			return core.FormatMoney(d, c)
		},
		"base": func(d decimal.Decimal) string {
			return core.FormatMoney(d, core.BaseCurrency)
		},
		"fixed": func(d decimal.Decimal) string {
			return d.StringFixed(2)
		},
		"join": strings.Join,
	}
	t, err := template.New("").Funcs(funcs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /{$}", s.handleIndex)

	mux.HandleFunc("GET /api/sources", s.handleListSources)
	mux.HandleFunc("POST /api/sources", s.handleCreateSource)
	mux.HandleFunc("GET /api/incomes", s.handleListIncomes)
	mux.HandleFunc("POST /api/incomes", s.handleCreateIncome)
	mux.HandleFunc("GET /api/incomes/{id}", s.handleGetIncome)
	mux.HandleFunc("PUT /api/incomes/{id}", s.handleUpdateIncome)
	mux.HandleFunc("POST /api/incomes/generate-from-template", s.handleGenerateFromTemplate)

	mux.HandleFunc("GET /api/banks", s.handleListBanks)
	mux.HandleFunc("POST /api/banks", s.handleCreateBank)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)

	mux.HandleFunc("GET /api/vehicles", s.handleListVehicles)
	mux.HandleFunc("POST /api/vehicles", s.handleCreateVehicle)
	mux.HandleFunc("GET /api/garages", s.handleListGarages)
	mux.HandleFunc("POST /api/garages", s.handleCreateGarage)
	mux.HandleFunc("GET /api/shops", s.handleListShops)
	mux.HandleFunc("POST /api/shops", s.handleCreateShop)
	mux.HandleFunc("GET /api/vehicle-services", s.handleListServices)
	mux.HandleFunc("POST /api/vehicle-services", s.handleLogService)
	mux.HandleFunc("GET /api/vehicle-services/{id}", s.handleGetService)
	mux.HandleFunc("POST /api/vehicle-services/{id}/parts", s.handleAddPart)
	mux.HandleFunc("POST /api/vehicle-services/{id}/documents", s.handleAddDocument)

	mux.HandleFunc("GET /api/reports/income-summary", s.handleIncomeSummaryJSON)
	mux.HandleFunc("GET /api/reports/transactions", s.handleTransactionReportJSON)
	mux.HandleFunc("GET /reports/summary", s.handleSummaryPage)
	mux.HandleFunc("GET /reports/transactions", s.handleTransactionsPage)
	mux.HandleFunc("GET /reports/vehicles", s.handleVehiclesPage)
	mux.HandleFunc("GET /reports/summary.xlsx", s.handleSummaryXLSX)
	mux.HandleFunc("GET /reports/transactions.xlsx", s.handleTransactionsXLSX)
}

// withSecurityHeaders assigns the request id, rate limits writes, sets
// security headers and logs the finished request.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		id := requestID(r.Header.Get(headerRequestID))
		r.Header.Set(headerRequestID, id)
		w.Header().Set(headerRequestID, id)

		if reason := detectSuspiciousRequest(r, s.metrics); reason != "" {
			s.logger.WithComponent(log.ComponentSecurity).WarnContext(r.Context(), "Suspicious request",
				log.FieldRequestID, id,
				log.FieldClientIP, clientIP,
				log.FieldPath, r.URL.Path,
				"reason", reason)
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		if isWrite(r.Method) && !s.rateLimiter.allow(clientIP, start, s.metrics) {
			s.logger.WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldRequestID, id,
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			rw.Header().Set("Retry-After", "60")
			writeJSON(rw, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, try again later"})
		} else {
			next.ServeHTTP(rw, r)
		}

		s.access.LogHTTPEnd(r.Context(), r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

func isWrite(method string) bool {
	return method == http.MethodPost || method == http.MethodPut
}

// responseWriter records the status code written by the handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Shutdown stops the cleanup loops and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.stop()
		s.logger.Info("HTTP server shutting down",
			log.FieldOperation, log.OpShutdown,
			"security", s.metrics.snapshot())
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// render executes the named template with the shared site chrome.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, p page) {
	p.Site = s.site
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, p); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template render failed",
			log.FieldOperation, log.OpRender,
			"template", name,
			log.FieldError, err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}
