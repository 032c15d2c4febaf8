package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"rentledger/internal/log"
	"rentledger/internal/services"
)

// Server exposes the ledger over a JSON API. It owns the rate limiter and
// security metrics, and shuts both down together with the HTTP listener.
type Server struct {
	http.Server

	ledger    *services.LedgerService
	invoices  *services.InvoiceService
	analytics *services.AnalyticsService

	rateLimiter  *rateLimiter
	metrics      *securityMetrics
	logger       *log.StructuredLogger
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, ledger *services.LedgerService, invoices *services.InvoiceService, analytics *services.AnalyticsService, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		ledger:      ledger,
		invoices:    invoices,
		analytics:   analytics,
		rateLimiter: newRateLimiter(),
		metrics:     &securityMetrics{},
		logger:      log.NewStructuredLogger(logger.WithComponent(log.ComponentHTTP)),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/properties", s.handleCreateProperty)
	mux.HandleFunc("GET /api/properties", s.handleListProperties)
	mux.HandleFunc("GET /api/properties/{id}", s.handleGetProperty)
	mux.HandleFunc("PUT /api/properties/{id}", s.handleUpdateProperty)
	mux.HandleFunc("DELETE /api/properties/{id}", s.handleDeleteProperty)
	mux.HandleFunc("GET /api/properties/{id}/financials", s.handlePropertyFinancials)
	mux.HandleFunc("GET /api/properties/{id}/eligible-expenses", s.handleEligibleExpenses)

	mux.HandleFunc("POST /api/revenues", s.handleCreateRevenue)
	mux.HandleFunc("GET /api/revenues", s.handleListRevenues)
	mux.HandleFunc("GET /api/revenues/{id}", s.handleGetRevenue)
	mux.HandleFunc("PUT /api/revenues/{id}", s.handleUpdateRevenue)
	mux.HandleFunc("DELETE /api/revenues/{id}", s.handleDeleteRevenue)

	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("POST /api/invoices", s.handleCreateInvoice)
	mux.HandleFunc("GET /api/invoices", s.handleListInvoices)
	mux.HandleFunc("GET /api/invoices/pending", s.handlePendingInvoices)
	mux.HandleFunc("GET /api/invoices/overdue", s.handleOverdueInvoices)
	mux.HandleFunc("GET /api/invoices/outstanding", s.handleTotalOutstanding)
	mux.HandleFunc("GET /api/invoices/{id}", s.handleGetInvoice)
	mux.HandleFunc("DELETE /api/invoices/{id}", s.handleDeleteInvoice)
	mux.HandleFunc("PUT /api/invoices/{id}/status", s.handleInvoiceStatus)
	mux.HandleFunc("POST /api/invoices/{id}/paid", s.handleInvoicePaid)

	mux.HandleFunc("GET /api/analytics/summary", s.handlePortfolioSummary)
	mux.HandleFunc("GET /api/analytics/financials", s.handleAllFinancials)
	mux.HandleFunc("GET /api/analytics/trend", s.handleMonthlyTrend)
	mux.HandleFunc("GET /api/analytics/expenses-by-category", s.handleExpensesByCategory)
	mux.HandleFunc("GET /api/analytics/revenues-by-type", s.handleRevenuesByType)

	mux.HandleFunc("POST /api/import/{kind}", s.handleImport)
	mux.HandleFunc("GET /api/export/{kind}", s.handleExport)

	mux.HandleFunc("GET /api/backup", s.handleBackupDownload)
	mux.HandleFunc("POST /api/restore", s.handleRestore)

	s.Server = http.Server{
		Addr:         addr,
		Handler:      s.withMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// withMiddleware applies security headers, rate limiting, request IDs and
// request logging around the whole mux.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := requestIDFrom(r)

		ctx := log.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)

		s.logger.LogHTTPStart(ctx, r, clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			s.logger.LogSuspiciousRequest(ctx, r, clientIP)
		}

		if mutating(r.Method) && !s.rateLimiter.allow(clientIP, s.metrics) {
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			s.logger.LogHTTPEnd(ctx, r, http.StatusTooManyRequests, time.Since(start).Milliseconds(), clientIP)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Request-ID", requestID)

		rw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.logger.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// requestIDFrom honors an incoming X-Request-ID header, generating one when
// absent so every log line of the request can be correlated.
func requestIDFrom(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" && len(id) <= 64 {
		return id
	}
	return generateRequestID()
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ledger.ListProperties(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown stops the rate limiter cleanup goroutine and the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
