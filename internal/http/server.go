// Package http exposes the JSON API consumed by the desktop and web
// clients.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"tally/internal/auth"
	"tally/internal/middleware/ratelimit"
	"tally/internal/middleware/trace"
	"tally/internal/services"
)

// Server wires the services behind the API routes.
type Server struct {
	http.Server

	accounts  *services.AccountService
	ledger    *services.LedgerService
	analytics *services.AnalyticsService
	tokens    *auth.TokenManager

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, accounts *services.AccountService, ledger *services.LedgerService,
	analytics *services.AnalyticsService, tokens *auth.TokenManager) *Server {

	s := &Server{
		accounts:  accounts,
		ledger:    ledger,
		analytics: analytics,
		tokens:    tokens,
		limiter:   ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	mux := http.NewServeMux()

	// Credential endpoints are rate limited per client IP; everything
	// else requires a valid session token.
	limited := s.limiter.Middleware(extractClientIP, nil)

	mux.Handle("POST /api/register", limited(http.HandlerFunc(s.handleRegister)))
	mux.Handle("POST /api/login", limited(http.HandlerFunc(s.handleLogin)))
	mux.HandleFunc("GET /healthz", handleHealth)

	mux.HandleFunc("POST /api/expenses", requireAuth(tokens, s.handleCreateExpense))
	mux.HandleFunc("GET /api/expenses", requireAuth(tokens, s.handleListExpenses))
	mux.HandleFunc("GET /api/expenses/{id}", requireAuth(tokens, s.handleGetExpense))
	mux.HandleFunc("PUT /api/expenses/{id}", requireAuth(tokens, s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", requireAuth(tokens, s.handleDeleteExpense))

	mux.HandleFunc("GET /api/categories", requireAuth(tokens, s.handleListCategories))
	mux.HandleFunc("POST /api/categories", requireAuth(tokens, s.handleCreateCategory))

	mux.HandleFunc("GET /api/analytics/daily", requireAuth(tokens, s.handleDailyTotals))
	mux.HandleFunc("GET /api/analytics/weekly", requireAuth(tokens, s.handleWeeklyTotals))
	mux.HandleFunc("GET /api/analytics/monthly", requireAuth(tokens, s.handleMonthlyTotals))
	mux.HandleFunc("GET /api/analytics/yearly", requireAuth(tokens, s.handleYearlyTotals))
	mux.HandleFunc("GET /api/analytics/categories", requireAuth(tokens, s.handleCategoryBreakdown))

	mux.HandleFunc("GET /api/currency", requireAuth(tokens, s.handleGetCurrency))
	mux.HandleFunc("PUT /api/currency", requireAuth(tokens, s.handleSetCurrency))

	traced := trace.NewMiddleware(extractClientIP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           traced.Middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Shutdown stops the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
