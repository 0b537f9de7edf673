package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"koinochrista/internal/middleware/trace"
	"koinochrista/internal/services"
)

type Server struct {
	http.Server
	statements  *services.StatementService
	ledger      *services.LedgerService
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, statements *services.StatementService, ledgerService *services.LedgerService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		statements:  statements,
		ledger:      ledgerService,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /api/buildings/{id}/statement", s.handleGetStatement)
	mux.HandleFunc("GET /api/buildings/{id}/reserve", s.handleGetReserve)
	mux.HandleFunc("POST /api/buildings/{id}/expenses", s.handleCreateExpense)
	mux.HandleFunc("POST /api/buildings/{id}/incomes", s.handleCreateIncome)
	mux.HandleFunc("POST /api/buildings/{id}/payments", s.handleCreatePayment)
	mux.HandleFunc("POST /api/buildings/{id}/reserve-transactions", s.handleCreateReserveTransaction)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	traceMiddleware := trace.NewMiddleware(extractClientIP)
	s.Handler = traceMiddleware.Middleware(s.rateLimit(mux))

	return s
}

// rateLimit rejects clients exceeding the per-IP request limit.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimiter.allow(extractClientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and cleanup routines.
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
