package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"dompet/internal/assistant"
	"dompet/internal/log"
	"dompet/internal/middleware/ratelimit"
	"dompet/internal/middleware/security"
	"dompet/internal/middleware/trace"
	"dompet/internal/services"
)

const requestTimeout = 15 * time.Second

// Deps are the collaborators the API serves from.
type Deps struct {
	Transactions *services.TransactionService
	Dashboards   *services.DashboardService
	Assistant    assistant.Assistant
	// Ready reports whether the ledger backend is reachable. Nil means always ready.
	Ready  func(ctx context.Context) error
	Logger *log.Logger
	// WritesPerMinute limits mutating requests per client. Zero uses the limiter default.
	WritesPerMinute int
}

type Server struct {
	http.Server
	deps         Deps
	logger       *log.Logger
	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Nop()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		deps:    deps,
		logger:  logger,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.WritesPerMinute}),
	}

	r := chi.NewRouter()
	r.Use(trace.Middleware)
	r.Use(log.Middleware(logger, trace.RequestID))
	r.Use(accessLog)
	r.Use(chimw.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(requestTimeout))
		r.Use(s.limiter.Middleware(security.ClientIP, rateLimited,
			http.MethodPost, http.MethodPut, http.MethodDelete))

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/categories", handleCategories)
		r.Get("/summary", s.handleSummary)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Get("/{id}", s.handleGetTransaction)
			r.Put("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})

		r.Post("/assistant/chat", s.handleAssistantChat)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
