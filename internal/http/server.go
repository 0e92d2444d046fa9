package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"expense-tracker/internal/core"
	applog "expense-tracker/internal/log"
	"expense-tracker/internal/middleware/ratelimit"
	"expense-tracker/internal/middleware/security"
	"expense-tracker/internal/middleware/trace"
	"expense-tracker/internal/services"
)

// ExpenseStore is the service surface the handlers need.
type ExpenseStore interface {
	Create(ctx context.Context, category, amount, date, description string) (core.Expense, error)
	Delete(ctx context.Context, id string) (core.Expense, error)
	Clear(ctx context.Context) int
	List(f services.ListFilter) []core.Expense
	Get(id string) (core.Expense, error)
	ByCategory(name string) []core.Expense
	Statistics() core.Snapshot
	Categories() services.CategoryReport
}

// Options tunes the middleware stack.
type Options struct {
	Logger             *applog.Logger
	CORSAllowedOrigins []string
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	store    ExpenseStore
	logger   *applog.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, store ExpenseStore, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Nop()
	}
	logger = logger.WithComponent(applog.ComponentHTTP)
	if len(opts.CORSAllowedOrigins) == 0 {
		opts.CORSAllowedOrigins = []string{"*"}
	}

	s := &Server{
		store:    store,
		logger:   logger,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: security.NewDetector(),
	}

	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.detector.ExtractClientIP(r))
		TooManyRequestsError("Rate limit exceeded. Please try again later.").Write(w)
	})

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(applog.Middleware(logger))
	r.Use(trace.NewMiddleware(s.detector.ExtractClientIP).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(security.NewCORS(opts.CORSAllowedOrigins).Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError().Write(w)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handleHealth)
		r.Get("/statistics", s.handleStatistics)
		r.Get("/categories", s.handleCategories)

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", s.handleListExpenses)
			r.Get("/category/{category}", s.handleExpensesByCategory)
			r.Get("/{id}", s.handleGetExpense)

			r.Group(func(r chi.Router) {
				r.Use(limited)
				r.Post("/", s.handleCreateExpense)
				r.Delete("/", s.handleClearExpenses)
				r.Delete("/{id}", s.handleDeleteExpense)
			})
		})
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

// Shutdown stops background workers and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(map[string]string{
		"status":  "healthy",
		"message": "Expense Tracker API is running",
	}).Write(w)
}
