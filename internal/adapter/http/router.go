package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/bufl/ledger/internal/adapter/http/handler"
	"github.com/bufl/ledger/internal/adapter/http/middleware"
	"github.com/bufl/ledger/internal/infrastructure/metrics"
	"github.com/bufl/ledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler    *handler.AccountHandler
	TransferHandler   *handler.TransferHandler
	EntryHandler      *handler.EntryHandler
	ScheduleHandler   *handler.ScheduleHandler
	AllocationHandler *handler.AllocationHandler
	GoalHandler       *handler.GoalHandler
	LedgerHandler     *handler.LedgerHandler
	HealthHandler     *handler.HealthHandler
	IdempotencyStore  usecase.IdempotencyStore
	Metrics           *metrics.Metrics
	Gatherer          prometheus.Gatherer
	Logger            zerolog.Logger
	IdempotencyTTL    time.Duration
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireUser)

		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger).Wrap)
		}

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Get("/{id}/entries", cfg.EntryHandler.ListByAccount)
			r.Get("/{id}/reconcile", cfg.LedgerHandler.Reconcile)
		})

		r.Route("/transfers", func(r chi.Router) {
			r.Post("/", cfg.TransferHandler.Create)
			r.Get("/history", cfg.TransferHandler.History)
			r.Get("/{id}/entries", cfg.EntryHandler.ListByTransfer)
		})

		r.Route("/schedules", func(r chi.Router) {
			r.Post("/", cfg.ScheduleHandler.Create)
			r.Get("/{id}", cfg.ScheduleHandler.Get)
			r.Delete("/{id}", cfg.ScheduleHandler.Cancel)
		})

		r.Put("/salary", cfg.AllocationHandler.SetSalary)
		r.Post("/salary/split", cfg.AllocationHandler.SplitSalary)
		r.Put("/categories", cfg.AllocationHandler.SetCategories)
		r.Put("/categories/{id}/account", cfg.AllocationHandler.LinkAccount)

		r.Route("/goals", func(r chi.Router) {
			r.Post("/", cfg.GoalHandler.Create)
			r.Get("/", cfg.GoalHandler.List)
			r.Get("/{id}", cfg.GoalHandler.Get)
			r.Get("/{id}/progress", cfg.GoalHandler.Progress)
			r.Get("/{id}/transactions", cfg.GoalHandler.Entries)
			r.Post("/{id}/contributions", cfg.GoalHandler.Contribute)
			r.Post("/{id}/schedule", cfg.GoalHandler.ScheduleContribution)
		})

		r.Get("/ledger/consistency", cfg.LedgerHandler.Consistency)
	})

	return r
}
