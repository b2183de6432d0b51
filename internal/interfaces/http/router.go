package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/NMReportChecker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/NMReportChecker/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/NMReportChecker/internal/interfaces/http/handlers"
	"github.com/turtacn/NMReportChecker/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// HTTP route tree.  Nil members switch the corresponding part off.
type RouterConfig struct {
	// Handlers
	AnalysisHandler *handlers.AnalysisHandler
	HealthHandler   *handlers.HealthHandler

	// Middleware
	CORS        *middleware.CORSConfig
	RateLimiter middleware.RateLimiter
	Logging     middleware.LoggingConfig
	MaxBodySize int64

	// Infrastructure
	Logger           logging.Logger
	Metrics          *prometheus.NMRMetrics
	MetricsCollector prometheus.MetricsCollector
}

// NewRouter constructs the complete HTTP route tree from the given configuration.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// --- Global middleware (applied to every request) ---
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.Logging))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(chimw.Recoverer)
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}

	// --- Probes ---
	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/healthz/detail", cfg.HealthHandler.Detailed)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.Handle("/metrics", cfg.MetricsCollector.Handler())
	}

	// --- API v1 ---
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.BodyLimit(cfg.MaxBodySize))
		if cfg.RateLimiter != nil {
			api.Use(middleware.RateLimit(cfg.RateLimiter, middleware.ClientIPKey))
		}
		registerAnalysisRoutes(api, cfg.AnalysisHandler)
	})

	return r
}

// registerAnalysisRoutes mounts the report endpoints.
func registerAnalysisRoutes(r chi.Router, h *handlers.AnalysisHandler) {
	if h == nil {
		return
	}
	r.Route("/analyses", func(ar chi.Router) {
		ar.Get("/", h.List)
		ar.Post("/", h.Analyze)
		ar.Get("/{id}", h.Get)
	})
	r.Post("/validate", h.Validate)
	r.Get("/solvents", h.Solvents)
}

//Personal.AI order the ending
