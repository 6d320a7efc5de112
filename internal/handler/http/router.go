package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/auth"
	"github.com/johnnyy06/ComputerBazaar-sub000/pkg/health"
	"github.com/johnnyy06/ComputerBazaar-sub000/pkg/middleware"
)

// RouterConfig carries everything the router mounts.
type RouterConfig struct {
	Catalog        *CatalogHandler
	Admin          *AdminHandler
	Health         *health.Handler
	TokenValidator middleware.TokenValidator
	CacheMaxAge    int
	// PprofCIDRs enables /debug/pprof for these client networks. Empty
	// leaves profiling unmounted.
	PprofCIDRs []string
	Logger     *slog.Logger
}

// NewRouter creates a chi router with all catalog service routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Tracing())
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("catalog"))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	if len(cfg.PprofCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, cfg.Logger)
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(cfg.CacheMaxAge))

			r.Get("/search", cfg.Catalog.Search)
			r.Get("/search/suggestions", cfg.Catalog.Suggestions)
			r.Get("/search/popular", cfg.Catalog.Popular)

			r.Get("/products", cfg.Catalog.Products)
			r.Get("/products/filter-options", cfg.Catalog.FilterOptions)
			r.Get("/products/category-counts", cfg.Catalog.CategoryCounts)
		})

		r.Route("/admin/catalog", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.TokenValidator))
			r.Use(middleware.RequireRole(auth.RoleAdmin))

			r.Delete("/{id}", cfg.Admin.DeleteProduct)
			r.Post("/reindex", cfg.Admin.Reindex)

			r.Group(func(r chi.Router) {
				r.Use(ContentTypeJSON)
				r.Post("/index", cfg.Admin.IndexProduct)
				r.Post("/bulk", cfg.Admin.BulkIndex)
			})
		})
	})

	return r
}
