package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/maple/policydesk/internal/pkg/metrics"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, hc *HealthChecker, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(lowercasePath)
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLog)
	r.Use(metrics.InstrumentHandler)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{"Location", requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", hc.HandleHealth)
	r.Get("/health/live", hc.HandleLiveness)
	r.Get("/health/ready", hc.HandleReadiness)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/contractitems", func(r chi.Router) {
			r.Get("/", h.ListContracts)
			r.Post("/", h.CreateContract)
			r.Put("/", h.RepriceContract)
			r.Get("/{id}", h.GetContract)
			r.Put("/{id}", h.RepriceContract)
			r.Delete("/{id}", h.DeleteContract)
		})

		r.Route("/coverageplan", h.plans.mount)
		r.Route("/customers", h.customers.mount)
		r.Route("/ratecharts", func(r chi.Router) {
			r.Get("/", h.ListRateCharts)
			r.Post("/", h.rates.create)
			r.Get("/{id}", h.rates.get)
			r.Put("/{id}", h.rates.update)
			r.Delete("/{id}", h.rates.delete)
		})
	})

	return r
}
