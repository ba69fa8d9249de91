/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from X-Forwarded-For / X-Real-IP
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for frontend
  6. RateLimit:  Per-client token bucket on /api (optional)

ROUTE GROUPS:
  /api/simulations      Three-scenario loan simulation
  /api/calculations/*   Single calculations
  /api/accounts/*       Tracked accounts and events
  /api/dashboard        Owner totals
  /api/demo/*           Demo portfolios
  /metrics              Prometheus metrics
  /healthz              Liveness and store check

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured. An empty
// allowedOrigins list falls back to the local frontend dev servers. A nil
// limiter leaves /api unthrottled.
func NewRouter(h *Handler, allowedOrigins []string, limiter *RateLimiter) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(limiter.Middleware)

		r.Post("/simulations", h.Simulate)

		r.Route("/calculations", func(r chi.Router) {
			r.Post("/payment", h.CalculatePayment)
			r.Post("/coverage", h.CheckCoverage)
			r.Post("/balance", h.CalculateBalance)
			r.Post("/payoff", h.ProjectPayoff)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Get("/{id}", h.GetAccount)
			r.Put("/{id}", h.UpdateAccount)
			r.Delete("/{id}", h.DeleteAccount)
			r.Post("/{id}/refresh", h.RefreshAccount)
			r.Get("/{id}/events", h.ListEvents)
			r.Post("/{id}/events", h.RecordEvent)
		})

		r.Get("/dashboard", h.Dashboard)

		r.Route("/demo", func(r chi.Router) {
			r.Get("/", h.ListDemos)
			r.Get("/current", h.GetCurrentDemo)
			r.Post("/load", h.LoadDemo)
		})
	})

	return r
}
