package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/FACorreiaa/statement-tracker/pkg/middleware"
)

// NewRouter mounts every domain handler under /api.
func NewRouter(d *Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.CORS(d.Config.Server.AllowedOrigins))
	r.Use(middleware.RateLimit(d.Config.Server.RateLimitPerSecond, d.Config.Server.RateLimitBurst))

	r.Get("/healthz", d.healthz)

	r.Route("/api", func(r chi.Router) {
		d.ImportHandler.Routes(r)
		d.TransactionsHandler.Routes(r)
		d.CategorizationHandler.Routes(r)
		d.InsightsHandler.Routes(r)
	})

	return r
}

// NewMetricsRouter serves /metrics on the observability port.
func NewMetricsRouter(d *Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", d.Metrics.Handler())
	return r
}

func (d *Dependencies) healthz(w http.ResponseWriter, r *http.Request) {
	if d.DB != nil && d.DB.Pool != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := d.DB.Pool.Ping(ctx); err != nil {
			d.Logger.Error("health check failed", "error", err)
			middleware.WriteError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
