package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"snowclone/internal/config"
	"snowclone/internal/middleware"
)

// NewRouter assembles the dashboard's HTTP routes and middleware chain.
// /healthz and the HTML overview are public; everything under /v1 requires
// authentication when any auth mechanism is configured.
func NewRouter(cfg *config.Config, h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLog(h.logger()))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", cfg.Auth.APIKeyHeader, "X-Request-ID"},
		AllowCredentials: false,
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	r.Get("/healthz", h.Healthz)
	r.Get("/", h.Overview)

	r.Route("/v1", func(r chi.Router) {
		if cfg.Auth.Enabled() {
			r.Use(middleware.Auth(cfg.Auth))
		}
		r.Get("/runs", h.ListRuns)
		r.Get("/runs/{id}", h.GetRun)
		r.Get("/schedules", h.ListSchedules)
		r.Get("/clones", h.CloneHistory)
		r.Post("/audit", h.Audit)
		r.Post("/validate", h.Validate)
	})

	return r
}
