package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/WestCoastInformatics/snowstorm-1/internal/platform/metrics"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/httputil"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/middleware/admin"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/middleware/request"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/middleware/requesttime"
)

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

type routerConfig struct {
	metrics    *metrics.Metrics
	checks     map[string]HealthCheck
	adminToken string
	logger     *slog.Logger
}

type RouterOption func(*routerConfig)

func WithHTTPMetrics(m *metrics.Metrics) RouterOption {
	return func(c *routerConfig) { c.metrics = m }
}

func WithHealthChecks(checks map[string]HealthCheck) RouterOption {
	return func(c *routerConfig) { c.checks = checks }
}

// WithAdminToken guards the /admin routes with a shared token.
func WithAdminToken(token string, logger *slog.Logger) RouterOption {
	return func(c *routerConfig) {
		c.adminToken = token
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewRouter builds the admin router: request ids, recovery, HTTP metrics, health,
// Prometheus exposition and the token-guarded MRCM endpoints.
func NewRouter(h *Handler, opts ...RouterOption) http.Handler {
	cfg := routerConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requesttime.Middleware)
	r.Use(request.Context)
	r.Use(cfg.metrics.Middleware)

	r.Get("/health", healthHandler(cfg.checks))
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(cfg.adminToken, cfg.logger))
		h.Register(r)
	})
	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{}
		healthy := true
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				status[name] = err.Error()
				healthy = false
				continue
			}
			status[name] = "ok"
		}
		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, code, map[string]any{"healthy": healthy, "checks": status})
	}
}
