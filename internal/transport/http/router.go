// Package httptransport assembles the HTTP surface: public registration
// flow, administrative routes behind the admin token, and the operational
// endpoints.
package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"examreg/internal/platform/middleware"
)

// FeatureHandler mounts public routes.
type FeatureHandler interface {
	Register(r chi.Router)
}

// AdminHandler mounts routes that require the admin token.
type AdminHandler interface {
	RegisterAdmin(r chi.Router)
}

// HealthChecker reports readiness of a backing dependency.
type HealthChecker func() error

// RouterConfig carries everything the router needs.
type RouterConfig struct {
	Logger     *slog.Logger
	AdminToken string
	Public     []FeatureHandler
	Admin      []AdminHandler
	Health     map[string]HealthChecker
}

// NewRouter builds the chi router with the shared middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)

	r.Route("/api", func(api chi.Router) {
		for _, handler := range cfg.Public {
			handler.Register(api)
		}

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(middleware.RequireAdminToken(cfg.AdminToken, cfg.Logger))
			for _, handler := range cfg.Admin {
				handler.RegisterAdmin(admin)
			}
		})
	})

	r.Get("/healthz", handleHealth(cfg.Health))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := make(map[string]string, len(checks)+1)
		body["status"] = "ok"
		for name, check := range checks {
			if err := check(); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
				continue
			}
			body[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
