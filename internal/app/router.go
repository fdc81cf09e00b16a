package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-erp/meridian-erp/internal/alerts"
	"github.com/meridian-erp/meridian-erp/internal/audit"
	"github.com/meridian-erp/meridian-erp/internal/integration"
	"github.com/meridian-erp/meridian-erp/internal/links"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/reports"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Sync    *integration.Handler
	Links   *links.Handler
	Audit   *audit.Handler
	Alerts  *alerts.Handler
	Reports *reports.Handler
	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		if params.Sync != nil {
			r.Route("/sync", params.Sync.MountRoutes)
			r.Route("/reverse", params.Sync.MountReverseRoutes)
		}
		if params.Links != nil {
			r.Route("/links", params.Links.MountRoutes)
		}
		if params.Audit != nil {
			r.Route("/audit", params.Audit.MountRoutes)
		}
		if params.Alerts != nil {
			r.Route("/alerts", params.Alerts.MountRoutes)
		}
		if params.Reports != nil {
			r.Route("/reports", params.Reports.MountRoutes)
			r.Route("/ledger", params.Reports.MountLedgerRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
