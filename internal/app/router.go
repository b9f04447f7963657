package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/backhouse-hq/backhouse/internal/balance"
	"github.com/backhouse-hq/backhouse/internal/match"
	"github.com/backhouse-hq/backhouse/internal/observability"
	"github.com/backhouse-hq/backhouse/internal/outflow"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	OutflowHandler *outflow.Handler
	MatchHandler   *match.Handler
	BalanceHandler *balance.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with Backhouse defaults.
func NewRouter(params RouterParams) http.Handler {
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

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/restaurants/{restaurantID}", func(r chi.Router) {
		if params.OutflowHandler != nil {
			params.OutflowHandler.MountRoutes(r)
		}
		if params.MatchHandler != nil {
			params.MatchHandler.MountRoutes(r)
		}
		if params.BalanceHandler != nil {
			params.BalanceHandler.MountRoutes(r)
		}
	})

	return r
}
