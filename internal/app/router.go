package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gavelhq/gavel/internal/admission"
	"github.com/gavelhq/gavel/internal/auth"
	"github.com/gavelhq/gavel/internal/cases"
	"github.com/gavelhq/gavel/internal/observability"
	"github.com/gavelhq/gavel/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger       *slog.Logger
	Config       *Config
	AuthHandler  *auth.Handler
	Boundary     *auth.Boundary
	Limiter      *admission.Limiter
	CasesHandler *cases.Handler
	JobsHandler  *jobs.Handler
	Metrics      *observability.Metrics
}

// NewRouter constructs the chi.Router.
//
// /auth and /healthz sit outside the court scope: a login request is not yet
// addressed to any court. Everything under /api runs behind the full chain of
// court resolution, token verification, then admission, in that order, so a
// request missing its court is rejected before any token work happens.
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

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(params.Boundary.RequireCourt)
		r.Use(params.Boundary.Authenticate)
		r.Use(admission.Middleware(params.Limiter, params.Metrics))

		if params.CasesHandler != nil {
			r.Route("/cases", params.CasesHandler.MountRoutes)
		}
	})

	return r
}
