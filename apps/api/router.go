package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	platformauth "github.com/zenGate-Global/palmyra-gym/platform/go/auth"
	platformlogging "github.com/zenGate-Global/palmyra-gym/platform/go/logging"
	"github.com/zenGate-Global/palmyra-gym/platform/go/metrics"
	platformmiddleware "github.com/zenGate-Global/palmyra-gym/platform/go/middleware"
	tenantmiddleware "github.com/zenGate-Global/palmyra-gym/platform/go/tenant/middleware"
)

// routeMounter is implemented by every domain handler.
type routeMounter interface {
	Routes(r chi.Router)
}

type routerDeps struct {
	Logger         *zap.Logger
	Metrics        *metrics.Recorder
	Auth           func(http.Handler) http.Handler
	Branches       tenantmiddleware.BranchResolver
	ScopeCacheTTL  time.Duration
	RequestTimeout time.Duration
	CORSOrigins    []string
	// Ready reports whether backing services are reachable; nil means always ready.
	Ready    func(ctx context.Context) error
	Handlers []routeMounter
}

func newRouter(deps routerDeps) http.Handler {
	rootRouter := chi.NewRouter()

	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(deps.RequestTimeout),
		platformmiddleware.CORS(deps.CORSOrigins),
		deps.Metrics.Middleware,
	)
	rootRouter.Use(platformlogging.RequestLogger(deps.Logger))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Ready != nil {
			if err := deps.Ready(r.Context()); err != nil {
				deps.Logger.Warn("readiness check failed", zap.Error(err))
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	apiRouter := chi.NewRouter()
	apiRouter.Use(deps.Auth)
	apiRouter.Use(platformauth.RequireUser)
	apiRouter.Use(platformmiddleware.RequestTrace)
	apiRouter.Use(tenantmiddleware.WithTenantScope(deps.Branches, tenantmiddleware.Config{
		CacheTTL: deps.ScopeCacheTTL,
	}))

	for _, h := range deps.Handlers {
		h.Routes(apiRouter)
	}

	rootRouter.Mount("/api/v1", apiRouter)
	return rootRouter
}
