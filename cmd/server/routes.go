package main

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/benvon/lockin/internal/config"
	"github.com/benvon/lockin/internal/database"
	"github.com/benvon/lockin/internal/handlers"
	"github.com/benvon/lockin/internal/metrics"
	"github.com/benvon/lockin/internal/middleware"
	"github.com/benvon/lockin/internal/queue"
	"github.com/benvon/lockin/internal/services/hype"
	"github.com/benvon/lockin/internal/services/insights"
	"github.com/benvon/lockin/internal/services/oidc"
	"github.com/benvon/lockin/internal/storage"
	"github.com/benvon/lockin/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

const (
	requestTimeout      = 30 * time.Second
	activityMinInterval = 5 * time.Minute
)

type routerDeps struct {
	cfg          *config.Config
	logger       *zap.Logger
	tracing      bool
	metrics      metrics.Recorder
	gatherer     prometheus.Gatherer
	cors         *middleware.CORSReloader
	rateLimit    *middleware.RateLimitReloader
	verifier     oidc.TokenVerifier
	oidc         *oidc.Provider
	users        database.UserRepositoryInterface
	activity     database.UserActivityRepositoryInterface
	tasks        database.TaskRepositoryInterface
	workLogs     database.WorkLogRepositoryInterface
	sessions     database.SessionRepositoryInterface
	profiles     database.ProfileRepositoryInterface
	stats        *insights.Service
	jobs         queue.JobQueue
	blobs        *storage.DiskStore
	hype         hype.Provider
	healthChecks map[string]handlers.HealthCheckFunc
}

func healthChecks(db *database.DB, redisClient *redis.Client, jobQueue queue.JobQueue) map[string]handlers.HealthCheckFunc {
	return map[string]handlers.HealthCheckFunc{
		"database": db.HealthCheck,
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		"queue":    jobQueue.HealthCheck,
	}
}

// newRouter builds the HTTP surface. gorilla/mux runs middleware in
// registration order, so the first r.Use is the outermost wrapper.
func newRouter(d routerDeps) *mux.Router {
	r := mux.NewRouter()

	if d.tracing {
		r.Use(otelmux.Middleware(telemetry.ServiceAPI))
	}
	r.Use(middleware.SecurityHeaders(d.cfg.EnableHSTS))
	r.Use(d.cors.Middleware())
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize, d.cfg.MaxBeatSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.ErrorHandler(d.logger))
	r.Use(middleware.Metrics(d.metrics))
	r.Use(middleware.Audit(d.logger))
	r.Use(middleware.Logging(d.logger))

	rateLimitMW := d.rateLimit.Middleware()
	authMW := middleware.Auth(d.verifier, d.users, d.logger)
	activityMW := middleware.ActivityTracking(d.activity, activityMinInterval, d.logger)
	protect := func(sub *mux.Router) *mux.Router {
		sub.Use(authMW)
		sub.Use(rateLimitMW)
		sub.Use(activityMW)
		return sub
	}

	handlers.NewHealthChecker(d.healthChecks).RegisterRoutes(r)
	r.Handle("/metrics", metrics.Handler(d.gatherer)).Methods(http.MethodGet)
	handlers.NewOpenAPIHandler(filepath.Join("api", "openapi", "openapi.yaml")).RegisterRoutes(r)
	r.PathPrefix("/blobs/").Handler(d.blobs.Handler()).Methods(http.MethodGet, http.MethodHead)

	api := r.PathPrefix("/api/v1").Subrouter()

	authHandler := handlers.NewAuthHandler(d.oidc, d.cfg.OIDCProvider, d.profiles, d.logger)
	authRouter := api.PathPrefix("/auth").Subrouter()
	loginRouter := authRouter.PathPrefix("").Subrouter()
	loginRouter.Use(rateLimitMW)
	authHandler.RegisterPublicRoutes(loginRouter)
	authHandler.RegisterRoutes(protect(authRouter.PathPrefix("").Subrouter()))

	handlers.NewTaskHandler(d.tasks, d.metrics, d.logger).
		RegisterRoutes(protect(api.PathPrefix("/tasks").Subrouter()))
	handlers.NewWorkLogHandler(d.workLogs, d.stats, d.jobs, d.metrics, d.logger).
		RegisterRoutes(protect(api.PathPrefix("/work-logs").Subrouter()))
	handlers.NewSessionHandler(d.sessions, d.metrics, d.logger).
		RegisterRoutes(protect(api.PathPrefix("/sessions").Subrouter()))
	handlers.NewProfileHandler(d.profiles, d.logger).
		RegisterRoutes(protect(api.PathPrefix("/profile").Subrouter()))
	handlers.NewBeatHandler(d.blobs, d.profiles, d.cfg.MaxBeatSize, d.logger).
		RegisterRoutes(protect(api.PathPrefix("/beats").Subrouter()))

	insightsRouter := protect(api.PathPrefix("").Subrouter())
	handlers.NewStatsHandler(d.stats, d.logger).RegisterRoutes(insightsRouter)
	handlers.NewHypeHandler(d.hype, d.profiles, d.logger).RegisterRoutes(insightsRouter)

	// Preflight requests get their headers from the CORS middleware.
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}
