package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/benvon/lockin/internal/database"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const defaultCORSOrigin = "http://localhost:3000"

// CORSReloader serves CORS headers from the cors_config row and refreshes
// them on an interval.
type CORSReloader struct {
	repo     database.CorsConfigRepositoryInterface
	fallback string
	log      *zap.Logger
	interval time.Duration
	current  atomic.Pointer[cors.Cors]
}

// NewCORSReloader loads the initial policy immediately. frontendURLFallback is
// used while no row is stored or the database is unreachable.
func NewCORSReloader(ctx context.Context, repo database.CorsConfigRepositoryInterface, frontendURLFallback string, log *zap.Logger, reloadInterval time.Duration) *CORSReloader {
	r := &CORSReloader{
		repo:     repo,
		fallback: strings.TrimSpace(frontendURLFallback),
		log:      log,
		interval: reloadInterval,
	}
	r.load(ctx)
	return r
}

// Middleware wraps next with the current policy.
func (r *CORSReloader) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			r.current.Load().Handler(next).ServeHTTP(w, req)
		})
	}
}

// Start runs the reload loop until ctx is cancelled.
func (r *CORSReloader) Start(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.load(ctx)
		}
	}
}

func (r *CORSReloader) load(ctx context.Context) {
	opts := cors.Options{
		AllowedOrigins:   database.AllowedOriginsSlice(r.fallback),
		AllowCredentials: true,
		MaxAge:           86400,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
	}

	cfg, err := r.repo.Get(ctx)
	switch {
	case err != nil:
		r.log.Warn("failed_to_load_cors_config_using_fallback", zap.Error(err))
	case cfg != nil:
		opts.AllowedOrigins = database.AllowedOriginsSlice(cfg.AllowedOrigins)
		opts.AllowCredentials = cfg.AllowCredentials
		opts.MaxAge = cfg.MaxAge
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{defaultCORSOrigin}
	}

	r.current.Store(cors.New(opts))
}
