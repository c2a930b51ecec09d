package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/benvon/lockin/internal/database"
	"github.com/benvon/lockin/internal/models"
	"github.com/benvon/lockin/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// DefaultRate is stored on first start when no rate limit row exists.
const DefaultRate = "10-S"

// RateLimitReloader applies a per-client-IP limit whose rate is read from the
// database and refreshed on an interval.
type RateLimitReloader struct {
	store       limiter.Store
	repo        database.RatelimitConfigRepositoryInterface
	defaultRate string
	log         *zap.Logger
	interval    time.Duration
	current     atomic.Pointer[stdlibmw.Middleware]
}

// NewRateLimitReloader counts in Redis when redisClient is set, in memory otherwise.
func NewRateLimitReloader(ctx context.Context, redisClient *redis.Client, repo database.RatelimitConfigRepositoryInterface, defaultRate string, log *zap.Logger, reloadInterval time.Duration) (*RateLimitReloader, error) {
	if defaultRate == "" {
		defaultRate = DefaultRate
	}
	if _, err := limiter.NewRateFromFormatted(defaultRate); err != nil {
		return nil, fmt.Errorf("invalid default rate %q: %w", defaultRate, err)
	}

	var store limiter.Store
	if redisClient != nil {
		s, err := redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: "lockin:ratelimit"})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
		}
		store = s
	} else {
		store = memorystore.NewStore()
	}

	r := &RateLimitReloader{
		store:       store,
		repo:        repo,
		defaultRate: defaultRate,
		log:         log,
		interval:    reloadInterval,
	}
	r.load(ctx)
	return r, nil
}

// Middleware wraps next with the current limit.
func (r *RateLimitReloader) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			r.current.Load().Handler(next).ServeHTTP(w, req)
		})
	}
}

// Start runs the reload loop until ctx is cancelled.
func (r *RateLimitReloader) Start(ctx context.Context) {
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

func (r *RateLimitReloader) load(ctx context.Context) {
	rateStr := r.defaultRate
	cfg, err := r.repo.Get(ctx)
	switch {
	case err != nil:
		r.log.Warn("failed_to_load_ratelimit_config_from_db_using_default",
			zap.Error(err),
			zap.String("default_rate", r.defaultRate),
		)
	case cfg != nil && cfg.Rate != "":
		rateStr = cfg.Rate
	default:
		if err := r.repo.Set(ctx, &models.RatelimitConfig{Rate: r.defaultRate}); err != nil {
			r.log.Error("failed_to_save_default_ratelimit_config", zap.Error(err))
		}
	}

	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		r.log.Error("failed_to_parse_rate_limit_using_default",
			zap.Error(err),
			zap.String("rate_str", rateStr),
		)
		// validated in the constructor
		rate, _ = limiter.NewRateFromFormatted(r.defaultRate)
	}

	instance := limiter.New(r.store, rate)
	mw := stdlibmw.NewMiddleware(instance, stdlibmw.WithKeyGetter(request.ClientIP))
	r.current.Store(mw)
}
