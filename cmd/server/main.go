package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/benvon/lockin/internal/cache"
	"github.com/benvon/lockin/internal/config"
	"github.com/benvon/lockin/internal/database"
	"github.com/benvon/lockin/internal/logger"
	"github.com/benvon/lockin/internal/metrics"
	"github.com/benvon/lockin/internal/middleware"
	"github.com/benvon/lockin/internal/queue"
	"github.com/benvon/lockin/internal/services/hype"
	"github.com/benvon/lockin/internal/services/insights"
	"github.com/benvon/lockin/internal/services/oidc"
	"github.com/benvon/lockin/internal/storage"
	"github.com/benvon/lockin/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const (
	queueConnectRetries = 10
	queueInitialDelay   = 2 * time.Second
	queueMaxDelay       = 30 * time.Second
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.Bool("hype_ai_enabled", cfg.OpenAIKey != ""),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	tracingEnabled := false
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), telemetry.ServiceAPI, cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracingEnabled = true
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	if cfg.AutoMigrate {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			zapLogger.Fatal("failed_to_run_migrations", zap.Error(err))
		}
		zapLogger.Info("migrations_applied")
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	redisClient, err := cache.NewRedisClient(context.Background(), cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	jobQueue, err := connectQueue(cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries",
			zap.Int("max_retries", queueConnectRetries),
			zap.Error(err),
		)
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	blobs, err := storage.NewDiskStore(cfg.BlobDir, cfg.BaseURL, cfg.MaxBeatSize)
	if err != nil {
		zapLogger.Fatal("failed_to_open_blob_store", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(registry)

	oidcProvider := oidc.NewProvider(database.NewOIDCConfigRepository(db))
	verifier := oidc.NewVerifier(oidcProvider, oidc.NewJWKSManager(), cfg.OIDCProvider)

	workLogRepo := database.NewWorkLogRepository(db)
	statsService := insights.NewService(workLogRepo, cache.NewStatsCache(redisClient, cfg.StatsCacheTTL), zapLogger)

	var hypeProvider hype.Provider = hype.NewStaticProvider(nil)
	if cfg.OpenAIKey != "" {
		hypeProvider = hype.NewOpenAIProvider(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, hypeProvider, zapLogger)
	}

	reloadCtx, reloadCancel := context.WithCancel(context.Background())
	defer reloadCancel()

	corsReloader := middleware.NewCORSReloader(reloadCtx, database.NewCorsConfigRepository(db), cfg.FrontendURL, zapLogger, time.Minute)
	rateLimitReloader, err := middleware.NewRateLimitReloader(reloadCtx, redisClient, database.NewRatelimitConfigRepository(db), middleware.DefaultRate, zapLogger, time.Minute)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limit_reloader", zap.Error(err))
	}

	r := newRouter(routerDeps{
		cfg:          cfg,
		logger:       zapLogger,
		tracing:      tracingEnabled,
		metrics:      recorder,
		gatherer:     registry,
		cors:         corsReloader,
		rateLimit:    rateLimitReloader,
		verifier:     verifier,
		oidc:         oidcProvider,
		users:        database.NewUserRepository(db),
		activity:     database.NewUserActivityRepository(db),
		tasks:        database.NewTaskRepository(db),
		workLogs:     workLogRepo,
		sessions:     database.NewSessionRepository(db),
		profiles:     database.NewProfileRepository(db),
		stats:        statsService,
		jobs:         jobQueue,
		blobs:        blobs,
		hype:         hypeProvider,
		healthChecks: healthChecks(db, redisClient, jobQueue),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go corsReloader.Start(reloadCtx)
	go rateLimitReloader.Start(reloadCtx)

	if dlqPurger, ok := jobQueue.(queue.DLQPurger); ok {
		dlqGC := queue.NewGarbageCollector(dlqPurger, time.Hour, 24*time.Hour, zapLogger)
		go func() {
			if err := dlqGC.Start(reloadCtx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
		zapLogger.Info("started_dlq_garbage_collector",
			zap.Duration("interval", time.Hour),
			zap.Duration("retention", 24*time.Hour),
		)
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	reloadCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectQueue retries with exponential backoff since RabbitMQ often starts
// after the API in compose setups.
func connectQueue(url string, zapLogger *zap.Logger) (queue.JobQueue, error) {
	var lastErr error
	for attempt := 0; attempt < queueConnectRetries; attempt++ {
		q, err := queue.NewRabbitMQQueue(url, zapLogger)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return q, nil
		}
		lastErr = err

		delay := queueInitialDelay * time.Duration(1<<uint(attempt))
		if delay > queueMaxDelay {
			delay = queueMaxDelay
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", queueConnectRetries),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		time.Sleep(delay)
	}
	return nil, lastErr
}
