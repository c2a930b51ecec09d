package main

import (
	"context"
	"errors"
	"flag"
	"log"
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
	"github.com/benvon/lockin/internal/queue"
	"github.com/benvon/lockin/internal/services/insights"
	"github.com/benvon/lockin/internal/telemetry"
	"github.com/benvon/lockin/internal/workers"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	rolloverNow := flag.Bool("rollover-now", false, "Run one rollover pass at startup")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	loc, err := time.LoadLocation(cfg.RolloverTZ)
	if err != nil {
		zapLogger.Fatal("invalid_rollover_timezone", zap.String("tz", cfg.RolloverTZ), zap.Error(err))
	}

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
		zap.String("rollover_tz", loc.String()),
	)

	if cfg.OTELEnabled && cfg.OTELEndpoint != "" {
		tp, err := telemetry.InitTracer(context.Background(), telemetry.ServiceWorker, cfg.OTELEndpoint)
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
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

	redisClient, err := cache.NewRedisClient(context.Background(), cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()

	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	statsService := insights.NewService(
		database.NewWorkLogRepository(db),
		cache.NewStatsCache(redisClient, cfg.StatsCacheTTL),
		zapLogger,
	)
	refresher := workers.NewRefreshWorker(statsService, jobQueue, metrics.NewCollector(prometheus.DefaultRegisterer), zapLogger)
	scheduler := workers.NewScheduler(
		jobQueue,
		database.NewUserActivityRepository(db),
		database.NewSessionRepository(db),
		loc,
		zapLogger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if *rolloverNow {
		if err := scheduler.Rollover(ctx); err != nil {
			zapLogger.Error("rollover_failed", zap.Error(err))
		}
	}

	go func() {
		if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("rollover_scheduler_stopped", zap.Error(err))
		}
	}()

	gc := queue.NewGarbageCollector(jobQueue, time.Hour, 24*time.Hour, zapLogger)
	go func() {
		if err := gc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
		}
	}()

	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}

	zapLogger.Info("worker_started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgChan:
				if !ok {
					zapLogger.Info("message_channel_closed")
					return
				}
				job := msg.GetJob()
				err := telemetry.TraceJob(ctx, string(job.Type), job.ID.String(), func(ctx context.Context) error {
					return refresher.ProcessJob(ctx, msg)
				})
				if err != nil {
					zapLogger.Error("failed_to_process_job",
						zap.String("job_id", job.ID.String()),
						zap.String("job_type", string(job.Type)),
						zap.Error(err),
					)
				}
			}
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("queue_error", zap.Error(err))
			}
		}
	}()

	<-sigChan
	zapLogger.Info("worker_shutting_down")
	cancel()
	zapLogger.Info("worker_stopped")
}
