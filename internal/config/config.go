package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingConfig is returned when a required setting is absent.
var ErrMissingConfig = errors.New("missing required configuration")

// Config holds server and worker configuration
type Config struct {
	DatabaseURL      string
	ServerPort       string
	BaseURL          string
	FrontendURL      string
	OpenAIKey        string
	AIModel          string
	AIBaseURL        string
	EnableHSTS       bool
	OIDCProvider     string
	RedisURL         string
	RabbitMQURL      string
	RabbitMQPrefetch int
	WorkerDebugMode  bool
	ServerDebugMode  bool
	OTELEnabled      bool
	OTELEndpoint     string
	BlobDir          string
	MaxBeatSize      int64
	StatsCacheTTL    time.Duration
	AutoMigrate      bool
	RolloverTZ       string
}

// Load loads configuration from the environment. A .env file in the working
// directory is read first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:3000"),
		OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
		AIModel:          getEnv("AI_MODEL", ""),
		AIBaseURL:        getEnv("AI_BASE_URL", ""),
		EnableHSTS:       getEnvBool("ENABLE_HSTS", false),
		OIDCProvider:     getEnv("OIDC_PROVIDER", "cognito"),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),
		WorkerDebugMode:  getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:  getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		BlobDir:          getEnv("BLOB_DIR", "./data/blobs"),
		MaxBeatSize:      int64(getEnvInt("MAX_BEAT_SIZE", 20<<20)),
		StatsCacheTTL:    getEnvDuration("STATS_CACHE_TTL", 10*time.Minute),
		AutoMigrate:      getEnvBool("AUTO_MIGRATE", true),
		RolloverTZ:       getEnv("ROLLOVER_TZ", "UTC"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("%w: DATABASE_URL is required", ErrMissingConfig)
	}

	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("%w: RABBITMQ_URL is required for stats refresh jobs", ErrMissingConfig)
	}

	return cfg, nil
}

// LoadDatabaseOnly loads configuration for tools that only talk to
// PostgreSQL, such as the configure CLI.
func LoadDatabaseOnly() (*Config, error) {
	_ = godotenv.Load()
	url := getEnv("DATABASE_URL", "")
	if url == "" {
		return nil, fmt.Errorf("%w: DATABASE_URL is required", ErrMissingConfig)
	}
	return &Config{DatabaseURL: url}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
