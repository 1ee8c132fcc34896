package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server, workers and tools read from the environment
type Config struct {
	Port        string
	Environment string

	// Database
	DatabaseDriver string // "postgres" or "sqlite"
	DatabaseURL    string

	// Identity provider
	JWTSecret []byte
	TokenTTL  time.Duration

	// AWS
	AWSRegion     string
	ImageBucket   string
	ImageBaseURL  string
	EmailFrom     string
	EmailFromName string
	AppBaseURL    string

	// Redis (change-event stream). Empty host means the in-process bus is used.
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	EventStream    string
	ConsumerGroup  string
	ConsumerName   string
	TriggerWorkers int

	// SQS queue drained by cmd/trigger-lambda. When set, change events are sent there.
	EventQueueURL string

	// Logging
	LogLevel string
	LogFile  string

	// Tracing
	TracingEnabled  bool
	OTLPEndpoint    string
	TraceSampleRate float64
}

// Load reads configuration from the environment, loading .env first when present.
// REQUIRED environment variables:
// - JWT_SECRET: HMAC key used to sign and verify ID tokens
func Load() (*Config, error) {
	// A missing .env is fine, the process environment is used as-is
	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	}

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8787"),
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),

		DatabaseDriver: getEnvOrDefault("DB_DRIVER", "postgres"),
		DatabaseURL:    databaseURL(),

		JWTSecret: []byte(secret),
		TokenTTL:  getDurationOrDefault("TOKEN_TTL", time.Hour),

		AWSRegion:     getEnvOrDefault("AWS_REGION", "us-east-1"),
		ImageBucket:   os.Getenv("IMAGE_BUCKET"),
		ImageBaseURL:  os.Getenv("IMAGE_BASE_URL"),
		EmailFrom:     os.Getenv("EMAIL_FROM"),
		EmailFromName: getEnvOrDefault("EMAIL_FROM_NAME", "Screams"),
		AppBaseURL:    getEnvOrDefault("APP_BASE_URL", "http://localhost:8787"),

		RedisHost:      os.Getenv("REDIS_HOST"),
		RedisPort:      getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		EventStream:    getEnvOrDefault("EVENT_STREAM", "screams:changes"),
		ConsumerGroup:  getEnvOrDefault("EVENT_CONSUMER_GROUP", "triggers"),
		ConsumerName:   getEnvOrDefault("EVENT_CONSUMER_NAME", hostname()),
		TriggerWorkers: getIntOrDefault("TRIGGER_WORKERS", 4),

		EventQueueURL: os.Getenv("EVENT_QUEUE_URL"),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:  getEnvOrDefault("LOG_FILE", "server.log"),

		TracingEnabled:  os.Getenv("OTEL_ENABLED") == "true",
		OTLPEndpoint:    getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		TraceSampleRate: getFloatOrDefault("OTEL_SAMPLE_RATE", 1.0),
	}

	if cfg.ImageBaseURL == "" && cfg.ImageBucket != "" {
		cfg.ImageBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.ImageBucket, cfg.AWSRegion)
	}

	return cfg, nil
}

// IsProduction reports whether ENVIRONMENT=production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsesRedis reports whether the change-event stream should go through Redis
func (c *Config) UsesRedis() bool {
	return c.RedisHost != ""
}

// databaseURL prefers DATABASE_URL and falls back to the individual components
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	if os.Getenv("DB_DRIVER") == "sqlite" {
		return getEnvOrDefault("DB_PATH", "screams.db")
	}

	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "postgres")
	password := getEnvOrDefault("DB_PASSWORD", "")
	dbname := getEnvOrDefault("DB_NAME", "screams")
	sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)
}

// hostname names this process's stream consumers. It must survive restarts so pending
// messages are picked up again by the same name.
func hostname() string {
	if name, err := os.Hostname(); err == nil && name != "" {
		return name
	}
	return "screams"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}
