package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/vittermi/FastFood/utils"
)

type Config struct {
	Port     string `validate:"required,numeric"`
	GinMode  string `validate:"omitempty,oneof=debug release test"`
	LogLevel string

	DBDriver      string `validate:"required,oneof=sqlite mysql postgres mongo"`
	DBDSN         string `validate:"required"`
	MongoDatabase string `validate:"required_if=DBDriver mongo"`

	JWTSecret   string `validate:"required,min=16"`
	CORSOrigins []string

	RateLimitRPS   float64 `validate:"gt=0"`
	RateLimitBurst int     `validate:"gte=1"`

	CatalogCacheSize     int           `validate:"gte=1"`
	CatalogCacheTTL      time.Duration `validate:"gt=0"`
	EstimatorConcurrency int           `validate:"gte=1"`

	EventsDrivers    []string `validate:"dive,oneof=log kafka rabbitmq none"`
	KafkaBrokers     []string
	KafkaTopic       string
	RabbitMQURL      string
	RabbitMQExchange string

	OutboxInterval  time.Duration `validate:"gt=0"`
	OutboxBatchSize int           `validate:"gte=1"`
}

// UsesEvents reports whether driver is among the configured event drivers.
func (c *Config) UsesEvents(driver string) bool {
	for _, d := range c.EventsDrivers {
		if d == driver {
			return true
		}
	}
	return false
}

// Load reads .env (when present) and the environment, applies defaults and
// validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("Warning: .env file not found")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	r := reader{getenv: getenv}

	cfg := &Config{
		Port:     r.str("PORT", "8080"),
		GinMode:  r.str("GIN_MODE", ""),
		LogLevel: r.str("LOG_LEVEL", "info"),

		DBDriver:      strings.ToLower(r.str("DB_DRIVER", "sqlite")),
		DBDSN:         r.str("DB_DSN", "fastfood.db"),
		MongoDatabase: r.str("MONGO_DATABASE", "fastfood"),

		JWTSecret:   r.str("JWT_SECRET", ""),
		CORSOrigins: r.list("CORS_ORIGINS"),

		RateLimitRPS:   r.float("RATE_LIMIT_RPS", 20),
		RateLimitBurst: r.int("RATE_LIMIT_BURST", 40),

		CatalogCacheSize:     r.int("CATALOG_CACHE_SIZE", 1024),
		CatalogCacheTTL:      r.duration("CATALOG_CACHE_TTL", 30*time.Second),
		EstimatorConcurrency: r.int("ESTIMATOR_CONCURRENCY", 4),

		EventsDrivers:    r.list("EVENTS_DRIVER"),
		KafkaBrokers:     r.list("KAFKA_BROKERS"),
		KafkaTopic:       r.str("KAFKA_TOPIC", "fastfood.orders"),
		RabbitMQURL:      r.str("RABBITMQ_URL", ""),
		RabbitMQExchange: r.str("RABBITMQ_EXCHANGE", "fastfood.orders"),

		OutboxInterval:  r.duration("OUTBOX_INTERVAL", time.Second),
		OutboxBatchSize: r.int("OUTBOX_BATCH_SIZE", 100),
	}
	if len(cfg.EventsDrivers) == 0 {
		cfg.EventsDrivers = []string{"log"}
	}

	if len(r.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(r.errs, "; "))
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.UsesEvents("kafka") && len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("invalid configuration: KAFKA_BROKERS is required for the kafka events driver")
	}
	if cfg.UsesEvents("rabbitmq") && cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("invalid configuration: RABBITMQ_URL is required for the rabbitmq events driver")
	}
	return cfg, nil
}

type reader struct {
	getenv func(string) string
	errs   []string
}

func (r *reader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(r.getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (r *reader) int(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return n
}

func (r *reader) float(key string, def float64) float64 {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return f
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return d
}
