package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Database (optional - leave empty to disable outcome recording)
	DatabaseURL      string        `env:"DATABASE_URL"`
	DatabaseMaxConns int           `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	DatabaseMinConns int           `env:"DATABASE_MIN_CONNS" envDefault:"2"`
	DatabaseTimeout  time.Duration `env:"DATABASE_TIMEOUT"   envDefault:"30s"`
	MigrationsPath   string        `env:"MIGRATIONS_PATH"    envDefault:"internal/infrastructure/postgres/migrations"`

	// Redis (optional - leave empty to disable idempotency)
	RedisURL string `env:"REDIS_URL"`

	// RabbitMQ (optional - leave empty to log events instead)
	AMQPURL        string `env:"AMQP_URL"`
	EventsExchange string `env:"EVENTS_EXCHANGE" envDefault:"payment_instruction_events"`

	// Outbox
	OutboxBatchSize int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
	OutboxInterval  time.Duration `env:"OUTBOX_INTERVAL"   envDefault:"5s"`
	OutboxRetention time.Duration `env:"OUTBOX_RETENTION"  envDefault:"168h"`

	// Housekeeping
	HousekeepingSchedule string `env:"HOUSEKEEPING_SCHEDULE" envDefault:"@hourly"`

	// HTTP Server
	HTTPPort            string        `env:"HTTP_PORT"             envDefault:"8080"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"30s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"30s"`
	HTTPIdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT"     envDefault:"60s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Rate limiting (0 disables)
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS"   envDefault:"0"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"https://*,http://*" envSeparator:","`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Idempotency and record cache (both need REDIS_URL)
	IdempotencyTTL      time.Duration `env:"IDEMPOTENCY_TTL"       envDefault:"24h"`
	InstructionCacheTTL time.Duration `env:"INSTRUCTION_CACHE_TTL" envDefault:"10m"`
}

// RecordingEnabled reports whether outcomes are stored in Postgres.
func (c *Config) RecordingEnabled() bool {
	return c.DatabaseURL != ""
}

// IdempotencyEnabled reports whether idempotency keys are stored in Redis.
func (c *Config) IdempotencyEnabled() bool {
	return c.RedisURL != ""
}

// RateLimitEnabled reports whether the per-IP limiter is installed.
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimitRPS > 0
}

// Load loads configuration from environment variables. Variables from the
// given dotenv files, or ./.env when none are given, are applied first
// without overriding the real environment. Missing files are skipped.
func Load(dotenvFiles ...string) (*Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}

	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
