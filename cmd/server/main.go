package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/payflow/internal/adapter/http"
	"github.com/iho/payflow/internal/adapter/http/handler"
	"github.com/iho/payflow/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/payflow/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/payflow/internal/adapter/repository/redis"
	"github.com/iho/payflow/internal/infrastructure/config"
	"github.com/iho/payflow/internal/infrastructure/eventpublisher"
	"github.com/iho/payflow/internal/infrastructure/logger"
	"github.com/iho/payflow/internal/infrastructure/metrics"
	"github.com/iho/payflow/internal/infrastructure/postgres"
	"github.com/iho/payflow/internal/infrastructure/rabbitmq"
	"github.com/iho/payflow/internal/infrastructure/redis"
	"github.com/iho/payflow/internal/infrastructure/scheduler"
	"github.com/iho/payflow/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

// backends holds the optional connections. Nil fields are not configured.
type backends struct {
	pool     *pgxpool.Pool
	redis    *goredis.Client
	producer *rabbitmq.EventProducer
}

func (b *backends) close() {
	if b.producer != nil {
		b.producer.Close()
	}
	if b.redis != nil {
		b.redis.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
}

func connect(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backends, error) {
	b := &backends{}

	if cfg.RecordingEnabled() {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			return b, fmt.Errorf("run migrations: %w", err)
		}

		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:    cfg.DatabaseURL,
			MaxConns:       cfg.DatabaseMaxConns,
			MinConns:       cfg.DatabaseMinConns,
			ConnectTimeout: cfg.DatabaseTimeout,
		})
		if err != nil {
			return b, fmt.Errorf("connect to postgres: %w", err)
		}
		b.pool = pool
		log.Info().Msg("connected to postgres")

		if cfg.AMQPURL != "" {
			producer, err := rabbitmq.NewEventProducer(cfg.AMQPURL, cfg.EventsExchange, log)
			if err != nil {
				return b, fmt.Errorf("connect to rabbitmq: %w", err)
			}
			b.producer = producer
			log.Info().Str("exchange", cfg.EventsExchange).Msg("connected to rabbitmq")
		}
	} else {
		log.Warn().Msg("DATABASE_URL not set; outcomes will not be recorded")
	}

	if cfg.IdempotencyEnabled() {
		client, err := redis.Connect(ctx, cfg.RedisURL, log)
		if err != nil {
			return b, fmt.Errorf("connect to redis: %w", err)
		}
		b.redis = client
	}

	return b, nil
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewWithRegistry(registry)

	b, err := connect(ctx, cfg, log)
	defer b.close()
	if err != nil {
		return err
	}

	opts := []usecase.Option{usecase.WithMetrics(m)}
	var outboxRepo *postgresRepo.OutboxRepository
	if b.pool != nil {
		var instructionRepo usecase.InstructionRepository = postgresRepo.NewInstructionRepository(b.pool)
		if b.redis != nil {
			instructionRepo = redisRepo.NewCachedInstructionRepository(instructionRepo, b.redis, cfg.InstructionCacheTTL, log)
		}
		outboxRepo = postgresRepo.NewOutboxRepository(b.pool)

		opts = append(opts, usecase.WithRecording(
			postgresRepo.NewTxManager(b.pool),
			instructionRepo,
			outboxRepo,
			postgresRepo.NewULIDGenerator(),
			postgresRepo.NewRetrier(log),
		))
	}
	instructionUC := usecase.NewPaymentInstructionUseCase(log, opts...)

	var checks []handler.Check
	if b.pool != nil {
		checks = append(checks, handler.Check{Name: "postgres", Ping: b.pool.Ping})
	}
	if b.redis != nil {
		client := b.redis
		checks = append(checks, handler.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})
	}

	routerCfg := httpAdapter.RouterConfig{
		InstructionHandler: handler.NewPaymentInstructionHandler(instructionUC),
		HealthHandler:      handler.NewHealthHandler(checks...),
		Logger:             log,
		Metrics:            m,
		MetricsGatherer:    registry,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RecordReads:        instructionUC.RecordingEnabled(),
	}
	if b.redis != nil {
		routerCfg.IdempotencyStore = redisRepo.NewIdempotencyStore(b.redis)
		routerCfg.IdempotencyTTL = cfg.IdempotencyTTL
	}
	if cfg.RateLimitEnabled() {
		routerCfg.RateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	}

	server := newHTTPServer(cfg, httpAdapter.NewRouter(routerCfg))

	var wg sync.WaitGroup
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer func() {
		stopWorkers()
		wg.Wait()
	}()

	if outboxRepo != nil {
		var sink eventpublisher.Publisher = eventpublisher.NewLogPublisher(log)
		if b.producer != nil {
			sink = b.producer
		}
		publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  sink,
			Metrics:    m,
			Logger:     log,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := publisher.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("event publisher stopped")
			}
		}()
	}

	schedCfg := scheduler.Config{
		Schedule:  cfg.HousekeepingSchedule,
		Retention: cfg.OutboxRetention,
		Metrics:   m,
		Logger:    log,
	}
	if outboxRepo != nil {
		schedCfg.Outbox = outboxRepo
	}
	if routerCfg.RateLimiter != nil {
		schedCfg.Limiter = routerCfg.RateLimiter
	}
	if schedCfg.Outbox != nil || schedCfg.Limiter != nil {
		sched := scheduler.New(schedCfg)
		if err := sched.Start(workerCtx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer func() { <-sched.Stop().Done() }()
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Bool("recording", instructionUC.RecordingEnabled()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}
