// Package scheduler runs periodic housekeeping jobs.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const purgeTimeout = 30 * time.Second

// OutboxPurger removes published outbox events.
type OutboxPurger interface {
	DeletePublished(ctx context.Context, before time.Time) (int64, error)
}

// LimiterCleaner drops idle rate limiter state.
type LimiterCleaner interface {
	CleanupLimiters()
}

// PurgeMetrics records purged event counts.
type PurgeMetrics interface {
	ObservePurge(n int64)
}

// Config for Scheduler. Nil jobs are skipped.
type Config struct {
	Schedule  string
	Retention time.Duration
	Outbox    OutboxPurger
	Limiter   LimiterCleaner
	Metrics   PurgeMetrics
	Logger    zerolog.Logger
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time
}

// New creates a new scheduler instance.
func New(cfg Config) *Scheduler {
	logger := cfg.Logger.With().Str("component", "scheduler").Logger()
	cronLogger := cron.PrintfLogger(&logger)

	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cronLogger))),
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.Schedule, func() { s.RunHousekeeping(ctx) }); err != nil {
		return err
	}

	s.logger.Info().
		Str("schedule", s.cfg.Schedule).
		Dur("retention", s.cfg.Retention).
		Msg("scheduled housekeeping job")

	s.cron.Start()
	return nil
}

// Stop stops the scheduler. The returned context is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunHousekeeping purges published outbox events older than the retention
// window and resets rate limiter state.
func (s *Scheduler) RunHousekeeping(ctx context.Context) {
	if s.cfg.Outbox != nil {
		s.purgeOutbox(ctx)
	}

	if s.cfg.Limiter != nil {
		s.cfg.Limiter.CleanupLimiters()
		s.logger.Debug().Msg("rate limiters reset")
	}
}

func (s *Scheduler) purgeOutbox(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, purgeTimeout)
	defer cancel()

	before := s.now().UTC().Add(-s.cfg.Retention)
	n, err := s.cfg.Outbox.DeletePublished(ctx, before)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to purge outbox")
		return
	}

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ObservePurge(n)
	}

	s.logger.Info().
		Int64("deleted", n).
		Time("before", before).
		Msg("outbox purged")
}
