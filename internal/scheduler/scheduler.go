package scheduler

import (
	"context"
	"fmt"
	"kickelo/internal/cache"
	"kickelo/internal/config"
	"kickelo/internal/constants"
	"kickelo/internal/service"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// hourly refresh so the Medic window and same-day badges move without new matches
const windowRefreshSpec = "0 * * * *"

type Syncer interface {
	Enabled() bool
	Sync(ctx context.Context) (*service.SyncResult, error)
}

type Refresher interface {
	Refresh(ctx context.Context) (cache.Snapshot, error)
}

type Scheduler struct {
	cron     *cron.Cron
	schedule string
	syncer   Syncer
	stats    Refresher
	logger   zerolog.Logger
}

func NewScheduler(cfg *config.Config, syncer Syncer, stats Refresher, logger zerolog.Logger) *Scheduler {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	return &Scheduler{
		cron:     c,
		schedule: cfg.SyncSchedule,
		syncer:   syncer,
		stats:    stats,
		logger:   logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.syncer.Enabled() && s.schedule != "" {
		if _, err := s.cron.AddFunc(s.schedule, s.runSync); err != nil {
			return fmt.Errorf("failed to schedule upstream sync %q: %w", s.schedule, err)
		}
		s.logger.Info().Str("schedule", s.schedule).Msg("upstream sync scheduled")
	} else {
		s.logger.Info().Msg("no upstream configured, sync job disabled")
	}

	if _, err := s.cron.AddFunc(windowRefreshSpec, s.runRefresh); err != nil {
		return fmt.Errorf("failed to schedule stats refresh: %w", err)
	}

	s.cron.Start()
	s.logger.Info().Int("jobs", len(s.cron.Entries())).Msg("cron scheduler started")
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.logger.Info().Msg("stopping cron scheduler")
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info().Msg("cron scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn().Msg("cron scheduler stop timed out")
	}
}

func (s *Scheduler) runSync() {
	ctx, cancel := context.WithTimeout(context.Background(), constants.SyncTimeout)
	defer cancel()

	if _, err := s.syncer.Sync(ctx); err != nil {
		s.logger.Error().Err(err).Msg("scheduled sync failed")
	}
}

func (s *Scheduler) runRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), constants.RequestTimeout)
	defer cancel()

	if _, err := s.stats.Refresh(ctx); err != nil {
		s.logger.Error().Err(err).Msg("scheduled stats refresh failed")
	}
}

// RunNow triggers both jobs synchronously.
func (s *Scheduler) RunNow() {
	if s.syncer.Enabled() {
		s.runSync()
	}
	s.runRefresh()
}

type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
