package fx

import (
	"context"
	"database/sql"
	"kickelo/internal/api"
	"kickelo/internal/config"
	"kickelo/internal/constants"
	"kickelo/internal/database"
	"kickelo/internal/db"
	"kickelo/internal/logger"
	"kickelo/internal/repository"
	"kickelo/internal/scheduler"
	"kickelo/internal/season"
	"kickelo/internal/server"
	"kickelo/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

func ProvideSeasons(cfg *config.Config) *season.Catalog {
	return season.DefaultCatalog(cfg.Location)
}

func provideStores(
	matches *repository.MatchRepository,
	players *repository.PlayerRepository,
	session *repository.SessionRepository,
) (service.MatchStore, service.PlayerStore, service.SessionStore) {
	return matches, players, session
}

func provideUpstream(c *api.UpstreamClient) service.Upstream {
	return c
}

func provideSchedulerDeps(sync *service.SyncService, stats *service.StatsService) (scheduler.Syncer, scheduler.Refresher) {
	return sync, stats
}

// registerHooks warms the stats cache on start. On shutdown it stops the
// background work before closing the database.
func registerHooks(lc fx.Lifecycle, sqlDB *sql.DB, stats *service.StatsService, sched *scheduler.Scheduler, logger zerolog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if _, err := stats.Refresh(ctx); err != nil {
				logger.Warn().Err(err).Msg("initial stats computation failed")
			}
			return sched.Start()
		},
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
			defer cancel()
			sched.Stop(stopCtx)
			stats.Stop()

			if err := sqlDB.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}
			return nil
		},
	})
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	fx.Provide(ProvideQueries),
	fx.Provide(ProvideSeasons),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewMatchRepository),
	fx.Provide(repository.NewSessionRepository),
	fx.Provide(provideStores),
	// api client
	fx.Provide(api.NewUpstreamClient),
	fx.Provide(provideUpstream),
	// svc
	fx.Provide(service.NewStatsService),
	fx.Provide(service.NewSyncService),
	// background
	fx.Provide(provideSchedulerDeps),
	fx.Provide(scheduler.NewScheduler),
	fx.Invoke(registerHooks),
	// server
	fx.Provide(server.NewServer),
)
