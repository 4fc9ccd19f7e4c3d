package constants

import "time"

const (
	UpstreamAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
	SyncTimeout        = 2 * time.Minute
)

const (
	DBMaxOpenConns    = 8
	DBMaxIdleConns    = 4
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	DefaultRecomputeDebounce = 500 * time.Millisecond
	DefaultSessionGap        = 30 * time.Minute
	DefaultSyncSchedule      = "@every 5m"
)

const (
	MaxRequestBodyBytes = 1 << 20
	RecentMatchesLimit  = 50
)
