package config

import (
	"fmt"
	"kickelo/internal/constants"
	"kickelo/internal/envfile"
	"kickelo/internal/logger"
	"kickelo/internal/pairing"
	"kickelo/internal/rating"
	"kickelo/internal/season"
	"kickelo/internal/stats"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DBPath            string
	ServerPort        string
	LogLevel          string
	RemoteAPIURL      string
	SyncSchedule      string
	GoalCap           int
	StartingRating    int
	KFactor           float64
	RatingScale       float64
	InactiveDays      int
	SessionGap        time.Duration
	RecomputeDebounce time.Duration
	Timezone          string
	SeasonID          string

	Location *time.Location
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := envfile.Load(); err != nil {
		return nil, err
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("remote_api_url", cfg.RemoteAPIURL).
		Str("sync_schedule", cfg.SyncSchedule).
		Int("goal_cap", cfg.GoalCap).
		Int("starting_rating", cfg.StartingRating).
		Float64("k_factor", cfg.KFactor).
		Dur("session_gap", cfg.SessionGap).
		Str("timezone", cfg.Location.String()).
		Str("season_id", cfg.SeasonID).
		Msg("configuration loaded")

	return cfg, nil
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBPath:       getEnv("DB_PATH", "kickelo.db"),
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		RemoteAPIURL: getEnv("REMOTE_API_URL", ""),
		SyncSchedule: getEnv("SYNC_SCHEDULE", constants.DefaultSyncSchedule),
		Timezone:     getEnv("TIMEZONE", "Local"),
		SeasonID:     getEnv("SEASON_ID", ""),
	}

	var err error
	if cfg.GoalCap, err = getEnvInt("GOAL_CAP", stats.DefaultGoalCap); err != nil {
		return nil, err
	}
	if cfg.StartingRating, err = getEnvInt("STARTING_RATING", stats.DefaultStartingRating); err != nil {
		return nil, err
	}
	if cfg.KFactor, err = getEnvFloat("K_FACTOR", rating.DefaultKFactor); err != nil {
		return nil, err
	}
	if cfg.RatingScale, err = getEnvFloat("RATING_SCALE", rating.DefaultScale); err != nil {
		return nil, err
	}
	if cfg.InactiveDays, err = getEnvInt("INACTIVE_THRESHOLD_DAYS", stats.DefaultInactivityDays); err != nil {
		return nil, err
	}
	if cfg.SessionGap, err = getEnvDuration("SESSION_GAP", constants.DefaultSessionGap); err != nil {
		return nil, err
	}
	if cfg.RecomputeDebounce, err = getEnvDuration("RECOMPUTE_DEBOUNCE", constants.DefaultRecomputeDebounce); err != nil {
		return nil, err
	}

	cfg.Location, err = time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}

	if cfg.GoalCap <= 0 {
		return nil, fmt.Errorf("GOAL_CAP must be positive, got %d", cfg.GoalCap)
	}
	if cfg.KFactor <= 0 || cfg.RatingScale <= 0 {
		return nil, fmt.Errorf("K_FACTOR and RATING_SCALE must be positive")
	}

	return cfg, nil
}

func (c *Config) Level() zerolog.Level {
	return logger.ParseLevel(c.LogLevel)
}

func (c *Config) RatingConfig() rating.Config {
	rc := rating.DefaultConfig()
	rc.Scale = c.RatingScale
	rc.KFactor = c.KFactor
	return rc
}

// StatsConfig builds the aggregator configuration; seasons override the
// K-factor for the matches they contain.
func (c *Config) StatsConfig(seasons *season.Catalog) stats.Config {
	sc := stats.DefaultConfig()
	sc.GoalCap = c.GoalCap
	sc.StartingRating = c.StartingRating
	sc.KFactor = c.KFactor
	sc.Rating = c.RatingConfig()
	sc.Location = c.Location
	if seasons != nil {
		sc.KFactorAt = seasons.KFactorAt
	}
	return sc
}

func (c *Config) PairingConfig() pairing.Config {
	pc := pairing.DefaultConfig()
	pc.SessionGap = c.SessionGap
	pc.StartingRating = c.StartingRating
	return pc
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

var Module = fx.Provide(Load)
