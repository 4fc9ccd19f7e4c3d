package stats

import (
	"kickelo/internal/rating"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultGoalCap               = 5
	DefaultStartingRating        = 1500
	DefaultMedicLookback         = 7 * 24 * time.Hour
	DefaultMedicMinLossStreak    = 3
	DefaultExtinguisherMinStreak = 3
	DefaultFastWinThreshold      = 150 * time.Second
	DefaultRollercoasterChanges  = 3
	DefaultUnderdogStep          = 100
	DefaultInactivityDays        = 14
)

type Config struct {
	GoalCap        int
	StartingRating int
	KFactor        float64
	// KFactorAt overrides KFactor per match timestamp (unix ms), e.g. from the active season.
	KFactorAt func(ts int64) float64
	Rating    rating.Config
	Bayes     rating.BayesConfig

	// Now anchors same-day badges and the Medic lookback. Zero reads the wall
	// clock, so only calls with the same Now produce the same Result.
	Now      time.Time
	Location *time.Location

	MedicLookback         time.Duration
	MedicMinLossStreak    int
	ExtinguisherMinStreak int
	FastWinThreshold      time.Duration
	RollercoasterChanges  int
	UnderdogStep          int

	Logger zerolog.Logger
}

func DefaultConfig() Config {
	return Config{
		GoalCap:               DefaultGoalCap,
		StartingRating:        DefaultStartingRating,
		KFactor:               rating.DefaultKFactor,
		Rating:                rating.DefaultConfig(),
		Bayes:                 rating.DefaultBayesConfig(),
		Location:              time.Local,
		MedicLookback:         DefaultMedicLookback,
		MedicMinLossStreak:    DefaultMedicMinLossStreak,
		ExtinguisherMinStreak: DefaultExtinguisherMinStreak,
		FastWinThreshold:      DefaultFastWinThreshold,
		RollercoasterChanges:  DefaultRollercoasterChanges,
		UnderdogStep:          DefaultUnderdogStep,
		Logger:                zerolog.Nop(),
	}
}

// normalize fills zero values so a partially built Config behaves like the default one.
func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.GoalCap <= 0 {
		c.GoalCap = def.GoalCap
	}
	if c.StartingRating <= 0 {
		c.StartingRating = def.StartingRating
	}
	if c.KFactor <= 0 {
		c.KFactor = def.KFactor
	}
	if c.Rating.Scale <= 0 {
		c.Rating = def.Rating
	}
	if c.Bayes.Sigma <= 0 {
		c.Bayes = def.Bayes
	}
	if c.Now.IsZero() {
		c.Now = time.Now()
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.MedicLookback <= 0 {
		c.MedicLookback = def.MedicLookback
	}
	if c.MedicMinLossStreak <= 0 {
		c.MedicMinLossStreak = def.MedicMinLossStreak
	}
	if c.ExtinguisherMinStreak <= 0 {
		c.ExtinguisherMinStreak = def.ExtinguisherMinStreak
	}
	if c.FastWinThreshold <= 0 {
		c.FastWinThreshold = def.FastWinThreshold
	}
	if c.RollercoasterChanges <= 0 {
		c.RollercoasterChanges = def.RollercoasterChanges
	}
	if c.UnderdogStep <= 0 {
		c.UnderdogStep = def.UnderdogStep
	}
	return c
}

func (c Config) kFactorAt(ts int64) float64 {
	if c.KFactorAt != nil {
		if k := c.KFactorAt(ts); k > 0 {
			return k
		}
	}
	return c.KFactor
}

func (c Config) dayKey(ts int64) string {
	return time.UnixMilli(ts).In(c.Location).Format(dayLayout)
}

const dayLayout = "2006-01-02"
