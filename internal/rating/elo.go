// Package rating turns a single match result into a rating exchange.
package rating

import (
	"kickelo/internal/domain"
	"math"
)

const (
	DefaultScale             = 400.0
	DefaultKFactor           = 40.0
	DefaultHandicapPerPlayer = 35.0
	DefaultCloseLossWeight   = 0.7
)

type Config struct {
	Scale             float64
	KFactor           float64
	HandicapPerPlayer float64
	CloseLossWeight   float64
}

func DefaultConfig() Config {
	return Config{
		Scale:             DefaultScale,
		KFactor:           DefaultKFactor,
		HandicapPerPlayer: DefaultHandicapPerPlayer,
		CloseLossWeight:   DefaultCloseLossWeight,
	}
}

// Outcome is one finished match reduced to what the formula needs.
// KFactor <= 0 falls back to the engine default.
type Outcome struct {
	RatingA float64
	RatingB float64
	SizeA   int
	SizeB   int
	Winner  domain.Side
	GoalsA  int
	GoalsB  int
	KFactor float64
}

type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.Scale <= 0 {
		cfg.Scale = def.Scale
	}
	if cfg.KFactor <= 0 {
		cfg.KFactor = def.KFactor
	}
	if cfg.HandicapPerPlayer < 0 {
		cfg.HandicapPerPlayer = def.HandicapPerPlayer
	}
	if cfg.CloseLossWeight < 0 {
		cfg.CloseLossWeight = def.CloseLossWeight
	}
	return &Engine{cfg: cfg}
}

func (e *Engine) Config() Config {
	return e.cfg
}

// ExpectedScore is the logistic win expectation of a against b.
func (e *Engine) ExpectedScore(a, b float64) float64 {
	return ExpectedScore(a, b, e.cfg.Scale)
}

// Adjusted applies the size handicap: the smaller side gains HandicapPerPlayer per missing player.
func (e *Engine) Adjusted(o Outcome) (float64, float64) {
	a, b := o.RatingA, o.RatingB
	switch gap := o.SizeA - o.SizeB; {
	case gap < 0:
		a += e.cfg.HandicapPerPlayer * float64(-gap)
	case gap > 0:
		b += e.cfg.HandicapPerPlayer * float64(gap)
	}
	return a, b
}

// Delta returns the non-negative number of points the winners take from the losers.
func (e *Engine) Delta(o Outcome) int {
	if o.Winner != domain.SideA && o.Winner != domain.SideB {
		return 0
	}
	k := o.KFactor
	if k <= 0 {
		k = e.cfg.KFactor
	}

	adjA, adjB := e.Adjusted(o)
	expectedA := e.ExpectedScore(adjA, adjB)
	expectedWinner := expectedA
	if o.Winner == domain.SideB {
		expectedWinner = 1 - expectedA
	}

	actualWinner := 1.0
	if e.smallerSide(o) == o.Winner.Other() {
		winnerGoals, loserGoals := o.GoalsA, o.GoalsB
		if o.Winner == domain.SideB {
			winnerGoals, loserGoals = o.GoalsB, o.GoalsA
		}
		actualWinner = 1 - e.closeLossCredit(loserGoals, winnerGoals)
	}

	delta := int(math.Round(k * (actualWinner - expectedWinner)))
	if delta < 0 {
		return 0
	}
	return delta
}

func (e *Engine) smallerSide(o Outcome) domain.Side {
	switch {
	case o.SizeA < o.SizeB:
		return domain.SideA
	case o.SizeB < o.SizeA:
		return domain.SideB
	}
	return ""
}

func (e *Engine) closeLossCredit(loserGoals, winnerGoals int) float64 {
	if winnerGoals <= 0 {
		return 0
	}
	ratio := float64(loserGoals) / float64(winnerGoals)
	return clamp(ratio, 0, 1) * e.cfg.CloseLossWeight
}

// ExpectedScore is E_A = 1 / (1 + 10^((b-a)/scale)).
func ExpectedScore(a, b, scale float64) float64 {
	if scale <= 0 {
		scale = DefaultScale
	}
	return 1 / (1 + math.Pow(10, (b-a)/scale))
}

// ComputeDelta runs the default engine with an explicit K-factor.
func ComputeDelta(ratingA, ratingB float64, sizeA, sizeB int, winner domain.Side, goalsA, goalsB int, kFactor float64) int {
	return defaultEngine.Delta(Outcome{
		RatingA: ratingA,
		RatingB: ratingB,
		SizeA:   sizeA,
		SizeB:   sizeB,
		Winner:  winner,
		GoalsA:  goalsA,
		GoalsB:  goalsB,
		KFactor: kFactor,
	})
}

var defaultEngine = NewEngine(DefaultConfig())

// TeamAverage is the mean of the given ratings, 0 for an empty team.
func TeamAverage(ratings ...float64) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ratings {
		sum += r
	}
	return sum / float64(len(ratings))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
