// Package stats replays a full match history into per-player statistics,
// team ladders and badges. Every call recomputes from scratch.
package stats

import (
	"kickelo/internal/domain"
	"kickelo/internal/rating"
	"sort"
	"time"
)

type aggregator struct {
	cfg     Config
	engine  *rating.Engine
	bayes   *rating.Bayes
	players map[string]*playerState
	teams   map[string]*TeamStats
	deltas  map[string]int
	skipped int

	today     string
	yesterday string
	medicFrom int64
}

// ComputeAll replays matches (newest first, as stored) and returns the derived state.
// Malformed matches are logged and skipped.
func ComputeAll(matches []domain.Match, cfg Config) *Result {
	cfg = cfg.normalize()
	started := time.Now()

	a := newAggregator(cfg)
	for _, m := range Chronological(matches) {
		a.replay(m)
	}
	res := a.finish()

	cfg.Logger.Debug().
		Int("matches", len(matches)).
		Int("players", len(res.Players)).
		Int("skipped", res.Skipped).
		Dur("elapsed", time.Since(started)).
		Msg("stats recomputed")

	return res
}

// Chronological returns a copy ordered oldest first. Input is expected newest
// first; equal timestamps keep that reversed order.
func Chronological(matches []domain.Match) []domain.Match {
	out := make([]domain.Match, len(matches))
	for i, m := range matches {
		out[len(matches)-1-i] = m
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}

// MedicWindowStart is where the Medic lookback begins. It moves in whole
// hours so a result stays valid for the rest of the hour it was computed in.
func MedicWindowStart(now time.Time, lookback time.Duration) time.Time {
	return now.Add(-lookback).Truncate(time.Hour)
}

func newAggregator(cfg Config) *aggregator {
	now := cfg.Now.In(cfg.Location)
	noon := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, cfg.Location)
	return &aggregator{
		cfg:       cfg,
		engine:    rating.NewEngine(cfg.Rating),
		bayes:     rating.NewBayes(cfg.Bayes),
		players:   make(map[string]*playerState),
		teams:     make(map[string]*TeamStats),
		deltas:    make(map[string]int),
		today:     noon.Format(dayLayout),
		yesterday: noon.AddDate(0, 0, -1).Format(dayLayout),
		medicFrom: MedicWindowStart(cfg.Now, cfg.MedicLookback).UnixMilli(),
	}
}

func (a *aggregator) player(name string) *playerState {
	if ps, ok := a.players[name]; ok {
		return ps
	}
	ps := newPlayerState(name, a.cfg.StartingRating, a.bayes.Initial())
	a.players[name] = ps
	return ps
}

func (a *aggregator) teamAverage(names []string) float64 {
	ratings := make([]float64, len(names))
	for i, n := range names {
		ratings[i] = float64(a.player(n).stats.Elo)
	}
	return rating.TeamAverage(ratings...)
}

func (a *aggregator) replay(m domain.Match) {
	if err := m.Validate(); err != nil {
		a.skipped++
		a.cfg.Logger.Warn().
			Err(err).
			Str("match_id", m.Key()).
			Msg("skipping malformed match")
		return
	}

	pre := make(map[string]int, len(m.TeamA)+len(m.TeamB))
	for _, name := range m.Players() {
		pre[name] = a.player(name).stats.Elo
	}

	k := a.cfg.kFactorAt(m.Timestamp)
	avgA, avgB := a.teamAverage(m.TeamA), a.teamAverage(m.TeamB)
	delta := 0
	if m.IsRanked() {
		delta = a.engine.Delta(rating.Outcome{
			RatingA: avgA,
			RatingB: avgB,
			SizeA:   len(m.TeamA),
			SizeB:   len(m.TeamB),
			Winner:  m.Winner,
			GoalsA:  m.GoalsA,
			GoalsB:  m.GoalsB,
			KFactor: k,
		})
	}
	a.deltas[m.Key()] = delta

	var tl *timeline
	if m.HasGoalLog() {
		t := readTimeline(m.GoalLog)
		tl = &t
	}

	mc := matchContext{
		match: m,
		delta: delta,
		day:   a.cfg.dayKey(m.Timestamp),
		avg:   map[domain.Side]float64{domain.SideA: avgA, domain.SideB: avgB},
		tl:    tl,
	}

	// badge checks read the other players' pre-match streaks
	a.scoreBadges(mc)

	for _, side := range []domain.Side{domain.SideA, domain.SideB} {
		for _, name := range m.Team(side) {
			a.player(name).apply(mc, side, a.cfg)
		}
	}

	if m.IsRanked() {
		a.updateSkill(m)
	}
	if m.PositionsConfirmed {
		a.updateRoles(m, k)
	}
	a.updateTeams(m, k, pre)
}

func (a *aggregator) finish() *Result {
	res := &Result{
		Players:     make(map[string]*PlayerStats, len(a.players)),
		Teams:       a.teams,
		MatchDeltas: a.deltas,
		Skipped:     a.skipped,
	}

	best := a.cfg.StartingRating
	for name, ps := range a.players {
		ps.finalize(a)
		res.Players[name] = ps.stats
		if ps.stats.HighestElo > best {
			best = ps.stats.HighestElo
		}
	}

	res.RecordHolders = []string{}
	if best > a.cfg.StartingRating {
		for _, name := range res.Names() {
			p := res.Players[name]
			if p.HighestElo == best {
				p.RecordHolder = true
				res.RecordHolders = append(res.RecordHolders, name)
			}
		}
	}
	return res
}

// matchContext is one validated match plus what the replay derived for it.
type matchContext struct {
	match domain.Match
	delta int
	day   string
	avg   map[domain.Side]float64
	tl    *timeline
}

func (mc matchContext) won(side domain.Side) bool {
	return mc.match.Winner == side
}
