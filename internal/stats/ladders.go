package stats

import (
	"kickelo/internal/domain"
	"kickelo/internal/rating"
	"sort"
	"strings"
)

// PairKey is the order-independent key of a two-player team.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "&" + b
}

// SplitPairKey reverses PairKey.
func SplitPairKey(key string) (string, string, bool) {
	a, b, ok := strings.Cut(key, "&")
	return a, b, ok
}

func (a *aggregator) updateSkill(m domain.Match) {
	winners := m.Team(m.Winner)
	losers := m.Team(m.Winner.Other())

	collect := func(names []string) []rating.Skill {
		out := make([]rating.Skill, len(names))
		for i, n := range names {
			out[i] = a.player(n).stats.Skill
		}
		return out
	}
	postW, postL := a.bayes.Update(collect(winners), collect(losers))

	store := func(names []string, post []rating.Skill) {
		for i, n := range names {
			s := a.player(n).stats
			s.Skill = post[i]
			s.SkillTrajectory = append(s.SkillTrajectory, SkillPoint{Mu: post[i].Mu, Sigma: post[i].Sigma, Timestamp: m.Timestamp})
		}
	}
	store(winners, postW)
	store(losers, postL)
}

// roles returns the defender and attacker of a team; a solo player fills both.
func roles(team []string) (string, string) {
	return team[0], team[len(team)-1]
}

func (a *aggregator) updateRoles(m domain.Match, k float64) {
	composite := func(team []string) float64 {
		def, off := roles(team)
		return rating.TeamAverage(float64(a.player(def).stats.Defense.Elo), float64(a.player(off).stats.Offense.Elo))
	}

	delta := 0
	if m.IsRanked() {
		delta = a.engine.Delta(rating.Outcome{
			RatingA: composite(m.TeamA),
			RatingB: composite(m.TeamB),
			SizeA:   len(m.TeamA),
			SizeB:   len(m.TeamB),
			Winner:  m.Winner,
			GoalsA:  m.GoalsA,
			GoalsB:  m.GoalsB,
			KFactor: k,
		})
	}

	for _, side := range []domain.Side{domain.SideA, domain.SideB} {
		signed := -delta
		if side == m.Winner {
			signed = delta
		}
		def, off := roles(m.Team(side))
		bumpRole(&a.player(def).stats.Defense, signed, m.Timestamp)
		bumpRole(&a.player(off).stats.Offense, signed, m.Timestamp)
	}
}

func bumpRole(r *RoleRating, signed int, ts int64) {
	r.Elo += signed
	r.Games++
	r.Trajectory = append(r.Trajectory, TrajectoryPoint{Elo: r.Elo, Timestamp: ts})
}

func (a *aggregator) team(members []string) *TeamStats {
	key := PairKey(members[0], members[1])
	if t, ok := a.teams[key]; ok {
		return t
	}
	pair := []string{members[0], members[1]}
	sort.Strings(pair)
	t := &TeamStats{
		Players:    [2]string{pair[0], pair[1]},
		Rating:     a.cfg.StartingRating,
		Trajectory: []TrajectoryPoint{},
	}
	a.teams[key] = t
	return t
}

// updateTeams moves the pair ladder. A solo opponent is rated by their
// pre-match personal rating.
func (a *aggregator) updateTeams(m domain.Match, k float64, pre map[string]int) {
	if len(m.TeamA) != 2 && len(m.TeamB) != 2 {
		return
	}

	sideRating := func(side domain.Side) float64 {
		team := m.Team(side)
		if len(team) == 2 {
			return float64(a.team(team).Rating)
		}
		return float64(pre[team[0]])
	}

	delta := 0
	if m.IsRanked() {
		delta = a.engine.Delta(rating.Outcome{
			RatingA: sideRating(domain.SideA),
			RatingB: sideRating(domain.SideB),
			SizeA:   len(m.TeamA),
			SizeB:   len(m.TeamB),
			Winner:  m.Winner,
			GoalsA:  m.GoalsA,
			GoalsB:  m.GoalsB,
			KFactor: k,
		})
	}

	for _, side := range []domain.Side{domain.SideA, domain.SideB} {
		members := m.Team(side)
		if len(members) != 2 {
			continue
		}
		t := a.team(members)
		if side == m.Winner {
			t.Rating += delta
			t.Wins++
		} else {
			t.Rating -= delta
			t.Losses++
		}
		t.Games++
		t.LastPlayed = m.Timestamp
		t.Trajectory = append(t.Trajectory, TrajectoryPoint{Elo: t.Rating, Timestamp: m.Timestamp})
	}
}
