package stats

import (
	"kickelo/internal/domain"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var testNow = time.Date(2026, 3, 11, 18, 0, 0, 0, time.UTC) // a Wednesday

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Now = testNow
	cfg.Location = time.UTC
	return cfg
}

func mk(id string, ts time.Time, teamA, teamB []string, goalsA, goalsB int) domain.Match {
	winner, _ := domain.WinnerFromGoals(goalsA, goalsB)
	return domain.Match{
		ID:        id,
		TeamA:     teamA,
		TeamB:     teamB,
		Winner:    winner,
		GoalsA:    goalsA,
		GoalsB:    goalsB,
		Timestamp: ts.UnixMilli(),
	}
}

// newestFirst takes matches in play order and returns them the way storage lists them.
func newestFirst(ms ...domain.Match) []domain.Match {
	out := make([]domain.Match, len(ms))
	for i, m := range ms {
		out[len(ms)-1-i] = m
	}
	return out
}

func pair(a, b string) []string { return []string{a, b} }

func TestEvenMatchScenario(t *testing.T) {
	m := mk("m1", testNow.Add(-time.Hour), pair("a", "b"), pair("c", "d"), 5, 3)
	res := ComputeAll([]domain.Match{m}, testConfig())

	if got := res.MatchDeltas["m1"]; got != 20 {
		t.Errorf("Got delta = %v, expected 20", got)
	}
	for name, expected := range map[string]int{"a": 1520, "b": 1520, "c": 1480, "d": 1480} {
		if got := res.Players[name].Elo; got != expected {
			t.Errorf("Got %s Elo = %v, expected %v", name, got, expected)
		}
	}
	if diff := cmp.Diff([]string{"a", "b"}, res.RecordHolders); diff != "" {
		t.Errorf("record holders mismatch (-want +got):\n%s", diff)
	}
	if got := res.Players["a"].EloVsOpponent["c"]; got != 10 {
		t.Errorf("Got a's gain against c = %v, expected 10", got)
	}
	if got := res.Players["c"].GoalStats.ResultHistogram["3:5"]; got != 1 {
		t.Errorf("Got c's 3:5 histogram bucket = %v, expected 1", got)
	}
}

func TestCloseLossScenario(t *testing.T) {
	m := mk("m1", testNow.Add(-time.Hour), []string{"solo"}, pair("b", "c"), 3, 5)
	res := ComputeAll([]domain.Match{m}, testConfig())

	if got := res.MatchDeltas["m1"]; got != 5 {
		t.Errorf("Got delta = %v, expected 5", got)
	}
	if got := res.Players["solo"].Elo; got != 1495 {
		t.Errorf("Got solo Elo = %v, expected 1495", got)
	}
	if got := res.Players["solo"].EloVsOpponent["b"]; got != -2.5 {
		t.Errorf("Got solo loss against b = %v, expected -2.5", got)
	}
}

func TestUnrankedMatchKeepsRatings(t *testing.T) {
	m := mk("", testNow.Add(-time.Hour), pair("a", "b"), pair("c", "d"), 5, 0)
	ranked := false
	m.Ranked = &ranked
	res := ComputeAll([]domain.Match{m}, testConfig())

	if got, ok := res.MatchDeltas[m.Key()]; !ok || got != 0 {
		t.Errorf("Got delta = %v (present %v), expected 0", got, ok)
	}
	a := res.Players["a"]
	if a.Elo != 1500 || len(a.EloTrajectory) != 1 || a.Wins != 1 {
		t.Errorf("Got Elo %v trajectory %v wins %v, expected 1500 / 1 / 1", a.Elo, len(a.EloTrajectory), a.Wins)
	}
	if len(res.RecordHolders) != 0 {
		t.Errorf("Got record holders %v, expected none", res.RecordHolders)
	}
}

func TestMalformedMatchesAreSkipped(t *testing.T) {
	good := mk("ok", testNow.Add(-2*time.Hour), pair("a", "b"), pair("c", "d"), 5, 1)
	dupe := mk("dupe", testNow.Add(-time.Hour), pair("a", "b"), pair("b", "e"), 5, 1)
	empty := mk("empty", testNow.Add(-time.Hour), nil, pair("x", "y"), 0, 5)

	res := ComputeAll(newestFirst(good, dupe, empty), testConfig())
	if res.Skipped != 2 {
		t.Errorf("Got Skipped = %v, expected 2", res.Skipped)
	}
	for _, name := range []string{"e", "x", "y"} {
		if _, ok := res.Players[name]; ok {
			t.Errorf("Got stats for %s who only appears in malformed matches", name)
		}
	}
	if got := res.Players["a"].Games; got != 1 {
		t.Errorf("Got a games = %v, expected 1", got)
	}
}

func TestRolesOnlyWithConfirmedPositions(t *testing.T) {
	m := mk("m1", testNow.Add(-time.Hour), pair("a", "b"), []string{"solo"}, 5, 2)
	m.PositionsConfirmed = true
	unconfirmed := mk("m2", testNow.Add(-30*time.Minute), pair("a", "b"), []string{"solo"}, 5, 2)

	res := ComputeAll(newestFirst(m, unconfirmed), testConfig())
	a, b, solo := res.Players["a"], res.Players["b"], res.Players["solo"]

	if a.Defense.Games != 1 || a.Offense.Games != 0 {
		t.Errorf("Got a defense/offense games %v/%v, expected 1/0", a.Defense.Games, a.Offense.Games)
	}
	if b.Offense.Games != 1 || b.Defense.Games != 0 {
		t.Errorf("Got b defense/offense games %v/%v, expected 0/1", b.Defense.Games, b.Offense.Games)
	}
	if solo.Defense.Games != 1 || solo.Offense.Games != 1 {
		t.Errorf("Got solo defense/offense games %v/%v, expected 1/1", solo.Defense.Games, solo.Offense.Games)
	}
	if a.Defense.Elo <= 1500 || solo.Offense.Elo >= 1500 {
		t.Errorf("Got a defense %v solo offense %v, expected the winner up and the loser down", a.Defense.Elo, solo.Offense.Elo)
	}
}

func TestTeamLadder(t *testing.T) {
	res := ComputeAll(newestFirst(
		mk("m1", testNow.Add(-2*time.Hour), pair("b", "a"), pair("c", "d"), 5, 3),
		mk("m2", testNow.Add(-time.Hour), pair("a", "b"), []string{"solo"}, 2, 5),
	), testConfig())

	ab, ok := res.Teams[PairKey("a", "b")]
	if !ok {
		t.Fatalf("Got no team for a&b, keys %v", res.TeamKeys())
	}
	if ab.Players != [2]string{"a", "b"} || ab.Games != 2 || ab.Wins != 1 || ab.Losses != 1 {
		t.Errorf("Got team %+v, expected sorted players with 1 win and 1 loss", ab)
	}
	if len(ab.Trajectory) != 2 || ab.Trajectory[0].Elo != 1520 {
		t.Errorf("Got trajectory %v, expected two points starting at 1520", ab.Trajectory)
	}
	if _, ok := res.Teams[PairKey("solo", "solo")]; ok {
		t.Errorf("Got a team entry for a solo player")
	}
}

func TestSkillUpdatesOnRankedMatches(t *testing.T) {
	res := ComputeAll([]domain.Match{mk("m1", testNow.Add(-time.Hour), pair("a", "b"), pair("c", "d"), 5, 0)}, testConfig())
	if res.Players["a"].Skill.Mu <= res.Players["c"].Skill.Mu {
		t.Errorf("Got winner mu %v <= loser mu %v", res.Players["a"].Skill.Mu, res.Players["c"].Skill.Mu)
	}
	if len(res.Players["a"].SkillTrajectory) != 1 {
		t.Errorf("Got %v skill points, expected 1", len(res.Players["a"].SkillTrajectory))
	}
}

func TestSeasonKFactor(t *testing.T) {
	cfg := testConfig()
	cfg.KFactorAt = func(ts int64) float64 { return 100 }
	res := ComputeAll([]domain.Match{mk("m1", testNow.Add(-time.Hour), pair("a", "b"), pair("c", "d"), 5, 3)}, cfg)
	if got := res.MatchDeltas["m1"]; got != 50 {
		t.Errorf("Got delta = %v, expected 50", got)
	}
}

// randomHistory plays n matches among the given players, oldest first.
func randomHistory(seed uint64, n int, players []string, allowSolo bool) []domain.Match {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	start := testNow.Add(-time.Duration(n) * 20 * time.Minute)
	out := make([]domain.Match, 0, n)
	for i := 0; i < n; i++ {
		perm := r.Perm(len(players))
		teamA := []string{players[perm[0]], players[perm[1]]}
		teamB := []string{players[perm[2]], players[perm[3]]}
		if allowSolo && r.IntN(4) == 0 {
			teamB = teamB[:1]
		}
		loser := r.IntN(5)
		goalsA, goalsB := 5, loser
		if r.IntN(2) == 0 {
			goalsA, goalsB = loser, 5
		}
		m := mk("", start.Add(time.Duration(i)*20*time.Minute), teamA, teamB, goalsA, goalsB)
		if r.IntN(3) == 0 {
			m.GoalLog = randomGoalLog(r, goalsA, goalsB)
		}
		m.PositionsConfirmed = r.IntN(2) == 0
		out = append(out, m)
	}
	return out
}

func randomGoalLog(r *rand.Rand, goalsA, goalsB int) []domain.GoalEvent {
	var log []domain.GoalEvent
	a, b := goalsA, goalsB
	ts := int64(0)
	for a > 0 || b > 0 {
		ts += int64(5000 + r.IntN(20000))
		if b == 0 || (a > 0 && r.IntN(2) == 0) {
			log = append(log, domain.GoalEvent{Team: domain.GoalRed, Timestamp: ts})
			a--
		} else {
			log = append(log, domain.GoalEvent{Team: domain.GoalBlue, Timestamp: ts})
			b--
		}
	}
	return log
}

func TestZeroSumOverPairs(t *testing.T) {
	players := []string{"p1", "p2", "p3", "p4", "p5", "p6"}
	history := randomHistory(7, 150, players, false)
	res := ComputeAll(newestFirst(history...), testConfig())

	total := 0
	for _, p := range res.Players {
		total += p.Elo
	}
	if expected := len(res.Players) * DefaultStartingRating; total != expected {
		t.Errorf("Got rating total = %v, expected %v", total, expected)
	}
}

func TestPerMatchDeltaIsSymmetric(t *testing.T) {
	players := []string{"p1", "p2", "p3", "p4", "p5"}
	history := randomHistory(11, 80, players, true)
	cfg := testConfig()

	prev := map[string]int{}
	for i := range history {
		res := ComputeAll(newestFirst(history[:i+1]...), cfg)
		m := history[i]
		delta := res.MatchDeltas[m.Key()]
		if delta < 0 {
			t.Fatalf("Got negative delta %v for %s", delta, m.Key())
		}
		for _, side := range []domain.Side{domain.SideA, domain.SideB} {
			expected := -delta
			if side == m.Winner {
				expected = delta
			}
			for _, name := range m.Team(side) {
				before, ok := prev[name]
				if !ok {
					before = DefaultStartingRating
				}
				if got := res.Players[name].Elo - before; got != expected {
					t.Errorf("match %d: Got %s change %v, expected %v", i, name, got, expected)
				}
			}
		}
		prev = res.Ratings()
	}
}

func TestInvariants(t *testing.T) {
	players := []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7"}
	res := ComputeAll(newestFirst(randomHistory(3, 300, players, true)...), testConfig())

	for _, name := range res.Names() {
		p := res.Players[name]
		if len(p.EloTrajectory) != p.Wins+p.Losses {
			t.Errorf("%s: Got trajectory length %v, expected %v", name, len(p.EloTrajectory), p.Wins+p.Losses)
		}
		for i := 1; i < len(p.EloTrajectory); i++ {
			if p.EloTrajectory[i].Timestamp < p.EloTrajectory[i-1].Timestamp {
				t.Errorf("%s: Got trajectory out of order at %d", name, i)
			}
		}
		switch p.CurrentStreak.Type {
		case ResultWin:
			if p.CurrentStreak.Length > p.LongestWinStreak {
				t.Errorf("%s: Got current win streak %v > longest %v", name, p.CurrentStreak.Length, p.LongestWinStreak)
			}
		case ResultLoss:
			if p.CurrentStreak.Length > p.LongestLossStreak {
				t.Errorf("%s: Got current loss streak %v > longest %v", name, p.CurrentStreak.Length, p.LongestLossStreak)
			}
		}
		for label, v := range map[string]*float64{"golden ratio": p.GoldenRatio, "comeback": p.ComebackRate} {
			if v != nil && (*v < 0 || *v > 1) {
				t.Errorf("%s: Got %s %v, expected within [0,1]", name, label, *v)
			}
		}
		if p.Streakyness.Score < 0 {
			t.Errorf("%s: Got streakyness %v, expected >= 0", name, p.Streakyness.Score)
		}
		if p.StatusEvents.CurrentAlternatingRun > p.StatusEvents.LongestAlternatingRun {
			t.Errorf("%s: Got alternating run %v > longest %v", name, p.StatusEvents.CurrentAlternatingRun, p.StatusEvents.LongestAlternatingRun)
		}
	}
}

func TestDeterminism(t *testing.T) {
	players := []string{"p1", "p2", "p3", "p4", "p5", "p6"}
	history := newestFirst(randomHistory(5, 120, players, true)...)

	first := ComputeAll(history, testConfig())
	second := ComputeAll(history, testConfig())
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("ComputeAll() not deterministic (-first +second):\n%s", diff)
	}
}

func TestResultCarriesNoClockReading(t *testing.T) {
	players := []string{"p1", "p2", "p3", "p4"}
	history := newestFirst(randomHistory(9, 40, players, false)...)

	cfg := testConfig()
	cfg.Now = time.Time{}
	first := ComputeAll(history, cfg)
	time.Sleep(2 * time.Millisecond)
	second := ComputeAll(history, cfg)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("ComputeAll() with a zero Now differs between calls (-first +second):\n%s", diff)
	}
}

func TestChronologicalAcceptsAnyOrder(t *testing.T) {
	m1 := mk("m1", testNow.Add(-3*time.Hour), pair("a", "b"), pair("c", "d"), 5, 3)
	m2 := mk("m2", testNow.Add(-2*time.Hour), pair("a", "c"), pair("b", "d"), 5, 3)
	m3 := mk("m3", testNow.Add(-time.Hour), pair("a", "d"), pair("b", "c"), 2, 5)

	sorted := ComputeAll([]domain.Match{m3, m2, m1}, testConfig())
	shuffled := ComputeAll([]domain.Match{m2, m3, m1}, testConfig())
	if diff := cmp.Diff(sorted.MatchDeltas, shuffled.MatchDeltas); diff != "" {
		t.Errorf("deltas depend on input order (-sorted +shuffled):\n%s", diff)
	}
}

func TestStreakyness(t *testing.T) {
	// W W L L: two repeats over three transitions, pRandomSame = 0.5
	var ms []domain.Match
	for i, g := range [][2]int{{5, 1}, {5, 1}, {1, 5}, {1, 5}} {
		ms = append(ms, mk("", testNow.Add(time.Duration(i-10)*time.Hour), pair("a", "b"), pair("c", "d"), g[0], g[1]))
	}
	res := ComputeAll(newestFirst(ms...), testConfig())
	s := res.Players["a"].Streakyness
	if got, expected := s.Score, (2.0/3.0)/0.5; got != expected {
		t.Errorf("Got streakyness %v, expected %v", got, expected)
	}
	if s.TotalWins != 2 || s.TotalLosses != 2 {
		t.Errorf("Got %v-%v, expected 2-2", s.TotalWins, s.TotalLosses)
	}
}

func TestGoalTimingAveragesNilWithoutLogs(t *testing.T) {
	res := ComputeAll([]domain.Match{mk("m1", testNow.Add(-time.Hour), pair("a", "b"), pair("c", "d"), 5, 0)}, testConfig())
	timing := res.Players["a"].GoalTiming
	if timing.AvgTimePerTeamGoal != nil || timing.AvgTimePerOpponentGoal != nil {
		t.Errorf("Got goal timing %+v, expected nil averages", timing)
	}
	if res.Players["a"].ComebackRate != nil || res.Players["a"].GoldenRatio != nil {
		t.Errorf("Got ratios without qualifying matches, expected nil")
	}
}

func TestGoalTimingAverages(t *testing.T) {
	m := mk("m1", testNow.Add(-time.Hour), pair("a", "b"), pair("c", "d"), 5, 1)
	m.GoalLog = []domain.GoalEvent{
		{Team: domain.GoalRed, Timestamp: 10000},
		{Team: domain.GoalBlue, Timestamp: 20000},
		{Team: domain.GoalRed, Timestamp: 30000},
		{Team: domain.GoalRed, Timestamp: 40000},
		{Team: domain.GoalRed, Timestamp: 50000},
		{Team: domain.GoalRed, Timestamp: 100000},
	}
	res := ComputeAll([]domain.Match{m}, testConfig())
	timing := res.Players["a"].GoalTiming
	if timing.AvgTimePerTeamGoal == nil || *timing.AvgTimePerTeamGoal != 20000 {
		t.Errorf("Got team goal average %v, expected 20000", timing.AvgTimePerTeamGoal)
	}
	if timing.AvgTimePerOpponentGoal == nil || *timing.AvgTimePerOpponentGoal != 100000 {
		t.Errorf("Got opponent goal average %v, expected 100000", timing.AvgTimePerOpponentGoal)
	}
}
