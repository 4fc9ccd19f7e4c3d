package stats

import (
	"fmt"
	"kickelo/internal/domain"
	"kickelo/internal/rating"
	"sort"
)

type playerState struct {
	stats *PlayerStats

	lastResult      string
	consecutiveSame int
	winRun          int
	lossRun         int

	won54  int
	lost45 int

	comebackGames int
	comebackWins  int

	timePlayed    int64
	teamGoals     int
	opponentGoals int

	rescued    map[string]struct{}
	playedDays map[string]struct{}
}

func newPlayerState(name string, start int, skill rating.Skill) *playerState {
	return &playerState{
		stats: &PlayerStats{
			Name:            name,
			Elo:             start,
			HighestElo:      start,
			EloTrajectory:   []TrajectoryPoint{},
			CurrentStreak:   Streak{Type: ResultNone},
			WinLossRatios:   map[string]*Record{},
			WithTeammates:   map[string]*Record{},
			EloVsOpponent:   map[string]float64{},
			GoalStats:       GoalStats{ResultHistogram: map[string]int{}},
			DailyDelta:      map[string]int{},
			Skill:           skill,
			SkillTrajectory: []SkillPoint{},
			Defense:         RoleRating{Elo: start, Trajectory: []TrajectoryPoint{}},
			Offense:         RoleRating{Elo: start, Trajectory: []TrajectoryPoint{}},
			Streakyness:     Streakyness{Score: 1},
		},
		rescued:    map[string]struct{}{},
		playedDays: map[string]struct{}{},
	}
}

func (ps *playerState) apply(mc matchContext, side domain.Side, cfg Config) {
	s := ps.stats
	m := mc.match
	won := mc.won(side)
	teammates := m.Team(side)
	opponents := m.Team(side.Other())
	goalsFor, goalsAgainst := m.Goals(side), m.Goals(side.Other())

	signed := -mc.delta
	if won {
		signed = mc.delta
	}

	s.Elo += signed
	s.Games++
	s.LastPlayed = m.Timestamp
	s.EloTrajectory = append(s.EloTrajectory, TrajectoryPoint{Elo: s.Elo, Timestamp: m.Timestamp})
	if s.Elo > s.HighestElo {
		s.HighestElo = s.Elo
	}
	s.DailyDelta[mc.day] += signed
	ps.playedDays[mc.day] = struct{}{}

	perOpponent := float64(mc.delta) / float64(len(opponents))
	for _, opp := range opponents {
		rec := recordFor(s.WinLossRatios, opp)
		if won {
			rec.Wins++
			s.EloVsOpponent[opp] += perOpponent
		} else {
			rec.Losses++
			s.EloVsOpponent[opp] -= perOpponent
		}
	}
	for _, mate := range teammates {
		if mate == s.Name {
			continue
		}
		rec := recordFor(s.WithTeammates, mate)
		if won {
			rec.Wins++
		} else {
			rec.Losses++
		}
	}

	s.GoalStats.GoalsFor += goalsFor
	s.GoalStats.GoalsAgainst += goalsAgainst
	s.GoalStats.ResultHistogram[fmt.Sprintf("%d:%d", goalsFor, goalsAgainst)]++

	ps.trackGolden(won, goalsFor, goalsAgainst, cfg.GoalCap)

	if mc.tl != nil {
		if mc.tl.wasBehind[side] {
			ps.comebackGames++
			if won {
				ps.comebackWins++
			}
		}
		ps.timePlayed += mc.tl.lastGoal
		ps.teamGoals += mc.tl.goals[side]
		ps.opponentGoals += mc.tl.goals[side.Other()]
	}

	ps.trackStreaks(won)
}

func (ps *playerState) trackGolden(won bool, goalsFor, goalsAgainst, goalCap int) {
	s := ps.stats
	switch {
	case won && goalsAgainst == goalCap-1:
		ps.won54++
		if goalsFor == goalCap {
			s.StatusEvents.GoldenPhiStreak++
		}
	case !won && goalsFor == goalCap-1:
		ps.lost45++
		if goalsAgainst == goalCap {
			s.StatusEvents.GoldenPhiStreak = 0
		}
	}
}

func (ps *playerState) trackStreaks(won bool) {
	s := ps.stats
	result := ResultLoss
	if won {
		result = ResultWin
		s.Wins++
		ps.winRun++
		ps.lossRun = 0
		s.LongestWinStreak = max(s.LongestWinStreak, ps.winRun)
	} else {
		s.Losses++
		ps.lossRun++
		ps.winRun = 0
		s.LongestLossStreak = max(s.LongestLossStreak, ps.lossRun)
	}

	if s.CurrentStreak.Type == result {
		s.CurrentStreak.Length++
	} else {
		s.CurrentStreak = Streak{Type: result, Length: 1}
	}

	ev := &s.StatusEvents
	switch {
	case ps.lastResult == "":
		ev.CurrentAlternatingRun = 1
	case ps.lastResult == result:
		ps.consecutiveSame++
		ev.CurrentAlternatingRun = 1
	default:
		ev.CurrentAlternatingRun++
	}
	ev.LongestAlternatingRun = max(ev.LongestAlternatingRun, ev.CurrentAlternatingRun)
	ps.lastResult = result
}

func (ps *playerState) finalize(a *aggregator) {
	s := ps.stats

	n := s.Wins + s.Losses
	s.Streakyness = Streakyness{Score: 1, TotalWins: s.Wins, TotalLosses: s.Losses}
	if n >= 2 {
		pWin := float64(s.Wins) / float64(n)
		pLoss := float64(s.Losses) / float64(n)
		if pRandomSame := pWin*pWin + pLoss*pLoss; pRandomSame > 0 {
			pConsecutive := float64(ps.consecutiveSame) / float64(n-1)
			s.Streakyness.Score = pConsecutive / pRandomSame
		}
	}

	s.GoldenRatio = ratio(ps.won54, ps.won54+ps.lost45)
	s.ComebackRate = ratio(ps.comebackWins, ps.comebackGames)
	s.GoalTiming = GoalTiming{
		AvgTimePerTeamGoal:     perGoal(ps.timePlayed, ps.teamGoals),
		AvgTimePerOpponentGoal: perGoal(ps.timePlayed, ps.opponentGoals),
	}

	s.DailyEloChange = s.DailyDelta[a.today]
	s.StatusEvents.MedicCount = len(ps.rescued)
	s.StatusEvents.GardenerDays = gardenerDays(ps.playedDays, a.cfg.Now, a.cfg.Location)
	s.StatusEvents.CurrentPositiveDayRun = positiveDayRun(s.DailyDelta)
	s.Phoenix = phoenix(s.DailyDelta[a.today], s.DailyDelta[a.yesterday])
}

func recordFor(m map[string]*Record, name string) *Record {
	rec, ok := m[name]
	if !ok {
		rec = &Record{}
		m[name] = rec
	}
	return rec
}

func ratio(part, total int) *float64 {
	if total == 0 {
		return nil
	}
	v := float64(part) / float64(total)
	return &v
}

func perGoal(played int64, goals int) *float64 {
	if goals == 0 {
		return nil
	}
	v := float64(played) / float64(goals)
	return &v
}

// positiveDayRun counts the most recent played days in a row that ended with a net gain.
func positiveDayRun(daily map[string]int) int {
	days := sortedKeys(daily)
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	run := 0
	for _, d := range days {
		if daily[d] <= 0 {
			break
		}
		run++
	}
	return run
}
