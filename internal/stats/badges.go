package stats

import (
	"kickelo/internal/domain"
	"math"
	"time"
)

// scoreBadges runs before the match is applied so streaks are still pre-match.
func (a *aggregator) scoreBadges(mc matchContext) {
	m := mc.match
	winner := m.Winner
	loser := winner.Other()
	winners := m.Team(winner)

	if m.Timestamp >= a.medicFrom && m.Timestamp <= a.cfg.Now.UnixMilli() {
		for _, name := range winners {
			for _, mate := range winners {
				if mate == name {
					continue
				}
				if a.player(mate).lossRun >= a.cfg.MedicMinLossStreak {
					a.player(name).rescued[mate] = struct{}{}
				}
			}
		}
	}

	if mc.day != a.today {
		return
	}

	extinguished := false
	for _, opp := range m.Team(loser) {
		if a.player(opp).winRun >= a.cfg.ExtinguisherMinStreak {
			extinguished = true
			break
		}
	}

	underdog := 0
	if gap := mc.avg[loser] - mc.avg[winner]; gap >= float64(a.cfg.UnderdogStep) {
		underdog = int(math.Floor(gap / float64(a.cfg.UnderdogStep)))
	}

	shutout := m.Goals(loser) == 0
	fast := false
	if d, ok := m.Duration(); ok && d < a.cfg.FastWinThreshold {
		fast = true
	}

	rollercoaster, chill := false, false
	if mc.tl != nil {
		rollercoaster = mc.tl.leadChanges >= a.cfg.RollercoasterChanges
		chill = wonBy(m, winner, a.cfg.GoalCap) && isChillComeback(m.GoalLog, winner, a.cfg.GoalCap)
	}

	for _, name := range winners {
		ev := &a.player(name).stats.StatusEvents
		if extinguished {
			ev.ExtinguisherCount++
		}
		ev.UnderdogPoints += underdog
		if shutout {
			ev.ShutoutCount++
		}
		if fast {
			ev.FastWinCount++
		}
		if rollercoaster {
			ev.RollercoasterCount++
		}
		if chill {
			ev.ChillComebackCount++
		}
	}
}

// gardenerDays walks weekdays backwards from today. An unplayed today does not
// break the run; weekends are skipped entirely.
func gardenerDays(played map[string]struct{}, now time.Time, loc *time.Location) int {
	now = now.In(loc)
	day := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, loc)
	for isWeekend(day) {
		day = day.AddDate(0, 0, -1)
	}
	if _, ok := played[day.Format(dayLayout)]; !ok && day.Format(dayLayout) == now.Format(dayLayout) {
		day = previousWeekday(day)
	}

	run := 0
	for {
		if _, ok := played[day.Format(dayLayout)]; !ok {
			return run
		}
		run++
		day = previousWeekday(day)
	}
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

func previousWeekday(t time.Time) time.Time {
	t = t.AddDate(0, 0, -1)
	for isWeekend(t) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

func phoenix(today, yesterday int) Phoenix {
	return Phoenix{
		IsActive:       today > 0 && yesterday < 0 && today > -yesterday,
		TodayDelta:     today,
		YesterdayDelta: yesterday,
	}
}

// wonBy reports whether side beat the other by exactly cap:cap-1.
func wonBy(m domain.Match, side domain.Side, goalCap int) bool {
	return m.Winner == side && m.Goals(side) == goalCap && m.Goals(side.Other()) == goalCap-1
}
