package stats

import "kickelo/internal/domain"

// timeline is what one goal log says about the flow of a match.
type timeline struct {
	leadChanges int
	wasBehind   map[domain.Side]bool
	goals       map[domain.Side]int
	lastGoal    int64
}

func readTimeline(log []domain.GoalEvent) timeline {
	tl := timeline{
		wasBehind: map[domain.Side]bool{},
		goals:     map[domain.Side]int{},
	}
	var leader domain.Side
	for _, g := range log {
		side, ok := goalSide(g)
		if !ok {
			continue
		}
		tl.goals[side]++
		if g.Timestamp > tl.lastGoal {
			tl.lastGoal = g.Timestamp
		}

		a, b := tl.goals[domain.SideA], tl.goals[domain.SideB]
		switch {
		case a < b:
			tl.wasBehind[domain.SideA] = true
		case b < a:
			tl.wasBehind[domain.SideB] = true
		}

		current, ok := domain.WinnerFromGoals(a, b)
		if !ok {
			// a tie keeps the previous leader for lead-change purposes
			continue
		}
		if leader != "" && current != leader {
			tl.leadChanges++
		}
		leader = current
	}
	return tl
}

func goalSide(g domain.GoalEvent) (domain.Side, bool) {
	switch g.Team {
	case domain.GoalRed:
		return domain.SideA, true
	case domain.GoalBlue:
		return domain.SideB, true
	}
	return "", false
}

// isChillComeback reports a cap:cap-1 win where the losers were level or ahead
// until the winners scored the last two goals.
func isChillComeback(log []domain.GoalEvent, winner domain.Side, goalCap int) bool {
	if len(log) < 2 {
		return false
	}
	loser := winner.Other()
	count := map[domain.Side]int{}
	for i, g := range log {
		side, ok := goalSide(g)
		if !ok {
			return false
		}
		if i >= len(log)-2 {
			if side != winner {
				return false
			}
			count[side]++
			continue
		}
		count[side]++
		if count[loser] < count[winner] {
			return false
		}
	}
	return count[winner] == goalCap && count[loser] == goalCap-1
}
