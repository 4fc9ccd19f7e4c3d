package pairing

import "kickelo/internal/domain"

// counts is a symmetric player-by-player occurrence matrix.
type counts map[string]map[string]int

func newCounts(active []string) counts {
	c := make(counts, len(active))
	for _, a := range active {
		c[a] = make(map[string]int, len(active))
	}
	return c
}

func (c counts) add(a, b string) {
	if a == b {
		return
	}
	row, ok := c[a]
	if !ok {
		return
	}
	if _, ok := c[b]; !ok {
		return
	}
	row[b]++
}

func (c counts) get(a, b string) int {
	return c[a][b]
}

type occurrences struct {
	with    counts
	against counts
}

// buildOccurrences counts how often active players shared a team or faced each other.
func buildOccurrences(matches []domain.Match, active []string) occurrences {
	occ := occurrences{with: newCounts(active), against: newCounts(active)}
	for _, m := range matches {
		for _, team := range [][]string{m.TeamA, m.TeamB} {
			for _, p1 := range team {
				for _, p2 := range team {
					occ.with.add(p1, p2)
				}
			}
		}
		for _, a := range m.TeamA {
			for _, b := range m.TeamB {
				occ.against.add(a, b)
				occ.against.add(b, a)
			}
		}
	}
	return occ
}

func playCounts(session []domain.Match, active []string) map[string]int {
	out := make(map[string]int, len(active))
	for _, p := range active {
		out[p] = 0
	}
	for _, m := range session {
		for _, p := range m.Players() {
			if _, ok := out[p]; ok {
				out[p]++
			}
		}
	}
	return out
}

// waitingKarma credits every player present for a session match with their
// attendance-weighted share of its seats and debits one per match actually
// played. Only the credit is scaled by recency.
func waitingKarma(session []domain.Match, active []string, arrivals map[string]int64, recency []float64) map[string]float64 {
	karma := make(map[string]float64, len(active))
	for _, p := range active {
		karma[p] = 0
	}
	if len(active) == 0 {
		return karma
	}

	firstSeen := firstAppearances(session, active)
	attendance := make(map[string]float64, len(active))
	for i, m := range session {
		w := recencyWeight(recency, len(session)-1-i)

		played := make(map[string]struct{}, 4)
		for _, p := range m.Players() {
			if _, ok := karma[p]; ok {
				played[p] = struct{}{}
			}
		}

		var total float64
		for _, p := range active {
			a := attendanceFraction(m, i, p, played, firstSeen, arrivals)
			attendance[p] = a
			total += a
		}
		if total == 0 {
			continue
		}

		participants := float64(len(played))
		for _, p := range active {
			karma[p] += w * attendance[p] * participants / total
			if _, ok := played[p]; ok {
				karma[p]--
			}
		}
	}
	return karma
}

// firstAppearances maps each active player to the index of the first session
// match they played in.
func firstAppearances(session []domain.Match, active []string) map[string]int {
	first := make(map[string]int, len(active))
	want := make(map[string]struct{}, len(active))
	for _, p := range active {
		want[p] = struct{}{}
	}
	for i, m := range session {
		for _, p := range m.Players() {
			if _, ok := want[p]; !ok {
				continue
			}
			if _, seen := first[p]; !seen {
				first[p] = i
			}
		}
	}
	return first
}

// attendanceFraction is the share of match i (0..1) that p was at the table.
// Players in the match attended all of it. A known arrival time counts the
// part of the match after it; otherwise a player is present from their first
// session match, and one who never played is assumed to have waited throughout.
func attendanceFraction(m domain.Match, i int, p string, played map[string]struct{}, firstSeen map[string]int, arrivals map[string]int64) float64 {
	if _, ok := played[p]; ok {
		return 1
	}
	if first, ok := firstSeen[p]; ok && first <= i {
		return 1
	}
	arrived, known := arrivals[p]
	if !known {
		_, appears := firstSeen[p]
		if appears {
			return 0
		}
		return 1
	}

	end := m.Timestamp
	start := end
	if m.MatchDuration != nil && *m.MatchDuration > 0 {
		start = end - *m.MatchDuration
	}
	switch {
	case arrived <= start:
		return 1
	case arrived >= end:
		return 0
	}
	return float64(end-arrived) / float64(end-start)
}

// recencyWeight returns the multiplier for the match age positions back from the latest.
func recencyWeight(recency []float64, age int) float64 {
	if age < len(recency) && recency[age] > 0 {
		return recency[age]
	}
	return 1
}

type sideCounts struct {
	red  map[string]int
	blue map[string]int
}

func buildSideCounts(matches []domain.Match) sideCounts {
	sc := sideCounts{red: map[string]int{}, blue: map[string]int{}}
	for _, m := range matches {
		for _, p := range m.TeamA {
			sc.red[p]++
		}
		for _, p := range m.TeamB {
			sc.blue[p]++
		}
	}
	return sc
}
