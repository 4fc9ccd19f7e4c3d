package stats

import (
	"sort"
	"time"
)

type LeaderboardEntry struct {
	Rank         int    `json:"rank"`
	Name         string `json:"name"`
	Elo          int    `json:"elo"`
	Games        int    `json:"games"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	Active       bool   `json:"active"`
	RecordHolder bool   `json:"recordHolder"`
	Streak       Streak `json:"currentStreak"`
	DailyChange  int    `json:"dailyEloChange"`
}

// Leaderboard ranks players by rating, name breaking ties. Players idle for
// longer than inactiveDays are dropped unless includeInactive is set.
func Leaderboard(res *Result, now time.Time, inactiveDays int, includeInactive bool) []LeaderboardEntry {
	if res == nil {
		return []LeaderboardEntry{}
	}
	if inactiveDays <= 0 {
		inactiveDays = DefaultInactivityDays
	}

	entries := make([]LeaderboardEntry, 0, len(res.Players))
	for _, p := range res.Players {
		active := p.IsActive(now, inactiveDays)
		if !active && !includeInactive {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			Name:         p.Name,
			Elo:          p.Elo,
			Games:        p.Games,
			Wins:         p.Wins,
			Losses:       p.Losses,
			Active:       active,
			RecordHolder: p.RecordHolder,
			Streak:       p.CurrentStreak,
			DailyChange:  p.DailyEloChange,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Elo != entries[j].Elo {
			return entries[i].Elo > entries[j].Elo
		}
		return entries[i].Name < entries[j].Name
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
