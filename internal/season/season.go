// Package season scopes match history to named rating seasons.
package season

import (
	"errors"
	"fmt"
	"kickelo/internal/domain"
	"time"
)

const AllTimeID = "all-time"

var ErrUnknownSeason = errors.New("unknown season")

type Season struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	KFactor float64   `json:"kFactor,omitempty"`
}

// New builds a season spanning whole calendar days from start to end inclusive.
func New(id, name string, start, end time.Time, kFactor float64, loc *time.Location) Season {
	if loc == nil {
		loc = time.Local
	}
	start = start.In(loc)
	end = end.In(loc)
	return Season{
		ID:      id,
		Name:    name,
		Start:   time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc),
		End:     time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, int(999*time.Millisecond), loc),
		KFactor: kFactor,
	}
}

func (s Season) Includes(ts int64) bool {
	return ts >= s.Start.UnixMilli() && ts <= s.End.UnixMilli()
}

// Filter keeps the matches played inside the season, preserving order.
func (s Season) Filter(matches []domain.Match) []domain.Match {
	out := make([]domain.Match, 0, len(matches))
	for _, m := range matches {
		if s.Includes(m.Timestamp) {
			out = append(out, m)
		}
	}
	return out
}

type Catalog struct {
	seasons []Season
}

func NewCatalog(seasons ...Season) *Catalog {
	return &Catalog{seasons: seasons}
}

func date(y int, m time.Month, d int, loc *time.Location) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DefaultCatalog is the league's published season calendar.
func DefaultCatalog(loc *time.Location) *Catalog {
	if loc == nil {
		loc = time.Local
	}
	return NewCatalog(
		New("season-1", "Season 1 (June 2025 - Dec 2025)", date(2025, time.June, 1, loc), date(2025, time.December, 31, loc), 0, loc),
		New("extended-season-1", "Extended season 1 (June 2025 - Jan 2026)", date(2025, time.June, 1, loc), date(2026, time.January, 15, loc), 0, loc),
		New("season-2", "Season 2 (Jan 2026 - Jun 2026)", date(2026, time.January, 16, loc), date(2026, time.June, 30, loc), 0, loc),
		New("season-3", "Season 3 (Jul 2026 - Dec 2026)", date(2026, time.July, 1, loc), date(2026, time.December, 31, loc), 0, loc),
		New(AllTimeID, "All time", date(2025, time.January, 1, loc), date(2100, time.December, 31, loc), 0, loc),
	)
}

func (c *Catalog) All() []Season {
	out := make([]Season, len(c.seasons))
	copy(out, c.seasons)
	return out
}

func (c *Catalog) ByID(id string) (Season, bool) {
	for _, s := range c.seasons {
		if s.ID == id {
			return s, true
		}
	}
	return Season{}, false
}

// Default is the latest-starting season containing now, or the last season
// when none does.
func (c *Catalog) Default(now time.Time) (Season, bool) {
	if len(c.seasons) == 0 {
		return Season{}, false
	}
	ts := now.UnixMilli()
	var best *Season
	for i := range c.seasons {
		s := &c.seasons[i]
		if !s.Includes(ts) {
			continue
		}
		if best == nil || s.Start.After(best.Start) {
			best = s
		}
	}
	if best == nil {
		return c.seasons[len(c.seasons)-1], true
	}
	return *best, true
}

// Require looks up a season the caller asked for by name.
func (c *Catalog) Require(id string) (Season, error) {
	s, ok := c.ByID(id)
	if !ok {
		return Season{}, fmt.Errorf("season %q: %w", id, ErrUnknownSeason)
	}
	return s, nil
}

// Resolve returns the season for id, falling back to Default when id is empty or unknown.
func (c *Catalog) Resolve(id string, now time.Time) (Season, bool) {
	if id != "" {
		if s, ok := c.ByID(id); ok {
			return s, true
		}
	}
	return c.Default(now)
}

// KFactorAt returns the K-factor of the latest-starting season containing ts
// that sets one, or 0 to keep the configured default.
func (c *Catalog) KFactorAt(ts int64) float64 {
	var best *Season
	for i := range c.seasons {
		s := &c.seasons[i]
		if s.KFactor <= 0 || !s.Includes(ts) {
			continue
		}
		if best == nil || s.Start.After(best.Start) {
			best = s
		}
	}
	if best == nil {
		return 0
	}
	return best.KFactor
}
