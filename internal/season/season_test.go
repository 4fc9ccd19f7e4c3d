package season

import (
	"errors"
	"kickelo/internal/domain"
	"testing"
	"time"
)

func TestIncludesWholeDays(t *testing.T) {
	s := New("s", "S", date(2026, time.March, 1, time.UTC), date(2026, time.March, 31, time.UTC), 0, time.UTC)

	cases := map[time.Time]bool{
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC):                             true,
		time.Date(2026, 3, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC): true,
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC):                             false,
		time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC):                         false,
	}
	for ts, expected := range cases {
		if got := s.Includes(ts.UnixMilli()); got != expected {
			t.Errorf("Got Includes(%v) = %v, expected %v", ts, got, expected)
		}
	}
}

func TestDefaultPicksLatestStart(t *testing.T) {
	c := DefaultCatalog(time.UTC)

	cases := map[time.Time]string{
		time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC):  "season-1",
		time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC): "extended-season-1",
		time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC): "season-2",
		time.Date(2027, 3, 11, 12, 0, 0, 0, time.UTC): AllTimeID,
	}
	for now, expected := range cases {
		s, ok := c.Default(now)
		if !ok || s.ID != expected {
			t.Errorf("Got Default(%v) = %q, expected %q", now, s.ID, expected)
		}
	}
}

func TestResolve(t *testing.T) {
	c := DefaultCatalog(time.UTC)
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)

	if s, _ := c.Resolve(AllTimeID, now); s.ID != AllTimeID {
		t.Errorf("Got Resolve(all-time) = %q", s.ID)
	}
	if s, _ := c.Resolve("nope", now); s.ID != "season-2" {
		t.Errorf("Got Resolve(nope) = %q, expected the default season", s.ID)
	}
	if _, ok := NewCatalog().Default(now); ok {
		t.Errorf("Got a default season from an empty catalog")
	}
}

func TestRequire(t *testing.T) {
	c := DefaultCatalog(time.UTC)
	if s, err := c.Require("season-2"); err != nil || s.ID != "season-2" {
		t.Errorf("Got Require(season-2) = %q, %v, expected season-2", s.ID, err)
	}
	if _, err := c.Require("nope"); !errors.Is(err, ErrUnknownSeason) {
		t.Errorf("Got Require(nope) error %v, expected ErrUnknownSeason", err)
	}
}

func TestFilter(t *testing.T) {
	s := New("s", "S", date(2026, time.March, 1, time.UTC), date(2026, time.March, 31, time.UTC), 0, time.UTC)
	in := []domain.Match{
		{ID: "apr", Timestamp: time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC).UnixMilli()},
		{ID: "mar", Timestamp: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC).UnixMilli()},
		{ID: "feb", Timestamp: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC).UnixMilli()},
	}
	out := s.Filter(in)
	if len(out) != 1 || out[0].ID != "mar" {
		t.Errorf("Got %v, expected only the March match", out)
	}
}

func TestKFactorAt(t *testing.T) {
	c := NewCatalog(
		New("base", "Base", date(2026, time.January, 1, time.UTC), date(2026, time.December, 31, time.UTC), 0, time.UTC),
		New("hot", "Hot", date(2026, time.June, 1, time.UTC), date(2026, time.June, 30, time.UTC), 100, time.UTC),
	)
	if got := c.KFactorAt(time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC).UnixMilli()); got != 100 {
		t.Errorf("Got KFactorAt(june) = %v, expected 100", got)
	}
	if got := c.KFactorAt(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC).UnixMilli()); got != 0 {
		t.Errorf("Got KFactorAt(march) = %v, expected 0", got)
	}
}
