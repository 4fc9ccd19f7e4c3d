// Package cache holds the latest computed stats and tells observers when they change.
package cache

import (
	"encoding/binary"
	"hash/fnv"
	"kickelo/internal/domain"
	"kickelo/internal/stats"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Snapshot struct {
	Result      *stats.Result
	Matches     []domain.Match
	Fingerprint uint64
	ComputedAt  time.Time
	Duration    time.Duration
}

type Info struct {
	Valid           bool          `json:"isValid"`
	PlayerCount     int           `json:"playerCount"`
	MatchCount      int           `json:"matchCount"`
	LastComputeTime time.Duration `json:"lastComputeTime"`
	ComputedAt      time.Time     `json:"computedAt"`
	PlayerNames     []string      `json:"playerNames"`
}

type StatsCache struct {
	cfg    stats.Config
	now    func() time.Time
	logger zerolog.Logger

	computeMu sync.Mutex

	mu     sync.RWMutex
	snap   *Snapshot
	subs   map[int]func(Snapshot)
	nextID int
}

func NewStatsCache(cfg stats.Config, now func() time.Time, logger zerolog.Logger) *StatsCache {
	if now == nil {
		now = time.Now
	}
	cfg.Logger = logger
	return &StatsCache{
		cfg:    cfg,
		now:    now,
		logger: logger,
		subs:   make(map[int]func(Snapshot)),
	}
}

// Recompute rebuilds the stats from matches (newest first). It returns false
// when the input matches the cached snapshot and nothing was recomputed.
func (c *StatsCache) Recompute(matches []domain.Match) (Snapshot, bool) {
	c.computeMu.Lock()
	defer c.computeMu.Unlock()

	now := c.now()
	cfg := c.cfg
	cfg.Now = now
	fp := Fingerprint(matches, cfg.Location, now)

	c.mu.RLock()
	current := c.snap
	c.mu.RUnlock()
	if current != nil && current.Fingerprint == fp {
		c.logger.Debug().Uint64("fingerprint", fp).Msg("stats unchanged, skipping recompute")
		return *current, false
	}

	started := time.Now()
	res := stats.ComputeAll(matches, cfg)
	snap := Snapshot{
		Result:      res,
		Matches:     matches,
		Fingerprint: fp,
		ComputedAt:  now,
		Duration:    time.Since(started),
	}

	c.mu.Lock()
	c.snap = &snap
	subs := make([]func(Snapshot), 0, len(c.subs))
	for _, id := range sortedIDs(c.subs) {
		subs = append(subs, c.subs[id])
	}
	c.mu.Unlock()

	c.logger.Info().
		Int("players", len(res.Players)).
		Int("matches", len(matches)).
		Dur("duration", snap.Duration).
		Msg("stats cache updated")

	for _, fn := range subs {
		fn(snap)
	}
	return snap, true
}

func (c *StatsCache) Snapshot() (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return Snapshot{}, false
	}
	return *c.snap, true
}

func (c *StatsCache) Player(name string) (*stats.PlayerStats, bool) {
	snap, ok := c.Snapshot()
	if !ok {
		return nil, false
	}
	return snap.Result.Player(name)
}

// Ratings returns current ratings, empty before the first recompute.
func (c *StatsCache) Ratings() map[string]int {
	snap, ok := c.Snapshot()
	if !ok {
		return map[string]int{}
	}
	return snap.Result.Ratings()
}

func (c *StatsCache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}

// Subscribe registers fn for every new snapshot. Callbacks run on the
// recomputing goroutine in registration order.
func (c *StatsCache) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *StatsCache) Info() Info {
	snap, ok := c.Snapshot()
	if !ok {
		return Info{PlayerNames: []string{}}
	}
	return Info{
		Valid:           true,
		PlayerCount:     len(snap.Result.Players),
		MatchCount:      len(snap.Matches),
		LastComputeTime: snap.Duration,
		ComputedAt:      snap.ComputedAt,
		PlayerNames:     snap.Result.Names(),
	}
}

// Fingerprint hashes everything ComputeAll reads, including the calendar day
// that same-day badges depend on and the hour the Medic window starts at.
func Fingerprint(matches []domain.Match, loc *time.Location, now time.Time) uint64 {
	if loc == nil {
		loc = time.Local
	}
	h := fnv.New64a()
	var buf [8]byte
	writeInt := func(v int64) {
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	writeStr := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}

	writeStr(now.In(loc).Format("2006-01-02"))
	writeInt(now.Truncate(time.Hour).UnixMilli())
	for _, m := range matches {
		writeStr(m.ID)
		writeInt(m.Timestamp)
		writeStr(strings.Join(m.TeamA, ","))
		writeStr(strings.Join(m.TeamB, ","))
		writeStr(string(m.Winner))
		writeInt(int64(m.GoalsA))
		writeInt(int64(m.GoalsB))
		if m.IsRanked() {
			writeInt(1)
		} else {
			writeInt(0)
		}
		if m.PositionsConfirmed {
			writeInt(1)
		} else {
			writeInt(0)
		}
		if m.MatchDuration != nil {
			writeInt(*m.MatchDuration)
		} else {
			writeInt(-1)
		}
		writeInt(int64(len(m.GoalLog)))
		for _, g := range m.GoalLog {
			writeStr(g.Team)
			writeInt(g.Timestamp)
		}
	}
	return h.Sum64()
}

func sortedIDs(m map[int]func(Snapshot)) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
