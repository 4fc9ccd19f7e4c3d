// Package pairing suggests the next 2v2 match for the players at the table.
package pairing

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"kickelo/internal/domain"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrNotEnoughPlayers = errors.New("at least 4 active players are required")
	ErrNoCandidates     = errors.New("no valid pairing for the active players")
)

const (
	DefaultSessionGap     = 30 * time.Minute
	DefaultStartingRating = 1500
	MinPlayers            = 4
)

// scores closer than this are treated as a tie
const scoreEpsilon = 1e-9

type Config struct {
	SessionGap     time.Duration
	Weights        Weights
	// RecencyWeights multiply the karma of the latest session matches, newest first.
	RecencyWeights []float64
	StartingRating int
	// Now is the clock used for session staleness and suggestion freshness.
	Now func() time.Time
}

func DefaultConfig() Config {
	return Config{
		SessionGap:     DefaultSessionGap,
		Weights:        DefaultWeights(),
		RecencyWeights: []float64{1.5, 1.25},
		StartingRating: DefaultStartingRating,
		Now:            time.Now,
	}
}

type Suggestion struct {
	Red            [2]string `json:"redTeam"`
	Blue           [2]string `json:"blueTeam"`
	Score          float64   `json:"score"`
	Breakdown      Breakdown `json:"breakdown"`
	Candidates     int       `json:"candidates"`
	Ties           int       `json:"ties"`
	SessionMatches int       `json:"sessionMatches"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Evaluation struct {
	HasSuggestion bool        `json:"hasSuggestion"`
	Fresh         bool        `json:"fresh"`
	Matches       bool        `json:"matches"`
	Swapped       bool        `json:"swapped"`
	Suggestion    *Suggestion `json:"suggestion,omitempty"`
}

type Recommender struct {
	cfg    Config
	logger zerolog.Logger

	mu   sync.RWMutex
	last *Suggestion
}

func NewRecommender(cfg Config, logger zerolog.Logger) *Recommender {
	def := DefaultConfig()
	if cfg.SessionGap <= 0 {
		cfg.SessionGap = def.SessionGap
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = def.Weights
	}
	if cfg.RecencyWeights == nil {
		cfg.RecencyWeights = def.RecencyWeights
	}
	if cfg.StartingRating <= 0 {
		cfg.StartingRating = def.StartingRating
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Recommender{cfg: cfg, logger: logger}
}

// Suggest picks the best split of the active players. History may be in any
// order; ratings missing a player fall back to the starting rating.
func (r *Recommender) Suggest(active []string, history []domain.Match, ratings map[string]int) (Suggestion, error) {
	return r.SuggestWithArrivals(active, nil, history, ratings)
}

// SuggestWithArrivals is Suggest with the time (unix ms) each player joined the
// table, so late arrivals earn no waiting credit for matches they missed.
func (r *Recommender) SuggestWithArrivals(active []string, arrivals map[string]int64, history []domain.Match, ratings map[string]int) (Suggestion, error) {
	players := normalizePlayers(active)
	if len(players) < MinPlayers {
		return Suggestion{}, fmt.Errorf("%w: got %d", ErrNotEnoughPlayers, len(players))
	}

	candidates := Enumerate(players)
	if len(candidates) == 0 {
		return Suggestion{}, ErrNoCandidates
	}

	now := r.cfg.Now()
	chronological := sortChronological(history)
	session, historic := Split(chronological, r.cfg.SessionGap, now)

	in := scoreInput{
		plays:    playCounts(session, players),
		karma:    waitingKarma(session, players, arrivals, r.cfg.RecencyWeights),
		session:  buildOccurrences(session, players),
		historic: buildOccurrences(historic, players),
		ratings:  make(map[string]float64, len(players)),
	}
	for _, p := range players {
		rating, ok := ratings[p]
		if !ok {
			rating = r.cfg.StartingRating
		}
		in.ratings[p] = float64(rating)
	}

	best := math.Inf(-1)
	var ties []int
	breakdowns := make([]Breakdown, len(candidates))
	for i, c := range candidates {
		breakdowns[i] = breakdown(c, in, r.cfg.Weights)
		s := breakdowns[i].score(r.cfg.Weights)
		switch {
		case s > best+scoreEpsilon:
			best = s
			ties = ties[:0]
			ties = append(ties, i)
		case math.Abs(s-best) <= scoreEpsilon:
			ties = append(ties, i)
		}
	}

	pick := ties[0]
	if len(ties) > 1 {
		rng := rand.New(rand.NewPCG(Seed(players, SessionKey(session, chronological)), uint64(len(session))))
		pick = ties[rng.IntN(len(ties))]
	}

	red, blue := assignSides(candidates[pick], buildSideCounts(chronological))
	sg := Suggestion{
		Red:            red,
		Blue:           blue,
		Score:          best,
		Breakdown:      breakdowns[pick],
		Candidates:     len(candidates),
		Ties:           len(ties),
		SessionMatches: len(session),
		CreatedAt:      now,
	}

	r.mu.Lock()
	r.last = &sg
	r.mu.Unlock()

	r.logger.Debug().
		Strs("active", players).
		Int("candidates", sg.Candidates).
		Int("ties", sg.Ties).
		Int("session_matches", sg.SessionMatches).
		Strs("red", red[:]).
		Strs("blue", blue[:]).
		Msg("pairing suggested")

	return sg, nil
}

// EvaluateLastSuggestion compares the caller's selection against the latest
// suggestion. A suggestion is fresh for one session gap.
func (r *Recommender) EvaluateLastSuggestion(currentRed, currentBlue []string, now time.Time) Evaluation {
	r.mu.RLock()
	last := r.last
	r.mu.RUnlock()

	if last == nil {
		return Evaluation{}
	}
	if now.IsZero() {
		now = r.cfg.Now()
	}

	sg := *last
	ev := Evaluation{
		HasSuggestion: true,
		Fresh:         now.Sub(sg.CreatedAt) <= r.cfg.SessionGap,
		Suggestion:    &sg,
	}
	switch {
	case sameTeam(currentRed, sg.Red) && sameTeam(currentBlue, sg.Blue):
		ev.Matches = true
	case sameTeam(currentRed, sg.Blue) && sameTeam(currentBlue, sg.Red):
		ev.Matches = true
		ev.Swapped = true
	}
	return ev
}

func (r *Recommender) Last() (Suggestion, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return Suggestion{}, false
	}
	return *r.last, true
}

// Seed hashes the sorted player set and the session key.
func Seed(sortedPlayers []string, sessionKey int64) uint64 {
	h := fnv.New64a()
	h.Write([]byte(strings.Join(sortedPlayers, ",")))
	h.Write([]byte{'|'})
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(sessionKey))
	h.Write(buf[:])
	return h.Sum64()
}

// normalizePlayers trims, drops blanks and duplicates, and sorts.
func normalizePlayers(active []string) []string {
	seen := make(map[string]struct{}, len(active))
	out := make([]string, 0, len(active))
	for _, p := range active {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func sortChronological(history []domain.Match) []domain.Match {
	out := make([]domain.Match, len(history))
	copy(out, history)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}

func sameTeam(selected []string, team [2]string) bool {
	if len(selected) != 2 {
		return false
	}
	return (selected[0] == team[0] && selected[1] == team[1]) ||
		(selected[0] == team[1] && selected[1] == team[0])
}
