package service

import (
	"context"
	"fmt"
	"kickelo/internal/cache"
	"kickelo/internal/config"
	"kickelo/internal/constants"
	"kickelo/internal/domain"
	"kickelo/internal/pairing"
	"kickelo/internal/rating"
	"kickelo/internal/season"
	"kickelo/internal/stats"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// StatsService owns the stats cache and the pairing recommender and keeps
// both fed from storage.
type StatsService struct {
	cfg         *config.Config
	matches     MatchStore
	players     PlayerStore
	session     SessionStore
	seasons     *season.Catalog
	cache       *cache.StatsCache
	recommender *pairing.Recommender
	engine      *rating.Engine
	debouncer   *cache.Debouncer
	now         func() time.Time
	logger      zerolog.Logger
}

func NewStatsService(
	cfg *config.Config,
	matches MatchStore,
	players PlayerStore,
	session SessionStore,
	seasons *season.Catalog,
	logger zerolog.Logger,
) *StatsService {
	return newStatsService(cfg, matches, players, session, seasons, time.Now, logger)
}

func newStatsService(
	cfg *config.Config,
	matches MatchStore,
	players PlayerStore,
	session SessionStore,
	seasons *season.Catalog,
	now func() time.Time,
	logger zerolog.Logger,
) *StatsService {
	pc := cfg.PairingConfig()
	pc.Now = now

	s := &StatsService{
		cfg:         cfg,
		matches:     matches,
		players:     players,
		session:     session,
		seasons:     seasons,
		cache:       cache.NewStatsCache(cfg.StatsConfig(seasons), now, logger.With().Str("component", "stats_cache").Logger()),
		recommender: pairing.NewRecommender(pc, logger.With().Str("component", "pairing").Logger()),
		engine:      rating.NewEngine(cfg.RatingConfig()),
		now:         now,
		logger:      logger,
	}

	delay := cfg.RecomputeDebounce
	if delay <= 0 {
		delay = constants.DefaultRecomputeDebounce
	}
	s.debouncer = cache.NewDebouncer(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.RequestTimeout)
		defer cancel()
		if _, err := s.Refresh(ctx); err != nil {
			s.logger.Error().Err(err).Msg("scheduled recompute failed")
		}
	})
	return s
}

// History is everything the services read from storage in one go.
type History struct {
	Matches []domain.Match
	Players []domain.Player
	Session *domain.SessionState
}

func (s *StatsService) load(ctx context.Context) (*History, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	var h History
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		h.Matches, err = s.matches.List(gCtx)
		return err
	})

	g.Go(func() error {
		var err error
		h.Players, err = s.players.List(gCtx)
		return err
	})

	g.Go(func() error {
		var err error
		h.Session, err = s.session.Get(gCtx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return &h, nil
}

// CurrentSeason is the configured season, or the one running now.
func (s *StatsService) CurrentSeason() (season.Season, bool) {
	return s.seasons.Resolve(s.cfg.SeasonID, s.now())
}

func (s *StatsService) Seasons() []season.Season {
	return s.seasons.All()
}

func (s *StatsService) seasonMatches(all []domain.Match, id string) []domain.Match {
	sn, ok := s.seasons.Resolve(id, s.now())
	if !ok {
		return all
	}
	return sn.Filter(all)
}

// Refresh reloads the history and recomputes the current season's stats.
func (s *StatsService) Refresh(ctx context.Context) (cache.Snapshot, error) {
	h, err := s.load(ctx)
	if err != nil {
		return cache.Snapshot{}, err
	}
	snap, _ := s.cache.Recompute(s.seasonMatches(h.Matches, s.cfg.SeasonID))
	return snap, nil
}

func (s *StatsService) snapshot(ctx context.Context) (cache.Snapshot, error) {
	if snap, ok := s.cache.Snapshot(); ok {
		return snap, nil
	}
	return s.Refresh(ctx)
}

// ScheduleRecompute asks for a debounced refresh after a write.
func (s *StatsService) ScheduleRecompute() {
	s.debouncer.Trigger()
}

func (s *StatsService) Stop() {
	s.debouncer.Stop()
}

func (s *StatsService) Subscribe(fn func(cache.Snapshot)) func() {
	return s.cache.Subscribe(fn)
}

func (s *StatsService) CacheInfo() cache.Info {
	return s.cache.Info()
}

// Stats returns the full aggregation for a season. An empty id uses the
// cached current season; other seasons are computed on demand and must exist.
func (s *StatsService) Stats(ctx context.Context, seasonID string) (*stats.Result, error) {
	if seasonID == "" || seasonID == s.cfg.SeasonID {
		snap, err := s.snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return snap.Result, nil
	}

	sn, err := s.seasons.Require(seasonID)
	if err != nil {
		return nil, err
	}
	h, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	sc := s.cfg.StatsConfig(s.seasons)
	sc.Now = s.now()
	sc.Logger = s.logger
	return stats.ComputeAll(sn.Filter(h.Matches), sc), nil
}

func (s *StatsService) Player(ctx context.Context, seasonID, name string) (*stats.PlayerStats, error) {
	res, err := s.Stats(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	p, ok := res.Player(name)
	if !ok {
		return nil, fmt.Errorf("player %s: %w", name, ErrUnknownPlayer)
	}
	return p, nil
}

func (s *StatsService) Leaderboard(ctx context.Context, seasonID string, includeInactive bool) ([]stats.LeaderboardEntry, error) {
	res, err := s.Stats(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	return stats.Leaderboard(res, s.now(), s.cfg.InactiveDays, includeInactive), nil
}

// Teams lists the pair ladder, best rated first.
func (s *StatsService) Teams(ctx context.Context, seasonID string) ([]*stats.TeamStats, error) {
	res, err := s.Stats(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	teams := make([]*stats.TeamStats, 0, len(res.Teams))
	for _, key := range res.TeamKeys() {
		teams = append(teams, res.Teams[key])
	}
	sort.SliceStable(teams, func(i, j int) bool {
		return teams[i].Rating > teams[j].Rating
	})
	return teams, nil
}

// Rating is the player's current rating, the starting rating when unknown.
func (s *StatsService) Rating(name string) int {
	if r, ok := s.cache.Ratings()[name]; ok {
		return r
	}
	return s.cfg.StartingRating
}

// PlayerSummary is a stored player joined with its current rating.
type PlayerSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Games  int    `json:"games"`
	Elo    int    `json:"elo"`
	Active bool   `json:"active"`
}

func (s *StatsService) Players(ctx context.Context) ([]PlayerSummary, error) {
	h, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]PlayerSummary, 0, len(h.Players))
	for _, p := range h.Players {
		summary := PlayerSummary{ID: p.ID, Name: p.Name, Games: p.Games, Elo: s.cfg.StartingRating}
		if ps, ok := snap.Result.Player(p.Name); ok {
			summary.Elo = ps.Elo
			summary.Active = ps.IsActive(now, s.cfg.InactiveDays)
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *StatsService) EnsurePlayer(ctx context.Context, name string) (*domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	p, _, err := s.players.Ensure(ctx, name)
	return p, err
}

func (s *StatsService) IncrementGames(ctx context.Context, names []string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.players.IncrementGames(ctx, names)
}

func (s *StatsService) Matches(ctx context.Context, limit int) ([]domain.Match, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	matches, err := s.matches.List(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// RecordMatch stores a finished match together with the rating change it
// caused and bumps the game counters of everyone who played.
func (s *StatsService) RecordMatch(ctx context.Context, m domain.Match) (*domain.Match, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if m.Timestamp == 0 {
		m.Timestamp = s.now().UnixMilli()
	}

	// ratings must include every stored match, not a debounced snapshot
	if _, err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	m.EloDelta = 0
	if m.IsRanked() {
		m.EloDelta = s.delta(m)
	}

	if err := s.matches.Insert(ctx, &m); err != nil {
		s.logger.Error().Err(err).Msg("failed to store match")
		return nil, fmt.Errorf("failed to store match: %w", err)
	}
	if err := s.players.IncrementGames(ctx, m.Players()); err != nil {
		s.logger.Warn().Err(err).Str("match_id", m.ID).Msg("failed to increment games")
	}

	s.logger.Info().
		Str("match_id", m.ID).
		Strs("team_a", m.TeamA).
		Strs("team_b", m.TeamB).
		Str("winner", string(m.Winner)).
		Int("elo_delta", m.EloDelta).
		Msg("match recorded")

	s.ScheduleRecompute()
	return &m, nil
}

func (s *StatsService) delta(m domain.Match) int {
	teamRating := func(team []string) float64 {
		ratings := make([]float64, len(team))
		for i, p := range team {
			ratings[i] = float64(s.Rating(p))
		}
		return rating.TeamAverage(ratings...)
	}

	k := s.seasons.KFactorAt(m.Timestamp)
	if k <= 0 {
		k = s.cfg.KFactor
	}
	return s.engine.Delta(rating.Outcome{
		RatingA: teamRating(m.TeamA),
		RatingB: teamRating(m.TeamB),
		SizeA:   len(m.TeamA),
		SizeB:   len(m.TeamB),
		Winner:  m.Winner,
		GoalsA:  m.GoalsA,
		GoalsB:  m.GoalsB,
		KFactor: k,
	})
}

func (s *StatsService) Session(ctx context.Context) (*domain.SessionState, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.session.Get(ctx)
}

func (s *StatsService) SetSession(ctx context.Context, active []string) (*domain.SessionState, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.session.Put(ctx, active)
}

// Suggest proposes the next match. With no players given it uses the
// stored session's active players.
func (s *StatsService) Suggest(ctx context.Context, active []string) (pairing.Suggestion, error) {
	h, err := s.load(ctx)
	if err != nil {
		return pairing.Suggestion{}, err
	}
	var arrivals map[string]int64
	if h.Session != nil {
		if len(active) == 0 {
			active = h.Session.ActivePlayers
		}
		arrivals = h.Session.JoinedAt
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		return pairing.Suggestion{}, err
	}

	suggestion, err := s.recommender.SuggestWithArrivals(active, arrivals, h.Matches, snap.Result.Ratings())
	if err != nil {
		s.logger.Debug().Err(err).Strs("active", active).Msg("no suggestion")
		return pairing.Suggestion{}, err
	}
	return suggestion, nil
}

func (s *StatsService) Evaluate(red, blue []string) pairing.Evaluation {
	return s.recommender.EvaluateLastSuggestion(red, blue, s.now())
}
