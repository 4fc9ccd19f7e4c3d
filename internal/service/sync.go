package service

import (
	"context"
	"fmt"
	"kickelo/internal/constants"
	"kickelo/internal/domain"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type SyncResult struct {
	Matches       int           `json:"matches"`
	Players       int           `json:"players"`
	ActivePlayers int           `json:"activePlayers"`
	Duration      time.Duration `json:"duration"`
}

// SyncService mirrors the upstream backend into local storage.
type SyncService struct {
	upstream Upstream
	matches  MatchStore
	players  PlayerStore
	session  SessionStore
	stats    *StatsService
	logger   zerolog.Logger

	// one pull at a time
	mu sync.Mutex
}

func NewSyncService(upstream Upstream, matches MatchStore, players PlayerStore, session SessionStore, stats *StatsService, logger zerolog.Logger) *SyncService {
	return &SyncService{
		upstream: upstream,
		matches:  matches,
		players:  players,
		session:  session,
		stats:    stats,
		logger:   logger,
	}
}

func (s *SyncService) Enabled() bool {
	return s.upstream.Enabled()
}

func (s *SyncService) Sync(ctx context.Context) (*SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, constants.SyncTimeout)
	defer cancel()

	apiCtx, apiCancel := context.WithTimeout(ctx, constants.UpstreamAPITimeout)
	defer apiCancel()

	g, gCtx := errgroup.WithContext(apiCtx)
	var matches []domain.Match
	var players []domain.Player
	var session *domain.SessionState

	g.Go(func() error {
		var err error
		matches, err = s.upstream.GetMatches(gCtx)
		return err
	})

	g.Go(func() error {
		var err error
		players, err = s.upstream.GetPlayers(gCtx)
		return err
	})

	g.Go(func() error {
		var err error
		session, err = s.upstream.GetSession(gCtx)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("failed to pull upstream data")
		return nil, fmt.Errorf("failed to pull upstream data: %w", err)
	}

	valid := matches[:0]
	for _, m := range matches {
		if err := m.Validate(); err != nil {
			s.logger.Warn().Err(err).Str("match_id", m.ID).Msg("skipping invalid upstream match")
			continue
		}
		valid = append(valid, m)
	}

	if err := s.matches.UpsertBatch(ctx, valid); err != nil {
		return nil, fmt.Errorf("failed to store upstream matches: %w", err)
	}
	if err := s.players.UpsertBatch(ctx, players); err != nil {
		return nil, fmt.Errorf("failed to store upstream players: %w", err)
	}
	result := &SyncResult{Matches: len(valid), Players: len(players)}
	if session != nil {
		if _, err := s.session.Put(ctx, session.ActivePlayers); err != nil {
			return nil, fmt.Errorf("failed to store upstream session: %w", err)
		}
		result.ActivePlayers = len(session.ActivePlayers)
	}
	result.Duration = time.Since(started)

	s.logger.Info().
		Int("matches", result.Matches).
		Int("players", result.Players).
		Int("active_players", result.ActivePlayers).
		Dur("duration", result.Duration).
		Msg("upstream sync completed")

	if s.stats != nil {
		s.stats.ScheduleRecompute()
	}
	return result, nil
}
