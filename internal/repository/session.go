package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"kickelo/internal/db"
	"kickelo/internal/domain"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type SessionRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewSessionRepository(queries *db.Queries, logger zerolog.Logger) *SessionRepository {
	return &SessionRepository{
		queries: queries,
		logger:  logger,
	}
}

// Get returns the stored session, or an empty one if nothing was saved yet.
func (r *SessionRepository) Get(ctx context.Context) (*domain.SessionState, error) {
	row, err := r.queries.GetSessionState(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.SessionState{ActivePlayers: []string{}, JoinedAt: map[string]int64{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session state: %w", err)
	}

	state := &domain.SessionState{ActivePlayers: []string{}, JoinedAt: map[string]int64{}, UpdatedAt: row.UpdatedAt}
	if err := json.Unmarshal([]byte(row.ActivePlayers), &state.ActivePlayers); err != nil {
		r.logger.Warn().Err(err).Msg("stored active players are not a JSON list, treating as empty")
		state.ActivePlayers = []string{}
	}
	if err := json.Unmarshal([]byte(row.JoinedAt), &state.JoinedAt); err != nil || state.JoinedAt == nil {
		r.logger.Warn().Err(err).Msg("stored join times are unreadable, treating as unknown")
		state.JoinedAt = map[string]int64{}
	}
	return state, nil
}

// Put replaces the active player list. Blank and repeated names are dropped,
// the order of first appearance is kept. Players already at the table keep
// their join time, newcomers join now.
func (r *SessionRepository) Put(ctx context.Context, active []string) (*domain.SessionState, error) {
	cleaned := make([]string, 0, len(active))
	seen := make(map[string]struct{}, len(active))
	for _, raw := range active {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		cleaned = append(cleaned, name)
	}

	prior, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}
	wasActive := make(map[string]struct{}, len(prior.ActivePlayers))
	for _, p := range prior.ActivePlayers {
		wasActive[p] = struct{}{}
	}

	now := time.Now()
	joined := make(map[string]int64, len(cleaned))
	for _, name := range cleaned {
		at, ok := prior.JoinedAt[name]
		if _, stayed := wasActive[name]; !ok || !stayed {
			at = now.UnixMilli()
		}
		joined[name] = at
	}

	rawActive, err := json.Marshal(cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to encode active players: %w", err)
	}
	rawJoined, err := json.Marshal(joined)
	if err != nil {
		return nil, fmt.Errorf("failed to encode join times: %w", err)
	}

	if err := r.queries.UpsertSessionState(ctx, db.UpsertSessionStateParams{
		ActivePlayers: string(rawActive),
		JoinedAt:      string(rawJoined),
		UpdatedAt:     now,
	}); err != nil {
		return nil, fmt.Errorf("failed to save session state: %w", err)
	}

	r.logger.Debug().Strs("active_players", cleaned).Msg("session state saved")
	return &domain.SessionState{ActivePlayers: cleaned, JoinedAt: joined, UpdatedAt: now}, nil
}
