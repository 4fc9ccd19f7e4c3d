package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"kickelo/internal/constants"
	"kickelo/internal/db"
	"kickelo/internal/domain"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type MatchRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewMatchRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

// List returns every stored match, newest first.
func (r *MatchRepository) List(ctx context.Context) ([]domain.Match, error) {
	rows, err := r.queries.ListMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	matches := make([]domain.Match, 0, len(rows))
	for _, row := range rows {
		m, err := toDomainMatch(row)
		if err != nil {
			// one corrupt row must not hide the rest of the history
			r.logger.Warn().Err(err).Str("match_id", row.ID).Msg("skipping undecodable match")
			continue
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (r *MatchRepository) Get(ctx context.Context, id string) (*domain.Match, error) {
	row, err := r.queries.GetMatch(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match %s: %w", id, err)
	}
	m, err := toDomainMatch(row)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Insert stores a new match, assigning an ID and source when missing.
func (r *MatchRepository) Insert(ctx context.Context, match *domain.Match) error {
	if match.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate match id: %w", err)
		}
		match.ID = id
	}
	if match.Source == "" {
		match.Source = domain.SourceLocal
	}

	params, err := toUpsertParams(*match, time.Now())
	if err != nil {
		return err
	}
	if err := r.queries.UpsertMatch(ctx, params); err != nil {
		return fmt.Errorf("failed to insert match %s: %w", match.ID, err)
	}

	r.logger.Debug().
		Str("match_id", match.ID).
		Strs("team_a", match.TeamA).
		Strs("team_b", match.TeamB).
		Int("elo_delta", match.EloDelta).
		Msg("match stored")
	return nil
}

func (r *MatchRepository) UpsertBatch(ctx context.Context, matches []domain.Match) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	now := time.Now()

	for i := 0; i < len(matches); i += constants.DBBatchSize {
		end := i + constants.DBBatchSize
		if end > len(matches) {
			end = len(matches)
		}

		for _, match := range matches[i:end] {
			if match.ID == "" {
				if match.ID, err = gonanoid.New(); err != nil {
					return fmt.Errorf("failed to generate match id: %w", err)
				}
			}
			if match.Source == "" {
				match.Source = domain.SourceUpstream
			}
			params, err := toUpsertParams(match, now)
			if err != nil {
				return err
			}
			if err := qtx.UpsertMatch(ctx, params); err != nil {
				return fmt.Errorf("failed to upsert match %s: %w", match.ID, err)
			}
		}
	}

	return tx.Commit()
}

func (r *MatchRepository) Delete(ctx context.Context, id string) error {
	n, err := r.queries.DeleteMatch(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete match %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *MatchRepository) Count(ctx context.Context) (int64, error) {
	return r.queries.CountMatches(ctx)
}

// LatestTimestamp returns the newest match time, false when there are no matches.
func (r *MatchRepository) LatestTimestamp(ctx context.Context) (int64, bool, error) {
	ts, err := r.queries.GetLatestMatchTimestamp(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("failed to get latest match timestamp: %w", err)
	}
	return ts.Int64, ts.Valid, nil
}

func toUpsertParams(m domain.Match, now time.Time) (db.UpsertMatchParams, error) {
	teamA, err := json.Marshal(m.TeamA)
	if err != nil {
		return db.UpsertMatchParams{}, fmt.Errorf("failed to encode team_a for match %s: %w", m.ID, err)
	}
	teamB, err := json.Marshal(m.TeamB)
	if err != nil {
		return db.UpsertMatchParams{}, fmt.Errorf("failed to encode team_b for match %s: %w", m.ID, err)
	}

	var goalLog sql.NullString
	if m.HasGoalLog() {
		raw, err := json.Marshal(m.GoalLog)
		if err != nil {
			return db.UpsertMatchParams{}, fmt.Errorf("failed to encode goal_log for match %s: %w", m.ID, err)
		}
		goalLog = sql.NullString{String: string(raw), Valid: true}
	}

	var duration sql.NullInt64
	if m.MatchDuration != nil {
		duration = sql.NullInt64{Int64: *m.MatchDuration, Valid: true}
	}

	return db.UpsertMatchParams{
		ID:                 m.ID,
		TeamA:              string(teamA),
		TeamB:              string(teamB),
		Winner:             string(m.Winner),
		GoalsA:             int64(m.GoalsA),
		GoalsB:             int64(m.GoalsB),
		Timestamp:          m.Timestamp,
		EloDelta:           int64(m.EloDelta),
		Ranked:             m.IsRanked(),
		PositionsConfirmed: m.PositionsConfirmed,
		GoalLog:            goalLog,
		MatchDuration:      duration,
		Source:             m.Source,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

func toDomainMatch(row db.Match) (domain.Match, error) {
	m := domain.Match{
		ID:                 row.ID,
		Winner:             domain.Side(row.Winner),
		GoalsA:             int(row.GoalsA),
		GoalsB:             int(row.GoalsB),
		Timestamp:          row.Timestamp,
		EloDelta:           int(row.EloDelta),
		PositionsConfirmed: row.PositionsConfirmed,
		Source:             row.Source,
	}
	if err := json.Unmarshal([]byte(row.TeamA), &m.TeamA); err != nil {
		return domain.Match{}, fmt.Errorf("failed to decode team_a for match %s: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.TeamB), &m.TeamB); err != nil {
		return domain.Match{}, fmt.Errorf("failed to decode team_b for match %s: %w", row.ID, err)
	}
	if !row.Ranked {
		ranked := false
		m.Ranked = &ranked
	}
	if row.GoalLog.Valid && row.GoalLog.String != "" {
		if err := json.Unmarshal([]byte(row.GoalLog.String), &m.GoalLog); err != nil {
			return domain.Match{}, fmt.Errorf("failed to decode goal_log for match %s: %w", row.ID, err)
		}
	}
	if row.MatchDuration.Valid {
		d := row.MatchDuration.Int64
		m.MatchDuration = &d
	}
	return m, nil
}
