package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"kickelo/internal/constants"
	"kickelo/internal/db"
	"kickelo/internal/domain"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type PlayerRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func toDomainPlayer(p db.Player) domain.Player {
	return domain.Player{
		ID:        p.ID,
		Name:      p.Name,
		Games:     int(p.Games),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// List returns all players ordered by name.
func (r *PlayerRepository) List(ctx context.Context) ([]domain.Player, error) {
	rows, err := r.queries.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	players := make([]domain.Player, len(rows))
	for i, p := range rows {
		players[i] = toDomainPlayer(p)
	}
	return players, nil
}

func (r *PlayerRepository) Get(ctx context.Context, name string) (*domain.Player, error) {
	p, err := r.queries.GetPlayerByName(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %s: %w", name, err)
	}
	player := toDomainPlayer(p)
	return &player, nil
}

// Ensure creates the player with zero games unless it already exists.
func (r *PlayerRepository) Ensure(ctx context.Context, name string) (*domain.Player, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, domain.ErrBlankPlayer
	}

	created, err := r.ensure(ctx, r.queries, name, time.Now())
	if err != nil {
		return nil, false, err
	}
	if created {
		r.logger.Info().Str("player", name).Msg("player created")
	}

	player, err := r.Get(ctx, name)
	if err != nil {
		return nil, false, err
	}
	return player, created, nil
}

func (r *PlayerRepository) ensure(ctx context.Context, q *db.Queries, name string, now time.Time) (bool, error) {
	id, err := gonanoid.New()
	if err != nil {
		return false, fmt.Errorf("failed to generate player id: %w", err)
	}
	created, err := q.EnsurePlayer(ctx, db.EnsurePlayerParams{
		ID:        id,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return false, fmt.Errorf("failed to ensure player %s: %w", name, err)
	}
	return created, nil
}

// IncrementGames adds one game to every named player, creating unknown
// players on the way. Blank names are ignored.
func (r *PlayerRepository) IncrementGames(ctx context.Context, names []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	now := time.Now()

	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, err := r.ensure(ctx, qtx, name, now); err != nil {
			return err
		}
		if _, err := qtx.IncrementPlayerGames(ctx, db.IncrementPlayerGamesParams{
			UpdatedAt: now,
			Name:      name,
		}); err != nil {
			return fmt.Errorf("failed to increment games for %s: %w", name, err)
		}
	}

	return tx.Commit()
}

func (r *PlayerRepository) UpsertBatch(ctx context.Context, players []domain.Player) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	now := time.Now()

	for i := 0; i < len(players); i += constants.DBBatchSize {
		end := i + constants.DBBatchSize
		if end > len(players) {
			end = len(players)
		}

		for _, player := range players[i:end] {
			name := strings.TrimSpace(player.Name)
			if name == "" {
				r.logger.Warn().Str("id", player.ID).Msg("skipping player without a name")
				continue
			}
			id := player.ID
			if id == "" {
				if id, err = gonanoid.New(); err != nil {
					return fmt.Errorf("failed to generate player id: %w", err)
				}
			}
			createdAt := player.CreatedAt
			if createdAt.IsZero() {
				createdAt = now
			}
			err := qtx.UpsertPlayer(ctx, db.UpsertPlayerParams{
				ID:        id,
				Name:      name,
				Games:     int64(player.Games),
				CreatedAt: createdAt,
				UpdatedAt: now,
			})
			if err != nil {
				return fmt.Errorf("failed to upsert player %s: %w", name, err)
			}
		}
	}

	return tx.Commit()
}
