package db

import (
	"context"
	"time"
)

const getPlayerByName = `
SELECT id, name, games, created_at, updated_at
FROM players
WHERE name = ?
`

func (q *Queries) GetPlayerByName(ctx context.Context, name string) (Player, error) {
	row := q.db.QueryRowContext(ctx, getPlayerByName, name)
	var i Player
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Games,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listPlayers = `
SELECT id, name, games, created_at, updated_at
FROM players
ORDER BY name ASC
`

func (q *Queries) ListPlayers(ctx context.Context) ([]Player, error) {
	rows, err := q.db.QueryContext(ctx, listPlayers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Player
	for rows.Next() {
		var i Player
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Games,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const ensurePlayer = `
INSERT INTO players (id, name, games, created_at, updated_at)
VALUES (?, ?, 0, ?, ?)
ON CONFLICT (name) DO NOTHING
`

type EnsurePlayerParams struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EnsurePlayer reports whether a new row was inserted.
func (q *Queries) EnsurePlayer(ctx context.Context, arg EnsurePlayerParams) (bool, error) {
	result, err := q.db.ExecContext(ctx, ensurePlayer,
		arg.ID,
		arg.Name,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const incrementPlayerGames = `
UPDATE players
SET games = games + 1, updated_at = ?
WHERE name = ?
`

type IncrementPlayerGamesParams struct {
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `json:"name"`
}

func (q *Queries) IncrementPlayerGames(ctx context.Context, arg IncrementPlayerGamesParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, incrementPlayerGames, arg.UpdatedAt, arg.Name)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const upsertPlayer = `
INSERT INTO players (id, name, games, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (name) DO UPDATE SET
    games = excluded.games,
    updated_at = excluded.updated_at
`

type UpsertPlayerParams struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Games     int64     `json:"games"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (q *Queries) UpsertPlayer(ctx context.Context, arg UpsertPlayerParams) error {
	_, err := q.db.ExecContext(ctx, upsertPlayer,
		arg.ID,
		arg.Name,
		arg.Games,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}
