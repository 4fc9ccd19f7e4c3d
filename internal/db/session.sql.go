package db

import (
	"context"
	"time"
)

const getSessionState = `
SELECT id, active_players, joined_at, updated_at
FROM session_state
WHERE id = 1
`

func (q *Queries) GetSessionState(ctx context.Context) (SessionState, error) {
	row := q.db.QueryRowContext(ctx, getSessionState)
	var i SessionState
	err := row.Scan(&i.ID, &i.ActivePlayers, &i.JoinedAt, &i.UpdatedAt)
	return i, err
}

const upsertSessionState = `
INSERT INTO session_state (id, active_players, joined_at, updated_at)
VALUES (1, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    active_players = excluded.active_players,
    joined_at = excluded.joined_at,
    updated_at = excluded.updated_at
`

type UpsertSessionStateParams struct {
	ActivePlayers string    `json:"active_players"`
	JoinedAt      string    `json:"joined_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (q *Queries) UpsertSessionState(ctx context.Context, arg UpsertSessionStateParams) error {
	_, err := q.db.ExecContext(ctx, upsertSessionState, arg.ActivePlayers, arg.JoinedAt, arg.UpdatedAt)
	return err
}
