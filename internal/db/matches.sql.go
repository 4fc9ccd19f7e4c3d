package db

import (
	"context"
	"database/sql"
	"time"
)

const matchColumns = `id, team_a, team_b, winner, goals_a, goals_b, timestamp, elo_delta, ranked,
    positions_confirmed, goal_log, match_duration, source, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(row rowScanner) (Match, error) {
	var i Match
	err := row.Scan(
		&i.ID,
		&i.TeamA,
		&i.TeamB,
		&i.Winner,
		&i.GoalsA,
		&i.GoalsB,
		&i.Timestamp,
		&i.EloDelta,
		&i.Ranked,
		&i.PositionsConfirmed,
		&i.GoalLog,
		&i.MatchDuration,
		&i.Source,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getMatch = `
SELECT ` + matchColumns + `
FROM matches
WHERE id = ?
`

func (q *Queries) GetMatch(ctx context.Context, id string) (Match, error) {
	return scanMatch(q.db.QueryRowContext(ctx, getMatch, id))
}

const listMatches = `
SELECT ` + matchColumns + `
FROM matches
ORDER BY timestamp DESC, id DESC
`

// ListMatches returns every match, newest first.
func (q *Queries) ListMatches(ctx context.Context) ([]Match, error) {
	rows, err := q.db.QueryContext(ctx, listMatches)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Match
	for rows.Next() {
		i, err := scanMatch(rows)
		if err != nil {
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

const countMatches = `
SELECT COUNT(*) FROM matches
`

func (q *Queries) CountMatches(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countMatches)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getLatestMatchTimestamp = `
SELECT MAX(timestamp) FROM matches
`

func (q *Queries) GetLatestMatchTimestamp(ctx context.Context) (sql.NullInt64, error) {
	row := q.db.QueryRowContext(ctx, getLatestMatchTimestamp)
	var ts sql.NullInt64
	err := row.Scan(&ts)
	return ts, err
}

const upsertMatch = `
INSERT INTO matches (` + matchColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    team_a = excluded.team_a,
    team_b = excluded.team_b,
    winner = excluded.winner,
    goals_a = excluded.goals_a,
    goals_b = excluded.goals_b,
    timestamp = excluded.timestamp,
    elo_delta = excluded.elo_delta,
    ranked = excluded.ranked,
    positions_confirmed = excluded.positions_confirmed,
    goal_log = excluded.goal_log,
    match_duration = excluded.match_duration,
    source = excluded.source,
    updated_at = excluded.updated_at
`

type UpsertMatchParams struct {
	ID                 string         `json:"id"`
	TeamA              string         `json:"team_a"`
	TeamB              string         `json:"team_b"`
	Winner             string         `json:"winner"`
	GoalsA             int64          `json:"goals_a"`
	GoalsB             int64          `json:"goals_b"`
	Timestamp          int64          `json:"timestamp"`
	EloDelta           int64          `json:"elo_delta"`
	Ranked             bool           `json:"ranked"`
	PositionsConfirmed bool           `json:"positions_confirmed"`
	GoalLog            sql.NullString `json:"goal_log"`
	MatchDuration      sql.NullInt64  `json:"match_duration"`
	Source             string         `json:"source"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func (q *Queries) UpsertMatch(ctx context.Context, arg UpsertMatchParams) error {
	_, err := q.db.ExecContext(ctx, upsertMatch,
		arg.ID,
		arg.TeamA,
		arg.TeamB,
		arg.Winner,
		arg.GoalsA,
		arg.GoalsB,
		arg.Timestamp,
		arg.EloDelta,
		arg.Ranked,
		arg.PositionsConfirmed,
		arg.GoalLog,
		arg.MatchDuration,
		arg.Source,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const deleteMatch = `
DELETE FROM matches WHERE id = ?
`

func (q *Queries) DeleteMatch(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteMatch, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
