package db

import (
	"database/sql"
	"time"
)

type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Games     int64     `json:"games"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Match struct {
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

type SessionState struct {
	ID            int64     `json:"id"`
	ActivePlayers string    `json:"active_players"`
	JoinedAt      string    `json:"joined_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
