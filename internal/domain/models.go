package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// goal log colours: red is team A, blue is team B
const (
	GoalRed  = "red"
	GoalBlue = "blue"
)

type GoalEvent struct {
	Team      string `json:"team"`
	Timestamp int64  `json:"timestamp"` // ms since kickoff
}

type Match struct {
	ID                 string      `json:"id"`
	TeamA              []string    `json:"teamA"`
	TeamB              []string    `json:"teamB"`
	Winner             Side        `json:"winner"`
	GoalsA             int         `json:"goalsA"`
	GoalsB             int         `json:"goalsB"`
	Timestamp          int64       `json:"timestamp"` // unix ms
	EloDelta           int         `json:"eloDelta"`
	GoalLog            []GoalEvent `json:"goalLog,omitempty"`
	MatchDuration      *int64      `json:"matchDuration,omitempty"` // ms
	Ranked             *bool       `json:"ranked,omitempty"`
	PositionsConfirmed bool        `json:"positionsConfirmed,omitempty"`
	Source             string      `json:"source,omitempty"`
}

// where a stored match came from
const (
	SourceLocal    = "local"
	SourceUpstream = "upstream"
)

type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Games     int       `json:"games"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionState is the set of players at the table. JoinedAt holds when each
// of them was added (unix ms).
type SessionState struct {
	ActivePlayers []string         `json:"activePlayers"`
	JoinedAt      map[string]int64 `json:"joinedAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

var (
	ErrEmptyTeam     = errors.New("team has no players")
	ErrTeamTooLarge  = errors.New("team has more than two players")
	ErrBlankPlayer   = errors.New("blank player name")
	ErrDuplicateName = errors.New("player listed twice")
	ErrInvalidWinner = errors.New("winner must be A or B")
)

const MaxTeamSize = 2

// Validate reports structural problems only. Score validity is the submitter's job.
func (m Match) Validate() error {
	seen := make(map[string]struct{}, len(m.TeamA)+len(m.TeamB))
	for _, team := range [][]string{m.TeamA, m.TeamB} {
		if len(team) == 0 {
			return ErrEmptyTeam
		}
		if len(team) > MaxTeamSize {
			return ErrTeamTooLarge
		}
		for _, p := range team {
			if strings.TrimSpace(p) == "" {
				return ErrBlankPlayer
			}
			if _, ok := seen[p]; ok {
				return fmt.Errorf("%w: %s", ErrDuplicateName, p)
			}
			seen[p] = struct{}{}
		}
	}
	if m.Winner != SideA && m.Winner != SideB {
		return ErrInvalidWinner
	}
	return nil
}

func (m Match) IsRanked() bool {
	return m.Ranked == nil || *m.Ranked
}

// Key identifies a match in delta maps; falls back to timestamp and rosters when the ID is unset.
func (m Match) Key() string {
	if m.ID != "" {
		return m.ID
	}
	return strconv.FormatInt(m.Timestamp, 10) + "-" + strings.Join(m.TeamA, ",") + "-" + strings.Join(m.TeamB, ",")
}

func (m Match) Team(s Side) []string {
	if s == SideA {
		return m.TeamA
	}
	return m.TeamB
}

func (m Match) Goals(s Side) int {
	if s == SideA {
		return m.GoalsA
	}
	return m.GoalsB
}

// SideOf returns the side the player was on, or false when they did not play.
func (m Match) SideOf(player string) (Side, bool) {
	for _, p := range m.TeamA {
		if p == player {
			return SideA, true
		}
	}
	for _, p := range m.TeamB {
		if p == player {
			return SideB, true
		}
	}
	return "", false
}

func (m Match) Players() []string {
	out := make([]string, 0, len(m.TeamA)+len(m.TeamB))
	out = append(out, m.TeamA...)
	return append(out, m.TeamB...)
}

func (m Match) HasGoalLog() bool {
	return len(m.GoalLog) > 0
}

// Duration prefers the recorded duration and falls back to the last goal timestamp.
func (m Match) Duration() (time.Duration, bool) {
	if m.MatchDuration != nil && *m.MatchDuration > 0 {
		return time.Duration(*m.MatchDuration) * time.Millisecond, true
	}
	if !m.HasGoalLog() {
		return 0, false
	}
	var last int64
	for _, g := range m.GoalLog {
		if g.Timestamp > last {
			last = g.Timestamp
		}
	}
	if last == 0 {
		return 0, false
	}
	return time.Duration(last) * time.Millisecond, true
}

func (m Match) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

func GoalColour(s Side) string {
	if s == SideA {
		return GoalRed
	}
	return GoalBlue
}

// WinnerFromGoals picks the side with more goals; a tie has no winner.
func WinnerFromGoals(goalsA, goalsB int) (Side, bool) {
	switch {
	case goalsA > goalsB:
		return SideA, true
	case goalsB > goalsA:
		return SideB, true
	}
	return "", false
}
