package stats

import (
	"kickelo/internal/rating"
	"sort"
	"time"
)

const (
	ResultWin  = "win"
	ResultLoss = "loss"
	ResultNone = "none"
)

type TrajectoryPoint struct {
	Elo       int   `json:"elo"`
	Timestamp int64 `json:"timestamp"`
}

type SkillPoint struct {
	Mu        float64 `json:"mu"`
	Sigma     float64 `json:"sigma"`
	Timestamp int64   `json:"timestamp"`
}

type Record struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

type Streak struct {
	Type   string `json:"type"`
	Length int    `json:"length"`
}

type GoalStats struct {
	GoalsFor        int            `json:"goalsFor"`
	GoalsAgainst    int            `json:"goalsAgainst"`
	ResultHistogram map[string]int `json:"resultHistogram"`
}

type Streakyness struct {
	Score       float64 `json:"score"`
	TotalWins   int     `json:"totalWins"`
	TotalLosses int     `json:"totalLosses"`
}

// GoalTiming averages are in milliseconds of play per goal.
type GoalTiming struct {
	AvgTimePerTeamGoal     *float64 `json:"avgTimePerTeamGoal"`
	AvgTimePerOpponentGoal *float64 `json:"avgTimePerOpponentGoal"`
}

type RoleRating struct {
	Elo        int               `json:"elo"`
	Games      int               `json:"games"`
	Trajectory []TrajectoryPoint `json:"trajectory"`
}

// StatusEvents are same-day counters unless noted.
type StatusEvents struct {
	MedicCount            int `json:"medicCount"`
	GardenerDays          int `json:"gardenerDays"`
	GoldenPhiStreak       int `json:"goldenPhiStreak"`
	RollercoasterCount    int `json:"rollercoasterCount"`
	ChillComebackCount    int `json:"chillComebackCount"`
	ExtinguisherCount     int `json:"extinguisherCount"`
	UnderdogPoints        int `json:"underdogPoints"`
	ShutoutCount          int `json:"shutoutCount"`
	FastWinCount          int `json:"fastWinCount"`
	CurrentAlternatingRun int `json:"currentAlternatingRun"`
	LongestAlternatingRun int `json:"longestAlternatingRun"`
	CurrentPositiveDayRun int `json:"currentPositiveDayRun"`
}

type Phoenix struct {
	IsActive       bool `json:"isActive"`
	TodayDelta     int  `json:"todayDelta"`
	YesterdayDelta int  `json:"yesterdayDelta"`
}

type PlayerStats struct {
	Name              string             `json:"name"`
	Elo               int                `json:"elo"`
	Games             int                `json:"games"`
	Wins              int                `json:"wins"`
	Losses            int                `json:"losses"`
	LastPlayed        int64              `json:"lastPlayed"`
	EloTrajectory     []TrajectoryPoint  `json:"eloTrajectory"`
	HighestElo        int                `json:"highestElo"`
	RecordHolder      bool               `json:"recordHolder"`
	CurrentStreak     Streak             `json:"currentStreak"`
	LongestWinStreak  int                `json:"longestWinStreak"`
	LongestLossStreak int                `json:"longestLossStreak"`
	WinLossRatios     map[string]*Record `json:"winLossRatios"`
	WithTeammates     map[string]*Record `json:"winLossRatiosWithTeammates"`
	EloVsOpponent     map[string]float64 `json:"eloGainsAndLosses"`
	GoalStats         GoalStats          `json:"goalStats"`
	DailyDelta        map[string]int     `json:"dailyDelta"`
	DailyEloChange    int                `json:"dailyEloChange"`
	Skill             rating.Skill       `json:"skill"`
	SkillTrajectory   []SkillPoint       `json:"skillTrajectory"`
	Defense           RoleRating         `json:"defense"`
	Offense           RoleRating         `json:"offense"`
	Streakyness       Streakyness        `json:"streakyness"`
	GoldenRatio       *float64           `json:"goldenRatio"`
	ComebackRate      *float64           `json:"comebackPercentage"`
	GoalTiming        GoalTiming         `json:"avgTimeBetweenGoals"`
	StatusEvents      StatusEvents       `json:"statusEvents"`
	Phoenix           Phoenix            `json:"phoenix"`
}

func (p *PlayerStats) IsActive(now time.Time, thresholdDays int) bool {
	if p.LastPlayed == 0 {
		return false
	}
	return now.Sub(time.UnixMilli(p.LastPlayed)) <= time.Duration(thresholdDays)*24*time.Hour
}

type TeamStats struct {
	Players    [2]string         `json:"players"`
	Rating     int               `json:"rating"`
	Games      int               `json:"games"`
	Wins       int               `json:"wins"`
	Losses     int               `json:"losses"`
	LastPlayed int64             `json:"lastPlayed"`
	Trajectory []TrajectoryPoint `json:"trajectory"`
}

type Result struct {
	Players       map[string]*PlayerStats `json:"players"`
	Teams         map[string]*TeamStats   `json:"teams"`
	MatchDeltas   map[string]int          `json:"matchDeltas"`
	RecordHolders []string                `json:"recordHolders"`
	Skipped       int                     `json:"skipped"`
}

// Names returns player names in sorted order.
func (r *Result) Names() []string {
	return sortedKeys(r.Players)
}

func (r *Result) TeamKeys() []string {
	return sortedKeys(r.Teams)
}

func (r *Result) Player(name string) (*PlayerStats, bool) {
	p, ok := r.Players[name]
	return p, ok
}

// Ratings maps every known player to their current rating.
func (r *Result) Ratings() map[string]int {
	out := make(map[string]int, len(r.Players))
	for name, p := range r.Players {
		out[name] = p.Elo
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
