package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"kickelo/internal/api"
	"kickelo/internal/config"
	"kickelo/internal/constants"
	"kickelo/internal/database"
	"kickelo/internal/db"
	"kickelo/internal/domain"
	"kickelo/internal/pairing"
	"kickelo/internal/repository"
	"kickelo/internal/season"
	"kickelo/internal/stats"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/rs/zerolog"
)

const progressTemplate = `{{ green "Importing:" }} {{ bar . "[" "#" "#" "." "]"}} {{counters .}} {{percent .}}`

type cli struct {
	cfg    *config.Config
	opts   options
	logger zerolog.Logger
	out    io.Writer
	errOut io.Writer
	now    func() time.Time
}

func (c *cli) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *cli) openDB() (*sql.DB, *db.Queries, error) {
	sqlDB, err := database.New(c.cfg, c.logger)
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, db.New(sqlDB), nil
}

func (c *cli) readFile() ([]domain.Match, error) {
	f, err := os.Open(c.opts.file)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", c.opts.file, err)
	}
	defer f.Close()
	return api.DecodeMatches(f)
}

// loadHistory returns all matches and the stored session. Reading from a
// file leaves the session empty.
func (c *cli) loadHistory(ctx context.Context) ([]domain.Match, *domain.SessionState, error) {
	if c.opts.file != "" {
		matches, err := c.readFile()
		return matches, nil, err
	}

	sqlDB, queries, err := c.openDB()
	if err != nil {
		return nil, nil, err
	}
	defer sqlDB.Close()

	matches, err := repository.NewMatchRepository(sqlDB, queries, c.logger).List(ctx)
	if err != nil {
		return nil, nil, err
	}
	state, err := repository.NewSessionRepository(queries, c.logger).Get(ctx)
	if err != nil {
		return nil, nil, err
	}
	return matches, state, nil
}

// compute aggregates the selected season. A --season that names no season is
// an error; without one the current season is used.
func (c *cli) compute(matches []domain.Match) (*stats.Result, season.Season, error) {
	catalog := season.DefaultCatalog(c.cfg.Location)
	now := c.clock()

	var sn season.Season
	if c.cfg.SeasonID != "" {
		var err error
		if sn, err = catalog.Require(c.cfg.SeasonID); err != nil {
			return nil, season.Season{}, err
		}
	} else {
		sn, _ = catalog.Default(now)
	}
	if sn.ID != "" {
		matches = sn.Filter(matches)
	}

	sc := c.cfg.StatsConfig(catalog)
	sc.Now = now
	sc.Logger = c.logger
	return stats.ComputeAll(matches, sc), sn, nil
}

func (c *cli) stats(ctx context.Context) error {
	matches, _, err := c.loadHistory(ctx)
	if err != nil {
		return err
	}

	res, sn, err := c.compute(matches)
	if err != nil {
		return err
	}
	board := stats.Leaderboard(res, c.clock(), c.cfg.InactiveDays, c.opts.includeInactive)

	if c.opts.jsonOut {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Season      season.Season            `json:"season"`
			Leaderboard []stats.LeaderboardEntry `json:"leaderboard"`
			Skipped     int                      `json:"skipped"`
		}{sn, board, res.Skipped})
	}

	if sn.ID != "" {
		fmt.Fprintf(c.out, "%s\n\n", sn.Name)
	}
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPLAYER\tELO\tGAMES\tW\tL\tSTREAK\tTODAY")
	for _, e := range board {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%d\t%s\t%+d\n",
			e.Rank, e.Name, e.Elo, e.Games, e.Wins, e.Losses, formatStreak(e.Streak), e.DailyChange)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if res.Skipped > 0 {
		fmt.Fprintf(c.out, "\n%d malformed matches skipped\n", res.Skipped)
	}
	return nil
}

func formatStreak(s stats.Streak) string {
	switch s.Type {
	case stats.ResultWin:
		return fmt.Sprintf("W%d", s.Length)
	case stats.ResultLoss:
		return fmt.Sprintf("L%d", s.Length)
	}
	return "-"
}

func (c *cli) suggest(ctx context.Context) error {
	matches, state, err := c.loadHistory(ctx)
	if err != nil {
		return err
	}
	var active []string
	var arrivals map[string]int64
	if state != nil {
		active, arrivals = state.ActivePlayers, state.JoinedAt
	}
	if len(c.opts.players) > 0 {
		active = c.opts.players
	}

	res, _, err := c.compute(matches)
	if err != nil {
		return err
	}

	pc := c.cfg.PairingConfig()
	pc.Now = c.clock
	suggestion, err := pairing.NewRecommender(pc, c.logger).SuggestWithArrivals(active, arrivals, matches, res.Ratings())
	if err != nil {
		return err
	}

	if c.opts.jsonOut {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(suggestion)
	}

	fmt.Fprintf(c.out, "red:  %s\n", strings.Join(suggestion.Red[:], " & "))
	fmt.Fprintf(c.out, "blue: %s\n", strings.Join(suggestion.Blue[:], " & "))
	fmt.Fprintf(c.out, "score %.2f over %d candidates (%d tied), %d matches this session\n",
		suggestion.Score, suggestion.Candidates, suggestion.Ties, suggestion.SessionMatches)
	return nil
}

func (c *cli) importMatches(ctx context.Context) error {
	if c.opts.file == "" {
		return fmt.Errorf("import needs --file")
	}
	matches, err := c.readFile()
	if err != nil {
		return err
	}

	valid := make([]domain.Match, 0, len(matches))
	for _, m := range matches {
		if err := m.Validate(); err != nil {
			c.logger.Warn().Err(err).Str("match_id", m.ID).Msg("skipping invalid match")
			continue
		}
		valid = append(valid, m)
	}

	sqlDB, queries, err := c.openDB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	matchRepo := repository.NewMatchRepository(sqlDB, queries, c.logger)
	playerRepo := repository.NewPlayerRepository(sqlDB, queries, c.logger)

	bar := pb.ProgressBarTemplate(progressTemplate).New(len(valid)).SetWriter(c.errOut).Start()
	for i := 0; i < len(valid); i += constants.DBBatchSize {
		end := i + constants.DBBatchSize
		if end > len(valid) {
			end = len(valid)
		}
		if err := matchRepo.UpsertBatch(ctx, valid[i:end]); err != nil {
			bar.Finish()
			return err
		}
		bar.Add(end - i)
	}
	bar.Finish()

	all, err := matchRepo.List(ctx)
	if err != nil {
		return err
	}
	if err := playerRepo.UpsertBatch(ctx, gamesPlayed(all)); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "imported %d matches (%d skipped), %d stored in total\n", len(valid), len(matches)-len(valid), len(all))
	return nil
}

// gamesPlayed rebuilds the per-player game counters from the stored history.
func gamesPlayed(matches []domain.Match) []domain.Player {
	games := make(map[string]int)
	for _, m := range matches {
		for _, p := range m.Players() {
			games[p]++
		}
	}
	players := make([]domain.Player, 0, len(games))
	for name, n := range games {
		players = append(players, domain.Player{Name: name, Games: n})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Name < players[j].Name })
	return players
}
