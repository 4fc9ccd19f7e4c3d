package server

import (
	"bytes"
	"context"
	"encoding/json"
	"kickelo/internal/api"
	"kickelo/internal/config"
	"kickelo/internal/database"
	"kickelo/internal/db"
	"kickelo/internal/domain"
	"kickelo/internal/repository"
	"kickelo/internal/season"
	"kickelo/internal/service"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type testEnv struct {
	stats *service.StatsService
	srv   *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{
		DBPath:            filepath.Join(t.TempDir(), "test.db"),
		GoalCap:           5,
		StartingRating:    1500,
		KFactor:           40,
		RatingScale:       400,
		InactiveDays:      14,
		SessionGap:        30 * time.Minute,
		RecomputeDebounce: time.Hour,
		Location:          time.UTC,
	}
	logger := zerolog.Nop()

	sqlDB, err := database.New(cfg, logger)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	queries := db.New(sqlDB)
	matches := repository.NewMatchRepository(sqlDB, queries, logger)
	players := repository.NewPlayerRepository(sqlDB, queries, logger)
	session := repository.NewSessionRepository(queries, logger)

	stats := service.NewStatsService(cfg, matches, players, session, season.NewCatalog(), logger)
	t.Cleanup(stats.Stop)
	sync := service.NewSyncService(api.NewUpstreamClient(cfg), matches, players, session, stats, logger)

	srv := httptest.NewServer(NewServer(stats, sync, logger).Routes())
	t.Cleanup(srv.Close)
	return &testEnv{stats: stats, srv: srv}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Errorf("Got no X-Request-ID header on %s %s", method, path)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	var out map[string]bool
	if status := env.do(t, http.MethodGet, "/api/health", nil, &out); status != http.StatusOK || !out["ok"] {
		t.Errorf("Got %d %v, expected 200 ok", status, out)
	}
}

func TestCreateMatchAndRead(t *testing.T) {
	env := newTestEnv(t)

	var created domain.Match
	status := env.do(t, http.MethodPost, "/api/matches", map[string]any{
		"teamA": []string{"a", "b"}, "teamB": []string{"c", "d"}, "goalsA": 5, "goalsB": 3,
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("Got status %d, expected 201", status)
	}
	if created.Winner != domain.SideA || created.EloDelta != 20 || created.ID == "" {
		t.Errorf("Got %+v, expected winner A inferred from goals and delta 20", created)
	}

	if _, err := env.stats.Refresh(context.Background()); err != nil {
		t.Fatalf("Got Refresh() error = %v", err)
	}

	var players []service.PlayerSummary
	if status := env.do(t, http.MethodGet, "/api/players", nil, &players); status != http.StatusOK || len(players) != 4 {
		t.Fatalf("Got %d %v, expected four players", status, players)
	}
	for _, p := range players {
		expected := 1520
		if p.Name == "c" || p.Name == "d" {
			expected = 1480
		}
		if p.Elo != expected || p.Games != 1 {
			t.Errorf("Got %+v, expected elo %d and one game", p, expected)
		}
	}

	var matches []domain.Match
	if status := env.do(t, http.MethodGet, "/api/matches?limit=1", nil, &matches); status != http.StatusOK || len(matches) != 1 {
		t.Errorf("Got %d %v, expected one match", status, matches)
	}

	var leaderboard []map[string]any
	env.do(t, http.MethodGet, "/api/leaderboard", nil, &leaderboard)
	if len(leaderboard) != 4 || leaderboard[0]["name"] != "a" {
		t.Errorf("Got leaderboard %v, expected a on top of four players", leaderboard)
	}

	var teams []map[string]any
	env.do(t, http.MethodGet, "/api/teams", nil, &teams)
	if len(teams) != 2 {
		t.Errorf("Got %d teams, expected 2", len(teams))
	}
}

func TestErrorMapping(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name     string
		method   string
		path     string
		body     any
		expected int
	}{
		{"duplicate player", http.MethodPost, "/api/matches", map[string]any{"teamA": []string{"a"}, "teamB": []string{"a"}, "winner": "A"}, http.StatusUnprocessableEntity},
		{"bad winner", http.MethodPost, "/api/matches", map[string]any{"teamA": []string{"a"}, "teamB": []string{"b"}, "winner": "C"}, http.StatusUnprocessableEntity},
		{"too few players", http.MethodPost, "/api/pairing/suggest", map[string]any{"activePlayers": []string{"a", "b", "c"}}, http.StatusUnprocessableEntity},
		{"unknown player", http.MethodGet, "/api/stats/nobody", nil, http.StatusNotFound},
		{"unknown season", http.MethodGet, "/api/stats?season=season-99", nil, http.StatusNotFound},
		{"unknown season leaderboard", http.MethodGet, "/api/leaderboard?season=season-99", nil, http.StatusNotFound},
		{"blank ensure", http.MethodPost, "/api/players/ensure", map[string]any{"name": "  "}, http.StatusUnprocessableEntity},
		{"sync disabled", http.MethodPost, "/api/sync", nil, http.StatusServiceUnavailable},
		{"bad limit", http.MethodGet, "/api/matches?limit=x", nil, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out errorResponse
			if status := env.do(t, tc.method, tc.path, tc.body, &out); status != tc.expected {
				t.Errorf("Got status %d (%s), expected %d", status, out.Error, tc.expected)
			}
			if out.Error == "" {
				t.Errorf("Got an empty error message")
			}
			if tc.expected != http.StatusBadRequest && out.RequestID == "" {
				t.Errorf("Got no request id in the error body")
			}
		})
	}
}

func TestSessionAndSuggest(t *testing.T) {
	env := newTestEnv(t)

	var state domain.SessionState
	if status := env.do(t, http.MethodPut, "/api/session", map[string]any{"activePlayers": []string{"a", "b", "c", "d"}}, &state); status != http.StatusOK {
		t.Fatalf("Got status %d, expected 200", status)
	}
	if status := env.do(t, http.MethodGet, "/api/session", nil, &state); status != http.StatusOK || len(state.ActivePlayers) != 4 {
		t.Fatalf("Got %d %+v, expected four active players", status, state)
	}

	var suggestion struct {
		Red  []string `json:"redTeam"`
		Blue []string `json:"blueTeam"`
	}
	if status := env.do(t, http.MethodPost, "/api/pairing/suggest", nil, &suggestion); status != http.StatusOK {
		t.Fatalf("Got status %d, expected 200", status)
	}
	if len(suggestion.Red) != 2 || len(suggestion.Blue) != 2 {
		t.Fatalf("Got %+v, expected two full teams", suggestion)
	}

	var eval struct {
		Matches bool `json:"matches"`
		Swapped bool `json:"swapped"`
	}
	env.do(t, http.MethodPost, "/api/pairing/evaluate", map[string]any{"redTeam": suggestion.Blue, "blueTeam": suggestion.Red}, &eval)
	if !eval.Matches || !eval.Swapped {
		t.Errorf("Got %+v, expected a swapped match", eval)
	}

	var info map[string]any
	env.do(t, http.MethodGet, "/api/cache", nil, &info)
	if info["isValid"] != true {
		t.Errorf("Got cache info %v, expected a valid cache after a suggestion", info)
	}
}
