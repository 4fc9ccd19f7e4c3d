package server

import (
	"kickelo/internal/constants"
	"kickelo/internal/domain"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.stats.Players(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

type ensurePlayerRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleEnsurePlayer(w http.ResponseWriter, r *http.Request) {
	var req ensurePlayerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	player, err := s.stats.EnsurePlayer(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

type incrementGamesRequest struct {
	Names []string `json:"names"`
}

func (s *Server) handleIncrementGames(w http.ResponseWriter, r *http.Request) {
	var req incrementGamesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.stats.IncrementGames(r.Context(), req.Names); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	if r.URL.Query().Get("recent") == "true" && limit == 0 {
		limit = constants.RecentMatchesLimit
	}

	matches, err := s.stats.Matches(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if matches == nil {
		matches = []domain.Match{}
	}
	writeJSON(w, http.StatusOK, matches)
}

type createMatchRequest struct {
	TeamA              []string           `json:"teamA"`
	TeamB              []string           `json:"teamB"`
	Winner             string             `json:"winner"`
	GoalsA             int                `json:"goalsA"`
	GoalsB             int                `json:"goalsB"`
	Ranked             *bool              `json:"ranked"`
	PositionsConfirmed bool               `json:"positionsConfirmed"`
	GoalLog            []domain.GoalEvent `json:"goalLog"`
	MatchDuration      *int64             `json:"matchDuration"`
}

func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m := domain.Match{
		TeamA:              req.TeamA,
		TeamB:              req.TeamB,
		Winner:             domain.Side(req.Winner),
		GoalsA:             req.GoalsA,
		GoalsB:             req.GoalsB,
		Ranked:             req.Ranked,
		PositionsConfirmed: req.PositionsConfirmed,
		GoalLog:            req.GoalLog,
		MatchDuration:      req.MatchDuration,
	}
	if m.Winner == "" {
		if side, ok := domain.WinnerFromGoals(m.GoalsA, m.GoalsB); ok {
			m.Winner = side
		}
	}

	stored, err := s.stats.RecordMatch(r.Context(), m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.stats.Session(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type sessionRequest struct {
	ActivePlayers []string `json:"activePlayers"`
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	state, err := s.stats.SetSession(r.Context(), req.ActivePlayers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type seasonsResponse struct {
	Current any `json:"current"`
	Seasons any `json:"seasons"`
}

func (s *Server) handleSeasons(w http.ResponseWriter, r *http.Request) {
	resp := seasonsResponse{Seasons: s.stats.Seasons()}
	if current, ok := s.stats.CurrentSeason(); ok {
		resp.Current = current
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	res, err := s.stats.Stats(r.Context(), r.URL.Query().Get("season"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	p, err := s.stats.Player(r.Context(), r.URL.Query().Get("season"), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.stats.Teams(r.Context(), r.URL.Query().Get("season"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("includeInactive") == "true"
	entries, err := s.stats.Leaderboard(r.Context(), r.URL.Query().Get("season"), includeInactive)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type suggestRequest struct {
	ActivePlayers []string `json:"activePlayers"`
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	suggestion, err := s.stats.Suggest(r.Context(), req.ActivePlayers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}

type evaluateRequest struct {
	Red  []string `json:"redTeam"`
	Blue []string `json:"blueTeam"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.stats.Evaluate(req.Red, req.Blue))
}

func (s *Server) handleCacheInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.CacheInfo())
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	res, err := s.sync.Sync(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
