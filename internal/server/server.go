package server

import (
	"kickelo/internal/middleware"
	"kickelo/internal/service"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

type Server struct {
	stats  *service.StatsService
	sync   *service.SyncService
	logger zerolog.Logger
}

func NewServer(stats *service.StatsService, sync *service.SyncService, logger zerolog.Logger) *Server {
	return &Server{stats: stats, sync: sync, logger: logger}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/players", s.handlePlayers)
		r.Post("/players/ensure", s.handleEnsurePlayer)
		r.Post("/players/increment-games", s.handleIncrementGames)

		r.Get("/matches", s.handleMatches)
		r.Post("/matches", s.handleCreateMatch)

		r.Get("/session", s.handleSession)
		r.Put("/session", s.handleUpdateSession)

		r.Get("/seasons", s.handleSeasons)
		r.Get("/stats", s.handleStats)
		r.Get("/stats/{name}", s.handlePlayerStats)
		r.Get("/teams", s.handleTeams)
		r.Get("/leaderboard", s.handleLeaderboard)

		r.Post("/pairing/suggest", s.handleSuggest)
		r.Post("/pairing/evaluate", s.handleEvaluate)

		r.Get("/cache", s.handleCacheInfo)
		r.Post("/sync", s.handleSync)
	})

	return r
}
