package service

import (
	"context"
	"kickelo/internal/domain"
)

// MatchStore is the match history the services read and append to.
type MatchStore interface {
	List(ctx context.Context) ([]domain.Match, error)
	Insert(ctx context.Context, match *domain.Match) error
	UpsertBatch(ctx context.Context, matches []domain.Match) error
}

type PlayerStore interface {
	List(ctx context.Context) ([]domain.Player, error)
	Ensure(ctx context.Context, name string) (*domain.Player, bool, error)
	IncrementGames(ctx context.Context, names []string) error
	UpsertBatch(ctx context.Context, players []domain.Player) error
}

type SessionStore interface {
	Get(ctx context.Context) (*domain.SessionState, error)
	Put(ctx context.Context, active []string) (*domain.SessionState, error)
}

// Upstream is the remote backend the sync pulls from.
type Upstream interface {
	Enabled() bool
	GetMatches(ctx context.Context) ([]domain.Match, error)
	GetPlayers(ctx context.Context) ([]domain.Player, error)
	GetSession(ctx context.Context) (*domain.SessionState, error)
}
