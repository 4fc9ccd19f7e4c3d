package repository

import (
	"context"
	"database/sql"
	"errors"
	"kickelo/internal/config"
	"kickelo/internal/database"
	"kickelo/internal/db"
	"kickelo/internal/domain"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func openTestDB(t *testing.T) (*sql.DB, *db.Queries) {
	t.Helper()
	sqlDB, err := database.New(&config.Config{DBPath: filepath.Join(t.TempDir(), "test.db")}, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return sqlDB, db.New(sqlDB)
}

func TestPlayerEnsureAndIncrement(t *testing.T) {
	ctx := context.Background()
	sqlDB, queries := openTestDB(t)
	repo := NewPlayerRepository(sqlDB, queries, zerolog.Nop())

	p, created, err := repo.Ensure(ctx, "  alice ")
	if err != nil || !created {
		t.Fatalf("Got Ensure() = %v, %v, expected a created player", created, err)
	}
	if p.Name != "alice" || p.Games != 0 || p.ID == "" {
		t.Errorf("Got %+v, expected alice with 0 games and an id", p)
	}

	if _, created, _ := repo.Ensure(ctx, "alice"); created {
		t.Errorf("Got created = true for an existing player")
	}
	if _, _, err := repo.Ensure(ctx, "   "); !errors.Is(err, domain.ErrBlankPlayer) {
		t.Errorf("Got Ensure(blank) error = %v, expected ErrBlankPlayer", err)
	}

	if err := repo.IncrementGames(ctx, []string{"alice", "bob", "", "alice"}); err != nil {
		t.Fatalf("Got IncrementGames() error = %v", err)
	}

	players, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("Got List() error = %v", err)
	}
	got := map[string]int{}
	for _, p := range players {
		got[p.Name] = p.Games
	}
	if diff := cmp.Diff(map[string]int{"alice": 2, "bob": 1}, got); diff != "" {
		t.Errorf("games mismatch (-want +got):\n%s", diff)
	}

	if _, err := repo.Get(ctx, "carol"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Got Get(carol) error = %v, expected ErrNotFound", err)
	}
}

func TestPlayerUpsertBatch(t *testing.T) {
	ctx := context.Background()
	sqlDB, queries := openTestDB(t)
	repo := NewPlayerRepository(sqlDB, queries, zerolog.Nop())

	if err := repo.UpsertBatch(ctx, []domain.Player{{ID: "alice", Name: "alice", Games: 3}, {Name: ""}}); err != nil {
		t.Fatalf("Got UpsertBatch() error = %v", err)
	}
	if err := repo.UpsertBatch(ctx, []domain.Player{{ID: "alice", Name: "alice", Games: 7}}); err != nil {
		t.Fatalf("Got UpsertBatch() error = %v", err)
	}

	p, err := repo.Get(ctx, "alice")
	if err != nil || p.Games != 7 {
		t.Errorf("Got %+v, %v, expected alice with 7 games", p, err)
	}
}

func TestMatchRoundTrip(t *testing.T) {
	ctx := context.Background()
	sqlDB, queries := openTestDB(t)
	repo := NewMatchRepository(sqlDB, queries, zerolog.Nop())

	ranked := false
	duration := int64(95000)
	first := domain.Match{
		TeamA: []string{"a", "b"}, TeamB: []string{"c", "d"},
		Winner: domain.SideA, GoalsA: 5, GoalsB: 3, Timestamp: 1000, EloDelta: 20,
	}
	second := domain.Match{
		TeamA: []string{"a"}, TeamB: []string{"c", "d"},
		Winner: domain.SideB, GoalsA: 3, GoalsB: 5, Timestamp: 2000,
		Ranked: &ranked, PositionsConfirmed: true, MatchDuration: &duration,
		GoalLog: []domain.GoalEvent{{Team: domain.GoalBlue, Timestamp: 1000}, {Team: domain.GoalRed, Timestamp: 2500}},
	}
	for _, m := range []*domain.Match{&first, &second} {
		if err := repo.Insert(ctx, m); err != nil {
			t.Fatalf("Got Insert() error = %v", err)
		}
		if m.ID == "" || m.Source != domain.SourceLocal {
			t.Errorf("Got id %q source %q, expected a generated id and local source", m.ID, m.Source)
		}
	}

	got, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("Got List() error = %v", err)
	}
	if diff := cmp.Diff([]domain.Match{second, first}, got); diff != "" {
		t.Errorf("List() mismatch, expected newest first (-want +got):\n%s", diff)
	}

	latest, ok, err := repo.LatestTimestamp(ctx)
	if err != nil || !ok || latest != 2000 {
		t.Errorf("Got LatestTimestamp() = %v, %v, %v, expected 2000", latest, ok, err)
	}
}

func TestMatchUpsertBatchAndDelete(t *testing.T) {
	ctx := context.Background()
	sqlDB, queries := openTestDB(t)
	repo := NewMatchRepository(sqlDB, queries, zerolog.Nop())

	if _, ok, _ := repo.LatestTimestamp(ctx); ok {
		t.Errorf("Got a latest timestamp on an empty table")
	}

	batch := make([]domain.Match, 0, 250)
	for i := 0; i < 250; i++ {
		batch = append(batch, domain.Match{
			ID: "m" + string(rune('a'+i%26)) + string(rune('a'+i/26)), TeamA: []string{"a"}, TeamB: []string{"b"},
			Winner: domain.SideA, GoalsA: 5, Timestamp: int64(i),
		})
	}
	if err := repo.UpsertBatch(ctx, batch); err != nil {
		t.Fatalf("Got UpsertBatch() error = %v", err)
	}
	batch[0].GoalsB = 4
	if err := repo.UpsertBatch(ctx, batch[:1]); err != nil {
		t.Fatalf("Got UpsertBatch() error = %v", err)
	}

	if n, _ := repo.Count(ctx); n != 250 {
		t.Errorf("Got Count() = %d, expected 250", n)
	}
	m, err := repo.Get(ctx, batch[0].ID)
	if err != nil || m.GoalsB != 4 || m.Source != domain.SourceUpstream {
		t.Errorf("Got %+v, %v, expected the updated upstream match", m, err)
	}

	if err := repo.Delete(ctx, batch[0].ID); err != nil {
		t.Errorf("Got Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, batch[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Got second Delete() error = %v, expected ErrNotFound", err)
	}
}

func TestListSkipsCorruptRows(t *testing.T) {
	ctx := context.Background()
	sqlDB, queries := openTestDB(t)
	repo := NewMatchRepository(sqlDB, queries, zerolog.Nop())

	good := domain.Match{ID: "good", TeamA: []string{"a"}, TeamB: []string{"b"}, Winner: domain.SideA, GoalsA: 5, Timestamp: 1}
	if err := repo.Insert(ctx, &good); err != nil {
		t.Fatalf("Got Insert() error = %v", err)
	}
	_, err := sqlDB.Exec(`INSERT INTO matches (id, team_a, team_b, winner, timestamp, created_at, updated_at)
		VALUES ('bad', 'not json', '[]', 'A', 2, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	if err != nil {
		t.Fatalf("failed to insert corrupt row: %v", err)
	}

	got, err := repo.List(ctx)
	if err != nil || len(got) != 1 || got[0].ID != "good" {
		t.Errorf("Got %v, %v, expected only the good match", got, err)
	}
}

func TestSessionGetPut(t *testing.T) {
	ctx := context.Background()
	_, queries := openTestDB(t)
	repo := NewSessionRepository(queries, zerolog.Nop())

	state, err := repo.Get(ctx)
	if err != nil || len(state.ActivePlayers) != 0 {
		t.Fatalf("Got %+v, %v, expected an empty session", state, err)
	}

	if _, err := repo.Put(ctx, []string{"b", " a ", "", "b", "c"}); err != nil {
		t.Fatalf("Got Put() error = %v", err)
	}
	state, err = repo.Get(ctx)
	if err != nil {
		t.Fatalf("Got Get() error = %v", err)
	}
	if diff := cmp.Diff([]string{"b", "a", "c"}, state.ActivePlayers); diff != "" {
		t.Errorf("active players mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionKeepsJoinTimes(t *testing.T) {
	ctx := context.Background()
	_, queries := openTestDB(t)
	repo := NewSessionRepository(queries, zerolog.Nop())

	first, err := repo.Put(ctx, []string{"a", "b"})
	if err != nil {
		t.Fatalf("Got Put() error = %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	second, err := repo.Put(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Got Put() error = %v", err)
	}
	if second.JoinedAt["a"] != first.JoinedAt["a"] || second.JoinedAt["b"] != first.JoinedAt["b"] {
		t.Errorf("Got join times %v, expected a and b to keep %v", second.JoinedAt, first.JoinedAt)
	}
	if second.JoinedAt["c"] <= first.JoinedAt["a"] {
		t.Errorf("Got c joined at %v, expected after %v", second.JoinedAt["c"], first.JoinedAt["a"])
	}

	// leaving and coming back counts as a new arrival
	if _, err := repo.Put(ctx, []string{"b", "c"}); err != nil {
		t.Fatalf("Got Put() error = %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := repo.Put(ctx, []string{"a", "b", "c"}); err != nil {
		t.Fatalf("Got Put() error = %v", err)
	}

	stored, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Got Get() error = %v", err)
	}
	if stored.JoinedAt["a"] <= second.JoinedAt["c"] {
		t.Errorf("Got a rejoined at %v, expected after %v", stored.JoinedAt["a"], second.JoinedAt["c"])
	}
	if stored.JoinedAt["b"] != first.JoinedAt["b"] {
		t.Errorf("Got b joined at %v, expected %v", stored.JoinedAt["b"], first.JoinedAt["b"])
	}
}
