package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func openTestRepository(t *testing.T) *SQLRepository {
	t.Helper()
	t.Setenv("DB_DIALECT", "sqlite")
	t.Setenv("DB_SQLITE_PATH", filepath.Join(t.TempDir(), "games.sqlite"))
	repo, err := openRepositoryFromEnv()
	if err != nil {
		t.Fatalf("open sqlite repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.db.Close() })
	return repo
}

func TestOpenRepositoryEnvErrors(t *testing.T) {
	t.Setenv("DB_DIALECT", "postgres")
	t.Setenv("DB_POSTGRES_DSN", "")
	t.Setenv("DATABASE_URL", "")
	if _, err := openRepositoryFromEnv(); err == nil ||
		!strings.Contains(err.Error(), "DB_POSTGRES_DSN or DATABASE_URL") {
		t.Fatalf("expected missing-DSN error, got %v", err)
	}

	t.Setenv("DB_DIALECT", "oracle")
	if _, err := openRepositoryFromEnv(); err == nil ||
		!strings.Contains(err.Error(), "unsupported DB_DIALECT") {
		t.Fatalf("expected unsupported-dialect error, got %v", err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	repo := openTestRepository(t)
	if err := repo.applyMigrations(context.Background()); err != nil {
		t.Fatalf("second migration pass: %v", err)
	}
	var n int
	if err := repo.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 1 {
		t.Fatalf("migration count = %d, want 1", n)
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	g := newTestGame(t, 77)
	forceRequest(g, "ev-coin")
	applyAction(g, Action{OptionIndex: 1})
	if err := repo.SaveGame(ctx, "session-a", g); err != nil {
		t.Fatalf("save: %v", err)
	}

	store := newStore(defaultTuning())
	store.cat = g.cat
	if err := repo.LoadInto(ctx, store); err != nil {
		t.Fatalf("load: %v", err)
	}
	restored := store.Games["session-a"]
	if restored == nil {
		t.Fatalf("game not restored")
	}
	if restored.Tick != g.Tick || restored.Seed != 77 || restored.Stats != g.Stats {
		t.Fatalf("restored game differs: %+v vs %+v", restored.Stats, g.Stats)
	}

	// The restored game must keep drawing from the same stream.
	forceRequest(g, "ev-neutral")
	forceRequest(restored, "ev-neutral")
	applyAction(g, Action{OptionIndex: 0})
	applyAction(restored, Action{OptionIndex: 0})
	if restored.CurrentRequestID != g.CurrentRequestID || restored.Stats != g.Stats {
		t.Fatalf("restored game diverged after one action")
	}
}

func TestSaveGameUpserts(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	g := newTestGame(t, 5)
	if err := repo.SaveGame(ctx, "session-b", g); err != nil {
		t.Fatalf("first save: %v", err)
	}
	forceRequest(g, "ev-neutral")
	applyAction(g, Action{OptionIndex: 0})
	if err := repo.SaveGame(ctx, "session-b", g); err != nil {
		t.Fatalf("second save: %v", err)
	}

	var n, tick int
	if err := repo.db.QueryRow("SELECT COUNT(*), MAX(tick) FROM games").Scan(&n, &tick); err != nil {
		t.Fatalf("inspect rows: %v", err)
	}
	if n != 1 || tick != g.Tick {
		t.Fatalf("rows = %d tick = %d, want one row at tick %d", n, tick, g.Tick)
	}
}

func TestDeleteGame(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	g := newTestGame(t, 5)
	if err := repo.SaveGame(ctx, "session-c", g); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.DeleteGame(ctx, "session-c"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	store := newStore(defaultTuning())
	store.cat = g.cat
	if err := repo.LoadInto(ctx, store); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(store.Games) != 0 {
		t.Fatalf("deleted game came back")
	}
}

func TestLoadIntoSkipsCorruptRows(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	g := newTestGame(t, 5)
	if err := repo.SaveGame(ctx, "session-good", g); err != nil {
		t.Fatalf("save: %v", err)
	}
	_, err := repo.db.ExecContext(ctx,
		"INSERT INTO games (session_id, seed, tick, game_over, payload, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		"session-bad", 0, 0, false, "{not json", "2026-01-01", "2026-01-01")
	if err != nil {
		t.Fatalf("plant corrupt row: %v", err)
	}

	store := newStore(defaultTuning())
	store.cat = g.cat
	if err := repo.LoadInto(ctx, store); err != nil {
		t.Fatalf("load should tolerate corrupt rows: %v", err)
	}
	if store.Games["session-good"] == nil || store.Games["session-bad"] != nil {
		t.Fatalf("good row missing or corrupt row restored: %v", store.Games)
	}
}
