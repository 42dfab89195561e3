package main

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

type DBDialect string

const (
	dialectSQLite   DBDialect = "sqlite"
	dialectPostgres DBDialect = "postgres"
)

// SQLRepository persists games as JSON payload rows, one per session, in
// either SQLite or Postgres behind the same query shapes.
type SQLRepository struct {
	dialect DBDialect
	db      *sql.DB
}

// newConfiguredStore builds the store and wires the optional collaborators
// from the environment: database, action journal, observer hub.
func newConfiguredStore(tun Tuning) (*Store, error) {
	store := newStore(tun)

	repo, err := openRepositoryFromEnv()
	if err != nil {
		return nil, err
	}
	if repo != nil {
		store.repo = repo
		if err := repo.LoadInto(context.Background(), store); err != nil {
			return nil, err
		}
	}

	if dir := strings.TrimSpace(os.Getenv("REEVE_JOURNAL_DIR")); dir != "" {
		journal, err := NewJournalWriter(dir)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		store.journal = journal
	}

	if strings.TrimSpace(os.Getenv("REEVE_OBSERVER")) == "1" {
		store.hub = NewObserverHub()
	}

	return store, nil
}

func openRepositoryFromEnv() (*SQLRepository, error) {
	dialectRaw := strings.TrimSpace(strings.ToLower(os.Getenv("DB_DIALECT")))
	if dialectRaw == "" {
		dialectRaw = string(dialectSQLite)
	}
	dialect := DBDialect(dialectRaw)

	var driverName string
	var dsn string
	switch dialect {
	case dialectSQLite:
		driverName = "sqlite"
		path := strings.TrimSpace(os.Getenv("DB_SQLITE_PATH"))
		if path == "" {
			path = filepath.Join("tmp", "village_reeve.sqlite")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		dsn = path
	case dialectPostgres:
		driverName = "pgx"
		dsn = strings.TrimSpace(os.Getenv("DB_POSTGRES_DSN"))
		if dsn == "" {
			dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
		}
		if dsn == "" {
			return nil, errors.New("DB_DIALECT=postgres requires DB_POSTGRES_DSN or DATABASE_URL")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DIALECT %q", dialectRaw)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}

	repo := &SQLRepository{dialect: dialect, db: db}
	if err := repo.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Printf("database: dialect=%s", dialect)
	return repo, nil
}

func (r *SQLRepository) bind(pos int) string {
	if r.dialect == dialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

func (r *SQLRepository) applyMigrations(ctx context.Context) error {
	create := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL
		)
	`
	if _, err := r.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := map[string]bool{}
	rows, err := r.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema migration: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate schema migrations: %w", err)
	}
	rows.Close()

	pattern := fmt.Sprintf("migrations/%s/*.sql", r.dialect)
	files, err := fs.Glob(migrationFS, pattern)
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)
	for _, file := range files {
		base := filepath.Base(file)
		if applied[base] {
			continue
		}
		sqlBytes, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		record := fmt.Sprintf(
			"INSERT INTO schema_migrations (version, applied_at) VALUES (%s, %s)",
			r.bind(1), r.bind(2),
		)
		if _, err := tx.ExecContext(ctx, record, base, time.Now().UTC()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

func (store *Store) persistLocked(sid string, g *GameState) {
	if store.repo == nil {
		return
	}
	if err := store.repo.SaveGame(context.Background(), sid, g); err != nil {
		log.Printf("persist game %s failed: %v", shortSession(sid), err)
	}
}

// SaveGame upserts one game's full serialized state.
func (r *SQLRepository) SaveGame(ctx context.Context, sid string, g *GameState) error {
	payload, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", shortSession(sid), err)
	}
	now := time.Now().UTC()

	var q string
	if r.dialect == dialectPostgres {
		q = `
			INSERT INTO games (session_id, seed, tick, game_over, payload, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			ON CONFLICT (session_id) DO UPDATE
			SET seed = EXCLUDED.seed, tick = EXCLUDED.tick, game_over = EXCLUDED.game_over,
			    payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
		`
	} else {
		q = `
			INSERT INTO games (session_id, seed, tick, game_over, payload, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (session_id) DO UPDATE
			SET seed = excluded.seed, tick = excluded.tick, game_over = excluded.game_over,
			    payload = excluded.payload, updated_at = excluded.updated_at
		`
	}

	args := []any{sid, g.Seed, g.Tick, g.GameOver, string(payload), now}
	if r.dialect != dialectPostgres {
		args = append(args, now)
	}
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("upsert game %s: %w", shortSession(sid), err)
	}
	return nil
}

func (r *SQLRepository) DeleteGame(ctx context.Context, sid string) error {
	q := fmt.Sprintf("DELETE FROM games WHERE session_id = %s", r.bind(1))
	if _, err := r.db.ExecContext(ctx, q, sid); err != nil {
		return fmt.Errorf("delete game %s: %w", shortSession(sid), err)
	}
	return nil
}

// LoadInto restores every saved game into the store, reattaching catalog,
// tuning and the fast-forwarded RNG stream.
func (r *SQLRepository) LoadInto(ctx context.Context, store *Store) error {
	rows, err := r.db.QueryContext(ctx, "SELECT session_id, payload FROM games")
	if err != nil {
		return fmt.Errorf("load games: %w", err)
	}
	defer rows.Close()

	loaded := 0
	for rows.Next() {
		var sid, payload string
		if err := rows.Scan(&sid, &payload); err != nil {
			return fmt.Errorf("scan game row: %w", err)
		}
		var g GameState
		if err := json.Unmarshal([]byte(payload), &g); err != nil {
			log.Printf("skip corrupt game %s: %v", shortSession(sid), err)
			continue
		}
		g.rebind(store.cat, store.tun)
		store.Games[sid] = &g
		loaded++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate game rows: %w", err)
	}
	if loaded > 0 {
		log.Printf("restored %d saved games", loaded)
	}
	return nil
}
