// Package sqlite implements the repository interfaces on an embedded SQLite
// database (modernc.org/sqlite, pure Go, no cgo).
//
// SCHEMA OVERVIEW:
//
//	users, admins, creators    one table per account kind, email unique per table
//	creator_emotions           creator → declared support emotions
//	availability_windows       creator → weekly windows, ordered by position
//	visual_posts               creator → posts, read back in insertion order
//	meetings                   the single source of truth for sessions; both
//	                           "my meetings" views are queries over it
//	videos                     uploaded video metadata
//
// scheduled_at is stored as unix seconds so overlap checks are plain integer
// range comparisons.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/sakif/heartline/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB is a SQLite-backed repository.Store.
type DB struct {
	conn *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx, so read helpers can run
// inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens (or creates) the database at dbPath and migrates it.
// ":memory:" gives a private in-memory database, which tests use.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection: SQLite has a single writer, and a ":memory:" database
	// lives only as long as the connection that created it.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

// newWithConn wraps an already configured pool without migrating it.
func newWithConn(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// migrations run in order on every start; each statement is idempotent.
var migrations = []struct {
	name string
	sql  string
}{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL DEFAULT 'user',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`},
	{"admins", `
		CREATE TABLE IF NOT EXISTS admins (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL DEFAULT 'admin',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`},
	{"creators", `
		CREATE TABLE IF NOT EXISTS creators (
			id                    TEXT PRIMARY KEY,
			name                  TEXT NOT NULL,
			email                 TEXT NOT NULL UNIQUE,
			password_hash         TEXT NOT NULL,
			age                   INTEGER NOT NULL DEFAULT 0,
			category              TEXT NOT NULL DEFAULT 'Visuals',
			available_for_support INTEGER NOT NULL DEFAULT 0,
			current_status        TEXT NOT NULL DEFAULT 'offline',
			rating                REAL NOT NULL DEFAULT 0,
			support_count         INTEGER NOT NULL DEFAULT 0,
			created_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`},
	{"creator_emotions", `
		CREATE TABLE IF NOT EXISTS creator_emotions (
			creator_id TEXT NOT NULL REFERENCES creators(id) ON DELETE CASCADE,
			emotion    TEXT NOT NULL,
			position   INTEGER NOT NULL,
			PRIMARY KEY (creator_id, emotion)
		)`},
	{"availability_windows", `
		CREATE TABLE IF NOT EXISTS availability_windows (
			creator_id TEXT NOT NULL REFERENCES creators(id) ON DELETE CASCADE,
			position   INTEGER NOT NULL,
			day        TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time   TEXT NOT NULL,
			PRIMARY KEY (creator_id, position)
		)`},
	{"visual_posts", `
		CREATE TABLE IF NOT EXISTS visual_posts (
			id         TEXT PRIMARY KEY,
			creator_id TEXT NOT NULL REFERENCES creators(id) ON DELETE CASCADE,
			type       TEXT NOT NULL,
			content    TEXT NOT NULL DEFAULT '',
			media_url  TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`},
	{"visual_posts_creator_idx", `CREATE INDEX IF NOT EXISTS idx_visual_posts_creator ON visual_posts(creator_id)`},
	{"meetings", `
		CREATE TABLE IF NOT EXISTS meetings (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL REFERENCES users(id),
			creator_id   TEXT NOT NULL REFERENCES creators(id),
			emotion      TEXT NOT NULL,
			scheduled_at INTEGER NOT NULL,
			status       TEXT NOT NULL,
			meet_link    TEXT NOT NULL DEFAULT '',
			kind         TEXT NOT NULL,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`},
	{"meetings_creator_idx", `CREATE INDEX IF NOT EXISTS idx_meetings_creator_time ON meetings(creator_id, scheduled_at)`},
	{"meetings_user_idx", `CREATE INDEX IF NOT EXISTS idx_meetings_user_time ON meetings(user_id, scheduled_at)`},
	{"videos", `
		CREATE TABLE IF NOT EXISTS videos (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			filename    TEXT NOT NULL,
			file_path   TEXT NOT NULL,
			uploader_id TEXT NOT NULL REFERENCES creators(id),
			views       INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`},
}

func (db *DB) migrate() error {
	for _, m := range migrations {
		if _, err := db.conn.Exec(m.sql); err != nil {
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
	}
	return nil
}

// withTx runs fn in a transaction, committing on nil and rolling back otherwise.
// fn must use tx for every statement: the pool has a single connection.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("sqlite: rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
