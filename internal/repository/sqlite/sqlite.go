// Package sqlite implements the repository interfaces on top of SQLite.
//
// WHY SQLITE FOR A CACHE?
// The cache is a single table read by one process. An embedded database keeps
// it in one file next to the binary, with no server to run, and ":memory:"
// gives every test its own throwaway database.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary still
// cross-compiles without a C toolchain.
package sqlite

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements repository.UserRepository.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/github-users.db" → file-based cache (survives restarts)
//   - ":memory:"             → in-memory cache (tests, --no-cache runs)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// An in-memory database lives and dies with its connection. Pinning the
	// pool to one connection keeps every query on the same database.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// sql.Open is lazy; Ping surfaces a bad path or permissions immediately.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets the HTTP handlers read the cache while a fetch is writing it.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the cache schema. CREATE ... IF NOT EXISTS makes it safe to
// run on every start.
//
// position is the user's index in the latest listing, NULL when the user is
// only cached because of a details lookup (or fell out of the listing).
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS github_users (
			id                  INTEGER PRIMARY KEY,
			login               TEXT NOT NULL,
			node_id             TEXT NOT NULL DEFAULT '',
			avatar_url          TEXT NOT NULL DEFAULT '',
			gravatar_id         TEXT NOT NULL DEFAULT '',
			url                 TEXT NOT NULL DEFAULT '',
			html_url            TEXT NOT NULL DEFAULT '',
			followers_url       TEXT NOT NULL DEFAULT '',
			following_url       TEXT NOT NULL DEFAULT '',
			gists_url           TEXT NOT NULL DEFAULT '',
			starred_url         TEXT NOT NULL DEFAULT '',
			subscriptions_url   TEXT NOT NULL DEFAULT '',
			organizations_url   TEXT NOT NULL DEFAULT '',
			repos_url           TEXT NOT NULL DEFAULT '',
			events_url          TEXT NOT NULL DEFAULT '',
			received_events_url TEXT NOT NULL DEFAULT '',
			type                TEXT NOT NULL DEFAULT '',
			site_admin          INTEGER NOT NULL DEFAULT 0,
			position            INTEGER,
			fetched_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_github_users_login ON github_users(login COLLATE NOCASE);
		CREATE INDEX IF NOT EXISTS idx_github_users_position ON github_users(position);
	`)
	if err != nil {
		return fmt.Errorf("creating github_users table: %w", err)
	}
	return nil
}
