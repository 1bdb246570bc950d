// Package database persists the tracking state: channels, their videos,
// the append-only engagement samples, and the published daily ranking
// snapshots, all in one SQLite file.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB is a handle on the tuberank SQLite store.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens the store at path, creating file and parent directories as
// needed, and brings the schema up to date. WAL plus a busy timeout let
// the scheduler's writers and the HTTP server's readers share the file;
// foreign keys are enforced so samples and ranking rows cannot outlive
// their video.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &DB{conn: conn, path: path}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the store's file path.
func (db *DB) Path() string {
	return db.path
}
