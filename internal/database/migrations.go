package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS channels (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    is_active INTEGER DEFAULT 1,
    added_at TEXT DEFAULT (datetime('now')),
    last_updated TEXT
);

CREATE TABLE IF NOT EXISTS videos (
    id TEXT PRIMARY KEY,
    channel_id TEXT NOT NULL REFERENCES channels(id),
    title TEXT NOT NULL,
    duration_seconds INTEGER NOT NULL DEFAULT 0,
    is_short INTEGER NOT NULL DEFAULT 0,
    published_at TEXT NOT NULL,
    thumbnail_url TEXT,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS video_stats (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    video_id TEXT NOT NULL REFERENCES videos(id),
    view_count INTEGER NOT NULL DEFAULT 0,
    like_count INTEGER NOT NULL DEFAULT 0,
    comment_count INTEGER NOT NULL DEFAULT 0,
    captured_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_rankings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    video_id TEXT NOT NULL REFERENCES videos(id),
    rank_type TEXT NOT NULL CHECK(rank_type IN ('shorts', 'long')),
    rank_position INTEGER NOT NULL,
    heat_score REAL NOT NULL,
    view_increment INTEGER NOT NULL,
    ranking_date TEXT NOT NULL,
    created_at TEXT DEFAULT (datetime('now')),
    UNIQUE (ranking_date, rank_type, rank_position)
);

CREATE INDEX IF NOT EXISTS idx_videos_channel ON videos(channel_id);
CREATE INDEX IF NOT EXISTS idx_videos_published ON videos(published_at);
CREATE INDEX IF NOT EXISTS idx_stats_video_captured ON video_stats(video_id, captured_at);
CREATE INDEX IF NOT EXISTS idx_rankings_date_type ON daily_rankings(ranking_date, rank_type);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
