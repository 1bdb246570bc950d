package database

import (
	"fmt"
	"time"
)

// ReplaceSnapshot atomically replaces the ranking snapshot for one
// (date, category) key. The delete and all inserts run in a single
// transaction, so a concurrent reader sees either the old complete set or
// the new complete set, never a mix. Entries must already carry contiguous
// 1-based positions.
func (db *DB) ReplaceSnapshot(date string, category Category, entries []RankingEntry) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot replace: %w", err)
	}

	if _, err := tx.Exec(
		"DELETE FROM daily_rankings WHERE ranking_date = ? AND rank_type = ?",
		date, string(category),
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("clearing prior snapshot: %w", err)
	}

	for _, e := range entries {
		if _, err := tx.Exec(
			`INSERT INTO daily_rankings (video_id, rank_type, rank_position, heat_score, view_increment, ranking_date)
			VALUES (?, ?, ?, ?, ?, ?)`,
			e.VideoID, string(category), e.Position, e.HeatScore, e.ViewIncrement, date,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting position %d: %w", e.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot replace: %w", err)
	}
	return nil
}

// GetRanking returns the published ranking for a date, joined with video,
// channel, and latest-sample metadata. An empty category returns both pools
// (shorts first), ordered by position within each.
func (db *DB) GetRanking(date string, category Category) ([]RankedVideo, error) {
	query := `
		SELECT r.video_id, r.rank_type, r.rank_position, r.heat_score, r.view_increment, r.ranking_date,
			v.title, v.channel_id, c.name, v.thumbnail_url, v.duration_seconds, v.published_at,
			s.view_count, s.like_count, s.comment_count
		FROM daily_rankings r
		JOIN videos v ON v.id = r.video_id
		JOIN channels c ON c.id = v.channel_id
		JOIN (
			SELECT video_id, MAX(id) AS latest_id
			FROM video_stats GROUP BY video_id
		) latest ON latest.video_id = v.id
		JOIN video_stats s ON s.id = latest.latest_id
		WHERE r.ranking_date = ?`
	args := []any{date}
	if category != "" {
		query += " AND r.rank_type = ?"
		args = append(args, string(category))
	}
	query += " ORDER BY r.rank_type, r.rank_position"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ranked []RankedVideo
	for rows.Next() {
		var rv RankedVideo
		var rankType, published string
		if err := rows.Scan(&rv.VideoID, &rankType, &rv.Position, &rv.HeatScore,
			&rv.ViewIncrement, &rv.RankingDate,
			&rv.Title, &rv.ChannelID, &rv.ChannelName, &rv.ThumbnailURL, &rv.Duration, &published,
			&rv.ViewCount, &rv.LikeCount, &rv.CommentCount); err != nil {
			return nil, err
		}
		rv.Category = Category(rankType)
		rv.PublishedAt = parseTime(published)
		ranked = append(ranked, rv)
	}
	return ranked, rows.Err()
}

// GetRankedVideoIDs returns the ids present in the published ranking for a
// date, across both categories, in position order.
func (db *DB) GetRankedVideoIDs(date string) ([]string, error) {
	rows, err := db.conn.Query(
		`SELECT video_id FROM daily_rankings WHERE ranking_date = ?
		ORDER BY rank_type, rank_position`, date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

// GetSnapshotEntries returns the raw ranking entries for one
// (date, category) key in position order.
func (db *DB) GetSnapshotEntries(date string, category Category) ([]RankingEntry, error) {
	rows, err := db.conn.Query(
		`SELECT video_id, rank_type, rank_position, heat_score, view_increment, ranking_date
		FROM daily_rankings WHERE ranking_date = ? AND rank_type = ?
		ORDER BY rank_position`, date, string(category),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []RankingEntry
	for rows.Next() {
		var e RankingEntry
		var rankType string
		if err := rows.Scan(&e.VideoID, &rankType, &e.Position, &e.HeatScore,
			&e.ViewIncrement, &e.RankingDate); err != nil {
			return nil, err
		}
		e.Category = Category(rankType)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PruneRankingsBefore discards snapshots older than the cutoff date. History
// loses value quickly; this keeps the table bounded.
func (db *DB) PruneRankingsBefore(cutoff time.Time) (int64, error) {
	result, err := db.conn.Exec(
		"DELETE FROM daily_rankings WHERE ranking_date < ?",
		cutoff.Format("2006-01-02"),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
