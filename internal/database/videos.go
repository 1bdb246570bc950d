package database

import (
	"database/sql"
	"time"
)

// UpsertVideo inserts a video or refreshes its metadata. Duration changes
// reclassify the video's category (YouTube rarely, but occasionally,
// re-reports durations).
func (db *DB) UpsertVideo(v Video) error {
	isShort := 0
	if v.IsShort {
		isShort = 1
	}
	_, err := db.conn.Exec(
		`INSERT INTO videos (id, channel_id, title, duration_seconds, is_short, published_at, thumbnail_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			duration_seconds = excluded.duration_seconds,
			is_short = excluded.is_short,
			thumbnail_url = excluded.thumbnail_url`,
		v.ID, v.ChannelID, v.Title, v.Duration, isShort, formatTime(v.PublishedAt), v.ThumbnailURL,
	)
	return err
}

// GetVideoByID returns a single video, or nil if unknown.
func (db *DB) GetVideoByID(id string) (*Video, error) {
	row := db.conn.QueryRow(
		`SELECT id, channel_id, title, duration_seconds, is_short, published_at, thumbnail_url, created_at
		FROM videos WHERE id = ?`, id,
	)
	v, err := scanVideo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// GetVideoIDsPublishedSince returns ids of videos published at or after the
// given instant, newest first.
func (db *DB) GetVideoIDsPublishedSince(since time.Time) ([]string, error) {
	rows, err := db.conn.Query(
		`SELECT id FROM videos WHERE published_at >= ? ORDER BY published_at DESC`,
		formatTime(since),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

// GetMomentumVideoIDs returns ids of videos published at or after
// publishedAfter whose observed view-count spread (max minus min across
// their own samples captured at or after capturedAfter) exceeds threshold.
func (db *DB) GetMomentumVideoIDs(publishedAfter, capturedAfter time.Time, threshold int64) ([]string, error) {
	rows, err := db.conn.Query(
		`SELECT v.id FROM videos v
		JOIN video_stats s ON s.video_id = v.id
		WHERE v.published_at >= ? AND s.captured_at >= ?
		GROUP BY v.id
		HAVING MAX(s.view_count) - MIN(s.view_count) > ?
		ORDER BY MAX(s.view_count) - MIN(s.view_count) DESC`,
		formatTime(publishedAfter), formatTime(capturedAfter), threshold,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

// GetVideosWithSamples returns every video that has at least one engagement
// sample, ordered by id for deterministic downstream processing.
func (db *DB) GetVideosWithSamples() ([]Video, error) {
	rows, err := db.conn.Query(
		`SELECT v.id, v.channel_id, v.title, v.duration_seconds, v.is_short,
			v.published_at, v.thumbnail_url, v.created_at
		FROM videos v
		WHERE EXISTS (SELECT 1 FROM video_stats s WHERE s.video_id = v.id)
		ORDER BY v.id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []Video
	for rows.Next() {
		v, err := scanVideoRows(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, *v)
	}
	return videos, rows.Err()
}

// InsertSample appends one engagement sample for a video.
func (db *DB) InsertSample(videoID string, views, likes, comments int64, capturedAt time.Time) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO video_stats (video_id, view_count, like_count, comment_count, captured_at)
		VALUES (?, ?, ?, ?, ?)`,
		videoID, views, likes, comments, formatTime(capturedAt),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetLatestSample returns the most recent sample for a video, or nil if the
// video has never been sampled.
func (db *DB) GetLatestSample(videoID string) (*StatsSample, error) {
	row := db.conn.QueryRow(
		`SELECT id, video_id, view_count, like_count, comment_count, captured_at
		FROM video_stats WHERE video_id = ?
		ORDER BY captured_at DESC, id DESC LIMIT 1`, videoID,
	)
	return scanSample(row)
}

// GetSampleAtOrBefore returns the most recent sample captured at or before
// the cutoff, or nil if none exists. This is the nearest-available baseline:
// no interpolation to an exact window boundary, so derived deltas are
// sensitive to sampling cadence.
func (db *DB) GetSampleAtOrBefore(videoID string, cutoff time.Time) (*StatsSample, error) {
	row := db.conn.QueryRow(
		`SELECT id, video_id, view_count, like_count, comment_count, captured_at
		FROM video_stats WHERE video_id = ? AND captured_at <= ?
		ORDER BY captured_at DESC, id DESC LIMIT 1`,
		videoID, formatTime(cutoff),
	)
	return scanSample(row)
}

func scanSample(row *sql.Row) (*StatsSample, error) {
	var s StatsSample
	var captured string
	err := row.Scan(&s.ID, &s.VideoID, &s.ViewCount, &s.LikeCount, &s.CommentCount, &captured)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.CapturedAt = parseTime(captured)
	return &s, nil
}

func scanVideo(row *sql.Row) (*Video, error) {
	var v Video
	var isShort int
	var published string
	if err := row.Scan(&v.ID, &v.ChannelID, &v.Title, &v.Duration, &isShort,
		&published, &v.ThumbnailURL, &v.CreatedAt); err != nil {
		return nil, err
	}
	v.IsShort = isShort != 0
	v.PublishedAt = parseTime(published)
	return &v, nil
}

func scanVideoRows(rows *sql.Rows) (*Video, error) {
	var v Video
	var isShort int
	var published string
	if err := rows.Scan(&v.ID, &v.ChannelID, &v.Title, &v.Duration, &isShort,
		&published, &v.ThumbnailURL, &v.CreatedAt); err != nil {
		return nil, err
	}
	v.IsShort = isShort != 0
	v.PublishedAt = parseTime(published)
	return &v, nil
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
