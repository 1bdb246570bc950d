package database

// GetStats returns aggregate counts for the status command and /api/stats.
func (db *DB) GetStats() (*Stats, error) {
	var s Stats
	err := db.conn.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM channels WHERE is_active = 1),
			(SELECT COUNT(*) FROM videos),
			(SELECT COUNT(*) FROM videos WHERE is_short = 1),
			(SELECT COUNT(*) FROM videos WHERE is_short = 0),
			(SELECT COUNT(*) FROM daily_rankings WHERE ranking_date = ?),
			(SELECT COUNT(*) FROM video_stats)
	`, Today()).Scan(&s.ActiveChannels, &s.TotalVideos, &s.TotalShorts,
		&s.TotalLongVideos, &s.TodayRankings, &s.TotalSamples)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
