package database

import "time"

// Category partitions videos into the two ranking pools.
type Category string

const (
	CategoryShorts Category = "shorts"
	CategoryLong   Category = "long"
)

// CategoryFor classifies a video by duration. YouTube treats anything at or
// under 60 seconds as a Short.
func CategoryFor(durationSeconds int) Category {
	if durationSeconds <= 60 {
		return CategoryShorts
	}
	return CategoryLong
}

// Channel is a tracked channel.
type Channel struct {
	ID          string
	Name        string
	Description *string
	IsActive    bool
	AddedAt     *string
	LastUpdated *string
}

// Video is a tracked video. Immutable once created except for metadata
// refresh and category reclassification on upsert.
type Video struct {
	ID           string
	ChannelID    string
	Title        string
	Duration     int // seconds
	IsShort      bool
	PublishedAt  time.Time
	ThumbnailURL *string
	CreatedAt    *string
}

// Category returns the ranking pool this video belongs to.
func (v Video) Category() Category {
	if v.IsShort {
		return CategoryShorts
	}
	return CategoryLong
}

// StatsSample is one timestamped observation of a video's engagement
// counters. Append-only; rows are never updated or deleted individually.
type StatsSample struct {
	ID           int64
	VideoID      string
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
	CapturedAt   time.Time
}

// RankingEntry is one row of a published daily ranking snapshot.
type RankingEntry struct {
	VideoID       string
	Category      Category
	Position      int
	HeatScore     float64
	ViewIncrement int64
	RankingDate   string // YYYY-MM-DD
}

// RankedVideo is a ranking entry joined with video, channel, and latest
// sample metadata for the query surface.
type RankedVideo struct {
	RankingEntry
	Title        string
	ChannelID    string
	ChannelName  string
	ThumbnailURL *string
	Duration     int
	PublishedAt  time.Time
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
}

// Stats contains aggregate database statistics.
type Stats struct {
	ActiveChannels  int
	TotalVideos     int
	TotalShorts     int
	TotalLongVideos int
	TodayRankings   int
	TotalSamples    int
}
