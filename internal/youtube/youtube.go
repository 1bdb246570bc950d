// Package youtube talks to the YouTube Data API v3. The rest of the system
// consumes it through the Provider interface so tests can inject fakes and
// quota accounting stays in the callers' hands.
package youtube

import (
	"context"
	"time"
)

// Unit costs per Data API call type. Charged by callers against the quota
// ledger before each request.
const (
	CostList   = 1
	CostSearch = 100
)

// MaxBatchSize is the most video ids videos.list accepts per call.
const MaxBatchSize = 50

// VideoDetail is the per-video payload from videos.list.
type VideoDetail struct {
	ID              string
	ChannelID       string
	Title           string
	PublishedAt     time.Time
	DurationSeconds int
	ThumbnailURL    string
	ViewCount       int64
	LikeCount       int64
	CommentCount    int64
}

// IsShort reports whether the video counts as a Short (60 seconds or less).
func (v VideoDetail) IsShort() bool {
	return v.DurationSeconds <= 60
}

// ChannelResult is one candidate from a channel search.
type ChannelResult struct {
	ID          string
	Title       string
	Description string
	Thumbnail   string
}

// Provider is the narrow metadata-provider contract the core consumes.
type Provider interface {
	// ChannelUploadsPlaylist resolves a channel's uploads playlist id. Cost 1.
	ChannelUploadsPlaylist(ctx context.Context, channelID string) (string, error)
	// PlaylistItems lists video ids on a playlist page. Cost 1 per page.
	PlaylistItems(ctx context.Context, playlistID, pageToken string) (ids []string, nextPage string, err error)
	// VideoDetails resolves details for up to MaxBatchSize ids. Cost 1.
	VideoDetails(ctx context.Context, ids []string) ([]VideoDetail, error)
	// SearchChannels searches for channels. Cost 100.
	SearchChannels(ctx context.Context, query, pageToken string) (results []ChannelResult, nextPage string, err error)
}
