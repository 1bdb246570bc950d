// Package discover finds newly published uploads for tracked channels
// through YouTube's per-channel RSS feeds. Feed reads cost no API quota,
// so discovery never competes with stats collection for budget.
package discover

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const feedURLFormat = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"

// maxPerFeed bounds how many entries we take from a single channel feed.
const maxPerFeed = 15

// Upload is one feed entry for a channel upload.
type Upload struct {
	VideoID   string
	ChannelID string
	Title     string
	Published time.Time
}

// Discoverer reads channel upload feeds.
type Discoverer struct {
	parser  *gofeed.Parser
	feedURL string // format string, overridable in tests
}

// NewDiscoverer creates a Discoverer against the public feed endpoint.
func NewDiscoverer() *Discoverer {
	return &Discoverer{parser: gofeed.NewParser(), feedURL: feedURLFormat}
}

// ChannelUploads returns recent uploads for a channel, newest first as the
// feed orders them, capped at maxPerFeed.
func (d *Discoverer) ChannelUploads(ctx context.Context, channelID string) ([]Upload, error) {
	feed, err := d.parser.ParseURLWithContext(fmt.Sprintf(d.feedURL, channelID), ctx)
	if err != nil {
		return nil, err
	}

	var uploads []Upload
	for _, item := range feed.Items {
		if len(uploads) >= maxPerFeed {
			break
		}

		upload := parseItem(item, channelID)
		if upload == nil {
			continue
		}
		uploads = append(uploads, *upload)
	}
	return uploads, nil
}

// UploadsSince fans out over channels and returns uploads published at or
// after the cutoff. Feed failures are logged and skipped; one unreachable
// channel never aborts discovery.
func (d *Discoverer) UploadsSince(ctx context.Context, channelIDs []string, cutoff time.Time) []Upload {
	var all []Upload
	for _, channelID := range channelIDs {
		uploads, err := d.ChannelUploads(ctx, channelID)
		if err != nil {
			log.Printf("Failed to read uploads feed for %s: %v", channelID, err)
			continue
		}

		fresh := 0
		for _, u := range uploads {
			if u.Published.Before(cutoff) {
				continue
			}
			all = append(all, u)
			fresh++
		}
		if fresh > 0 {
			log.Printf("Discovered %d recent uploads from %s", fresh, channelID)
		}
	}
	return all
}

func parseItem(item *gofeed.Item, channelID string) *Upload {
	videoID := extractVideoID(item)
	if videoID == "" {
		return nil
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		return nil
	}

	var published time.Time
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	return &Upload{
		VideoID:   videoID,
		ChannelID: channelID,
		Title:     title,
		Published: published,
	}
}

// extractVideoID pulls the video id from a feed entry. YouTube feeds carry
// it as the GUID ("yt:video:ID") and in the watch link's v parameter.
func extractVideoID(item *gofeed.Item) string {
	if strings.HasPrefix(item.GUID, "yt:video:") {
		return strings.TrimPrefix(item.GUID, "yt:video:")
	}
	if item.Link != "" {
		if u, err := url.Parse(item.Link); err == nil {
			if v := u.Query().Get("v"); v != "" {
				return v
			}
		}
	}
	return ""
}
