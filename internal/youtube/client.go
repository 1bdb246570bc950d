package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// Client is the real Data API v3 implementation of Provider.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates a Data API client. baseURL may be empty for production.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// IsConfigured returns whether the API key is available.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// ChannelUploadsPlaylist resolves the uploads playlist for a channel.
func (c *Client) ChannelUploadsPlaylist(ctx context.Context, channelID string) (string, error) {
	params := url.Values{
		"part": {"contentDetails"},
		"id":   {channelID},
	}

	var result struct {
		Items []struct {
			ContentDetails struct {
				RelatedPlaylists struct {
					Uploads string `json:"uploads"`
				} `json:"relatedPlaylists"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := c.get(ctx, "channels", params, &result); err != nil {
		return "", err
	}
	if len(result.Items) == 0 {
		return "", fmt.Errorf("channel %s not found", channelID)
	}
	return result.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

// PlaylistItems lists one page of video ids from a playlist.
func (c *Client) PlaylistItems(ctx context.Context, playlistID, pageToken string) ([]string, string, error) {
	params := url.Values{
		"part":       {"contentDetails"},
		"playlistId": {playlistID},
		"maxResults": {"50"},
	}
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	var result struct {
		NextPageToken string `json:"nextPageToken"`
		Items         []struct {
			ContentDetails struct {
				VideoID string `json:"videoId"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := c.get(ctx, "playlistItems", params, &result); err != nil {
		return nil, "", err
	}

	var ids []string
	for _, item := range result.Items {
		if item.ContentDetails.VideoID != "" {
			ids = append(ids, item.ContentDetails.VideoID)
		}
	}
	return ids, result.NextPageToken, nil
}

// VideoDetails resolves snippet, statistics, and duration for up to
// MaxBatchSize videos in one call.
func (c *Client) VideoDetails(ctx context.Context, ids []string) ([]VideoDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxBatchSize {
		return nil, fmt.Errorf("videos.list accepts at most %d ids, got %d", MaxBatchSize, len(ids))
	}

	params := url.Values{
		"part": {"snippet,statistics,contentDetails"},
		"id":   {strings.Join(ids, ",")},
	}

	var result struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				ChannelID   string `json:"channelId"`
				Title       string `json:"title"`
				PublishedAt string `json:"publishedAt"`
				Thumbnails  struct {
					High    struct{ URL string `json:"url"` } `json:"high"`
					Default struct{ URL string `json:"url"` } `json:"default"`
				} `json:"thumbnails"`
			} `json:"snippet"`
			ContentDetails struct {
				Duration string `json:"duration"`
			} `json:"contentDetails"`
			Statistics struct {
				ViewCount    string `json:"viewCount"`
				LikeCount    string `json:"likeCount"`
				CommentCount string `json:"commentCount"`
			} `json:"statistics"`
		} `json:"items"`
	}
	if err := c.get(ctx, "videos", params, &result); err != nil {
		return nil, err
	}

	var details []VideoDetail
	for _, item := range result.Items {
		published, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		if err != nil {
			// Malformed item; callers log and skip.
			continue
		}

		thumb := item.Snippet.Thumbnails.High.URL
		if thumb == "" {
			thumb = item.Snippet.Thumbnails.Default.URL
		}

		details = append(details, VideoDetail{
			ID:              item.ID,
			ChannelID:       item.Snippet.ChannelID,
			Title:           item.Snippet.Title,
			PublishedAt:     published,
			DurationSeconds: ParseDuration(item.ContentDetails.Duration),
			ThumbnailURL:    thumb,
			ViewCount:       parseCount(item.Statistics.ViewCount),
			LikeCount:       parseCount(item.Statistics.LikeCount),
			CommentCount:    parseCount(item.Statistics.CommentCount),
		})
	}
	return details, nil
}

// SearchChannels searches for channels matching a query.
func (c *Client) SearchChannels(ctx context.Context, query, pageToken string) ([]ChannelResult, string, error) {
	params := url.Values{
		"part":       {"snippet"},
		"q":          {query},
		"type":       {"channel"},
		"maxResults": {"10"},
	}
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	var result struct {
		NextPageToken string `json:"nextPageToken"`
		Items         []struct {
			Snippet struct {
				ChannelID    string `json:"channelId"`
				ChannelTitle string `json:"channelTitle"`
				Description  string `json:"description"`
				Thumbnails   struct {
					Default struct{ URL string `json:"url"` } `json:"default"`
				} `json:"thumbnails"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := c.get(ctx, "search", params, &result); err != nil {
		return nil, "", err
	}

	var channels []ChannelResult
	for _, item := range result.Items {
		channels = append(channels, ChannelResult{
			ID:          item.Snippet.ChannelID,
			Title:       item.Snippet.ChannelTitle,
			Description: item.Snippet.Description,
			Thumbnail:   item.Snippet.Thumbnails.Default.URL,
		})
	}
	return channels, result.NextPageToken, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("building %s request: %w", endpoint, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: HTTP %d", endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return nil
}

// parseCount parses the API's stringly-typed counters. Hidden counters
// (e.g. likes disabled) arrive empty and read as zero.
func parseCount(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
