package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", srv.URL)
}

func TestVideoDetails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("expected api key on request, got %q", got)
		}
		if got := r.URL.Query().Get("id"); got != "vid1,vid2" {
			t.Errorf("expected joined ids, got %q", got)
		}
		w.Write([]byte(`{
			"items": [
				{
					"id": "vid1",
					"snippet": {
						"channelId": "ch1",
						"title": "First",
						"publishedAt": "2026-08-30T10:00:00Z",
						"thumbnails": {"high": {"url": "https://img/hi.jpg"}}
					},
					"contentDetails": {"duration": "PT45S"},
					"statistics": {"viewCount": "1500", "likeCount": "50", "commentCount": "10"}
				},
				{
					"id": "vid2",
					"snippet": {
						"channelId": "ch1",
						"title": "Broken date",
						"publishedAt": "not-a-date"
					},
					"contentDetails": {"duration": "PT10M"},
					"statistics": {"viewCount": "10"}
				}
			]
		}`))
	})

	details, err := client.VideoDetails(context.Background(), []string{"vid1", "vid2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(details) != 1 {
		t.Fatalf("expected malformed item skipped, got %d details", len(details))
	}

	d := details[0]
	if d.ID != "vid1" || d.ViewCount != 1500 || d.LikeCount != 50 || d.CommentCount != 10 {
		t.Errorf("unexpected detail: %+v", d)
	}
	if d.DurationSeconds != 45 || !d.IsShort() {
		t.Errorf("expected 45s Short, got %d seconds", d.DurationSeconds)
	}
	if d.ThumbnailURL != "https://img/hi.jpg" {
		t.Errorf("unexpected thumbnail %q", d.ThumbnailURL)
	}
}

func TestVideoDetailsRejectsOversizeBatch(t *testing.T) {
	client := NewClient("k", "http://unused")
	ids := make([]string, MaxBatchSize+1)
	for i := range ids {
		ids[i] = "v"
	}
	if _, err := client.VideoDetails(context.Background(), ids); err == nil {
		t.Error("expected error for batch over 50 ids")
	}
}

func TestVideoDetailsHiddenCounters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"items": [{
				"id": "vid1",
				"snippet": {"channelId": "ch1", "title": "No likes", "publishedAt": "2026-08-30T10:00:00Z"},
				"contentDetails": {"duration": "PT2M"},
				"statistics": {"viewCount": "100"}
			}]
		}`))
	})

	details, err := client.VideoDetails(context.Background(), []string{"vid1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details[0].LikeCount != 0 || details[0].CommentCount != 0 {
		t.Errorf("hidden counters should read as zero, got %+v", details[0])
	}
}

func TestChannelUploadsPlaylist(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [{"contentDetails": {"relatedPlaylists": {"uploads": "UU123"}}}]}`))
	})

	playlist, err := client.ChannelUploadsPlaylist(context.Background(), "UC123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if playlist != "UU123" {
		t.Errorf("expected UU123, got %q", playlist)
	}
}

func TestChannelUploadsPlaylistNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	})

	if _, err := client.ChannelUploadsPlaylist(context.Background(), "UCnope"); err == nil {
		t.Error("expected error for unknown channel")
	}
}

func TestPlaylistItemsPaging(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"nextPageToken": "page2",
			"items": [
				{"contentDetails": {"videoId": "a"}},
				{"contentDetails": {"videoId": "b"}}
			]
		}`))
	})

	ids, next, err := client.PlaylistItems(context.Background(), "UU123", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("unexpected ids: %v", ids)
	}
	if next != "page2" {
		t.Errorf("expected next page token, got %q", next)
	}
}

func TestHTTPErrorSurfaces(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	})

	if _, err := client.VideoDetails(context.Background(), []string{"v"}); err == nil {
		t.Error("expected error on HTTP 403")
	}
}
