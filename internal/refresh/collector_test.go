package refresh

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/kongbai-rgb/tuberank/internal/database"
	"github.com/kongbai-rgb/tuberank/internal/quota"
	"github.com/kongbai-rgb/tuberank/internal/youtube"
)

// fakeProvider serves canned video details and records which batches were
// requested.
type fakeProvider struct {
	details map[string]youtube.VideoDetail
	batches [][]string
	fail    map[int]error // batch index -> error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		details: make(map[string]youtube.VideoDetail),
		fail:    make(map[int]error),
	}
}

func (f *fakeProvider) addVideo(id string, views int64) {
	f.details[id] = youtube.VideoDetail{
		ID:              id,
		ChannelID:       "UC1",
		Title:           "Video " + id,
		PublishedAt:     time.Now().Add(-6 * time.Hour),
		DurationSeconds: 45,
		ViewCount:       views,
		LikeCount:       views / 20,
		CommentCount:    views / 100,
	}
}

func (f *fakeProvider) VideoDetails(ctx context.Context, ids []string) ([]youtube.VideoDetail, error) {
	idx := len(f.batches)
	f.batches = append(f.batches, ids)
	if err, ok := f.fail[idx]; ok {
		return nil, err
	}
	var out []youtube.VideoDetail
	for _, id := range ids {
		if d, ok := f.details[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeProvider) ChannelUploadsPlaylist(ctx context.Context, channelID string) (string, error) {
	return "UU" + channelID[2:], nil
}

func (f *fakeProvider) PlaylistItems(ctx context.Context, playlistID, pageToken string) ([]string, string, error) {
	return nil, "", nil
}

func (f *fakeProvider) SearchChannels(ctx context.Context, query, pageToken string) ([]youtube.ChannelResult, string, error) {
	return nil, "", nil
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.InsertChannel("UC1", "Channel", nil); err != nil {
		t.Fatalf("failed to seed channel: %v", err)
	}
	return db
}

func testLedger(limit int) *quota.Ledger {
	return quota.NewLedger(limit, limit, nil)
}

func candidateIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("vid%03d", i)
	}
	return ids
}

func TestCollectSamplesAllWithinQuota(t *testing.T) {
	db := openTestDB(t)
	provider := newFakeProvider()
	ids := candidateIDs(3)
	for _, id := range ids {
		provider.addVideo(id, 1000)
	}

	collector := NewCollector(db, provider, testLedger(100), 50, time.Millisecond)
	result := collector.Collect(context.Background(), ids)

	if result.Sampled != 3 || result.Failed != 0 || result.Batches != 1 {
		t.Errorf("unexpected result: %+v", result)
	}

	for _, id := range ids {
		sample, err := db.GetLatestSample(id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sample == nil || sample.ViewCount != 1000 {
			t.Errorf("expected sample recorded for %s, got %+v", id, sample)
		}
	}
}

func TestCollectStopsWhenQuotaExhausted(t *testing.T) {
	db := openTestDB(t)
	provider := newFakeProvider()
	ids := candidateIDs(120)
	for _, id := range ids {
		provider.addVideo(id, 1000)
	}

	// Two units left: batches of 50 cover 100 candidates, then the third
	// reservation is declined and the cycle ends partial.
	collector := NewCollector(db, provider, testLedger(2), 50, time.Millisecond)
	result := collector.Collect(context.Background(), ids)

	if !result.QuotaExhausted {
		t.Error("expected quota exhaustion")
	}
	if result.Batches != 2 {
		t.Errorf("expected 2 batches charged, got %d", result.Batches)
	}
	if result.Sampled != 100 {
		t.Errorf("expected 100 sampled before exhaustion, got %d", result.Sampled)
	}
	if len(provider.batches) != 2 {
		t.Errorf("expected no provider call past the declined reservation, got %d calls", len(provider.batches))
	}
}

func TestCollectBatchFailureSkipsNotAborts(t *testing.T) {
	db := openTestDB(t)
	provider := newFakeProvider()
	ids := candidateIDs(4)
	for _, id := range ids {
		provider.addVideo(id, 1000)
	}
	provider.fail[0] = errors.New("transient 500")

	collector := NewCollector(db, provider, testLedger(100), 2, time.Millisecond)
	result := collector.Collect(context.Background(), ids)

	if result.Failed != 2 {
		t.Errorf("expected failed batch's 2 candidates marked failed, got %d", result.Failed)
	}
	if result.Sampled != 2 {
		t.Errorf("expected second batch still sampled, got %d", result.Sampled)
	}
	if result.QuotaExhausted {
		t.Error("batch failure is not quota exhaustion")
	}
}

func TestCollectCountsDroppedIDs(t *testing.T) {
	db := openTestDB(t)
	provider := newFakeProvider()
	provider.addVideo("vid000", 1000)
	// vid001 deliberately unknown to the provider (deleted video).

	collector := NewCollector(db, provider, testLedger(100), 50, time.Millisecond)
	result := collector.Collect(context.Background(), []string{"vid000", "vid001"})

	if result.Sampled != 1 || result.Failed != 1 {
		t.Errorf("expected 1 sampled / 1 dropped, got %+v", result)
	}
}

func TestCollectUpsertsVideoMetadata(t *testing.T) {
	db := openTestDB(t)
	provider := newFakeProvider()
	provider.addVideo("vid000", 1000)

	collector := NewCollector(db, provider, testLedger(100), 50, time.Millisecond)
	collector.Collect(context.Background(), []string{"vid000"})

	v, err := db.GetVideoByID("vid000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v == nil {
		t.Fatal("expected video row created from provider detail")
	}
	if !v.IsShort || v.Duration != 45 {
		t.Errorf("expected 45s short, got %+v", v)
	}
}
