package database

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustAddChannel(t *testing.T, db *DB, id, name string) {
	t.Helper()
	if _, err := db.InsertChannel(id, name, nil); err != nil {
		t.Fatalf("failed to insert channel: %v", err)
	}
}

func mustAddVideo(t *testing.T, db *DB, id, channelID string, isShort bool, publishedAt time.Time) {
	t.Helper()
	duration := 300
	if isShort {
		duration = 45
	}
	err := db.UpsertVideo(Video{
		ID:          id,
		ChannelID:   channelID,
		Title:       "Video " + id,
		Duration:    duration,
		IsShort:     isShort,
		PublishedAt: publishedAt,
	})
	if err != nil {
		t.Fatalf("failed to upsert video: %v", err)
	}
}

func mustAddSample(t *testing.T, db *DB, videoID string, views int64, capturedAt time.Time) {
	t.Helper()
	if _, err := db.InsertSample(videoID, views, views/20, views/100, capturedAt); err != nil {
		t.Fatalf("failed to insert sample: %v", err)
	}
}

func TestOpenCreatesParentDirsAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "test.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open db at nested path: %v", err)
	}
	mustAddChannel(t, db, "UC1", "Channel")
	if db.Path() != path {
		t.Errorf("expected path %s, got %s", path, db.Path())
	}
	db.Close()

	// Second open: schema is already current, data survives.
	db, err = Open(path)
	if err != nil {
		t.Fatalf("failed to reopen db: %v", err)
	}
	defer db.Close()

	c, err := db.GetChannelByID("UC1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c == nil {
		t.Error("expected channel to survive reopen")
	}
}

func TestInsertChannelDuplicate(t *testing.T) {
	db := openTestDB(t)

	added, err := db.InsertChannel("UC1", "First", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !added {
		t.Error("expected first insert to report added")
	}

	added, err = db.InsertChannel("UC1", "Again", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added {
		t.Error("expected duplicate insert to report not added")
	}
}

func TestDeactivateChannelKeepsRow(t *testing.T) {
	db := openTestDB(t)
	mustAddChannel(t, db, "UC1", "Gone")

	if err := db.DeactivateChannel("UC1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active, _ := db.GetActiveChannels()
	if len(active) != 0 {
		t.Errorf("expected no active channels, got %d", len(active))
	}

	c, _ := db.GetChannelByID("UC1")
	if c == nil {
		t.Fatal("expected channel row to survive deactivation")
	}
	if c.IsActive {
		t.Error("expected channel inactive")
	}
}

func TestUpsertVideoReclassifies(t *testing.T) {
	db := openTestDB(t)
	mustAddChannel(t, db, "UC1", "Channel")

	published := time.Now().Add(-2 * time.Hour)
	mustAddVideo(t, db, "v1", "UC1", true, published)

	v, _ := db.GetVideoByID("v1")
	if v == nil || !v.IsShort {
		t.Fatal("expected video stored as short")
	}

	// Provider re-reports a longer duration; category flips.
	err := db.UpsertVideo(Video{
		ID: "v1", ChannelID: "UC1", Title: "Video v1",
		Duration: 90, IsShort: false, PublishedAt: published,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, _ = db.GetVideoByID("v1")
	if v.IsShort || v.Duration != 90 {
		t.Errorf("expected reclassified long-form video, got %+v", v)
	}
}

func TestSamplesLatestAndBaseline(t *testing.T) {
	db := openTestDB(t)
	mustAddChannel(t, db, "UC1", "Channel")
	now := time.Now()
	mustAddVideo(t, db, "v1", "UC1", false, now.Add(-48*time.Hour))

	mustAddSample(t, db, "v1", 1000, now.Add(-30*time.Hour))
	mustAddSample(t, db, "v1", 1200, now.Add(-25*time.Hour))
	mustAddSample(t, db, "v1", 1500, now.Add(-1*time.Hour))

	latest, err := db.GetLatestSample("v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest == nil || latest.ViewCount != 1500 {
		t.Fatalf("expected latest views 1500, got %+v", latest)
	}

	baseline, err := db.GetSampleAtOrBefore("v1", now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if baseline == nil || baseline.ViewCount != 1200 {
		t.Fatalf("expected baseline views 1200 (nearest at or before cutoff), got %+v", baseline)
	}

	none, err := db.GetSampleAtOrBefore("v1", now.Add(-40*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if none != nil {
		t.Errorf("expected no baseline before first sample, got %+v", none)
	}
}

func TestGetLatestSampleNone(t *testing.T) {
	db := openTestDB(t)
	mustAddChannel(t, db, "UC1", "Channel")
	mustAddVideo(t, db, "v1", "UC1", false, time.Now())

	latest, err := db.GetLatestSample("v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest != nil {
		t.Errorf("expected nil for unsampled video, got %+v", latest)
	}
}

func TestGetVideoIDsPublishedSince(t *testing.T) {
	db := openTestDB(t)
	mustAddChannel(t, db, "UC1", "Channel")
	now := time.Now()

	mustAddVideo(t, db, "fresh", "UC1", false, now.Add(-2*time.Hour))
	mustAddVideo(t, db, "stale", "UC1", false, now.Add(-72*time.Hour))

	ids, err := db.GetVideoIDsPublishedSince(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "fresh" {
		t.Errorf("expected [fresh], got %v", ids)
	}
}

func TestGetMomentumVideoIDs(t *testing.T) {
	db := openTestDB(t)
	mustAddChannel(t, db, "UC1", "Channel")
	now := time.Now()

	// Published 3 days ago, gained 2000 views across today's samples.
	mustAddVideo(t, db, "mover", "UC1", false, now.Add(-72*time.Hour))
	mustAddSample(t, db, "mover", 10000, now.Add(-20*time.Hour))
	mustAddSample(t, db, "mover", 12000, now.Add(-1*time.Hour))

	// Published 3 days ago, flat.
	mustAddVideo(t, db, "flat", "UC1", false, now.Add(-72*time.Hour))
	mustAddSample(t, db, "flat", 500, now.Add(-20*time.Hour))
	mustAddSample(t, db, "flat", 600, now.Add(-1*time.Hour))

	// Moving, but published outside the 7-day window.
	mustAddVideo(t, db, "old", "UC1", false, now.Add(-10*24*time.Hour))
	mustAddSample(t, db, "old", 10000, now.Add(-20*time.Hour))
	mustAddSample(t, db, "old", 50000, now.Add(-1*time.Hour))

	ids, err := db.GetMomentumVideoIDs(now.Add(-7*24*time.Hour), now.Add(-24*time.Hour), 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "mover" {
		t.Errorf("expected [mover], got %v", ids)
	}
}

func TestReplaceSnapshotSupersedes(t *testing.T) {
	db := openTestDB(t)
	mustAddChannel(t, db, "UC1", "Channel")
	now := time.Now()
	mustAddVideo(t, db, "a", "UC1", true, now)
	mustAddVideo(t, db, "b", "UC1", true, now)
	mustAddVideo(t, db, "c", "UC1", true, now)

	date := Today()
	first := []RankingEntry{
		{VideoID: "a", Position: 1, HeatScore: 900, ViewIncrement: 500},
		{VideoID: "b", Position: 2, HeatScore: 400, ViewIncrement: 300},
	}
	if err := db.ReplaceSnapshot(date, CategoryShorts, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := []RankingEntry{
		{VideoID: "c", Position: 1, HeatScore: 1200, ViewIncrement: 800},
	}
	if err := db.ReplaceSnapshot(date, CategoryShorts, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := db.GetSnapshotEntries(date, CategoryShorts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].VideoID != "c" || entries[0].Position != 1 {
		t.Errorf("expected second snapshot to fully supersede the first, got %+v", entries)
	}
}

func TestReplaceSnapshotScopedByCategory(t *testing.T) {
	db := openTestDB(t)
	mustAddChannel(t, db, "UC1", "Channel")
	now := time.Now()
	mustAddVideo(t, db, "s", "UC1", true, now)
	mustAddVideo(t, db, "l", "UC1", false, now)

	date := Today()
	db.ReplaceSnapshot(date, CategoryShorts, []RankingEntry{
		{VideoID: "s", Position: 1, HeatScore: 100, ViewIncrement: 150},
	})
	db.ReplaceSnapshot(date, CategoryLong, []RankingEntry{
		{VideoID: "l", Position: 1, HeatScore: 200, ViewIncrement: 250},
	})

	// Replacing shorts must not touch the long-form snapshot.
	db.ReplaceSnapshot(date, CategoryShorts, nil)

	longEntries, _ := db.GetSnapshotEntries(date, CategoryLong)
	if len(longEntries) != 1 {
		t.Errorf("expected long snapshot untouched, got %+v", longEntries)
	}
	shortEntries, _ := db.GetSnapshotEntries(date, CategoryShorts)
	if len(shortEntries) != 0 {
		t.Errorf("expected empty shorts snapshot, got %+v", shortEntries)
	}
}

func TestGetRankingJoins(t *testing.T) {
	db := openTestDB(t)
	mustAddChannel(t, db, "UC1", "My Channel")
	now := time.Now()
	mustAddVideo(t, db, "v1", "UC1", true, now.Add(-5*time.Hour))
	mustAddSample(t, db, "v1", 1000, now.Add(-25*time.Hour))
	mustAddSample(t, db, "v1", 1500, now.Add(-1*time.Hour))

	date := Today()
	db.ReplaceSnapshot(date, CategoryShorts, []RankingEntry{
		{VideoID: "v1", Position: 1, HeatScore: 1724.67, ViewIncrement: 500},
	})

	ranked, err := db.GetRanking(date, CategoryShorts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 1 {
		t.Fatalf("expected 1 ranked video, got %d", len(ranked))
	}

	rv := ranked[0]
	if rv.ChannelName != "My Channel" {
		t.Errorf("expected channel name joined, got %q", rv.ChannelName)
	}
	if rv.ViewCount != 1500 {
		t.Errorf("expected latest sample joined (1500 views), got %d", rv.ViewCount)
	}
	if rv.Position != 1 || rv.Category != CategoryShorts {
		t.Errorf("unexpected entry: %+v", rv)
	}
}

func TestGetRankingEmptyDate(t *testing.T) {
	db := openTestDB(t)

	ranked, err := db.GetRanking("1999-01-01", CategoryShorts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 0 {
		t.Errorf("expected empty result for unpublished date, got %d", len(ranked))
	}
}

func TestGetRankedVideoIDs(t *testing.T) {
	db := openTestDB(t)
	mustAddChannel(t, db, "UC1", "Channel")
	now := time.Now()
	mustAddVideo(t, db, "s1", "UC1", true, now)
	mustAddVideo(t, db, "l1", "UC1", false, now)

	date := Today()
	db.ReplaceSnapshot(date, CategoryShorts, []RankingEntry{
		{VideoID: "s1", Position: 1, HeatScore: 10, ViewIncrement: 100},
	})
	db.ReplaceSnapshot(date, CategoryLong, []RankingEntry{
		{VideoID: "l1", Position: 1, HeatScore: 20, ViewIncrement: 200},
	})

	ids, err := db.GetRankedVideoIDs(date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 ranked ids across categories, got %v", ids)
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	mustAddChannel(t, db, "UC1", "Channel")
	now := time.Now()
	mustAddVideo(t, db, "s1", "UC1", true, now)
	mustAddVideo(t, db, "l1", "UC1", false, now)
	mustAddSample(t, db, "s1", 100, now)

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.ActiveChannels != 1 || stats.TotalVideos != 2 || stats.TotalShorts != 1 || stats.TotalLongVideos != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.TotalSamples != 1 {
		t.Errorf("expected 1 sample, got %d", stats.TotalSamples)
	}
}
