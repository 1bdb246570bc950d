package refresh

import (
	"context"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/kongbai-rgb/tuberank/internal/database"
	"github.com/kongbai-rgb/tuberank/internal/quota"
	"github.com/kongbai-rgb/tuberank/internal/youtube"
)

// CollectResult holds the results of one stats collection run. Partial
// completion under quota pressure is the normal outcome, not an error.
type CollectResult struct {
	Requested      int
	Batches        int
	Sampled        int
	Failed         int
	QuotaExhausted bool
}

// Collector resolves video details in batches and appends one engagement
// sample per resolved video.
type Collector struct {
	db        *database.DB
	provider  youtube.Provider
	ledger    *quota.Ledger
	batchSize int
	pacer     *rate.Limiter
}

// NewCollector creates a stats collector. batchSize is clamped to the
// provider's per-call maximum; batchDelay paces consecutive provider calls.
func NewCollector(db *database.DB, provider youtube.Provider, ledger *quota.Ledger, batchSize int, batchDelay time.Duration) *Collector {
	if batchSize <= 0 || batchSize > youtube.MaxBatchSize {
		batchSize = youtube.MaxBatchSize
	}
	if batchDelay <= 0 {
		batchDelay = time.Second
	}
	return &Collector{
		db:        db,
		provider:  provider,
		ledger:    ledger,
		batchSize: batchSize,
		pacer:     rate.NewLimiter(rate.Every(batchDelay), 1),
	}
}

// Collect fetches current stats for the candidate ids and appends samples.
// It stops early when the quota ledger declines a reservation or the
// context is cancelled, returning whatever was collected so far.
func (c *Collector) Collect(ctx context.Context, ids []string) *CollectResult {
	result := &CollectResult{Requested: len(ids)}

	for start := 0; start < len(ids); start += c.batchSize {
		end := start + c.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		// Pacing, not correctness: avoid bursting the provider.
		if err := c.pacer.Wait(ctx); err != nil {
			return result
		}

		if !c.ledger.Reserve(youtube.CostList) {
			log.Printf("Quota exhausted with %d of %d candidates remaining", len(ids)-start, len(ids))
			result.QuotaExhausted = true
			return result
		}
		result.Batches++

		details, err := c.provider.VideoDetails(ctx, batch)
		if err != nil {
			log.Printf("videos.list failed for batch of %d: %v", len(batch), err)
			result.Failed += len(batch)
			continue
		}

		returned := make(map[string]struct{}, len(details))
		now := time.Now()
		for _, d := range details {
			returned[d.ID] = struct{}{}
			if err := c.record(d, now); err != nil {
				log.Printf("Failed to record sample for %s: %v", d.ID, err)
				result.Failed++
				continue
			}
			result.Sampled++
		}

		// Ids the provider silently dropped (deleted or private videos).
		result.Failed += len(batch) - len(returned)
	}

	log.Printf("Collection complete: %d sampled, %d failed, %d batches", result.Sampled, result.Failed, result.Batches)
	return result
}

// record upserts the video's metadata and appends the engagement sample.
// Sample appends are idempotent to retry at the cycle level: a duplicate
// observation is just another point on the time series.
func (c *Collector) record(d youtube.VideoDetail, capturedAt time.Time) error {
	var thumb *string
	if d.ThumbnailURL != "" {
		thumb = &d.ThumbnailURL
	}
	video := database.Video{
		ID:           d.ID,
		ChannelID:    d.ChannelID,
		Title:        d.Title,
		Duration:     d.DurationSeconds,
		IsShort:      d.IsShort(),
		PublishedAt:  d.PublishedAt,
		ThumbnailURL: thumb,
	}
	if err := c.db.UpsertVideo(video); err != nil {
		return err
	}

	_, err := c.db.InsertSample(d.ID, d.ViewCount, d.LikeCount, d.CommentCount, capturedAt)
	return err
}
