// Package refresh implements the sampling half of the system: deciding
// which tracked videos deserve fresh engagement samples under the day's
// quota budget, and collecting those samples.
package refresh

import (
	"context"
	"log"
	"time"

	"github.com/kongbai-rgb/tuberank/internal/database"
	"github.com/kongbai-rgb/tuberank/internal/discover"
	"github.com/kongbai-rgb/tuberank/internal/quota"
	"github.com/kongbai-rgb/tuberank/internal/youtube"
)

// Result holds the results of one full refresh cycle.
type Result struct {
	Discovered int
	Candidates int
	Collect    *CollectResult
}

// UploadSource yields recent uploads for a set of channels without
// spending API quota. Satisfied by discover.Discoverer.
type UploadSource interface {
	UploadsSince(ctx context.Context, channelIDs []string, cutoff time.Time) []discover.Upload
}

// Cycle runs discovery, selection, and collection as one refresh pass.
type Cycle struct {
	db            *database.DB
	uploads       UploadSource
	selector      *Selector
	collector     *Collector
	maxCandidates int
}

// NewCycle wires a refresh cycle. uploads may be nil to skip feed-based
// discovery (tests, or API-only operation).
func NewCycle(db *database.DB, provider youtube.Provider, ledger *quota.Ledger, uploads UploadSource, maxCandidates, batchSize int, batchDelay time.Duration) *Cycle {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	return &Cycle{
		db:            db,
		uploads:       uploads,
		selector:      NewSelector(db, maxCandidates),
		collector:     NewCollector(db, provider, ledger, batchSize, batchDelay),
		maxCandidates: maxCandidates,
	}
}

// Run executes one refresh cycle: discover new uploads over the channels'
// feeds, select re-sampling candidates, and collect stats for the union.
// The candidate cap applies to the union, so discovery never pushes the
// cycle past its external-call bound.
func (c *Cycle) Run(ctx context.Context, now time.Time) (*Result, error) {
	result := &Result{}

	var discovered []string
	if c.uploads != nil {
		channels, err := c.db.GetActiveChannels()
		if err != nil {
			return nil, err
		}
		channelIDs := make([]string, len(channels))
		for i, ch := range channels {
			channelIDs[i] = ch.ID
		}

		uploads := c.uploads.UploadsSince(ctx, channelIDs, now.Add(-24*time.Hour))
		touched := make(map[string]struct{})
		for _, u := range uploads {
			known, err := c.db.GetVideoByID(u.VideoID)
			if err != nil {
				return nil, err
			}
			if known == nil {
				discovered = append(discovered, u.VideoID)
			}
			touched[u.ChannelID] = struct{}{}
		}
		for id := range touched {
			if err := c.db.TouchChannel(id); err != nil {
				log.Printf("Failed to record upload check for %s: %v", id, err)
			}
		}
		result.Discovered = len(discovered)
	}

	selected, err := c.selector.Select(now)
	if err != nil {
		return nil, err
	}

	// Union with discovery first: a brand-new upload has no DB row yet, so
	// only discovery can nominate it.
	seen := make(map[string]struct{})
	var candidates []string
merge:
	for _, group := range [][]string{discovered, selected} {
		for _, id := range group {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			candidates = append(candidates, id)
			if len(candidates) >= c.maxCandidates {
				break merge
			}
		}
	}
	result.Candidates = len(candidates)

	if len(candidates) == 0 {
		log.Println("No refresh candidates this cycle")
		result.Collect = &CollectResult{}
		return result, nil
	}

	result.Collect = c.collector.Collect(ctx, candidates)
	return result, nil
}
