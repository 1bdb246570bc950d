package ranking

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/kongbai-rgb/tuberank/internal/database"
)

// DefaultTopN is how many entries each category's snapshot keeps.
const DefaultTopN = 50

// Result holds the results of one ranking generation cycle.
type Result struct {
	Date        string
	ShortsCount int
	LongCount   int
	Scored      int
	Ineligible  int
}

// Publisher scores every sampled video and replaces the day's ranking
// snapshots.
type Publisher struct {
	db   *database.DB
	topN int
}

// NewPublisher creates a Publisher. topN <= 0 uses the default.
func NewPublisher(db *database.DB, topN int) *Publisher {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Publisher{db: db, topN: topN}
}

// Generate computes heat scores for all sampled videos and atomically
// replaces today's snapshot for each category. If either replace fails the
// prior snapshot for that key stays authoritative; an incomplete set is
// never published.
func (p *Publisher) Generate(now time.Time) (*Result, error) {
	videos, err := p.db.GetVideosWithSamples()
	if err != nil {
		return nil, fmt.Errorf("listing sampled videos: %w", err)
	}

	baselineCutoff := now.Add(-24 * time.Hour)
	pools := map[database.Category][]Scored{
		database.CategoryShorts: nil,
		database.CategoryLong:   nil,
	}

	result := &Result{Date: now.Format("2006-01-02")}
	for _, video := range videos {
		latest, err := p.db.GetLatestSample(video.ID)
		if err != nil {
			return nil, fmt.Errorf("latest sample for %s: %w", video.ID, err)
		}
		if latest == nil {
			continue
		}

		baseline, err := p.db.GetSampleAtOrBefore(video.ID, baselineCutoff)
		if err != nil {
			return nil, fmt.Errorf("baseline sample for %s: %w", video.ID, err)
		}

		scored, eligible := HeatScore(video, *latest, baseline, now)
		if !eligible {
			result.Ineligible++
			continue
		}
		result.Scored++
		pools[scored.Category] = append(pools[scored.Category], scored)
	}

	for category, pool := range pools {
		entries := rank(pool, category, result.Date, p.topN)
		if err := p.db.ReplaceSnapshot(result.Date, category, entries); err != nil {
			return nil, fmt.Errorf("replacing %s snapshot: %w", category, err)
		}
		switch category {
		case database.CategoryShorts:
			result.ShortsCount = len(entries)
		case database.CategoryLong:
			result.LongCount = len(entries)
		}
	}

	log.Printf("Ranking published for %s: %d shorts, %d long-form (%d scored, %d below gate)",
		result.Date, result.ShortsCount, result.LongCount, result.Scored, result.Ineligible)
	return result, nil
}

// rank orders a pool descending by score, truncates, and assigns contiguous
// 1-based positions. The stable sort makes equal scores keep their
// assembly order (video id order), so repeated runs over the same data
// publish identical snapshots.
func rank(pool []Scored, category database.Category, date string, topN int) []database.RankingEntry {
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Score > pool[j].Score
	})

	if len(pool) > topN {
		pool = pool[:topN]
	}

	entries := make([]database.RankingEntry, len(pool))
	for i, s := range pool {
		entries[i] = database.RankingEntry{
			VideoID:       s.VideoID,
			Category:      category,
			Position:      i + 1,
			HeatScore:     s.Score,
			ViewIncrement: s.ViewIncrement,
			RankingDate:   date,
		}
	}
	return entries
}
